package internaldefs

import (
	"strconv"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one goSession counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one goSession histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// BucketCount is the number of histogram buckets, the unbounded one included.
const BucketCount = 8

// DroppedName is the counter of notifications lost to dispatcher backpressure.
const (
	DroppedName = "gosession_notifications_dropped_total"
	DroppedHelp = "Notifications dropped due to dispatcher backpressure."
)

var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful logins."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed logins, validation failures included."},
	{ID: goSession.MetricRegisterSuccess, Name: "gosession_register_success_total", Help: "Successful registrations."},
	{ID: goSession.MetricRegisterFailure, Name: "gosession_register_failure_total", Help: "Failed registrations."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logouts."},
	{ID: goSession.MetricPasswordResetRequest, Name: "gosession_password_reset_request_total", Help: "Accepted password reset requests."},
	{ID: goSession.MetricPasswordResetRequestFailure, Name: "gosession_password_reset_request_failure_total", Help: "Rejected password reset requests."},
	{ID: goSession.MetricPasswordResetSuccess, Name: "gosession_password_reset_success_total", Help: "Completed password resets."},
	{ID: goSession.MetricPasswordResetFailure, Name: "gosession_password_reset_failure_total", Help: "Failed password resets."},
	{ID: goSession.MetricVerificationCodeSent, Name: "gosession_verification_code_sent_total", Help: "Verification codes sent."},
	{ID: goSession.MetricEmailVerificationSuccess, Name: "gosession_email_verification_success_total", Help: "Verified emails."},
	{ID: goSession.MetricEmailVerificationFailure, Name: "gosession_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: goSession.MetricTwoFactorEnabled, Name: "gosession_two_factor_enabled_total", Help: "Two-factor enablements."},
	{ID: goSession.MetricTwoFactorDisabled, Name: "gosession_two_factor_disabled_total", Help: "Two-factor disablements."},
	{ID: goSession.MetricTwoFactorFailure, Name: "gosession_two_factor_failure_total", Help: "Rejected two-factor changes."},
	{ID: goSession.MetricPasswordChangeSuccess, Name: "gosession_password_change_success_total", Help: "Password changes."},
	{ID: goSession.MetricPasswordChangeFailure, Name: "gosession_password_change_failure_total", Help: "Rejected password changes."},
	{ID: goSession.MetricRehydrateRestored, Name: "gosession_rehydrate_restored_total", Help: "Startups that restored a persisted session."},
	{ID: goSession.MetricRehydrateEmpty, Name: "gosession_rehydrate_empty_total", Help: "Startups without a persisted session."},
	{ID: goSession.MetricRehydrateCorrupt, Name: "gosession_rehydrate_corrupt_total", Help: "Startups that discarded a corrupt or partial record."},
	{ID: goSession.MetricPersistFailure, Name: "gosession_persist_failure_total", Help: "Failed storage writes or removals."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricOperationLatency, Name: "gosession_operation_latency_seconds", Help: "Latency of awaited session operations."},
}

// HistogramBounds returns the bucket upper bounds in seconds. The last bucket
// is unbounded and not listed.
func HistogramBounds() []float64 {
	bounds := goSession.HistogramBucketBounds()
	out := make([]float64, len(bounds))
	for i, b := range bounds {
		out[i] = b.Seconds()
	}
	return out
}

// HistogramBoundSuffix returns metric-name-safe forms of every bound,
// ending with "inf".
func HistogramBoundSuffix() []string {
	bounds := HistogramBounds()
	out := make([]string, 0, len(bounds)+1)
	for _, b := range bounds {
		out = append(out, strings.ReplaceAll(strconv.FormatFloat(b, 'f', -1, 64), ".", "_"))
	}
	return append(out, "inf")
}

// NormalizeBuckets copies raw into a fixed-size array, padding with zeros.
func NormalizeBuckets(raw []uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [BucketCount]uint64) [BucketCount]uint64 {
	var out [BucketCount]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
