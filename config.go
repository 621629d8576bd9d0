package goSession

import (
	"errors"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// Config holds every tunable of a [Manager]. Start from [DefaultConfig].
type Config struct {
	Session       SessionConfig      `koanf:"session"`
	Mock          MockConfig         `koanf:"mock"`
	Password      PasswordConfig     `koanf:"password"`
	Verification  VerificationConfig `koanf:"verification"`
	Notifications NotificationConfig `koanf:"notifications"`
	Metrics       MetricsConfig      `koanf:"metrics"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig names the durable slots and tunes the Redis backend.
type SessionConfig struct {
	TokenSlot     string        `koanf:"token_slot"`
	UserSlot      string        `koanf:"user_slot"`
	RedisPrefix   string        `koanf:"redis_prefix"`
	RedisTTL      time.Duration `koanf:"redis_ttl"`
	JitterEnabled bool          `koanf:"jitter_enabled"`
	JitterRange   time.Duration `koanf:"jitter_range"`
}

/*
====================================
MOCK BACKEND CONFIG
====================================
*/

// MockConfig drives [MockBackend]. Latency simulates the network round trip of
// every call; VerificationLatency applies to sending verification codes.
type MockConfig struct {
	Latency             time.Duration `koanf:"latency"`
	VerificationLatency time.Duration `koanf:"verification_latency"`
	UserIDPrefix        string        `koanf:"user_id_prefix"`
	TokenPrefix         string        `koanf:"token_prefix"`
	TwoFactorCode       string        `koanf:"two_factor_code"`
}

// PasswordConfig holds the password change policy.
type PasswordConfig struct {
	MinLength int `koanf:"min_length"`
}

// VerificationConfig holds the shape of email and two-factor codes.
type VerificationConfig struct {
	CodeDigits int `koanf:"code_digits"`
}

// NotificationConfig selects synchronous or buffered asynchronous delivery.
type NotificationConfig struct {
	Enabled    bool `koanf:"enabled"`
	Async      bool `koanf:"async"`
	BufferSize int  `koanf:"buffer_size"`
	DropIfFull bool `koanf:"drop_if_full"`
}

// MetricsConfig enables counters and the operation latency histogram.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration matching the original demo: one second
// of simulated latency, 1.5 seconds for verification codes, six-digit codes and a
// six character minimum for password changes.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TokenSlot:     session.DefaultTokenSlot,
			UserSlot:      session.DefaultUserSlot,
			RedisPrefix:   "gs",
			RedisTTL:      0,
			JitterEnabled: false,
			JitterRange:   30 * time.Second,
		},
		Mock: MockConfig{
			Latency:             time.Second,
			VerificationLatency: 1500 * time.Millisecond,
			UserIDPrefix:        "user_",
			TokenPrefix:         "mock_token_",
			TwoFactorCode:       "123456",
		},
		Password: PasswordConfig{
			MinLength: 6,
		},
		Verification: VerificationConfig{
			CodeDigits: 6,
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			Async:      false,
			BufferSize: 64,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// Config holds no reference types today; the copy is already deep.
	return cfg
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Session.TokenSlot == "" || c.Session.UserSlot == "" {
		return errors.New("session slot names must be non-empty")
	}
	if c.Session.TokenSlot == c.Session.UserSlot {
		return errors.New("session token and user slots must differ")
	}
	if c.Session.RedisTTL < 0 {
		return errors.New("session RedisTTL must be >= 0")
	}
	if c.Session.JitterEnabled {
		if c.Session.JitterRange <= 0 {
			return errors.New("session JitterRange must be > 0 when jitter is enabled")
		}
		if c.Session.RedisTTL > 0 && c.Session.JitterRange >= c.Session.RedisTTL {
			return errors.New("session JitterRange must be smaller than RedisTTL")
		}
	}

	if c.Mock.Latency < 0 || c.Mock.VerificationLatency < 0 {
		return errors.New("mock latencies must be >= 0")
	}

	if c.Verification.CodeDigits < 4 || c.Verification.CodeDigits > 10 {
		return errors.New("verification CodeDigits must be between 4 and 10")
	}
	if c.Mock.TwoFactorCode != "" && len(c.Mock.TwoFactorCode) != c.Verification.CodeDigits {
		return errors.New("mock TwoFactorCode must have Verification.CodeDigits digits")
	}

	if c.Password.MinLength < 1 {
		return errors.New("password MinLength must be >= 1")
	}

	if c.Notifications.Enabled && c.Notifications.Async && c.Notifications.BufferSize <= 0 {
		return errors.New("notifications BufferSize must be > 0 when async")
	}

	return nil
}
