package goSession

import (
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/session"
)

// User is the authenticated identity. Name is optional.
type User = session.User

// State is the session lifecycle state.
type State uint8

const (
	// StateLoading is the initial state until startup rehydration finishes.
	StateLoading State = iota
	// StateUnauthenticated means no user is signed in.
	StateUnauthenticated
	// StateAuthenticated means a user and token are present.
	StateAuthenticated
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Only the three state
// names are accepted.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "loading":
		*s = StateLoading
	case "unauthenticated":
		*s = StateUnauthenticated
	case "authenticated":
		*s = StateAuthenticated
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// Snapshot is a read-only copy of the session at one point in time.
//
// User is nil and Token empty unless IsAuthenticated. EmailVerified and
// TwoFactorEnabled are in-memory flags reset by logout and by every new
// login or registration.
type Snapshot struct {
	User             *User  `json:"user"`
	Token            string `json:"token,omitempty"`
	IsAuthenticated  bool   `json:"isAuthenticated"`
	IsLoading        bool   `json:"isLoading"`
	State            State  `json:"state"`
	EmailVerified    bool   `json:"emailVerified"`
	TwoFactorEnabled bool   `json:"twoFactorEnabled"`
}

// NotificationKind classifies a notification.
type NotificationKind string

const (
	// NotifySuccess marks a successful operation outcome.
	NotifySuccess NotificationKind = "success"
	// NotifyError marks a failed operation outcome.
	NotifyError NotificationKind = "error"
)

// Notification is the user-facing outcome of one operation.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Operation   Operation        `json:"operation"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Operation names a Manager operation in notifications, logs and metrics.
type Operation string

const (
	OpLogin                Operation = "login"
	OpRegister             Operation = "register"
	OpLogout               Operation = "logout"
	OpRequestPasswordReset Operation = "request_password_reset"
	OpResetPassword        Operation = "reset_password"
	OpSendVerificationCode Operation = "send_verification_code"
	OpVerifyEmail          Operation = "verify_email"
	OpEnableTwoFactor      Operation = "enable_two_factor"
	OpDisableTwoFactor     Operation = "disable_two_factor"
	OpChangePassword       Operation = "change_password"
)
