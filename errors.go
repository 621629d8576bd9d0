package goSession

import (
	"errors"

	"github.com/MrEthical07/goSession/session"
)

// ValidationError is the type of every input validation failure. Its message is
// the user-facing description carried by the error notification.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	// ErrCredentialsRequired is returned by Login and Register when email or password is empty.
	ErrCredentialsRequired error = &ValidationError{msg: "Email and password are required"}
	// ErrEmailRequired is returned when a required email is empty.
	ErrEmailRequired error = &ValidationError{msg: "Email is required"}
	// ErrResetInvalid is returned by ResetPassword when token or password is empty.
	ErrResetInvalid error = &ValidationError{msg: "Invalid token or password"}
	// ErrVerificationCodeInvalid is returned when a code is not the configured number of digits.
	ErrVerificationCodeInvalid error = &ValidationError{msg: "Please enter the complete verification code."}
	// ErrTwoFactorCodeInvalid is returned when the backend rejects a two-factor code.
	ErrTwoFactorCodeInvalid error = &ValidationError{msg: "Please enter the correct verification code."}
	// ErrPasswordMismatch is returned by ChangePassword when the confirmation differs.
	ErrPasswordMismatch error = &ValidationError{msg: "New password and confirmation don't match."}
	// ErrPasswordTooShort is returned by ChangePassword when the new password is below the minimum length.
	ErrPasswordTooShort error = &ValidationError{msg: "Password is below the minimum length."}
)

var (
	// ErrDeserialization marks a corrupt persisted record found at startup. It is
	// recovered locally and only ever logged.
	ErrDeserialization = session.ErrRecordCorrupt
	// ErrNotAuthenticated is returned by account operations without a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPersistFailed is returned when a successful backend call could not be persisted.
	ErrPersistFailed = errors.New("session persist failed")
	// ErrManagerNotReady is returned by methods on a nil or unbuilt Manager.
	ErrManagerNotReady = errors.New("session manager not initialized")
	// ErrBackendUnavailable is returned when no backend implements the requested capability.
	ErrBackendUnavailable = errors.New("auth backend unavailable")
)
