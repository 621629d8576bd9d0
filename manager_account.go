package goSession

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goSession/internal"
)

/*
====================================
ACCOUNT OPERATIONS
====================================
*/

// SendVerificationCode asks the backend to email a verification code. It
// requires a signed-in user; an empty email falls back to that user's address.
func (m *Manager) SendVerificationCode(ctx context.Context, email string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	u, ok := m.currentUser()
	if !ok {
		m.metrics.Inc(MetricEmailVerificationFailure)
		m.fail(ctx, OpSendVerificationCode, "Failed to send code", ErrNotAuthenticated)
		return ErrNotAuthenticated
	}
	if email == "" {
		email = u.Email
	}
	if email == "" {
		m.metrics.Inc(MetricEmailVerificationFailure)
		m.failWith(ctx, OpSendVerificationCode, "Email required",
			"Please enter your email address.")
		return ErrEmailRequired
	}

	err := ErrBackendUnavailable
	if m.account != nil {
		err = m.account.SendVerificationCode(ctx, email)
	}
	if err != nil {
		m.metrics.Inc(MetricEmailVerificationFailure)
		m.fail(ctx, OpSendVerificationCode, "Failed to send code", err)
		return err
	}

	m.metrics.Inc(MetricVerificationCodeSent)
	m.succeed(ctx, OpSendVerificationCode, "Verification code sent",
		fmt.Sprintf("A %d-digit verification code has been sent to %s", m.config.Verification.CodeDigits, email))
	return nil
}

// VerifyEmail confirms the signed-in user's email with code and marks it
// verified.
func (m *Manager) VerifyEmail(ctx context.Context, code string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	digits := m.config.Verification.CodeDigits
	if !internal.IsNumericCode(code, digits) {
		m.metrics.Inc(MetricEmailVerificationFailure)
		m.failWith(ctx, OpVerifyEmail, "Invalid code",
			fmt.Sprintf("Please enter the complete %d-digit code.", digits))
		return ErrVerificationCodeInvalid
	}

	err := m.withAccount(ctx, func(ctx context.Context, u User) error {
		return m.account.VerifyEmail(ctx, u.Email, code)
	}, func() { m.emailVerified = true })
	if err != nil {
		m.metrics.Inc(MetricEmailVerificationFailure)
		m.fail(ctx, OpVerifyEmail, "Verification failed", err)
		return err
	}

	m.metrics.Inc(MetricEmailVerificationSuccess)
	m.succeed(ctx, OpVerifyEmail, "Email verified successfully", "Your email has been verified.")
	return nil
}

// EnableTwoFactor turns on two-factor authentication after the backend accepts
// code.
func (m *Manager) EnableTwoFactor(ctx context.Context, code string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	if !internal.IsNumericCode(code, m.config.Verification.CodeDigits) {
		m.metrics.Inc(MetricTwoFactorFailure)
		m.fail(ctx, OpEnableTwoFactor, "Invalid code", ErrTwoFactorCodeInvalid)
		return ErrTwoFactorCodeInvalid
	}

	err := m.withAccount(ctx, func(ctx context.Context, u User) error {
		return m.account.EnableTwoFactor(ctx, u, code)
	}, func() { m.twoFactorEnabled = true })
	if err != nil {
		m.metrics.Inc(MetricTwoFactorFailure)
		title := "Setup failed"
		if errors.Is(err, ErrTwoFactorCodeInvalid) {
			title = "Invalid code"
		}
		m.fail(ctx, OpEnableTwoFactor, title, err)
		return err
	}

	m.metrics.Inc(MetricTwoFactorEnabled)
	m.succeed(ctx, OpEnableTwoFactor, "Two-Factor Authentication enabled",
		"Your account is now protected with 2FA.")
	return nil
}

// DisableTwoFactor turns two-factor authentication off.
func (m *Manager) DisableTwoFactor(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	err := m.withAccount(ctx, func(ctx context.Context, u User) error {
		return m.account.DisableTwoFactor(ctx, u)
	}, func() { m.twoFactorEnabled = false })
	if err != nil {
		m.metrics.Inc(MetricTwoFactorFailure)
		m.fail(ctx, OpDisableTwoFactor, "Disable failed", err)
		return err
	}

	m.metrics.Inc(MetricTwoFactorDisabled)
	m.succeed(ctx, OpDisableTwoFactor, "Two-Factor Authentication disabled",
		"2FA has been disabled for your account.")
	return nil
}

// ChangePassword replaces the signed-in user's password. The confirmation must
// match and the new password must meet Config.Password.MinLength.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword, confirm string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	ctx = orBackground(ctx)
	defer m.begin()()

	if newPassword != confirm {
		m.metrics.Inc(MetricPasswordChangeFailure)
		m.fail(ctx, OpChangePassword, "Password mismatch", ErrPasswordMismatch)
		return ErrPasswordMismatch
	}
	if minLen := m.config.Password.MinLength; len(newPassword) < minLen {
		m.metrics.Inc(MetricPasswordChangeFailure)
		m.failWith(ctx, OpChangePassword, "Password too short",
			fmt.Sprintf("Password must be at least %d characters long.", minLen))
		return ErrPasswordTooShort
	}

	err := m.withAccount(ctx, func(ctx context.Context, u User) error {
		return m.account.ChangePassword(ctx, u, currentPassword, newPassword)
	}, nil)
	if err != nil {
		m.metrics.Inc(MetricPasswordChangeFailure)
		m.fail(ctx, OpChangePassword, "Password change failed", err)
		return err
	}

	m.metrics.Inc(MetricPasswordChangeSuccess)
	m.succeed(ctx, OpChangePassword, "Password changed", "Your password has been successfully updated.")
	return nil
}

// withAccount runs call for the signed-in user and applies commit under the
// record lock, but only if that same user is still signed in afterwards.
func (m *Manager) withAccount(ctx context.Context, call func(context.Context, User) error, commit func()) error {
	if m.account == nil {
		return ErrBackendUnavailable
	}
	u, ok := m.currentUser()
	if !ok {
		return ErrNotAuthenticated
	}

	if err := call(ctx, u); err != nil {
		return err
	}

	m.mu.Lock()
	if m.user == nil || m.user.ID != u.ID {
		m.mu.Unlock()
		return ErrNotAuthenticated
	}
	if commit != nil {
		commit()
	}
	m.mu.Unlock()
	m.publish()
	return nil
}

// failWith reports a validation failure whose description depends on config.
func (m *Manager) failWith(ctx context.Context, op Operation, title, description string) {
	m.notify(ctx, Notification{
		Kind:        NotifyError,
		Title:       title,
		Description: description,
		Operation:   op,
	})
}
