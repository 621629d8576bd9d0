package goSession

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/internal"
	"github.com/MrEthical07/goSession/session"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// MockBackend implements [AuthBackend] and [AccountBackend] without any server.
// Every call waits the configured latency, then succeeds with random
// placeholder identifiers. None of its output is suitable as a credential.
//
// The reset token and verification code it would have emailed are kept so
// demos and tests can complete the flows.
type MockBackend struct {
	cfg        MockConfig
	codeDigits int

	mu                   sync.Mutex
	lastResetEmail       string
	lastResetToken       string
	lastVerificationCode string
}

// NewMockBackend creates a [MockBackend] from cfg.Mock and cfg.Verification.
func NewMockBackend(cfg Config) *MockBackend {
	digits := cfg.Verification.CodeDigits
	if digits <= 0 {
		digits = 6
	}
	return &MockBackend{
		cfg:        cfg.Mock,
		codeDigits: digits,
	}
}

func (b *MockBackend) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MockBackend) issue(email, name string) Credentials {
	if name == "" {
		name = session.LocalPart(email)
	}
	return Credentials{
		User: User{
			ID:    b.cfg.UserIDPrefix + strings.ToLower(ulid.Make().String()),
			Email: email,
			Name:  name,
		},
		Token: b.cfg.TokenPrefix + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// Login accepts any credentials.
func (b *MockBackend) Login(ctx context.Context, email, _ string) (Credentials, error) {
	if err := b.wait(ctx, b.cfg.Latency); err != nil {
		return Credentials{}, err
	}
	return b.issue(email, ""), nil
}

// Register accepts any credentials; name defaults to the local part of email.
func (b *MockBackend) Register(ctx context.Context, email, _ string, name string) (Credentials, error) {
	if err := b.wait(ctx, b.cfg.Latency); err != nil {
		return Credentials{}, err
	}
	return b.issue(email, name), nil
}

// RequestPasswordReset pretends to email a reset link and records its token.
func (b *MockBackend) RequestPasswordReset(ctx context.Context, email string) error {
	if err := b.wait(ctx, b.cfg.Latency); err != nil {
		return err
	}
	b.mu.Lock()
	b.lastResetEmail = email
	b.lastResetToken = uuid.NewString()
	b.mu.Unlock()
	return nil
}

// ResetPassword accepts any non-empty token.
func (b *MockBackend) ResetPassword(ctx context.Context, _, _ string) error {
	return b.wait(ctx, b.cfg.Latency)
}

// SendVerificationCode pretends to email a numeric code and records it.
func (b *MockBackend) SendVerificationCode(ctx context.Context, _ string) error {
	if err := b.wait(ctx, b.cfg.VerificationLatency); err != nil {
		return err
	}
	code, err := internal.NewOTP(b.codeDigits)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.lastVerificationCode = code
	b.mu.Unlock()
	return nil
}

// VerifyEmail accepts any code; its shape was checked by the Manager.
func (b *MockBackend) VerifyEmail(ctx context.Context, _, _ string) error {
	return b.wait(ctx, b.cfg.Latency)
}

// EnableTwoFactor accepts only the configured demo code, or any code when
// none is configured.
func (b *MockBackend) EnableTwoFactor(ctx context.Context, _ User, code string) error {
	if err := b.wait(ctx, b.cfg.Latency); err != nil {
		return err
	}
	if b.cfg.TwoFactorCode != "" && code != b.cfg.TwoFactorCode {
		return ErrTwoFactorCodeInvalid
	}
	return nil
}

func (b *MockBackend) DisableTwoFactor(ctx context.Context, _ User) error {
	return b.wait(ctx, b.cfg.Latency)
}

// ChangePassword accepts any current password.
func (b *MockBackend) ChangePassword(ctx context.Context, _ User, _, _ string) error {
	return b.wait(ctx, b.cfg.Latency)
}

// LastPasswordReset returns the email and token of the most recent reset request.
func (b *MockBackend) LastPasswordReset() (email, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastResetEmail, b.lastResetToken
}

// LastVerificationCode returns the most recently issued verification code.
func (b *MockBackend) LastVerificationCode() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastVerificationCode
}
