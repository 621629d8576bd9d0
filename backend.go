package goSession

import "context"

// Credentials is what a backend issues on successful login or registration.
type Credentials struct {
	User  User
	Token string
}

// AuthBackend performs the remote half of the core session operations. Inputs
// reaching a backend have already passed the Manager's required-field checks.
//
// Implementations must honor ctx cancellation on every blocking call.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (Credentials, error)
	Register(ctx context.Context, email, password, name string) (Credentials, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// AccountBackend performs the account maintenance calls behind the dashboard:
// email verification, two-factor toggling and password change.
type AccountBackend interface {
	SendVerificationCode(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	EnableTwoFactor(ctx context.Context, user User, code string) error
	DisableTwoFactor(ctx context.Context, user User) error
	ChangePassword(ctx context.Context, user User, currentPassword, newPassword string) error
}
