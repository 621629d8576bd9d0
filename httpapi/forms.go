package httpapi

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	msgEmail          = "Please enter a valid email address"
	msgPasswordShort6 = "Password must be at least 6 characters"
	msgPasswordShort8 = "Password must be at least 8 characters"
	msgNameShort      = "Name must be at least 2 characters"
	msgPasswordsMatch = "Passwords do not match"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error(msgEmail), is.Email.Error(msgEmail)),
		validation.Field(&r.Password, validation.Required.Error(msgPasswordShort6), validation.Length(6, 0).Error(msgPasswordShort6)),
	)
}

// RegisterRequest is the body of POST /register. Name is optional.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(2, 0).Error(msgNameShort)),
		validation.Field(&r.Email, validation.Required.Error(msgEmail), is.Email.Error(msgEmail)),
		validation.Field(&r.Password, validation.Required.Error(msgPasswordShort8), validation.Length(8, 0).Error(msgPasswordShort8)),
		validation.Field(&r.ConfirmPassword, validation.By(stringEquals(r.Password))),
	)
}

// ForgotPasswordRequest is the body of POST /password/forgot.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error(msgEmail), is.Email.Error(msgEmail)),
	)
}

// ResetPasswordRequest is the body of POST /password/reset. The token is the
// one carried by the emailed reset link.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required.Error("Invalid reset token")),
		validation.Field(&r.Password, validation.Required.Error(msgPasswordShort8), validation.Length(8, 0).Error(msgPasswordShort8)),
		validation.Field(&r.ConfirmPassword, validation.By(stringEquals(r.Password))),
	)
}

// ChangePasswordRequest is the body of POST /password/change. Length and
// confirmation are checked by the Manager against its configured policy.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// EmailCodeRequest is the body of POST /email/code. An empty email means the
// signed-in user's address.
type EmailCodeRequest struct {
	Email string `json:"email"`
}

func (r EmailCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, is.Email.Error(msgEmail)),
	)
}

// CodeRequest is the body of POST /email/verify and POST /2fa/enable.
type CodeRequest struct {
	Code string `json:"code"`
}

func (r CodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, is.Digit),
	)
}

func stringEquals(str string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(msgPasswordsMatch)
		}
		return nil
	}
}
