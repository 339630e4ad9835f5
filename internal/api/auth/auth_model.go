package auth

import (
	"context"
	"regexp"

	"github.com/docvault/docvault/internal/types"
)

// emailPattern mirrors the credential-store format check: something,
// an @, something, a dot, something.
var emailPattern = regexp.MustCompile(`.+@.+\..+`)

// Mailer dispatches the one-time reset code. Implemented by
// internal/mailer; mocked in tests.
type Mailer interface {
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// RegisterRequest represents the register request body
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User  *types.User `json:"user"`
	Token string      `json:"token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyOtpRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Generic response for simple success messages
type MessageResponse struct {
	Message string `json:"message"`
}
