package types

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Domain error kinds. Handlers translate these to HTTP statuses in one
// place (api.StatusForError); everything below the handler boundary
// wraps them with fmt.Errorf("...: %w", ...).
var (
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("requested item not found")
	ErrConflict           = errors.New("item already exists or conflict")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenMissing   = errors.New("no token provided")
	ErrTokenMalformed = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrUnknownSubject = errors.New("token subject no longer exists")

	ErrInvalidOtp = errors.New("invalid otp")
	ErrOtpExpired = errors.New("otp expired")

	ErrStorageFailed     = errors.New("file storage failed")
	ErrPersistenceFailed = errors.New("database save failed")
	ErrDeliveryFailed    = errors.New("mail delivery failed")
)

// User is a credential-store record. The password hash never leaves
// the process in a response payload.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document links a user to an uploaded blob.
type Document struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"-"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	StorageHandle string    `json:"-"`
	FileType      string    `json:"file_type"`
	Summary       string    `json:"summary,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// PasswordResetCode is an ephemeral OTP record. A new request
// supersedes all prior codes for the same email; a successful
// verification consumes them all.
type PasswordResetCode struct {
	Email     string
	Code      string
	CreatedAt time.Time
}

// Claims is the identity-token payload.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
