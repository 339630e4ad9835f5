package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/docvault/docvault/config"
	"github.com/docvault/docvault/internal/types"
)

// bcryptCost is deliberately above the library default to keep the
// hash slow enough against offline brute force.
const bcryptCost = 13

const otpValidity = 5 * time.Minute

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	VerifyToken(ctx context.Context, tokenString string) (*types.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetAndUpdate(ctx context.Context, email, code, newPassword string) error
}

type AuthServiceImpl struct {
	repo   AuthRepo
	mailer Mailer
	cfg    config.JWTConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewAuthService(repo AuthRepo, mailer Mailer, cfg config.JWTConfig, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates a credential record and returns the identity with a
// fresh token. Duplicates on username or email yield ErrConflict.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (*types.User, string, error) {
	if username == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("username, email and password are required: %w", types.ErrBadRequest)
	}
	if !emailPattern.MatchString(email) {
		return nil, "", fmt.Errorf("invalid email address: %w", types.ErrBadRequest)
	}

	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return nil, "", fmt.Errorf("username already exists: %w", types.ErrConflict)
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, "", err
	}
	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, "", fmt.Errorf("user already exists: %w", types.ErrConflict)
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, username, email, string(hashed))
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login verifies credentials and issues a token bound to the user id.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("incorrect password: %w", types.ErrInvalidCredentials)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", err
	}

	user.Password = ""
	return user, token, nil
}

// VerifyToken validates the signed token and resolves the subject,
// distinguishing missing, malformed and expired tokens. The subject is
// re-checked against the credential store so a deleted user's tokens
// stop working before expiry.
func (s *AuthServiceImpl) VerifyToken(ctx context.Context, tokenString string) (*types.User, error) {
	if tokenString == "" {
		return nil, types.ErrTokenMissing
	}

	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.SecretKey), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%v: %w", err, types.ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%v: %w", err, types.ErrTokenMalformed)
		default:
			return nil, fmt.Errorf("%v: %w", err, types.ErrTokenInvalid)
		}
	}
	if !token.Valid {
		return nil, types.ErrTokenInvalid
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", claims.UserID, types.ErrUnknownSubject)
		}
		return nil, err
	}

	user.Password = ""
	return user, nil
}

// RequestPasswordReset generates and dispatches a one-time code. The
// response is identical whether or not the email is registered, so the
// endpoint cannot be used to enumerate accounts.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email field is required: %w", types.ErrBadRequest)
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			s.logger.InfoContext(ctx, "Password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := generateOtp()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.repo.ReplaceResetCode(ctx, email, code); err != nil {
		return err
	}

	return s.mailer.SendPasswordResetCode(ctx, email, code)
}

// VerifyResetAndUpdate consumes a valid, unexpired code and stores the
// new password hash. Codes are single-use: success deletes every code
// for the email.
func (s *AuthServiceImpl) VerifyResetAndUpdate(ctx context.Context, email, code, newPassword string) error {
	if email == "" || code == "" || newPassword == "" {
		return fmt.Errorf("all fields are required: %w", types.ErrBadRequest)
	}

	rc, err := s.repo.GetResetCode(ctx, email, code)
	if err != nil {
		return err
	}

	if s.now().After(rc.CreatedAt.Add(otpValidity)) {
		return fmt.Errorf("otp requested at %s: %w", rc.CreatedAt.Format(time.RFC3339), types.ErrOtpExpired)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.repo.UpdatePasswordByEmail(ctx, email, string(hashed)); err != nil {
		return err
	}

	return s.repo.DeleteResetCodes(ctx, email)
}

func (s *AuthServiceImpl) issueToken(userID string) (string, error) {
	now := s.now()
	claims := &types.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			Issuer:    s.cfg.Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// generateOtp returns a 4-digit numeric one-time code.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
