package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/docvault/docvault/internal/types"
)

// PgxPool is the pool surface the repository needs. Satisfied by
// *pgxpool.Pool and by pgxmock in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ AuthRepo = (*PostgresAuthRepo)(nil)

type AuthRepo interface {
	CreateUser(ctx context.Context, username, email, hashedPassword string) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByUsername(ctx context.Context, username string) (*types.User, error)
	GetUserByID(ctx context.Context, userID string) (*types.User, error)
	UpdatePasswordByEmail(ctx context.Context, email, newHashedPassword string) error
	ReplaceResetCode(ctx context.Context, email, code string) error
	GetResetCode(ctx context.Context, email, code string) (*types.PasswordResetCode, error)
	DeleteResetCodes(ctx context.Context, email string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresAuthRepo(pgpool PgxPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const uniqueViolation = "23505"

// CreateUser inserts a new credential record. A unique-constraint hit
// maps to ErrConflict so racing registrations stay idempotent-rejecting.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, username, email, hashedPassword string) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
         VALUES ($1, $2, $3)
         RETURNING id, username, email, created_at, updated_at`,
		username, email, hashedPassword).
		Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("user already exists: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("create user: db insert failed: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.getUser(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email = $1", email)
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return r.getUser(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE username = $1", username)
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	return r.getUser(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id = $1", userID)
}

func (r *PostgresAuthRepo) getUser(ctx context.Context, query, arg string) (*types.User, error) {
	var user types.User
	err := r.pgpool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: query failed: %w", err)
	}
	return &user, nil
}

func (r *PostgresAuthRepo) UpdatePasswordByEmail(ctx context.Context, email, newHashedPassword string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE email = $3`,
		newHashedPassword, time.Now(), email)
	if err != nil {
		return fmt.Errorf("update password: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update password: %w", types.ErrNotFound)
	}
	return nil
}

// ReplaceResetCode invalidates every prior code for the email and
// persists the new one, in a single transaction.
func (r *PostgresAuthRepo) ReplaceResetCode(ctx context.Context, email, code string) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replace reset code: begin failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"DELETE FROM password_reset_codes WHERE email = $1", email); err != nil {
		return fmt.Errorf("replace reset code: delete failed: %w", err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO password_reset_codes (email, code) VALUES ($1, $2)", email, code); err != nil {
		return fmt.Errorf("replace reset code: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replace reset code: commit failed: %w", err)
	}
	return nil
}

func (r *PostgresAuthRepo) GetResetCode(ctx context.Context, email, code string) (*types.PasswordResetCode, error) {
	var rc types.PasswordResetCode
	err := r.pgpool.QueryRow(ctx,
		"SELECT email, code, created_at FROM password_reset_codes WHERE email = $1 AND code = $2",
		email, code).Scan(&rc.Email, &rc.Code, &rc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("reset code not found: %w", types.ErrInvalidOtp)
		}
		return nil, fmt.Errorf("get reset code: query failed: %w", err)
	}
	return &rc, nil
}

func (r *PostgresAuthRepo) DeleteResetCodes(ctx context.Context, email string) error {
	_, err := r.pgpool.Exec(ctx,
		"DELETE FROM password_reset_codes WHERE email = $1", email)
	if err != nil {
		return fmt.Errorf("delete reset codes: db delete failed: %w", err)
	}
	return nil
}
