package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/types"
)

func newAuthRepoWithMock(t *testing.T) (*PostgresAuthRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresAuthRepo(mockPool, slog.Default()), mockPool
}

func TestCreateUserRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "username", "email", "created_at", "updated_at"}).
			AddRow("user123", "testuser", "test@example.com", now, now)
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs("testuser", "test@example.com", "hashed").
			WillReturnRows(rows)

		user, err := repo.CreateUser(ctx, "testuser", "test@example.com", "hashed")

		assert.NoError(t, err)
		assert.Equal(t, "user123", user.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("UniqueViolation", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs("testuser", "test@example.com", "hashed").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.CreateUser(ctx, "testuser", "test@example.com", "hashed")

		assert.ErrorIs(t, err, types.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetUserRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("ByEmail", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("user123", "testuser", "test@example.com", "hashed", now, now)
		mockPool.ExpectQuery("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE email").
			WithArgs("test@example.com").
			WillReturnRows(rows)

		user, err := repo.GetUserByEmail(ctx, "test@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "testuser", user.Username)
		assert.Equal(t, "hashed", user.Password)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectQuery("SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE id").
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserByID(ctx, "ghost")

		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestUpdatePasswordByEmailRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectExec("UPDATE users SET password_hash").
			WithArgs("newhash", pgxmock.AnyArg(), "test@example.com").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdatePasswordByEmail(ctx, "test@example.com", "newhash")

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoSuchUser", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectExec("UPDATE users SET password_hash").
			WithArgs("newhash", pgxmock.AnyArg(), "nobody@example.com").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdatePasswordByEmail(ctx, "nobody@example.com", "newhash")

		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestReplaceResetCodeRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("DeletesThenInserts", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec("DELETE FROM password_reset_codes").
			WithArgs("test@example.com").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectExec("INSERT INTO password_reset_codes").
			WithArgs("test@example.com", "1234").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		err := repo.ReplaceResetCode(ctx, "test@example.com", "1234")

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("RollsBackOnInsertFailure", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec("DELETE FROM password_reset_codes").
			WithArgs("test@example.com").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mockPool.ExpectExec("INSERT INTO password_reset_codes").
			WithArgs("test@example.com", "1234").
			WillReturnError(assert.AnError)
		mockPool.ExpectRollback()

		err := repo.ReplaceResetCode(ctx, "test@example.com", "1234")

		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetResetCodeRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		created := time.Now()
		rows := pgxmock.NewRows([]string{"email", "code", "created_at"}).
			AddRow("test@example.com", "1234", created)
		mockPool.ExpectQuery("SELECT email, code, created_at FROM password_reset_codes").
			WithArgs("test@example.com", "1234").
			WillReturnRows(rows)

		rc, err := repo.GetResetCode(ctx, "test@example.com", "1234")

		assert.NoError(t, err)
		assert.Equal(t, "1234", rc.Code)
		assert.WithinDuration(t, created, rc.CreatedAt, time.Second)
	})

	t.Run("WrongCode", func(t *testing.T) {
		repo, mockPool := newAuthRepoWithMock(t)

		mockPool.ExpectQuery("SELECT email, code, created_at FROM password_reset_codes").
			WithArgs("test@example.com", "0000").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetResetCode(ctx, "test@example.com", "0000")

		assert.ErrorIs(t, err, types.ErrInvalidOtp)
	})
}

func TestDeleteResetCodesRepo(t *testing.T) {
	repo, mockPool := newAuthRepoWithMock(t)

	mockPool.ExpectExec("DELETE FROM password_reset_codes").
		WithArgs("test@example.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	err := repo.DeleteResetCodes(context.Background(), "test@example.com")

	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
