package documents

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/docvault/internal/types"
)

func newDocumentRepoWithMock(t *testing.T) (*PostgresDocumentRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresDocumentRepo(mockPool, slog.Default()), mockPool
}

func TestInsertRepo(t *testing.T) {
	repo, mockPool := newDocumentRepoWithMock(t)
	ctx := context.Background()

	uploadedAt := time.Now()
	rows := pgxmock.NewRows([]string{"id", "uploaded_at"}).AddRow("doc1", uploadedAt)
	mockPool.ExpectQuery("INSERT INTO documents").
		WithArgs("user123", "report.pdf", "https://store.example/upload/blob.pdf", "user_files/x/blob.pdf", "pdf").
		WillReturnRows(rows)

	created, err := repo.Insert(ctx, &types.Document{
		OwnerID:       "user123",
		Name:          "report.pdf",
		URL:           "https://store.example/upload/blob.pdf",
		StorageHandle: "user_files/x/blob.pdf",
		FileType:      "pdf",
	})

	assert.NoError(t, err)
	assert.Equal(t, "doc1", created.ID)
	assert.Equal(t, "report.pdf", created.Name)
	assert.WithinDuration(t, uploadedAt, created.UploadedAt, time.Second)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestListByOwnerRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("ReturnsNewestFirst", func(t *testing.T) {
		repo, mockPool := newDocumentRepoWithMock(t)

		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "owner_id", "name", "url", "storage_handle", "file_type", "summary", "uploaded_at"}).
			AddRow("doc2", "user123", "notes.txt", "https://store.example/notes.txt", "h2", "txt", "", now).
			AddRow("doc1", "user123", "report.pdf", "https://store.example/report.pdf", "h1", "pdf", "a summary", now.Add(-time.Hour))
		mockPool.ExpectQuery("SELECT id, owner_id, name, url, storage_handle, file_type, summary, uploaded_at").
			WithArgs("user123").
			WillReturnRows(rows)

		docs, err := repo.ListByOwner(ctx, "user123")

		assert.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "doc2", docs[0].ID)
		assert.Equal(t, "a summary", docs[1].Summary)
	})

	t.Run("NoDocuments", func(t *testing.T) {
		repo, mockPool := newDocumentRepoWithMock(t)

		rows := pgxmock.NewRows([]string{"id", "owner_id", "name", "url", "storage_handle", "file_type", "summary", "uploaded_at"})
		mockPool.ExpectQuery("SELECT id, owner_id, name, url, storage_handle, file_type, summary, uploaded_at").
			WithArgs("user123").
			WillReturnRows(rows)

		docs, err := repo.ListByOwner(ctx, "user123")

		assert.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestGetByIDRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newDocumentRepoWithMock(t)

		rows := pgxmock.NewRows([]string{"id", "owner_id", "name", "url", "storage_handle", "file_type", "summary", "uploaded_at"}).
			AddRow("doc1", "user123", "report.pdf", "https://store.example/report.pdf", "h1", "pdf", "", time.Now())
		mockPool.ExpectQuery("SELECT id, owner_id, name, url, storage_handle, file_type, summary, uploaded_at").
			WithArgs("doc1", "user123").
			WillReturnRows(rows)

		doc, err := repo.GetByID(ctx, "user123", "doc1")

		assert.NoError(t, err)
		assert.Equal(t, "report.pdf", doc.Name)
	})

	t.Run("ForeignOwnerLooksMissing", func(t *testing.T) {
		repo, mockPool := newDocumentRepoWithMock(t)

		mockPool.ExpectQuery("SELECT id, owner_id, name, url, storage_handle, file_type, summary, uploaded_at").
			WithArgs("doc1", "other-user").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, "other-user", "doc1")

		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestUpdateSummaryRepo(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newDocumentRepoWithMock(t)

		mockPool.ExpectExec("UPDATE documents SET summary").
			WithArgs("new summary", "doc1", "user123").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateSummary(ctx, "user123", "doc1", "new summary")

		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NoMatchingRow", func(t *testing.T) {
		repo, mockPool := newDocumentRepoWithMock(t)

		mockPool.ExpectExec("UPDATE documents SET summary").
			WithArgs("new summary", "ghost", "user123").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateSummary(ctx, "user123", "ghost", "new summary")

		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
