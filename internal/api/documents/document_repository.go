package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

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
}

var _ DocumentRepo = (*PostgresDocumentRepo)(nil)

type DocumentRepo interface {
	Insert(ctx context.Context, doc *types.Document) (*types.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]types.Document, error)
	GetByID(ctx context.Context, ownerID, documentID string) (*types.Document, error)
	UpdateSummary(ctx context.Context, ownerID, documentID, summary string) error
}

type PostgresDocumentRepo struct {
	logger *slog.Logger
	pgpool PgxPool
}

func NewPostgresDocumentRepo(pgpool PgxPool, logger *slog.Logger) *PostgresDocumentRepo {
	return &PostgresDocumentRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresDocumentRepo) Insert(ctx context.Context, doc *types.Document) (*types.Document, error) {
	created := *doc
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO documents (owner_id, name, url, storage_handle, file_type)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, uploaded_at`,
		doc.OwnerID, doc.Name, doc.URL, doc.StorageHandle, doc.FileType).
		Scan(&created.ID, &created.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("insert document: db insert failed: %w", err)
	}
	return &created, nil
}

// ListByOwner returns the owner's documents newest-first.
func (r *PostgresDocumentRepo) ListByOwner(ctx context.Context, ownerID string) ([]types.Document, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, owner_id, name, url, storage_handle, file_type, summary, uploaded_at
         FROM documents
         WHERE owner_id = $1
         ORDER BY uploaded_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: query failed: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var d types.Document
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.URL, &d.StorageHandle,
			&d.FileType, &d.Summary, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("list documents: scan failed: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: rows failed: %w", err)
	}
	return docs, nil
}

// GetByID resolves a document only when it is owned by ownerID; a
// foreign document id is indistinguishable from a missing one.
func (r *PostgresDocumentRepo) GetByID(ctx context.Context, ownerID, documentID string) (*types.Document, error) {
	var d types.Document
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, owner_id, name, url, storage_handle, file_type, summary, uploaded_at
         FROM documents
         WHERE id = $1 AND owner_id = $2`, documentID, ownerID).
		Scan(&d.ID, &d.OwnerID, &d.Name, &d.URL, &d.StorageHandle,
			&d.FileType, &d.Summary, &d.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: query failed: %w", err)
	}
	return &d, nil
}

func (r *PostgresDocumentRepo) UpdateSummary(ctx context.Context, ownerID, documentID, summary string) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE documents SET summary = $1 WHERE id = $2 AND owner_id = $3`,
		summary, documentID, ownerID)
	if err != nil {
		return fmt.Errorf("update summary: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %w", types.ErrNotFound)
	}
	return nil
}
