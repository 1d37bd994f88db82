package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	locator TEXT NOT NULL,
	filename TEXT NOT NULL,
	content_type TEXT NOT NULL,
	state TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_state ON documents(state);
CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at DESC);
`
	return ensureSchema(ctx, r.db, 2026030101, query)
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, locator, filename, content_type, state, failure_reason, error_message, uploaded_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		doc.ID, doc.Locator, doc.Filename, doc.ContentType,
		string(doc.State), string(doc.FailureReason), doc.Error, doc.UploadedAt, doc.UpdatedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert document", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, locator, filename, content_type, state, failure_reason, error_message, uploaded_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var state, reason string

	err := row.Scan(
		&doc.ID, &doc.Locator, &doc.Filename, &doc.ContentType,
		&state, &reason, &doc.Error, &doc.UploadedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", id))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "scan document", err)
	}

	doc.State = domain.DocumentState(state)
	doc.FailureReason = domain.FailureReason(reason)
	return &doc, nil
}

func (r *DocumentRepository) UpdateState(
	ctx context.Context,
	id string,
	state domain.DocumentState,
	reason domain.FailureReason,
	errMessage string,
) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET state = $2, failure_reason = $3, error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(state), string(reason), errMessage, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update document state", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "update document state", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update document state", fmt.Errorf("document %s", id))
	}
	return nil
}
