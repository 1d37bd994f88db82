package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS feedback_records (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	corrected_fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	reviewer TEXT NOT NULL DEFAULT '',
	comment TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feedback_records_document ON feedback_records(document_id, submitted_at);
`
	return ensureSchema(ctx, r.db, 2026030103, query)
}

func (r *FeedbackRepository) Append(ctx context.Context, record *domain.FeedbackRecord) error {
	fieldsJSON, err := json.Marshal(record.CorrectedFields)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "marshal corrected fields", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO feedback_records (id, document_id, corrected_fields, reviewer, comment, submitted_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		record.ID, record.DocumentID, fieldsJSON, record.Reviewer, record.Comment, record.SubmittedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert feedback record", err)
	}
	return nil
}

// ListByDocument returns records in submission order, which is the order
// corrections are applied in.
func (r *FeedbackRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, corrected_fields, reviewer, comment, submitted_at
FROM feedback_records
WHERE document_id = $1
ORDER BY submitted_at ASC, id ASC
`, documentID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list feedback records", err)
	}
	defer rows.Close()

	var records []domain.FeedbackRecord
	for rows.Next() {
		record, err := scanFeedback(rows)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan feedback record", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate feedback records", err)
	}
	return records, nil
}

func scanFeedback(rows *sql.Rows) (*domain.FeedbackRecord, error) {
	var record domain.FeedbackRecord
	var fieldsRaw []byte

	if err := rows.Scan(
		&record.ID, &record.DocumentID, &fieldsRaw,
		&record.Reviewer, &record.Comment, &record.SubmittedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fieldsRaw, &record.CorrectedFields); err != nil {
		return nil, err
	}
	return &record, nil
}
