package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS analysis_results (
	document_id TEXT PRIMARY KEY,
	category_id TEXT NOT NULL DEFAULT '',
	extracted_fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	warnings JSONB NOT NULL DEFAULT '[]'::jsonb,
	analyzed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analysis_results_analyzed_at ON analysis_results(analyzed_at DESC);
`
	return ensureSchema(ctx, r.db, 2026030102, query)
}

// Save upserts the result for a document. A row is only overwritten by a
// result with an equal or later analyzed_at, which resolves racing re-analyses
// last-write-wins.
func (r *ResultRepository) Save(ctx context.Context, result *domain.AnalysisResult) error {
	fieldsJSON, err := json.Marshal(result.ExtractedFields)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "marshal extracted fields", err)
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	warningsJSON, err := json.Marshal(warnings)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "marshal warnings", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO analysis_results (document_id, category_id, extracted_fields, confidence, warnings, analyzed_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (document_id) DO UPDATE
SET category_id = EXCLUDED.category_id,
	extracted_fields = EXCLUDED.extracted_fields,
	confidence = EXCLUDED.confidence,
	warnings = EXCLUDED.warnings,
	analyzed_at = EXCLUDED.analyzed_at
WHERE analysis_results.analyzed_at <= EXCLUDED.analyzed_at
`,
		result.DocumentID, result.CategoryID, fieldsJSON, result.Confidence, warningsJSON, result.AnalyzedAt,
	)
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "upsert analysis result", err)
	}
	return nil
}

func (r *ResultRepository) Get(ctx context.Context, documentID string) (*domain.AnalysisResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT document_id, category_id, extracted_fields, confidence, warnings, analyzed_at
FROM analysis_results
WHERE document_id = $1
`, documentID)

	result, err := scanResult(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get analysis result", fmt.Errorf("document %s", documentID))
		}
		return nil, domain.WrapError(domain.ErrPersistence, "scan analysis result", err)
	}
	return result, nil
}

func (r *ResultRepository) ListRecent(ctx context.Context, limit int) ([]domain.AnalysisResult, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT document_id, category_id, extracted_fields, confidence, warnings, analyzed_at
FROM analysis_results
ORDER BY analyzed_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "list analysis results", err)
	}
	defer rows.Close()

	var results []domain.AnalysisResult
	for rows.Next() {
		result, err := scanResult(rows.Scan)
		if err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan analysis result", err)
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate analysis results", err)
	}
	return results, nil
}

func scanResult(scan func(dest ...any) error) (*domain.AnalysisResult, error) {
	var result domain.AnalysisResult
	var fieldsRaw, warningsRaw []byte

	if err := scan(
		&result.DocumentID, &result.CategoryID, &fieldsRaw,
		&result.Confidence, &warningsRaw, &result.AnalyzedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fieldsRaw, &result.ExtractedFields); err != nil {
		return nil, fmt.Errorf("unmarshal extracted fields: %w", err)
	}
	if err := json.Unmarshal(warningsRaw, &result.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}
	return &result, nil
}
