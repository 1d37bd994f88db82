package ports

import (
	"context"
	"io"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

// DocumentRepository persists upload metadata and pipeline state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateState(ctx context.Context, id string, state domain.DocumentState, reason domain.FailureReason, errMessage string) error
}

// ObjectStorage stores raw document bytes addressed by an opaque locator.
type ObjectStorage interface {
	Save(ctx context.Context, locator string, data io.Reader) error
	Open(ctx context.Context, locator string) (io.ReadCloser, error)
}

// ResultRepository holds per-document analysis results. Save supersedes any
// prior result for the same document, last-write-wins by analyzed_at.
type ResultRepository interface {
	Save(ctx context.Context, result *domain.AnalysisResult) error
	Get(ctx context.Context, documentID string) (*domain.AnalysisResult, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AnalysisResult, error)
}

// FeedbackRepository appends and reads reviewer corrections, ordered by
// submitted_at.
type FeedbackRepository interface {
	Append(ctx context.Context, record *domain.FeedbackRecord) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.FeedbackRecord, error)
}

// AnalysisGateway is the capability boundary to the external analysis
// service. Bounded retry and circuit breaking live behind this boundary; the
// orchestrator only sees "succeeded" or a typed failure.
type AnalysisGateway interface {
	Classify(ctx context.Context, locator, analyzerID string, candidates []domain.CategoryCandidate) (domain.Classification, error)
	Extract(ctx context.Context, locator, analyzerID string, schema map[string]domain.FieldSpec) (domain.Extraction, error)
	CreateAnalyzer(ctx context.Context, analyzerID string, definition domain.AnalyzerDefinition) error
}

// MessageQueue publishes/consumes uploaded-document events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// CategoryRegistry is the read/replace surface of the category snapshot the
// pipeline routes against.
type CategoryRegistry interface {
	Resolve(categoryID string) (domain.Category, error)
	List() []domain.Category
	Candidates() []domain.CategoryCandidate
	Replace(categories []domain.Category) error
}

// ConfigPersister writes a replaced category set back to the durable
// pipeline configuration, so a restart comes up with the same registry.
type ConfigPersister interface {
	Persist(categories []domain.Category) error
}
