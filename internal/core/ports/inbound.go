package ports

import (
	"context"
	"io"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

// DocumentUploader is the inbound contract for document upload.
type DocumentUploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (*domain.Document, error)
}

// DocumentAnalyzer drives the classify/extract pipeline for one document.
// An empty locator falls back to the stored document locator.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, documentID, locator string) (*domain.AnalysisResult, error)
}

// ResultReader returns the current analysis result together with the
// effective fields after applying all feedback.
type ResultReader interface {
	Result(ctx context.Context, documentID string) (*domain.AnalysisResult, map[string]any, error)
}

// FeedbackService records corrections and exposes the feedback history.
type FeedbackService interface {
	Submit(ctx context.Context, documentID string, correctedFields map[string]any, reviewer, comment string) (map[string]any, error)
	History(ctx context.Context, documentID string) ([]domain.FeedbackRecord, error)
}

// AnalyzerProvisioner pushes analyzer definitions derived from the category
// registry to the analysis service.
type AnalyzerProvisioner interface {
	Provision(ctx context.Context) (routerID string, analyzerIDs []string, err error)
}

// ResultExporter renders recent analysis results with their effective
// fields into a spreadsheet for reviewers.
type ResultExporter interface {
	ExportResultsXLSX(ctx context.Context, limit int) ([]byte, error)
}
