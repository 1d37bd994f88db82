package usecase

import (
	"context"
	"fmt"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
)

type ResultUseCase struct {
	results  ports.ResultRepository
	feedback ports.FeedbackRepository
}

func NewResultUseCase(results ports.ResultRepository, feedback ports.FeedbackRepository) *ResultUseCase {
	return &ResultUseCase{results: results, feedback: feedback}
}

// Result returns the current analysis result for a document together with
// the effective fields after applying all feedback in submission order.
func (uc *ResultUseCase) Result(ctx context.Context, documentID string) (*domain.AnalysisResult, map[string]any, error) {
	result, err := uc.results.Get(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch analysis result: %w", err)
	}
	history, err := uc.feedback.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, nil, fmt.Errorf("list feedback records: %w", err)
	}
	return result, domain.EffectiveFields(result, history), nil
}
