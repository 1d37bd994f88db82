package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
)

// FeedbackUseCase appends reviewer corrections and recomputes the effective
// field mapping. Feedback without a prior analysis result is rejected: there
// is nothing to correct.
type FeedbackUseCase struct {
	docs     ports.DocumentRepository
	results  ports.ResultRepository
	feedback ports.FeedbackRepository
}

func NewFeedbackUseCase(
	docs ports.DocumentRepository,
	results ports.ResultRepository,
	feedback ports.FeedbackRepository,
) *FeedbackUseCase {
	return &FeedbackUseCase{
		docs:     docs,
		results:  results,
		feedback: feedback,
	}
}

func (uc *FeedbackUseCase) Submit(
	ctx context.Context,
	documentID string,
	correctedFields map[string]any,
	reviewer, comment string,
) (map[string]any, error) {
	if len(correctedFields) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "submit feedback", errors.New("corrected_fields is required"))
	}

	result, err := uc.results.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch analysis result: %w", err)
	}

	record := &domain.FeedbackRecord{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		CorrectedFields: correctedFields,
		Reviewer:        reviewer,
		Comment:         comment,
		SubmittedAt:     time.Now().UTC(),
	}
	if err := uc.feedback.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append feedback record: %w", err)
	}

	if err := uc.docs.UpdateState(ctx, documentID, domain.StateReviewed, domain.ReasonNone, ""); err != nil {
		return nil, fmt.Errorf("set state=%s: %w", domain.StateReviewed, err)
	}

	history, err := uc.feedback.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback records: %w", err)
	}
	return domain.EffectiveFields(result, history), nil
}

func (uc *FeedbackUseCase) History(ctx context.Context, documentID string) ([]domain.FeedbackRecord, error) {
	records, err := uc.feedback.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("list feedback records: %w", err)
	}
	return records, nil
}
