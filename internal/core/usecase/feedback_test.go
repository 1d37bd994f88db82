package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

func feedbackFixtures() (*fakeDocRepo, *fakeResultRepo, *fakeFeedbackRepo, *FeedbackUseCase) {
	docs := newFakeDocRepo(&domain.Document{
		ID:    "doc-1",
		State: domain.StateExtracted,
	})
	results := newFakeResultRepo()
	feedback := &fakeFeedbackRepo{}
	return docs, results, feedback, NewFeedbackUseCase(docs, results, feedback)
}

func TestSubmitFeedbackMergesCorrections(t *testing.T) {
	docs, results, _, uc := feedbackFixtures()
	results.results["doc-1"] = &domain.AnalysisResult{
		DocumentID:      "doc-1",
		ExtractedFields: map[string]any{"total": 10.0, "merchant": "ACME"},
		AnalyzedAt:      time.Now().UTC(),
	}

	effective, err := uc.Submit(context.Background(), "doc-1", map[string]any{"total": 12.5}, "alex", "typo in total")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if effective["total"] != 12.5 || effective["merchant"] != "ACME" {
		t.Fatalf("unexpected effective fields: %v", effective)
	}

	doc, _ := docs.GetByID(context.Background(), "doc-1")
	if doc.State != domain.StateReviewed {
		t.Fatalf("expected state=reviewed, got %q", doc.State)
	}

	// A second correction stacks on top of the first.
	effective, err = uc.Submit(context.Background(), "doc-1", map[string]any{"merchant": "ACME Corp"}, "alex", "")
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if effective["total"] != 12.5 || effective["merchant"] != "ACME Corp" {
		t.Fatalf("corrections must accumulate, got %v", effective)
	}
}

func TestSubmitFeedbackWithoutResult(t *testing.T) {
	_, _, _, uc := feedbackFixtures()

	_, err := uc.Submit(context.Background(), "doc-1", map[string]any{"total": 1.0}, "alex", "")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without a prior result, got %v", err)
	}
}

func TestSubmitFeedbackRequiresCorrectedFields(t *testing.T) {
	_, results, _, uc := feedbackFixtures()
	results.results["doc-1"] = &domain.AnalysisResult{DocumentID: "doc-1"}

	_, err := uc.Submit(context.Background(), "doc-1", nil, "alex", "")
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestFeedbackHistoryOrder(t *testing.T) {
	_, results, feedback, uc := feedbackFixtures()
	results.results["doc-1"] = &domain.AnalysisResult{
		DocumentID:      "doc-1",
		ExtractedFields: map[string]any{},
	}

	if _, err := uc.Submit(context.Background(), "doc-1", map[string]any{"a": 1.0}, "r1", ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := uc.Submit(context.Background(), "doc-1", map[string]any{"a": 2.0}, "r2", ""); err != nil {
		t.Fatalf("submit: %v", err)
	}

	history, err := uc.History(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Reviewer != "r1" || history[1].Reviewer != "r2" {
		t.Fatalf("history must preserve submission order, got %v", history)
	}
	if len(feedback.records) != 2 {
		t.Fatalf("expected 2 stored records, got %d", len(feedback.records))
	}
}
