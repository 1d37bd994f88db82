package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
)

// AnalyzeDocumentUseCase drives one document through the
// classify -> extract pipeline and persists the outcome.
//
// Failed attempts never touch a previously persisted result, so callers can
// always read the last successful analysis even after a failed re-run.
type AnalyzeDocumentUseCase struct {
	docs     ports.DocumentRepository
	registry ports.CategoryRegistry
	gateway  ports.AnalysisGateway
	results  ports.ResultRepository

	routerAnalyzerID string
	minConfidence    float64
}

func NewAnalyzeDocumentUseCase(
	docs ports.DocumentRepository,
	registry ports.CategoryRegistry,
	gateway ports.AnalysisGateway,
	results ports.ResultRepository,
	routerAnalyzerID string,
	minConfidence float64,
) *AnalyzeDocumentUseCase {
	return &AnalyzeDocumentUseCase{
		docs:             docs,
		registry:         registry,
		gateway:          gateway,
		results:          results,
		routerAnalyzerID: routerAnalyzerID,
		minConfidence:    minConfidence,
	}
}

// Analyze runs the full pipeline for a document. Re-analysis of an already
// extracted or reviewed document is permitted and produces a superseding
// result. An empty locator falls back to the stored one.
func (uc *AnalyzeDocumentUseCase) Analyze(ctx context.Context, documentID, locator string) (*domain.AnalysisResult, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	if locator == "" {
		locator = doc.Locator
	}

	if err := uc.setState(ctx, documentID, domain.StateClassifying); err != nil {
		return nil, err
	}

	classification, err := uc.gateway.Classify(ctx, locator, uc.routerAnalyzerID, uc.registry.Candidates())
	if err != nil {
		return nil, uc.fail(ctx, documentID, fmt.Errorf("classify document: %w", err))
	}

	category, err := uc.matchCategory(classification)
	if err != nil {
		return nil, uc.fail(ctx, documentID, err)
	}

	if err := uc.setState(ctx, documentID, domain.StateClassified); err != nil {
		return nil, err
	}
	if err := uc.setState(ctx, documentID, domain.StateExtracting); err != nil {
		return nil, err
	}

	extraction, err := uc.gateway.Extract(ctx, locator, category.AnalyzerID, category.ExtractionSchema)
	if err != nil {
		return nil, uc.fail(ctx, documentID, fmt.Errorf("extract fields: %w", err))
	}

	fields, warnings := domain.CoerceFields(category.ExtractionSchema, extraction.Fields)

	result := &domain.AnalysisResult{
		DocumentID:      documentID,
		CategoryID:      category.ID,
		ExtractedFields: fields,
		// A result is only as trustworthy as its weakest stage.
		Confidence: math.Min(classification.Confidence, extraction.Confidence),
		Warnings:   warnings,
		AnalyzedAt: time.Now().UTC(),
	}

	if err := uc.results.Save(ctx, result); err != nil {
		return nil, fmt.Errorf("persist analysis result: %w", err)
	}

	if err := uc.setState(ctx, documentID, domain.StateExtracted); err != nil {
		return nil, err
	}

	return result, nil
}

// matchCategory resolves the classifier verdict against the registry and
// enforces the pipeline-wide confidence threshold. No extraction is attempted
// for an inconclusive classification.
func (uc *AnalyzeDocumentUseCase) matchCategory(cls domain.Classification) (domain.Category, error) {
	category, err := uc.registry.Resolve(cls.CategoryID)
	if err != nil {
		return domain.Category{}, domain.WrapError(
			domain.ErrInconclusive,
			"match category",
			fmt.Errorf("router returned unknown category %q", cls.CategoryID),
		)
	}
	if cls.Confidence < uc.minConfidence {
		return domain.Category{}, domain.WrapError(
			domain.ErrInconclusive,
			"match category",
			fmt.Errorf("classification confidence %.2f below threshold %.2f", cls.Confidence, uc.minConfidence),
		)
	}
	return category, nil
}

func (uc *AnalyzeDocumentUseCase) setState(ctx context.Context, documentID string, state domain.DocumentState) error {
	if err := uc.docs.UpdateState(ctx, documentID, state, domain.ReasonNone, ""); err != nil {
		return fmt.Errorf("set state=%s: %w", state, err)
	}
	return nil
}

func (uc *AnalyzeDocumentUseCase) fail(ctx context.Context, documentID string, cause error) error {
	reason := domain.ReasonNone
	switch {
	case domain.IsKind(cause, domain.ErrInconclusive):
		reason = domain.ReasonClassificationInconclusive
	case domain.IsKind(cause, domain.ErrUnavailable):
		reason = domain.ReasonAnalysisUnavailable
	}
	if err := uc.docs.UpdateState(ctx, documentID, domain.StateFailed, reason, cause.Error()); err != nil {
		return fmt.Errorf("%w; mark failed state: %v", cause, err)
	}
	return cause
}
