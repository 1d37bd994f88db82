package usecase

import (
	"context"
	"fmt"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
)

// All provisioned analyzers derive from the service's prebuilt document
// analyzer.
const baseAnalyzerID = "prebuilt-document"

// ProvisionAnalyzersUseCase pushes analyzer definitions derived from the
// category registry to the analysis service: one extractor per category plus
// the router that knows every category's classification prompt.
type ProvisionAnalyzersUseCase struct {
	registry         ports.CategoryRegistry
	gateway          ports.AnalysisGateway
	routerAnalyzerID string
}

func NewProvisionAnalyzersUseCase(
	registry ports.CategoryRegistry,
	gateway ports.AnalysisGateway,
	routerAnalyzerID string,
) *ProvisionAnalyzersUseCase {
	return &ProvisionAnalyzersUseCase{
		registry:         registry,
		gateway:          gateway,
		routerAnalyzerID: routerAnalyzerID,
	}
}

func (uc *ProvisionAnalyzersUseCase) Provision(ctx context.Context) (string, []string, error) {
	categories := uc.registry.List()

	analyzerIDs := make([]string, 0, len(categories))
	contentCategories := make([]domain.ContentCategory, 0, len(categories))
	for _, cat := range categories {
		definition := domain.AnalyzerDefinition{
			Description:    "Extractor for " + cat.DisplayName,
			BaseAnalyzerID: baseAnalyzerID,
			FieldSchema:    cat.ExtractionSchema,
		}
		if err := uc.gateway.CreateAnalyzer(ctx, cat.AnalyzerID, definition); err != nil {
			return "", nil, fmt.Errorf("create analyzer %s: %w", cat.AnalyzerID, err)
		}
		analyzerIDs = append(analyzerIDs, cat.AnalyzerID)
		contentCategories = append(contentCategories, domain.ContentCategory{
			ID:          cat.ID,
			Description: cat.ClassificationPrompt,
			AnalyzerID:  cat.AnalyzerID,
		})
	}

	router := domain.AnalyzerDefinition{
		Description:       "Document classification router",
		BaseAnalyzerID:    baseAnalyzerID,
		ContentCategories: contentCategories,
	}
	if err := uc.gateway.CreateAnalyzer(ctx, uc.routerAnalyzerID, router); err != nil {
		return "", nil, fmt.Errorf("create router analyzer %s: %w", uc.routerAnalyzerID, err)
	}

	return uc.routerAnalyzerID, analyzerIDs, nil
}
