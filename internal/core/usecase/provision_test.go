package usecase

import (
	"context"
	"testing"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/registry"
)

func TestProvisionCreatesCategoryAnalyzersThenRouter(t *testing.T) {
	reg, err := registry.New([]domain.Category{
		{
			ID:                   "invoice",
			DisplayName:          "Invoice",
			AnalyzerID:           "invoice-extractor",
			ClassificationPrompt: "an invoice",
			ExtractionSchema: map[string]domain.FieldSpec{
				"total": {Type: domain.FieldNumber},
			},
		},
		{
			ID:                   "receipt",
			DisplayName:          "Receipt",
			AnalyzerID:           "receipt-extractor",
			ClassificationPrompt: "a receipt",
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	gateway := &fakeGateway{}
	uc := NewProvisionAnalyzersUseCase(reg, gateway, "doc-router")

	routerID, analyzerIDs, err := uc.Provision(context.Background())
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if routerID != "doc-router" {
		t.Fatalf("unexpected router id: %q", routerID)
	}
	if len(analyzerIDs) != 2 || analyzerIDs[0] != "invoice-extractor" || analyzerIDs[1] != "receipt-extractor" {
		t.Fatalf("unexpected analyzer ids: %v", analyzerIDs)
	}
	// The router is pushed last so it never references an analyzer that does
	// not exist yet.
	if len(gateway.created) != 3 || gateway.created[2] != "doc-router" {
		t.Fatalf("unexpected creation order: %v", gateway.created)
	}
}
