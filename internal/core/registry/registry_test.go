package registry

import (
	"testing"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

func testCategories() []domain.Category {
	return []domain.Category{
		{
			ID:         "invoice",
			AnalyzerID: "invoice-extractor",
			ExtractionSchema: map[string]domain.FieldSpec{
				"total": {Type: domain.FieldNumber},
			},
			ClassificationPrompt: "an invoice",
		},
		{
			ID:                   "receipt",
			AnalyzerID:           "receipt-extractor",
			ClassificationPrompt: "a receipt",
		},
	}
}

func TestRegistryListPreservesOrder(t *testing.T) {
	reg, err := New(testCategories())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	listed := reg.List()
	if len(listed) != 2 || listed[0].ID != "invoice" || listed[1].ID != "receipt" {
		t.Fatalf("unexpected order: %v", listed)
	}

	candidates := reg.Candidates()
	if len(candidates) != 2 || candidates[0].ID != "invoice" || candidates[0].Prompt != "an invoice" {
		t.Fatalf("unexpected candidates: %v", candidates)
	}
}

func TestRegistryResolveUnknownCategory(t *testing.T) {
	reg, err := New(testCategories())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	if _, err := reg.Resolve("tax-form"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistryReplaceRejectsDuplicatesKeepingPriorSnapshot(t *testing.T) {
	reg, err := New(testCategories())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	err = reg.Replace([]domain.Category{
		{ID: "invoice", AnalyzerID: "a"},
		{ID: "invoice", AnalyzerID: "b"},
	})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	// Prior snapshot must still be readable.
	if _, err := reg.Resolve("receipt"); err != nil {
		t.Fatalf("prior snapshot lost after rejected replace: %v", err)
	}
}

func TestRegistryReplaceRejectsInvalidCategory(t *testing.T) {
	reg, err := New(testCategories())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	err = reg.Replace([]domain.Category{{ID: "bad", AnalyzerID: ""}})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(reg.List()) != 2 {
		t.Fatalf("prior snapshot must survive a rejected replace")
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	reg, err := New(testCategories())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	cat, err := reg.Resolve("invoice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	cat.ExtractionSchema["injected"] = domain.FieldSpec{Type: domain.FieldString}

	fresh, err := reg.Resolve("invoice")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := fresh.ExtractionSchema["injected"]; ok {
		t.Fatalf("resolved category must not share schema map with the snapshot")
	}
}
