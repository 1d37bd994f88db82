package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("unexpected default port: %q", cfg.APIPort)
	}
	if cfg.MinClassificationConfidence != 0.6 {
		t.Fatalf("unexpected default threshold: %v", cfg.MinClassificationConfidence)
	}
	if cfg.NATSSubject != "documents.uploaded" {
		t.Fatalf("unexpected default subject: %q", cfg.NATSSubject)
	}
	if cfg.RouterAnalyzerID != "doc-router" {
		t.Fatalf("unexpected default router analyzer: %q", cfg.RouterAnalyzerID)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("PIPELINE_MIN_CLASSIFICATION_CONFIDENCE", "0.85")
	t.Setenv("API_RATE_LIMIT_RPS", "5")

	cfg := Load()
	if cfg.APIPort != "9999" {
		t.Fatalf("env override ignored: %q", cfg.APIPort)
	}
	if cfg.MinClassificationConfidence != 0.85 {
		t.Fatalf("env override ignored: %v", cfg.MinClassificationConfidence)
	}
	if cfg.APIRateLimitRPS != 5 {
		t.Fatalf("env override ignored: %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("PIPELINE_MIN_CLASSIFICATION_CONFIDENCE", "not-a-number")
	t.Setenv("API_RATE_LIMIT_RPS", "also-bad")

	cfg := Load()
	if cfg.MinClassificationConfidence != 0.6 {
		t.Fatalf("invalid float must fall back, got %v", cfg.MinClassificationConfidence)
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("invalid int must fall back, got %v", cfg.APIRateLimitRPS)
	}
}

func TestPipelineRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline.yaml")

	var pf PipelineFile
	pf.Service.Endpoint = "http://localhost:7071"
	pf.Service.RouterAnalyzerID = "doc-router"
	pf.Categories = []domain.Category{
		{
			ID:                   "invoice",
			DisplayName:          "Invoice",
			AnalyzerID:           "invoice-extractor",
			ClassificationPrompt: "an invoice",
			ExtractionSchema: map[string]domain.FieldSpec{
				"total":     {Type: domain.FieldNumber, Description: "grand total"},
				"issued_on": {Type: domain.FieldDate},
			},
		},
	}

	if err := SavePipeline(path, pf); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Service.RouterAnalyzerID != "doc-router" {
		t.Fatalf("unexpected service block: %+v", loaded.Service)
	}
	if len(loaded.Categories) != 1 {
		t.Fatalf("unexpected categories: %v", loaded.Categories)
	}
	cat := loaded.Categories[0]
	if cat.ExtractionSchema["total"].Type != domain.FieldNumber {
		t.Fatalf("schema lost in round trip: %+v", cat.ExtractionSchema)
	}
	if cat.ExtractionSchema["total"].Description != "grand total" {
		t.Fatalf("description lost in round trip: %+v", cat.ExtractionSchema)
	}
}

func TestLoadPipelineMissingFile(t *testing.T) {
	_, err := LoadPipeline(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file must be distinguishable, got %v", err)
	}
}

func TestLoadPipelineRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("categories: [unterminated"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := LoadPipeline(path)
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
