package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

// PipelineFile is the declarative pipeline configuration: the analysis
// service coordinates plus the full ordered category set. Category order in
// the file is the classifier tie-break order.
type PipelineFile struct {
	Service struct {
		Endpoint         string `yaml:"endpoint"`
		RouterAnalyzerID string `yaml:"router_analyzer_id"`
	} `yaml:"service"`
	Categories []domain.Category `yaml:"categories"`
}

func LoadPipeline(path string) (PipelineFile, error) {
	var pf PipelineFile

	raw, err := os.ReadFile(path)
	if err != nil {
		return pf, fmt.Errorf("read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return pf, domain.WrapError(domain.ErrValidation, "parse pipeline config", err)
	}
	return pf, nil
}

// SavePipeline rewrites the pipeline file after a successful registry
// replace, so a restart comes up with the replaced category set.
func SavePipeline(path string, pf PipelineFile) error {
	raw, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("marshal pipeline config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pipeline config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write pipeline config: %w", err)
	}
	return nil
}
