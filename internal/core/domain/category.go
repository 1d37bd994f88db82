package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FieldType is the fixed primitive set allowed in extraction schemas.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
)

func (t FieldType) Valid() bool {
	switch t {
	case FieldString, FieldNumber, FieldBoolean, FieldDate:
		return true
	default:
		return false
	}
}

type FieldSpec struct {
	Type        FieldType `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Category is a configured document type: how to recognize it and what to
// extract from it.
type Category struct {
	ID                   string               `json:"id" yaml:"id"`
	DisplayName          string               `json:"display_name" yaml:"display_name"`
	AnalyzerID           string               `json:"analyzer_id" yaml:"analyzer_id"`
	ClassificationPrompt string               `json:"classification_prompt" yaml:"classification_prompt"`
	ExtractionSchema     map[string]FieldSpec `json:"extraction_schema" yaml:"extraction_schema"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return WrapError(ErrValidation, "validate category", errors.New("category id is required"))
	}
	if strings.TrimSpace(c.AnalyzerID) == "" {
		return WrapError(ErrValidation, "validate category", fmt.Errorf("category %q: analyzer_id is required", c.ID))
	}
	for name, spec := range c.ExtractionSchema {
		if strings.TrimSpace(name) == "" {
			return WrapError(ErrValidation, "validate category", fmt.Errorf("category %q: empty field name", c.ID))
		}
		if !spec.Type.Valid() {
			return WrapError(
				ErrValidation,
				"validate category",
				fmt.Errorf("category %q: field %q has unsupported type %q", c.ID, name, spec.Type),
			)
		}
	}
	return nil
}

// CategoryCandidate is the slice of a category handed to the router analyzer
// during classification.
type CategoryCandidate struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
}

func (c Category) Candidate() CategoryCandidate {
	return CategoryCandidate{ID: c.ID, Prompt: c.ClassificationPrompt}
}
