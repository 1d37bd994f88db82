package domain

import "time"

type DocumentState string

const (
	StateUploaded    DocumentState = "uploaded"
	StateClassifying DocumentState = "classifying"
	StateClassified  DocumentState = "classified"
	StateExtracting  DocumentState = "extracting"
	StateExtracted   DocumentState = "extracted"
	StateReviewed    DocumentState = "reviewed"
	StateFailed      DocumentState = "failed"
)

type FailureReason string

const (
	ReasonNone                       FailureReason = ""
	ReasonClassificationInconclusive FailureReason = "classification_inconclusive"
	ReasonAnalysisUnavailable        FailureReason = "analysis_unavailable"
)

// Document is the immutable upload record plus its pipeline state.
type Document struct {
	ID            string        `json:"id"`
	Locator       string        `json:"locator"`
	Filename      string        `json:"filename"`
	ContentType   string        `json:"content_type"`
	State         DocumentState `json:"state"`
	FailureReason FailureReason `json:"failure_reason,omitempty"`
	Error         string        `json:"error,omitempty"`
	UploadedAt    time.Time     `json:"uploaded_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Classification is the router analyzer's verdict for a document.
type Classification struct {
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
}

// Extraction is the raw field payload returned by a category analyzer,
// before schema filtering and coercion.
type Extraction struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
}

// AnalysisResult is one analysis attempt. Re-analysis writes a new result
// that supersedes the prior one, last-write-wins by AnalyzedAt.
type AnalysisResult struct {
	DocumentID      string         `json:"document_id"`
	CategoryID      string         `json:"category_id,omitempty"`
	ExtractedFields map[string]any `json:"extracted_fields"`
	Confidence      float64        `json:"confidence"`
	Warnings        []string       `json:"warnings,omitempty"`
	AnalyzedAt      time.Time      `json:"analyzed_at"`
}

// FeedbackRecord is an append-only reviewer correction. The original
// extracted fields are never mutated.
type FeedbackRecord struct {
	ID              string         `json:"id"`
	DocumentID      string         `json:"document_id"`
	CorrectedFields map[string]any `json:"corrected_fields"`
	Reviewer        string         `json:"reviewer"`
	Comment         string         `json:"comment,omitempty"`
	SubmittedAt     time.Time      `json:"submitted_at"`
}

// EffectiveFields applies feedback records in submission order on top of the
// extracted fields. Applying the same record twice is a no-op.
func EffectiveFields(result *AnalysisResult, feedback []FeedbackRecord) map[string]any {
	fields := make(map[string]any, len(result.ExtractedFields))
	for name, value := range result.ExtractedFields {
		fields[name] = value
	}
	for _, record := range feedback {
		for name, value := range record.CorrectedFields {
			fields[name] = value
		}
	}
	return fields
}
