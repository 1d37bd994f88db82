package domain

// AnalyzerDefinition is the payload used to create or update an analyzer in
// the external analysis service.
type AnalyzerDefinition struct {
	Description       string               `json:"description"`
	BaseAnalyzerID    string               `json:"base_analyzer_id"`
	FieldSchema       map[string]FieldSpec `json:"field_schema,omitempty"`
	ContentCategories []ContentCategory    `json:"content_categories,omitempty"`
}

// ContentCategory is one routing target inside the router analyzer.
type ContentCategory struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	AnalyzerID  string `json:"analyzer_id"`
}
