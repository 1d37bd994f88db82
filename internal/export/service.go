package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
)

// Service renders recent analysis results, with feedback applied, into an
// XLSX workbook for reviewers.
type Service struct {
	results  ports.ResultRepository
	feedback ports.FeedbackRepository
	logger   *slog.Logger
}

func NewService(results ports.ResultRepository, feedback ports.FeedbackRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{results: results, feedback: feedback, logger: logger}
}

const sheet = "Results"

func (s *Service) ExportResultsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	results, err := s.results.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{
		"Document ID",
		"Category",
		"Confidence",
		"Analyzed At",
		"Extracted Fields",
		"Effective Fields",
		"Feedback Count",
	}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, result := range results {
		history, err := s.feedback.ListByDocument(ctx, result.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("list feedback for %s: %w", result.DocumentID, err)
		}
		effective := domain.EffectiveFields(&result, history)

		row := []any{
			result.DocumentID,
			result.CategoryID,
			result.Confidence,
			result.AnalyzedAt.UTC().Format(time.RFC3339),
			renderFields(result.ExtractedFields),
			renderFields(effective),
			len(history),
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("results_export",
		"rows", len(results),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return buf.Bytes(), nil
}

// renderFields produces a stable, human-scannable cell value.
func renderFields(fields map[string]any) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	out := ""
	for _, name := range names {
		value, err := json.Marshal(fields[name])
		if err != nil {
			value = []byte(fmt.Sprintf("%v", fields[name]))
		}
		if out != "" {
			out += "; "
		}
		out += name + "=" + string(value)
	}
	return out
}
