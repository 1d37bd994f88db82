package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/opsai/document-orchestrator/internal/config"
	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/core/ports"
	"github.com/opsai/document-orchestrator/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	cfg config.Config

	docs        ports.DocumentRepository
	uploader    ports.DocumentUploader
	analyzer    ports.DocumentAnalyzer
	results     ports.ResultReader
	feedback    ports.FeedbackService
	registry    ports.CategoryRegistry
	persister   ports.ConfigPersister
	provisioner ports.AnalyzerProvisioner
	exporter    ports.ResultExporter

	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	docs ports.DocumentRepository,
	uploader ports.DocumentUploader,
	analyzer ports.DocumentAnalyzer,
	results ports.ResultReader,
	feedback ports.FeedbackService,
	registry ports.CategoryRegistry,
	persister ports.ConfigPersister,
	provisioner ports.AnalyzerProvisioner,
	exporter ports.ResultExporter,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:         cfg,
		docs:        docs,
		uploader:    uploader,
		analyzer:    analyzer,
		results:     results,
		feedback:    feedback,
		registry:    registry,
		persister:   persister,
		provisioner: provisioner,
		exporter:    exporter,
		metrics:     m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.documentSubroutes)
	mux.HandleFunc("/v1/config", rt.handleConfig)
	mux.HandleFunc("/v1/config/analyzers:setup", rt.setupAnalyzers)
	mux.HandleFunc("/v1/export/results", rt.exportResults)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	handler := rateLimitMiddleware(mux, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error: "multipart field 'file' is required",
			Code:  "validation_error",
		})
		return
	}
	defer file.Close()

	doc, err := rt.uploader.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload(serviceName)
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"document_id": doc.ID,
		"locator":     doc.Locator,
		"filename":    doc.Filename,
		"state":       doc.State,
		"uploaded_at": doc.UploadedAt,
	})
}

func (rt *Router) documentSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{
			Error: "document id is required",
			Code:  "validation_error",
		})
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		rt.getDocument(w, r, id)
	case "analyze":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		rt.analyzeDocument(w, r, id)
	case "result":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		rt.getResult(w, r, id)
	case "feedback":
		switch r.Method {
		case http.MethodPost:
			rt.submitFeedback(w, r, id)
		case http.MethodGet:
			rt.listFeedback(w, r, id)
		default:
			writeMethodNotAllowed(w)
		}
	default:
		http.NotFound(w, r)
	}
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	doc, err := rt.docs.GetByID(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) analyzeDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	var req struct {
		Locator string `json:"locator"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid json", Code: "validation_error"})
			return
		}
	}

	start := time.Now()
	result, err := rt.analyzer.Analyze(r.Context(), documentID, req.Locator)
	if rt.metrics != nil {
		confidence := 0.0
		if result != nil {
			confidence = result.Confidence
		}
		rt.metrics.RecordAnalysis(serviceName, analysisOutcome(err), confidence, time.Since(start))
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getResult(w http.ResponseWriter, r *http.Request, documentID string) {
	result, effective, err := rt.results.Result(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":      result.DocumentID,
		"category_id":      result.CategoryID,
		"extracted_fields": result.ExtractedFields,
		"effective_fields": effective,
		"confidence":       result.Confidence,
		"warnings":         result.Warnings,
		"analyzed_at":      result.AnalyzedAt,
	})
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request, documentID string) {
	var req struct {
		CorrectedFields map[string]any `json:"corrected_fields"`
		Reviewer        string         `json:"reviewer"`
		Comment         string         `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid json", Code: "validation_error"})
		return
	}

	effective, err := rt.feedback.Submit(r.Context(), documentID, req.CorrectedFields, req.Reviewer, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordFeedback(serviceName)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":      documentID,
		"effective_fields": effective,
	})
}

func (rt *Router) listFeedback(w http.ResponseWriter, r *http.Request, documentID string) {
	records, err := rt.feedback.History(r.Context(), documentID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.FeedbackRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": documentID,
		"feedback":    records,
	})
}

func (rt *Router) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"service": map[string]string{
				"endpoint":           rt.cfg.ContentAIURL,
				"router_analyzer_id": rt.cfg.RouterAnalyzerID,
			},
			"categories": rt.registry.List(),
		})
	case http.MethodPut:
		rt.replaceConfig(w, r)
	default:
		writeMethodNotAllowed(w)
	}
}

func (rt *Router) replaceConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid json", Code: "validation_error"})
		return
	}

	if err := rt.registry.Replace(req.Categories); err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordConfigReplace(serviceName, "rejected")
		}
		writeError(w, err)
		return
	}
	if err := rt.persister.Persist(req.Categories); err != nil {
		if rt.metrics != nil {
			rt.metrics.RecordConfigReplace(serviceName, "persist_error")
		}
		writeError(w, domain.WrapError(domain.ErrPersistence, "persist pipeline config", err))
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordConfigReplace(serviceName, "applied")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "configuration updated",
		"categories": len(req.Categories),
	})
}

func (rt *Router) setupAnalyzers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}

	routerID, analyzerIDs, err := rt.provisioner.Provision(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":            "analyzers created/updated",
		"router_analyzer_id": routerID,
		"category_analyzers": analyzerIDs,
	})
}

func (rt *Router) exportResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}

	workbook, err := rt.exporter.ExportResultsXLSX(r.Context(), rt.cfg.ExportResultLimit)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="analysis-results.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func analysisOutcome(err error) string {
	switch {
	case err == nil:
		return "extracted"
	case domain.IsKind(err, domain.ErrInconclusive):
		return "classification_inconclusive"
	case domain.IsKind(err, domain.ErrUnavailable):
		return "analysis_unavailable"
	default:
		return "error"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, errorPayload{Error: err.Error(), Code: errorCode(err)})
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorPayload{Error: "method not allowed", Code: "validation_error"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
