package contentai

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/opsai/document-orchestrator/internal/core/domain"
	"github.com/opsai/document-orchestrator/internal/infrastructure/resilience"
)

// Client talks to the external content analysis service. Every call is
// bounded by a per-call timeout and guarded by the resilience executor;
// exhausted transient failures surface as domain.ErrUnavailable.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	executor    *resilience.Executor
	callTimeout time.Duration
}

func New(baseURL, apiKey string, executor *resilience.Executor, callTimeout time.Duration) *Client {
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		executor:    executor,
		callTimeout: callTimeout,
	}
}

type classifyRequest struct {
	Locator    string                     `json:"locator"`
	Candidates []domain.CategoryCandidate `json:"candidates"`
}

type classifyResponse struct {
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
}

func (c *Client) Classify(
	ctx context.Context,
	locator, analyzerID string,
	candidates []domain.CategoryCandidate,
) (domain.Classification, error) {
	request := classifyRequest{Locator: locator, Candidates: candidates}

	var response classifyResponse
	if err := c.call(ctx, "classify", http.MethodPost, "/analyzers/"+analyzerID+":classify", request, &response); err != nil {
		return domain.Classification{}, err
	}
	return domain.Classification{
		CategoryID: response.CategoryID,
		Confidence: response.Confidence,
	}, nil
}

type extractRequest struct {
	Locator string                      `json:"locator"`
	Schema  map[string]domain.FieldSpec `json:"schema"`
}

type extractResponse struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
}

func (c *Client) Extract(
	ctx context.Context,
	locator, analyzerID string,
	schema map[string]domain.FieldSpec,
) (domain.Extraction, error) {
	request := extractRequest{Locator: locator, Schema: schema}

	var response extractResponse
	if err := c.call(ctx, "extract", http.MethodPost, "/analyzers/"+analyzerID+":extract", request, &response); err != nil {
		return domain.Extraction{}, err
	}
	if response.Fields == nil {
		response.Fields = map[string]any{}
	}
	return domain.Extraction{
		Fields:     response.Fields,
		Confidence: response.Confidence,
	}, nil
}

func (c *Client) CreateAnalyzer(ctx context.Context, analyzerID string, definition domain.AnalyzerDefinition) error {
	return c.call(ctx, "create_analyzer", http.MethodPut, "/analyzers/"+analyzerID, definition, nil)
}

func (c *Client) call(ctx context.Context, operation, method, path string, payload, out any) error {
	fn := func(callCtx context.Context) error {
		boundedCtx, cancel := context.WithTimeout(callCtx, c.callTimeout)
		defer cancel()
		return c.do(boundedCtx, operation, method, path, payload, out)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "contentai."+operation, fn, classifyTransportError)
	} else {
		err = fn(ctx)
	}
	return wrapUnavailableIfNeeded(operation, err)
}
