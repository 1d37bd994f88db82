package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

type stateChange struct {
	state  domain.DocumentState
	reason domain.FailureReason
	errMsg string
}

type fakeDocRepo struct {
	mu      sync.Mutex
	docs    map[string]*domain.Document
	changes []stateChange
}

func newFakeDocRepo(docs ...*domain.Document) *fakeDocRepo {
	repo := &fakeDocRepo{docs: make(map[string]*domain.Document)}
	for _, doc := range docs {
		repo.docs[doc.ID] = doc
	}
	return repo
}

func (r *fakeDocRepo) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("document %s", id))
	}
	return doc, nil
}

func (r *fakeDocRepo) UpdateState(
	_ context.Context,
	id string,
	state domain.DocumentState,
	reason domain.FailureReason,
	errMessage string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "update state", fmt.Errorf("document %s", id))
	}
	doc.State = state
	doc.FailureReason = reason
	doc.Error = errMessage
	r.changes = append(r.changes, stateChange{state: state, reason: reason, errMsg: errMessage})
	return nil
}

func (r *fakeDocRepo) lastChange() (stateChange, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return stateChange{}, false
	}
	return r.changes[len(r.changes)-1], true
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[string]*domain.AnalysisResult
	saveErr error
	saves   int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[string]*domain.AnalysisResult)}
}

func (r *fakeResultRepo) Save(_ context.Context, result *domain.AnalysisResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves++
	r.results[result.DocumentID] = result
	return nil
}

func (r *fakeResultRepo) Get(_ context.Context, documentID string) (*domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[documentID]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get analysis result", fmt.Errorf("document %s", documentID))
	}
	return result, nil
}

func (r *fakeResultRepo) ListRecent(_ context.Context, _ int) ([]domain.AnalysisResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AnalysisResult, 0, len(r.results))
	for _, result := range r.results {
		out = append(out, *result)
	}
	return out, nil
}

type fakeFeedbackRepo struct {
	mu      sync.Mutex
	records []domain.FeedbackRecord
}

func (r *fakeFeedbackRepo) Append(_ context.Context, record *domain.FeedbackRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *fakeFeedbackRepo) ListByDocument(_ context.Context, documentID string) ([]domain.FeedbackRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.FeedbackRecord
	for _, record := range r.records {
		if record.DocumentID == documentID {
			out = append(out, record)
		}
	}
	return out, nil
}

type fakeGateway struct {
	classifyFn func(locator, analyzerID string, candidates []domain.CategoryCandidate) (domain.Classification, error)
	extractFn  func(locator, analyzerID string, schema map[string]domain.FieldSpec) (domain.Extraction, error)

	created []string
}

func (g *fakeGateway) Classify(
	_ context.Context,
	locator, analyzerID string,
	candidates []domain.CategoryCandidate,
) (domain.Classification, error) {
	if g.classifyFn == nil {
		return domain.Classification{}, errors.New("classify not stubbed")
	}
	return g.classifyFn(locator, analyzerID, candidates)
}

func (g *fakeGateway) Extract(
	_ context.Context,
	locator, analyzerID string,
	schema map[string]domain.FieldSpec,
) (domain.Extraction, error) {
	if g.extractFn == nil {
		return domain.Extraction{}, errors.New("extract not stubbed")
	}
	return g.extractFn(locator, analyzerID, schema)
}

func (g *fakeGateway) CreateAnalyzer(_ context.Context, analyzerID string, _ domain.AnalyzerDefinition) error {
	g.created = append(g.created, analyzerID)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Save(_ context.Context, locator string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[locator] = raw
	return nil
}

func (s *fakeStorage) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.objects[locator]
	if !ok {
		return nil, fmt.Errorf("no object %s", locator)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeQueue struct {
	mu         sync.Mutex
	published  []string
	publishErr error
}

func (q *fakeQueue) PublishDocumentUploaded(_ context.Context, documentID string) error {
	if q.publishErr != nil {
		return q.publishErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, documentID)
	return nil
}

func (q *fakeQueue) SubscribeDocumentUploaded(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}
