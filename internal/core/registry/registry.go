package registry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opsai/document-orchestrator/internal/core/domain"
)

type snapshot struct {
	ordered []domain.Category
	byID    map[string]int
}

// Registry holds the configured category set behind a swappable snapshot.
// Readers always observe the last fully written snapshot; Replace is
// all-or-nothing and serialized against concurrent writers.
//
// Configuration order is significant: List returns categories in the order
// they were submitted, which is the classifier's tie-break order.
type Registry struct {
	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

func New(categories []domain.Category) (*Registry, error) {
	r := &Registry{}
	if err := r.Replace(categories); err != nil {
		return nil, err
	}
	return r, nil
}

// Replace validates and atomically installs a new category set. On any
// validation error the prior snapshot stays intact.
func (r *Registry) Replace(categories []domain.Category) error {
	next := &snapshot{
		ordered: make([]domain.Category, len(categories)),
		byID:    make(map[string]int, len(categories)),
	}
	for i, cat := range categories {
		if err := cat.Validate(); err != nil {
			return err
		}
		if _, dup := next.byID[cat.ID]; dup {
			return domain.WrapError(
				domain.ErrValidation,
				"replace categories",
				fmt.Errorf("duplicate category id %q", cat.ID),
			)
		}
		next.ordered[i] = copyCategory(cat)
		next.byID[cat.ID] = i
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	r.current.Store(next)
	return nil
}

func (r *Registry) Resolve(categoryID string) (domain.Category, error) {
	snap := r.current.Load()
	idx, ok := snap.byID[categoryID]
	if !ok {
		return domain.Category{}, domain.WrapError(
			domain.ErrNotFound,
			"resolve category",
			fmt.Errorf("unknown category %q", categoryID),
		)
	}
	return copyCategory(snap.ordered[idx]), nil
}

func (r *Registry) List() []domain.Category {
	snap := r.current.Load()
	out := make([]domain.Category, len(snap.ordered))
	for i, cat := range snap.ordered {
		out[i] = copyCategory(cat)
	}
	return out
}

// Candidates projects the current snapshot into the shape the router
// analyzer consumes.
func (r *Registry) Candidates() []domain.CategoryCandidate {
	snap := r.current.Load()
	out := make([]domain.CategoryCandidate, len(snap.ordered))
	for i, cat := range snap.ordered {
		out[i] = cat.Candidate()
	}
	return out
}

func copyCategory(cat domain.Category) domain.Category {
	out := cat
	out.ExtractionSchema = make(map[string]domain.FieldSpec, len(cat.ExtractionSchema))
	for name, spec := range cat.ExtractionSchema {
		out.ExtractionSchema[name] = spec
	}
	return out
}
