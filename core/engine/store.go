package engine

import (
	"errors"
	"sync"

	"github.com/kmrl/induction/core/model"
)

// ErrPlanNotFound is returned when no plan matches the lookup.
var ErrPlanNotFound = errors.New("engine: plan not found")

// PlanStore keeps induction plans by ID and by depot/date version chain.
type PlanStore interface {
	Put(plan *model.InductionPlan) error
	Get(planID string) (*model.InductionPlan, error)
	Latest(depot, serviceDate string) (*model.InductionPlan, error)
	Versions(depot, serviceDate string) ([]*model.InductionPlan, error)
}

// MemoryStore is the in-process PlanStore. Plans are stored as copies so
// callers cannot mutate stored state behind the store's back.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*model.InductionPlan
	chains map[string][]string
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*model.InductionPlan),
		chains: make(map[string][]string),
	}
}

func chainKey(depot, serviceDate string) string { return depot + "|" + serviceDate }

// Put stores or replaces a plan and appends it to its depot/date chain.
func (s *MemoryStore) Put(plan *model.InductionPlan) error {
	cp := plan.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[cp.ID]; !exists {
		key := chainKey(cp.Depot, cp.ServiceDate)
		s.chains[key] = append(s.chains[key], cp.ID)
	}
	s.byID[cp.ID] = &cp
	return nil
}

// Get returns a copy of the plan.
func (s *MemoryStore) Get(planID string) (*model.InductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := p.Clone()
	return &cp, nil
}

// Latest returns the newest plan for the depot and service date.
func (s *MemoryStore) Latest(depot, serviceDate string) (*model.InductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.chains[chainKey(depot, serviceDate)]
	if len(chain) == 0 {
		return nil, ErrPlanNotFound
	}
	cp := s.byID[chain[len(chain)-1]].Clone()
	return &cp, nil
}

// Versions returns every plan version for the depot and service date, oldest
// first.
func (s *MemoryStore) Versions(depot, serviceDate string) ([]*model.InductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chain := s.chains[chainKey(depot, serviceDate)]
	if len(chain) == 0 {
		return nil, ErrPlanNotFound
	}
	out := make([]*model.InductionPlan, len(chain))
	for i, id := range chain {
		cp := s.byID[id].Clone()
		out[i] = &cp
	}
	return out, nil
}
