// Package planlog records planning decisions to an append-only audit log.
// Every generated plan, override, withdrawal and replacement lands here so
// the night's decisions can be reconstructed afterwards.
package planlog

import (
	"encoding/json"
	"time"
)

// Entry kinds.
const (
	KindPlanGenerated = "plan_generated"
	KindPlanApproved  = "plan_approved"
	KindOverride      = "override"
	KindWithdrawal    = "withdrawal"
	KindReplacement   = "replacement"
	KindCrisis        = "crisis"
)

// Entry is one audit record.
type Entry struct {
	Time        time.Time       `json:"time"`
	Kind        string          `json:"kind"`
	Depot       string          `json:"depot,omitempty"`
	ServiceDate string          `json:"service_date,omitempty"`
	PlanID      string          `json:"plan_id,omitempty"`
	Version     int             `json:"version,omitempty"`
	TrainID     string          `json:"train_id,omitempty"`
	Detail      json.RawMessage `json:"detail,omitempty"`
}

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	Depot   string
	Kind    string
	TrainID string
	PlanID  string
	From    time.Time
	To      time.Time
}

func (f Filter) matches(e Entry) bool {
	if f.Depot != "" && e.Depot != f.Depot {
		return false
	}
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.TrainID != "" && e.TrainID != f.TrainID {
		return false
	}
	if f.PlanID != "" && e.PlanID != f.PlanID {
		return false
	}
	if !f.From.IsZero() && e.Time.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Time.After(f.To) {
		return false
	}
	return true
}

// Store persists audit entries.
type Store interface {
	Append(Entry) error
	Query(Filter) ([]Entry, error)
	Close() error
}

// NopStore discards entries, for tests and dry runs.
type NopStore struct{}

func (NopStore) Append(Entry) error            { return nil }
func (NopStore) Query(Filter) ([]Entry, error) { return nil, nil }
func (NopStore) Close() error                  { return nil }

// DetailOf marshals v for an entry's detail field. Marshal failures yield a
// nil detail.
func DetailOf(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
