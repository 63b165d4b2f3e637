package model

import "time"

// PlanningMode selects the threshold set used when scoring trains.
type PlanningMode int

const (
	ModeNormal PlanningMode = iota
	ModeEmergency
	ModeCrisis
)

// String returns a human-readable representation of the planning mode.
func (m PlanningMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeEmergency:
		return "emergency"
	case ModeCrisis:
		return "crisis"
	default:
		return "unknown"
	}
}

// IsEmergency reports whether the mode relaxes normal-operation thresholds.
func (m PlanningMode) IsEmergency() bool {
	return m == ModeEmergency || m == ModeCrisis
}

// Withdrawal reports a train pulled from revenue service during operation.
type Withdrawal struct {
	TrainID    string    `json:"train_id"`
	Route      string    `json:"route"`
	Reason     string    `json:"reason"`
	ReportedAt time.Time `json:"reported_at"`
}
