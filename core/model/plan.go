package model

import "time"

// AssignmentType is the role a train is given for the next service day.
type AssignmentType string

const (
	AssignService      AssignmentType = "SERVICE"
	AssignStandby      AssignmentType = "STANDBY"
	AssignIBLMaint     AssignmentType = "IBL_MAINTENANCE"
	AssignIBLCleaning  AssignmentType = "IBL_CLEANING"
	AssignIBLBoth      AssignmentType = "IBL_BOTH"
	AssignOutOfService AssignmentType = "OUT_OF_SERVICE"
)

// IsIBL reports whether the assignment routes the train to a maintenance bay.
func (a AssignmentType) IsIBL() bool {
	return a == AssignIBLMaint || a == AssignIBLCleaning || a == AssignIBLBoth
}

// ScoreBreakdown carries one domain evaluation of a train.
type ScoreBreakdown struct {
	Domain         string   `json:"domain"`
	Score          float64  `json:"score"`
	Status         string   `json:"status"`
	Blocking       bool     `json:"blocking"`
	MustIBL        bool     `json:"must_ibl,omitempty"`
	DataIncomplete bool     `json:"data_incomplete,omitempty"`
	Reasons        []string `json:"reasons,omitempty"`
}

// Assignment is one train's slot in an induction plan.
type Assignment struct {
	TrainID     string           `json:"train_id"`
	TrainNumber string           `json:"train_number"`
	Type        AssignmentType   `json:"assignment"`
	Rank        int              `json:"rank,omitempty"`
	Track       string           `json:"track,omitempty"`
	Composite   float64          `json:"composite_score"`
	Breakdown   []ScoreBreakdown `json:"breakdown,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Overridden  bool             `json:"overridden,omitempty"`
}

// ConflictSeverity orders conflicts for presentation.
type ConflictSeverity string

const (
	SeverityCritical ConflictSeverity = "critical"
	SeverityHigh     ConflictSeverity = "high"
	SeverityMedium   ConflictSeverity = "medium"
	SeverityLow      ConflictSeverity = "low"
)

// Conflict records a cross-domain tension the planner detected, with the
// resolution it applied.
type Conflict struct {
	TrainID    string           `json:"train_id"`
	Kind       string           `json:"kind"`
	Severity   ConflictSeverity `json:"severity"`
	Detail     string           `json:"detail"`
	Resolution string           `json:"resolution,omitempty"`
}

// AlertType classifies operator alerts raised during planning.
type AlertType string

const (
	AlertCertificateExpiring AlertType = "certificate_expiring"
	AlertFitnessInvalid      AlertType = "fitness_invalid"
	AlertSafetyJobOpen       AlertType = "safety_job_open"
	AlertMileageThreshold    AlertType = "mileage_threshold"
	AlertMileageImbalance    AlertType = "mileage_imbalance"
	AlertBrandingAtRisk      AlertType = "branding_at_risk"
	AlertVIPPrep             AlertType = "vip_prep"
	AlertCapacityInfeasible  AlertType = "capacity_infeasible"
)

// Alert is an operator-facing flag attached to a plan.
type Alert struct {
	Type     AlertType        `json:"type"`
	TrainID  string           `json:"train_id,omitempty"`
	Severity ConflictSeverity `json:"severity"`
	Message  string           `json:"message"`
}

// OverrideRecord is one audit entry of a manual change to a plan.
type OverrideRecord struct {
	ID         string         `json:"id"`
	PlanID     string         `json:"plan_id"`
	TrainID    string         `json:"train_id"`
	From       AssignmentType `json:"from"`
	To         AssignmentType `json:"to"`
	Reason     string         `json:"reason"`
	Supervisor string         `json:"supervisor"`
	At         time.Time      `json:"at"`
}

// PlanStatus tracks the lifecycle of an induction plan.
type PlanStatus string

const (
	PlanDraft      PlanStatus = "draft"
	PlanApproved   PlanStatus = "approved"
	PlanSuperseded PlanStatus = "superseded"
)

// PlanCounts summarizes assignments per role.
type PlanCounts struct {
	Service      int `json:"service"`
	Standby      int `json:"standby"`
	IBL          int `json:"ibl"`
	OutOfService int `json:"out_of_service"`
}

// InductionPlan is the output of one planning run: a role for every train in
// the depot, plus the conflicts, alerts and overrides accumulated on it.
type InductionPlan struct {
	ID          string           `json:"id"`
	Depot       string           `json:"depot"`
	ServiceDate string           `json:"service_date"`
	Version     int              `json:"version"`
	Status      PlanStatus       `json:"status"`
	Mode        PlanningMode     `json:"mode"`
	Degraded    bool             `json:"degraded,omitempty"`
	GeneratedAt time.Time        `json:"generated_at"`
	ApprovedBy  string           `json:"approved_by,omitempty"`
	Assignments []Assignment     `json:"assignments"`
	Counts      PlanCounts       `json:"counts"`
	Conflicts   []Conflict       `json:"conflicts,omitempty"`
	Alerts      []Alert          `json:"alerts,omitempty"`
	Overrides   []OverrideRecord `json:"overrides,omitempty"`
}

// AssignmentOf returns the assignment for a train, or nil.
func (p *InductionPlan) AssignmentOf(trainID string) *Assignment {
	for i := range p.Assignments {
		if p.Assignments[i].TrainID == trainID {
			return &p.Assignments[i]
		}
	}
	return nil
}

// Recount recomputes Counts from the assignment list.
func (p *InductionPlan) Recount() {
	var c PlanCounts
	for _, a := range p.Assignments {
		switch {
		case a.Type == AssignService:
			c.Service++
		case a.Type == AssignStandby:
			c.Standby++
		case a.Type.IsIBL():
			c.IBL++
		default:
			c.OutOfService++
		}
	}
	p.Counts = c
}

// Clone returns a deep copy of the plan.
func (p InductionPlan) Clone() InductionPlan {
	out := p
	out.Assignments = make([]Assignment, len(p.Assignments))
	for i, a := range p.Assignments {
		a.Breakdown = append([]ScoreBreakdown(nil), a.Breakdown...)
		out.Assignments[i] = a
	}
	out.Conflicts = append([]Conflict(nil), p.Conflicts...)
	out.Alerts = append([]Alert(nil), p.Alerts...)
	out.Overrides = append([]OverrideRecord(nil), p.Overrides...)
	return out
}

// ReplacementCandidate is one standby train evaluated for an emergency swap.
type ReplacementCandidate struct {
	TrainID          string        `json:"train_id"`
	ReadinessScore   float64       `json:"readiness_score"`
	DeploymentEst    time.Duration `json:"deployment_estimate"`
	ShuntingMoves    int           `json:"shunting_moves"`
	CleaningComplete bool          `json:"cleaning_complete"`
	Reasons          []string      `json:"reasons,omitempty"`
}

// ReplacementPlan is the outcome of an emergency replacement search.
type ReplacementPlan struct {
	Withdrawal Withdrawal             `json:"withdrawal"`
	Chosen     *ReplacementCandidate  `json:"chosen,omitempty"`
	Candidates []ReplacementCandidate `json:"candidates,omitempty"`
	DecidedIn  time.Duration          `json:"decided_in"`
	DecidedAt  time.Time              `json:"decided_at"`
}
