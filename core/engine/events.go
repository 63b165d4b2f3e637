package engine

import "github.com/kmrl/induction/core/model"

// Event kinds as seen by kind-filtered bus subscribers.
const (
	KindPlanGenerated      = "plan_generated"
	KindPlanApproved       = "plan_approved"
	KindPlanOverridden     = "plan_overridden"
	KindWithdrawalReceived = "withdrawal_received"
	KindReplacementDecided = "replacement_decided"
)

// PlanGenerated is published after a plan lands in the store.
type PlanGenerated struct {
	Plan model.InductionPlan
}

func (PlanGenerated) Kind() string { return KindPlanGenerated }

// PlanApproved is published when a supervisor signs off a plan.
type PlanApproved struct {
	PlanID string
	By     string
}

// PlanOverridden is published after a manual assignment change.
type PlanOverridden struct {
	Plan   model.InductionPlan
	Record model.OverrideRecord
}

// WithdrawalReceived is published when a service train reports a failure.
type WithdrawalReceived struct {
	Withdrawal model.Withdrawal
	Crisis     bool
}

// ReplacementDecided is published after a quick-check swap.
type ReplacementDecided struct {
	Plan        model.InductionPlan
	Replacement model.ReplacementPlan
}

func (PlanApproved) Kind() string { return KindPlanApproved }

func (PlanOverridden) Kind() string { return KindPlanOverridden }

func (WithdrawalReceived) Kind() string { return KindWithdrawalReceived }

func (ReplacementDecided) Kind() string { return KindReplacementDecided }
