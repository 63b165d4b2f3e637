// Package whatif runs hypothetical planning scenarios against a cloned
// fleet snapshot and reports how the plan would change. The baseline
// snapshot and plan are never touched.
package whatif

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kmrl/induction/core/logger"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/planner"
)

// Transform mutates the cloned snapshot to express a hypothesis.
type Transform func(*model.FleetSnapshot)

// Scenario is one what-if question: a set of snapshot transforms and an
// optional weight override.
type Scenario struct {
	Name       string
	Weights    *planner.Weights
	Transforms []Transform
}

// Change is one train whose role differs between baseline and scenario.
type Change struct {
	TrainID  string               `json:"train_id"`
	From     model.AssignmentType `json:"from"`
	To       model.AssignmentType `json:"to"`
	RankFrom int                  `json:"rank_from,omitempty"`
	RankTo   int                  `json:"rank_to,omitempty"`
}

// CountDelta is the scenario-minus-baseline difference per assignment pool.
type CountDelta struct {
	Service      int `json:"service"`
	Standby      int `json:"standby"`
	IBL          int `json:"ibl"`
	OutOfService int `json:"out_of_service"`
}

// Result is a completed simulation: the baseline and scenario plans plus a
// structural diff between them.
type Result struct {
	Scenario          string              `json:"scenario"`
	Baseline          model.InductionPlan `json:"baseline"`
	Plan              model.InductionPlan `json:"plan"`
	Changes           []Change            `json:"changes"`
	CountDelta        CountDelta          `json:"count_delta"`
	ScoreDelta        float64             `json:"score_delta"`
	NewConflicts      []model.Conflict    `json:"new_conflicts,omitempty"`
	ResolvedConflicts []model.Conflict    `json:"resolved_conflicts,omitempty"`
	RanIn             time.Duration       `json:"ran_in"`
}

// Simulator plans scenarios without side effects.
type Simulator struct {
	log logger.Logger
}

// NewSimulator builds a simulator.
func NewSimulator(log logger.Logger) *Simulator {
	return &Simulator{log: log}
}

// Run clones the snapshot, applies the scenario and plans it, then diffs
// the outcome against the baseline plan.
func (s *Simulator) Run(ctx context.Context, base model.FleetSnapshot, baseline *model.InductionPlan, sc Scenario) (*Result, error) {
	start := time.Now()

	snap := base.Clone()
	for _, tr := range sc.Transforms {
		tr(&snap)
	}
	w := planner.DefaultWeights()
	if sc.Weights != nil {
		w = *sc.Weights
	}
	p, err := planner.New(s.log, w)
	if err != nil {
		return nil, fmt.Errorf("whatif: scenario %q: %w", sc.Name, err)
	}
	plan, err := p.Plan(ctx, snap, model.ModeNormal)
	if err != nil {
		return nil, fmt.Errorf("whatif: scenario %q: %w", sc.Name, err)
	}

	res := &Result{
		Scenario: sc.Name,
		Baseline: baseline.Clone(),
		Plan:     *plan,
		Changes:  Diff(baseline, plan),
		CountDelta: CountDelta{
			Service:      plan.Counts.Service - baseline.Counts.Service,
			Standby:      plan.Counts.Standby - baseline.Counts.Standby,
			IBL:          plan.Counts.IBL - baseline.Counts.IBL,
			OutOfService: plan.Counts.OutOfService - baseline.Counts.OutOfService,
		},
		ScoreDelta: serviceScore(plan) - serviceScore(baseline),
		RanIn:      time.Since(start),
	}
	res.NewConflicts, res.ResolvedConflicts = conflictDelta(baseline, plan)
	s.log.Infof("scenario %q: %d assignment change(s), score delta %+.1f", sc.Name, len(res.Changes), res.ScoreDelta)
	return res, nil
}

// serviceScore is the mean composite of a plan's service roster.
func serviceScore(plan *model.InductionPlan) float64 {
	var sum float64
	var n int
	for _, a := range plan.Assignments {
		if a.Type == model.AssignService {
			sum += a.Composite
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// conflictDelta splits the scenario's conflicts into those the baseline did
// not have and those the scenario no longer has. Conflicts are keyed by
// train and kind.
func conflictDelta(baseline, scenario *model.InductionPlan) (added, resolved []model.Conflict) {
	key := func(c model.Conflict) string { return c.TrainID + "|" + c.Kind }
	base := map[string]bool{}
	for _, c := range baseline.Conflicts {
		base[key(c)] = true
	}
	scen := map[string]bool{}
	for _, c := range scenario.Conflicts {
		scen[key(c)] = true
		if !base[key(c)] {
			added = append(added, c)
		}
	}
	for _, c := range baseline.Conflicts {
		if !scen[key(c)] {
			resolved = append(resolved, c)
		}
	}
	return added, resolved
}

// Diff lists trains whose assignment or service rank differs between plans.
func Diff(baseline, scenario *model.InductionPlan) []Change {
	var out []Change
	seen := map[string]bool{}
	for _, a := range baseline.Assignments {
		seen[a.TrainID] = true
		b := scenario.AssignmentOf(a.TrainID)
		if b == nil {
			out = append(out, Change{TrainID: a.TrainID, From: a.Type})
			continue
		}
		if a.Type != b.Type || a.Rank != b.Rank {
			out = append(out, Change{
				TrainID: a.TrainID,
				From:    a.Type, To: b.Type,
				RankFrom: a.Rank, RankTo: b.Rank,
			})
		}
	}
	for _, b := range scenario.Assignments {
		if !seen[b.TrainID] {
			out = append(out, Change{TrainID: b.TrainID, To: b.Type, RankTo: b.Rank})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrainID < out[j].TrainID })
	return out
}

// WithdrawTrain marks a train unavailable for the scenario.
func WithdrawTrain(id string) Transform {
	return func(snap *model.FleetSnapshot) {
		if ts := snap.TrainByID(id); ts != nil {
			ts.Train.Status = model.TrainOutOfService
		}
	}
}

// ExpireCertificates invalidates every certificate of a train.
func ExpireCertificates(id string) Transform {
	return func(snap *model.FleetSnapshot) {
		ts := snap.TrainByID(id)
		if ts == nil {
			return
		}
		for i := range ts.Certificates {
			ts.Certificates[i].Status = model.CertExpired
		}
	}
}

// AddSafetyJob opens a safety-critical job card on a train.
func AddSafetyJob(id, jobID string) Transform {
	return func(snap *model.FleetSnapshot) {
		ts := snap.TrainByID(id)
		if ts == nil {
			return
		}
		ts.JobCards = append(ts.JobCards, model.JobCard{
			TrainID: id, JobID: jobID,
			Status: model.JobOpen, Priority: model.PriorityCritical,
			SafetyCritical: true, RequiresIBL: true,
		})
	}
}

// RequireSpecialClean flags a train for special cleaning.
func RequireSpecialClean(id string) Transform {
	return func(snap *model.FleetSnapshot) {
		ts := snap.TrainByID(id)
		if ts == nil || ts.Cleaning == nil {
			return
		}
		ts.Cleaning.SpecialCleanRequired = true
	}
}

// SetServiceTarget changes the depot's service quota for the scenario.
func SetServiceTarget(n int) Transform {
	return func(snap *model.FleetSnapshot) { snap.ServiceTarget = n }
}
