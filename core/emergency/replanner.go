// Package emergency handles service-hour failures: picking a standby
// replacement for a withdrawn train within a hard time budget, and deciding
// when multiple withdrawals escalate into a full crisis re-plan.
package emergency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kmrl/induction/core/logger"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
	"github.com/kmrl/induction/core/scoring"
)

// ErrNoFeasibleReplacement is returned when no standby train can take over.
var ErrNoFeasibleReplacement = errors.New("emergency: no feasible replacement")

// Replanner evaluates standby trains for emergency swaps.
type Replanner struct {
	scorers []scoring.Scorer
	log     logger.Logger
}

// NewReplanner builds a replanner with the production scorer set.
func NewReplanner(log logger.Logger) *Replanner {
	return &Replanner{scorers: scoring.DefaultScorers(), log: log}
}

// QuickCheck finds the best standby replacement for a withdrawn service
// train. It only looks at the standby pool of the current plan, scores each
// candidate under emergency weights and readiness, and returns the winner.
// The search is bounded by the quick-check budget.
func (r *Replanner) QuickCheck(ctx context.Context, snap model.FleetSnapshot, plan *model.InductionPlan, w model.Withdrawal) (*model.ReplacementPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, rules.QuickCheckBudget)
	defer cancel()
	start := time.Now()

	in := scoring.Input{
		Now:         w.ReportedAt,
		Mode:        model.ModeEmergency,
		PredictedKm: snap.PredictedKm,
		FleetAvgKm:  snap.FleetAvgKm,
		Layout:      snap.Layout,
	}

	var withdrawnConfig string
	if ts := snap.TrainByID(w.TrainID); ts != nil {
		withdrawnConfig = ts.Train.Configuration
	}

	rp := &model.ReplacementPlan{Withdrawal: w}
	for _, a := range plan.Assignments {
		if a.Type != model.AssignStandby {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("emergency: quick check aborted: %w", err)
		}
		ts := snap.TrainByID(a.TrainID)
		if ts == nil {
			continue
		}
		// A replacement must match the withdrawn train's configuration
		// so it can run the same route.
		if withdrawnConfig != "" && ts.Train.Configuration != "" && ts.Train.Configuration != withdrawnConfig {
			r.log.Debugf("standby %s skipped: configuration %s does not match %s",
				ts.Train.ID, ts.Train.Configuration, withdrawnConfig)
			continue
		}
		cand, ok := r.evaluate(in, *ts)
		if !ok {
			continue
		}
		rp.Candidates = append(rp.Candidates, cand)
	}
	sort.Slice(rp.Candidates, func(i, j int) bool {
		a, b := rp.Candidates[i], rp.Candidates[j]
		if a.ReadinessScore != b.ReadinessScore {
			return a.ReadinessScore > b.ReadinessScore
		}
		return a.TrainID < b.TrainID
	})

	rp.DecidedIn = time.Since(start)
	rp.DecidedAt = time.Now()
	if len(rp.Candidates) == 0 {
		r.log.Warnf("withdrawal of %s: no standby candidate is fit to run", w.TrainID)
		return rp, ErrNoFeasibleReplacement
	}
	rp.Chosen = &rp.Candidates[0]
	r.log.Infof("withdrawal of %s: %s takes over, deployable in %s",
		w.TrainID, rp.Chosen.TrainID, rp.Chosen.DeploymentEst)
	return rp, nil
}

// evaluate scores one standby train for takeover. Blocking results under
// emergency mode still veto.
func (r *Replanner) evaluate(in scoring.Input, ts model.TrainSnapshot) (model.ReplacementCandidate, bool) {
	results := scoring.EvaluateAll(r.scorers, in, ts)

	cand := model.ReplacementCandidate{TrainID: ts.Train.ID, CleaningComplete: true}
	var score float64
	for _, res := range results {
		if res.Blocking {
			return cand, false
		}
		switch res.Domain {
		case "fitness":
			score += res.Score * rules.EmergencyWeightFitness
		case "maintenance":
			score += res.Score * rules.EmergencyWeightMaintenance
		case "branding":
			score += res.Score * rules.EmergencyWeightBranding
		case "mileage":
			score += res.Score * rules.EmergencyWeightMileage
		case "cleaning":
			score += res.Score * rules.EmergencyWeightCleaning
			if res.Score < 100 {
				cand.CleaningComplete = false
			}
		case "stabling":
			score += res.Score * rules.EmergencyWeightStabling
		}
		cand.Reasons = append(cand.Reasons, res.Reasons...)
	}

	cand.ShuntingMoves = scoring.ShuntingMoves(in.Layout, ts.Train.ID)
	cand.DeploymentEst = deploymentEstimate(cand.ShuntingMoves, cand.CleaningComplete)
	score += readinessBonus(cand.DeploymentEst)
	cand.ReadinessScore = score
	return cand, true
}

func deploymentEstimate(moves int, cleaningComplete bool) time.Duration {
	mins := rules.DeployBaseMinutes + moves*rules.DeployMinutesPerMove
	if !cleaningComplete {
		mins += rules.DeployCleaningPenaltyMin
	}
	return time.Duration(mins) * time.Minute
}

func readinessBonus(est time.Duration) float64 {
	switch {
	case est <= rules.ReadinessFastMinutes*time.Minute:
		return rules.ReadinessBonusFast
	case est <= rules.ReadinessMediumMinutes*time.Minute:
		return rules.ReadinessBonusMedium
	case est <= rules.ReadinessSlowMinutes*time.Minute:
		return rules.ReadinessBonusSlow
	}
	return 0
}
