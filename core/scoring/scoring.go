// Package scoring evaluates trains against the six operational domains that
// drive nightly induction: fitness, maintenance, branding, mileage, cleaning
// and stabling. Scorers are pure: same input, same output, no side effects.
package scoring

import (
	"sync"
	"time"

	"github.com/kmrl/induction/core/model"
)

// Input carries the planning-run context shared by all scorers.
type Input struct {
	Now         time.Time
	Mode        model.PlanningMode
	PredictedKm float64
	FleetAvgKm  float64
	Layout      model.DepotLayout
}

// Result is one domain's evaluation of a train. Score runs 0-100, higher
// meaning more suitable for revenue service. Blocking vetoes service outright;
// MustIBL routes the train to a maintenance bay regardless of rank.
type Result struct {
	Domain         string
	Score          float64
	Status         string
	Blocking       bool
	MustIBL        bool
	DataIncomplete bool
	Reasons        []string
}

// Breakdown converts the result into its plan representation.
func (r Result) Breakdown() model.ScoreBreakdown {
	return model.ScoreBreakdown{
		Domain:         r.Domain,
		Score:          r.Score,
		Status:         r.Status,
		Blocking:       r.Blocking,
		MustIBL:        r.MustIBL,
		DataIncomplete: r.DataIncomplete,
		Reasons:        r.Reasons,
	}
}

// Scorer evaluates one domain for one train.
type Scorer interface {
	Domain() string
	Score(in Input, snap model.TrainSnapshot) Result
}

// DefaultScorers returns the six production scorers in composite order.
func DefaultScorers() []Scorer {
	return []Scorer{
		FitnessScorer{},
		MaintenanceScorer{},
		BrandingScorer{},
		MileageScorer{},
		CleaningScorer{},
		StablingScorer{},
	}
}

// EvaluateAll runs every scorer against the train concurrently and returns
// the results in scorer order.
func EvaluateAll(scorers []Scorer, in Input, snap model.TrainSnapshot) []Result {
	results := make([]Result, len(scorers))
	var wg sync.WaitGroup
	for i, s := range scorers {
		wg.Add(1)
		go func(i int, s Scorer) {
			defer wg.Done()
			results[i] = s.Score(in, snap)
		}(i, s)
	}
	wg.Wait()
	return results
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
