// Package planner turns per-domain scores into a full induction plan: a
// ranked service roster, standby pool, bay allocations and the alerts and
// conflicts that go with them.
package planner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
	"github.com/kmrl/induction/core/scoring"
)

// Weights is the composite fusion weight set. Only the branding weight is
// operator-tunable; the rest are fixed policy.
type Weights struct {
	Fitness     float64
	Maintenance float64
	Branding    float64
	Mileage     float64
	Cleaning    float64
	Stabling    float64
}

// DefaultWeights returns the standard planning weight set.
func DefaultWeights() Weights {
	return Weights{
		Fitness:     rules.WeightFitness,
		Maintenance: rules.WeightMaintenance,
		Branding:    rules.WeightBranding,
		Mileage:     rules.WeightMileage,
		Cleaning:    rules.WeightCleaning,
		Stabling:    rules.WeightStabling,
	}
}

// Validate rejects a branding weight outside its allowed band.
func (w Weights) Validate() error {
	if w.Branding < rules.BrandingWeightMin || w.Branding > rules.BrandingWeightMax {
		return fmt.Errorf("branding weight %.1f outside [%.0f, %.0f]",
			w.Branding, rules.BrandingWeightMin, rules.BrandingWeightMax)
	}
	return nil
}

func (w Weights) sum() float64 {
	return w.Fitness + w.Maintenance + w.Branding + w.Mileage + w.Cleaning + w.Stabling
}

// RankedTrain is one train's fused evaluation.
type RankedTrain struct {
	Snapshot    model.TrainSnapshot
	Results     []scoring.Result
	Composite   float64
	Blocking    int
	MustIBL     bool
	NeedsMaint  bool
	NeedsClean  bool
	MileageRisk float64
	Incomplete  bool
}

// TrainID returns the evaluated train's identifier.
func (r RankedTrain) TrainID() string { return r.Snapshot.Train.ID }

// Fuse combines domain results into a weighted composite.
func Fuse(w Weights, snap model.TrainSnapshot, results []scoring.Result) RankedTrain {
	rt := RankedTrain{Snapshot: snap, Results: results}
	total := w.sum()
	for _, res := range results {
		var weight float64
		switch res.Domain {
		case "fitness":
			weight = w.Fitness
		case "maintenance":
			weight = w.Maintenance
		case "branding":
			weight = w.Branding
		case "mileage":
			weight = w.Mileage
			rt.MileageRisk = 100 - res.Score
		case "cleaning":
			weight = w.Cleaning
		case "stabling":
			weight = w.Stabling
		}
		rt.Composite += res.Score * weight / total
		if res.Blocking {
			rt.Blocking++
		}
		if res.MustIBL {
			rt.MustIBL = true
			switch res.Domain {
			case "maintenance", "mileage":
				rt.NeedsMaint = true
			case "cleaning":
				rt.NeedsClean = true
			}
		}
		if res.DataIncomplete {
			rt.Incomplete = true
		}
	}
	return rt
}

// Rank orders trains for induction. The order is a strict total order:
// fewer blocking flags first, then higher composite, then lower mileage
// risk, then train ID.
func Rank(trains []RankedTrain) {
	sort.SliceStable(trains, func(i, j int) bool {
		a, b := trains[i], trains[j]
		if a.Blocking != b.Blocking {
			return a.Blocking < b.Blocking
		}
		if a.Composite != b.Composite {
			return a.Composite > b.Composite
		}
		if a.MileageRisk != b.MileageRisk {
			return a.MileageRisk < b.MileageRisk
		}
		return a.TrainID() < b.TrainID()
	})
}

// Reason renders the train's accumulated domain reasons as one line.
func (r RankedTrain) Reason() string {
	var parts []string
	for _, res := range r.Results {
		parts = append(parts, res.Reasons...)
	}
	return strings.Join(parts, " | ")
}

// Breakdowns converts results to their plan representation.
func (r RankedTrain) Breakdowns() []model.ScoreBreakdown {
	out := make([]model.ScoreBreakdown, len(r.Results))
	for i, res := range r.Results {
		out[i] = res.Breakdown()
	}
	return out
}
