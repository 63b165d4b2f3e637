package planner

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// DetectConflicts compares sibling scorer outputs for one train and reports
// tensions the partition cannot honor on both sides. It never resolves:
// resolution happens in the planner through fixed precedence.
func DetectConflicts(rt RankedTrain) []model.Conflict {
	var out []model.Conflict
	id := rt.TrainID()

	var branding, mileage, cleaning float64
	var fitnessBlocked, maintBlocked bool
	othersReady := true
	for _, res := range rt.Results {
		switch res.Domain {
		case "branding":
			branding = res.Score
		case "mileage":
			mileage = res.Score
		case "cleaning":
			cleaning = res.Score
		case "fitness":
			fitnessBlocked = res.Blocking
		case "maintenance":
			maintBlocked = res.Blocking
		}
		if res.Domain != "cleaning" && res.Score <= rules.ServiceReadyScore {
			othersReady = false
		}
	}

	// A hard block co-occurring with a revenue push is always critical.
	if branding > rules.BrandingUrgentScore && fitnessBlocked {
		out = append(out, model.Conflict{
			TrainID:    id,
			Kind:       "hard_constraint_vs_revenue",
			Severity:   model.SeverityCritical,
			Detail:     fmt.Sprintf("fitness block vetoes service but branding urgency is %.0f", branding),
			Resolution: "hard constraint wins, flag branding breach risk",
		})
	}
	if branding > rules.BrandingUrgentScore && maintBlocked {
		out = append(out, model.Conflict{
			TrainID:    id,
			Kind:       "hard_constraint_vs_revenue",
			Severity:   model.SeverityCritical,
			Detail:     fmt.Sprintf("blocking job card vetoes service but branding urgency is %.0f", branding),
			Resolution: "hard constraint wins, flag branding breach risk",
		})
	}

	// Urgency clash without a hard block: severity scales with the gap.
	if mileage < rules.MileageLowScore && branding > rules.BrandingCriticalScore && !fitnessBlocked && !maintBlocked {
		sev := model.SeverityMedium
		if branding-mileage >= rules.ConflictGapHigh {
			sev = model.SeverityHigh
		}
		out = append(out, model.Conflict{
			TrainID:    id,
			Kind:       "optimization_vs_revenue",
			Severity:   sev,
			Detail:     fmt.Sprintf("mileage balancing wants rest (score %.0f) but branding urgency is %.0f", mileage, branding),
			Resolution: "weigh maintenance delay against branding penalty",
		})
	}

	if cleaning < rules.CleaningLowScore && othersReady {
		out = append(out, model.Conflict{
			TrainID:    id,
			Kind:       "quality_vs_readiness",
			Severity:   model.SeverityLow,
			Detail:     fmt.Sprintf("cleaning overdue (score %.0f) on an otherwise service-ready train", cleaning),
			Resolution: "schedule cleaning before service or accept with documentation",
		})
	}
	return out
}
