package scoring

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// BrandingScorer rates how badly a train's advertising contracts need
// exposure hours. A high score pushes the train toward service so the
// wrap earns its committed hours.
type BrandingScorer struct{}

func (BrandingScorer) Domain() string { return "branding" }

func (BrandingScorer) Score(in Input, snap model.TrainSnapshot) Result {
	res := Result{Domain: "branding", Status: "none", Score: rules.BrandingScoreNoContracts}

	var active int
	var best float64
	for _, c := range snap.Contracts {
		if in.Now.Before(c.CampaignStart) || in.Now.After(c.CampaignEnd) {
			continue
		}
		active++
		weighted := c.UrgencyScore(in.Now) * tierMultiplier(c.Tier)
		if weighted > best {
			best = weighted
			if c.MonthlyDeficit() > 0 {
				res.Reasons = append(res.Reasons,
					fmt.Sprintf("%s %s short %.0fh this month", c.Tier, c.BrandName, c.MonthlyDeficit()))
			}
		}
	}
	if active == 0 {
		return res
	}
	res.Status = "active"
	res.Score = clamp(best, 0, 100)
	return res
}

func tierMultiplier(t model.BrandingTier) float64 {
	switch t {
	case model.TierPlatinum:
		return rules.TierMultPlatinum
	case model.TierGold:
		return rules.TierMultGold
	case model.TierSilver:
		return rules.TierMultSilver
	default:
		return rules.TierMultBronze
	}
}
