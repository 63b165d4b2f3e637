package scoring

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
)

// CleaningScorer rates cleanliness. Trains due a special clean or facing a
// VIP inspection go to the bay for overnight cleaning.
type CleaningScorer struct{}

func (CleaningScorer) Domain() string { return "cleaning" }

func (CleaningScorer) Score(in Input, snap model.TrainSnapshot) Result {
	res := Result{Domain: "cleaning", Status: "ok", Score: 100}

	c := snap.Cleaning
	if c == nil {
		res.Score = 10
		res.Status = "unknown"
		res.DataIncomplete = true
		res.Reasons = append(res.Reasons, "no cleaning record")
		return res
	}

	urgency := c.Urgency(in.Now)
	res.Score = 100 - urgency
	switch {
	case c.SpecialCleanRequired:
		res.Status = "special_required"
		res.MustIBL = true
		res.Reasons = append(res.Reasons, "special cleaning required")
	case c.VIPInspectionTomorrow:
		res.Status = "vip_prep"
		res.MustIBL = true
		res.Reasons = append(res.Reasons, "VIP inspection tomorrow")
	case c.Required(in.Now):
		res.Status = "overdue"
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("%.0f days since last cleaning", c.DaysSinceCleaning(in.Now)))
	case urgency > 0:
		res.Status = "due"
	}
	return res
}
