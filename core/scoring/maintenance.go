package scoring

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// MaintenanceScorer deducts points for open job cards by priority. Any open
// safety-critical job vetoes service; jobs that need bay work route the train
// to the IBL.
type MaintenanceScorer struct{}

func (MaintenanceScorer) Domain() string { return "maintenance" }

func (MaintenanceScorer) Score(in Input, snap model.TrainSnapshot) Result {
	res := Result{Domain: "maintenance", Score: 100, Status: "clear"}

	var open int
	for _, j := range snap.JobCards {
		if !j.IsOpen() {
			continue
		}
		open++
		if j.SafetyCritical {
			res.Blocking = true
			res.Reasons = append(res.Reasons, fmt.Sprintf("open safety-critical job %s", j.JobID))
		}
		if j.RequiresIBL {
			res.MustIBL = true
		}
		switch j.Priority {
		case model.PriorityCritical:
			res.Score -= rules.JobDeductionCritical
		case model.PriorityHigh:
			res.Score -= rules.JobDeductionHigh
		case model.PriorityMedium:
			res.Score -= rules.JobDeductionMedium
		}
		if j.IsOverdue(in.Now) {
			res.Score -= rules.JobDeductionOverdue
			res.Reasons = append(res.Reasons, fmt.Sprintf("job %s overdue", j.JobID))
		}
	}

	if res.Blocking {
		res.Score = 0
		res.Status = "safety_hold"
		return res
	}
	res.Score = clamp(res.Score, 0, 100)
	if open > 0 {
		res.Status = "open_jobs"
		res.Reasons = append(res.Reasons, fmt.Sprintf("%d open job(s)", open))
	}
	return res
}
