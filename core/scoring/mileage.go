package scoring

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// MileageScorer rates distance to the next service threshold. A train that
// cannot finish the predicted day without crossing its threshold is sent to
// the bay instead.
type MileageScorer struct{}

func (MileageScorer) Domain() string { return "mileage" }

func (MileageScorer) Score(in Input, snap model.TrainSnapshot) Result {
	res := Result{Domain: "mileage", Status: "ok", Score: 100}

	m := snap.Mileage
	if m == nil {
		// No odometer data: assume the train is close to its threshold.
		res.Score = rules.MileageScoreCannotFinish
		res.Status = "unknown"
		res.DataIncomplete = true
		res.Reasons = append(res.Reasons, "no mileage record")
		return res
	}

	predicted := in.PredictedKm
	if predicted <= 0 {
		predicted = rules.DefaultPredictedDayKm
	}
	if !m.CanCompleteDay(predicted) {
		res.Score = rules.MileageScoreCannotFinish
		res.Status = "threshold"
		res.MustIBL = true
		res.Reasons = append(res.Reasons,
			fmt.Sprintf("%.0f km to threshold, below the %.0f km day", m.KmToThreshold(), predicted))
		return res
	}

	risk := m.ThresholdRiskScore()
	res.Score = 100 - risk
	if risk > 0 {
		res.Status = "warning"
		res.Reasons = append(res.Reasons, fmt.Sprintf("%.0f km to service threshold", m.KmToThreshold()))
	}
	if in.FleetAvgKm > 0 && m.LifetimeKm > 0 {
		dev := (m.LifetimeKm - in.FleetAvgKm) / in.FleetAvgKm
		if dev > rules.MileageImbalanceRatio {
			if res.Status == "ok" {
				res.Status = "imbalance"
			}
			res.Reasons = append(res.Reasons,
				fmt.Sprintf("lifetime km %.0f%% above fleet average", dev*100))
		}
	}
	return res
}
