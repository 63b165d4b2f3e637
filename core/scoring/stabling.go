package scoring

import (
	"fmt"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// StablingScorer rates how cheaply a train can leave its track. Every train
// parked between it and the exit costs one shunting move; heavily blocked
// tracks pay a structural surcharge.
type StablingScorer struct{}

func (StablingScorer) Domain() string { return "stabling" }

func (StablingScorer) Score(in Input, snap model.TrainSnapshot) Result {
	res := Result{Domain: "stabling", Status: "clear", Score: 100}

	moves := ShuntingMoves(in.Layout, snap.Train.ID)
	res.Score = clamp(100-float64(moves)*rules.StablingScorePerMove, 0, 100)
	if moves > 0 {
		res.Status = "blocked"
		res.Reasons = append(res.Reasons, fmt.Sprintf("%d shunting move(s) to exit", moves))
	}
	return res
}

// ShuntingMoves estimates moves needed to extract the train from its track.
func ShuntingMoves(layout model.DepotLayout, trainID string) int {
	blockers := layout.BlockersAhead(trainID)
	moves := blockers
	if blockers >= rules.StablingStructuralMinBlockers {
		moves += rules.StablingStructuralPenalty
	}
	return moves
}
