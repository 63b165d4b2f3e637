package planner

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible is returned when the roster LP has no solution for the
// requested service target.
var ErrInfeasible = errors.New("planner: roster selection infeasible")

// RosterSelector picks which eligible trains fill the service roster.
type RosterSelector interface {
	Select(eligible []RankedTrain, target int) ([]string, error)
}

// LPSelector solves the roster as a linear program: maximize the summed
// composite of the selected trains subject to the service target. The
// constraint matrix is totally unimodular, so the relaxation lands on a
// 0/1 vertex.
type LPSelector struct {
	Tol float64
}

func (s LPSelector) Select(eligible []RankedTrain, target int) ([]string, error) {
	n := len(eligible)
	if target <= 0 {
		return nil, nil
	}
	if n < target {
		return nil, fmt.Errorf("%w: %d eligible for target %d", ErrInfeasible, n, target)
	}

	// Minimize -composite subject to sum(x) = target, 0 <= x <= 1. Both
	// bounds go into G: x <= 1 as I rows and x >= 0 as -I rows, otherwise
	// the simplex is free to drive components negative.
	c := make([]float64, n)
	for i, rt := range eligible {
		c[i] = -rt.Composite
	}
	g := mat.NewDense(2*n, n, nil)
	h := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		g.Set(i, i, 1)
		h[i] = 1
		g.Set(n+i, i, -1)
		h[n+i] = 0
	}
	a := mat.NewDense(1, n, nil)
	for i := 0; i < n; i++ {
		a.Set(0, i, 1)
	}
	b := []float64{float64(target)}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	tol := s.Tol
	if tol == 0 {
		tol = 1e-10
	}
	_, x, err := lp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	}

	// Convert splits each free variable into a positive pair; recover the
	// original values before rounding.
	chosen := make([]string, 0, target)
	for i := 0; i < n && len(chosen) < target; i++ {
		if x[i]-x[n+i] > 0.5 {
			chosen = append(chosen, eligible[i].TrainID())
		}
	}
	if len(chosen) != target {
		return nil, fmt.Errorf("%w: solver returned %d of %d slots", ErrInfeasible, len(chosen), target)
	}
	return chosen, nil
}

// GreedySelector walks the ranked order and takes the first trains that fit.
// It is the fallback when the LP cannot be solved.
type GreedySelector struct{}

func (GreedySelector) Select(eligible []RankedTrain, target int) ([]string, error) {
	if target <= 0 {
		return nil, nil
	}
	if len(eligible) < target {
		return nil, fmt.Errorf("%w: %d eligible for target %d", ErrInfeasible, len(eligible), target)
	}
	out := make([]string, target)
	for i := 0; i < target; i++ {
		out[i] = eligible[i].TrainID()
	}
	return out, nil
}
