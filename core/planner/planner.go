package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/kmrl/induction/core/logger"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
	"github.com/kmrl/induction/core/scoring"
)

// ErrInvalidInput is returned when the snapshot cannot support a plan at all.
var ErrInvalidInput = errors.New("planner: invalid snapshot")

// Planner produces induction plans from fleet snapshots.
type Planner struct {
	weights  Weights
	scorers  []scoring.Scorer
	selector RosterSelector
	log      logger.Logger
}

// New builds a planner with the production scorer set and LP roster
// selection.
func New(log logger.Logger, w Weights) (*Planner, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Planner{
		weights:  w,
		scorers:  scoring.DefaultScorers(),
		selector: LPSelector{},
		log:      log,
	}, nil
}

// WithSelector overrides roster selection, mainly for tests.
func (p *Planner) WithSelector(s RosterSelector) *Planner {
	p.selector = s
	return p
}

// Plan evaluates every train in the snapshot and partitions the fleet into
// service, standby, bay and out-of-service roles. The snapshot is never
// mutated. Plan honors ctx cancellation between trains so a crisis re-plan
// can preempt an in-flight run.
func (p *Planner) Plan(ctx context.Context, snap model.FleetSnapshot, mode model.PlanningMode) (*model.InductionPlan, error) {
	if len(snap.Trains) == 0 {
		return nil, fmt.Errorf("%w: no trains in snapshot for depot %q", ErrInvalidInput, snap.Depot)
	}

	in := scoring.Input{
		Now:         snap.At,
		Mode:        mode,
		PredictedKm: snap.PredictedKm,
		FleetAvgKm:  snap.FleetAvgKm,
		Layout:      snap.Layout,
	}
	if in.FleetAvgKm == 0 {
		in.FleetAvgKm = fleetAvgKm(snap.Trains)
	}

	plan := &model.InductionPlan{
		ID:          uuid.NewString(),
		Depot:       snap.Depot,
		ServiceDate: snap.ServiceDate,
		Status:      model.PlanDraft,
		Mode:        mode,
		GeneratedAt: snap.At,
	}

	var ranked []RankedTrain
	for _, ts := range snap.Trains {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ts.Train.Available() {
			plan.Assignments = append(plan.Assignments, model.Assignment{
				TrainID:     ts.Train.ID,
				TrainNumber: ts.Train.Number,
				Type:        model.AssignOutOfService,
				Track:       ts.Train.CurrentTrack,
				Reason:      fmt.Sprintf("train %s", ts.Train.Status),
			})
			continue
		}
		rt := Fuse(p.weights, ts, scoring.EvaluateAll(p.scorers, in, ts))
		ranked = append(ranked, rt)
		plan.Conflicts = append(plan.Conflicts, DetectConflicts(rt)...)
		plan.Alerts = append(plan.Alerts, trainAlerts(rt)...)
	}
	Rank(ranked)

	serviceTarget := snap.ServiceTarget
	if serviceTarget == 0 {
		serviceTarget = rules.DefaultServiceTarget
	}
	standbyMin := snap.StandbyMin
	if standbyMin == 0 {
		standbyMin = rules.DefaultStandbyMin
	}
	iblCapacity := snap.IBLCapacity
	if iblCapacity == 0 {
		iblCapacity = rules.DefaultIBLCapacity
	}

	var eligible, bayQueue, blocked []RankedTrain
	for _, rt := range ranked {
		switch {
		case rt.Blocking > 0 && rt.NeedsMaint:
			bayQueue = append(bayQueue, rt)
		case rt.Blocking > 0:
			blocked = append(blocked, rt)
		case rt.MustIBL:
			bayQueue = append(bayQueue, rt)
		default:
			eligible = append(eligible, rt)
		}
	}

	bays := newBayAllocator(snap.Layout)
	for i, rt := range bayQueue {
		a := model.Assignment{
			TrainID:     rt.TrainID(),
			TrainNumber: rt.Snapshot.Train.Number,
			Composite:   rt.Composite,
			Breakdown:   rt.Breakdowns(),
			Reason:      rt.Reason(),
		}
		if i >= iblCapacity {
			a.Type = model.AssignOutOfService
			a.Track = rt.Snapshot.Train.CurrentTrack
			plan.Degraded = true
			plan.Alerts = append(plan.Alerts, model.Alert{
				Type:     model.AlertCapacityInfeasible,
				TrainID:  rt.TrainID(),
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("bay capacity %d exhausted, %s held out of service", iblCapacity, rt.TrainID()),
			})
		} else {
			a.Type = bayType(rt)
			a.Track = bays.next(rt.Snapshot.Train.CurrentTrack)
		}
		plan.Assignments = append(plan.Assignments, a)
	}

	for _, rt := range blocked {
		plan.Assignments = append(plan.Assignments, model.Assignment{
			TrainID:     rt.TrainID(),
			TrainNumber: rt.Snapshot.Train.Number,
			Type:        model.AssignOutOfService,
			Track:       rt.Snapshot.Train.CurrentTrack,
			Composite:   rt.Composite,
			Breakdown:   rt.Breakdowns(),
			Reason:      rt.Reason(),
		})
	}

	roster := p.selectRoster(eligible, serviceTarget, plan)
	rank := 0
	for _, rt := range eligible {
		a := model.Assignment{
			TrainID:     rt.TrainID(),
			TrainNumber: rt.Snapshot.Train.Number,
			Track:       rt.Snapshot.Train.CurrentTrack,
			Composite:   rt.Composite,
			Breakdown:   rt.Breakdowns(),
			Reason:      rt.Reason(),
		}
		if roster[rt.TrainID()] {
			rank++
			a.Type = model.AssignService
			a.Rank = rank
		} else {
			a.Type = model.AssignStandby
		}
		plan.Assignments = append(plan.Assignments, a)
	}

	plan.Recount()
	if plan.Counts.Service < serviceTarget {
		plan.Degraded = true
		plan.Alerts = append(plan.Alerts, model.Alert{
			Type:     model.AlertCapacityInfeasible,
			Severity: model.SeverityCritical,
			Message:  fmt.Sprintf("only %d of %d service slots filled", plan.Counts.Service, serviceTarget),
		})
	}
	if plan.Counts.Standby < standbyMin {
		plan.Degraded = true
		plan.Alerts = append(plan.Alerts, model.Alert{
			Type:     model.AlertCapacityInfeasible,
			Severity: model.SeverityHigh,
			Message:  fmt.Sprintf("standby pool %d below minimum %d", plan.Counts.Standby, standbyMin),
		})
	}
	plan.Alerts = append(plan.Alerts, brandingAtRisk(eligible, roster)...)

	p.log.Infof("plan %s for %s/%s: %d service, %d standby, %d bay, %d out (degraded=%v)",
		plan.ID, plan.Depot, plan.ServiceDate,
		plan.Counts.Service, plan.Counts.Standby, plan.Counts.IBL, plan.Counts.OutOfService, plan.Degraded)
	return plan, nil
}

// selectRoster tries LP selection first and falls back to the ranked walk.
// When even the fallback cannot fill the target, every eligible train goes
// to service and the caller flags the shortfall.
func (p *Planner) selectRoster(eligible []RankedTrain, target int, plan *model.InductionPlan) map[string]bool {
	roster := make(map[string]bool, target)
	chosen, err := p.selector.Select(eligible, target)
	if err != nil {
		if len(eligible) < target {
			for _, rt := range eligible {
				roster[rt.TrainID()] = true
			}
			return roster
		}
		p.log.Warnf("roster LP failed, using ranked fallback: %v", err)
		chosen, err = GreedySelector{}.Select(eligible, target)
		if err != nil {
			for _, rt := range eligible {
				roster[rt.TrainID()] = true
			}
			return roster
		}
	}
	for _, id := range chosen {
		roster[id] = true
	}
	return roster
}

func bayType(rt RankedTrain) model.AssignmentType {
	switch {
	case rt.NeedsMaint && rt.NeedsClean:
		return model.AssignIBLBoth
	case rt.NeedsClean:
		return model.AssignIBLCleaning
	default:
		return model.AssignIBLMaint
	}
}

// bayAllocator hands out free bay slots in track order.
type bayAllocator struct {
	slots []string
	i     int
}

func newBayAllocator(layout model.DepotLayout) *bayAllocator {
	var slots []string
	for _, t := range layout.Tracks {
		if t.Kind != model.TrackIBL {
			continue
		}
		for f := 0; f < t.Free(); f++ {
			slots = append(slots, t.ID)
		}
	}
	return &bayAllocator{slots: slots}
}

func (b *bayAllocator) next(fallback string) string {
	if b.i < len(b.slots) {
		b.i++
		return b.slots[b.i-1]
	}
	return fallback
}

func trainAlerts(rt RankedTrain) []model.Alert {
	var out []model.Alert
	id := rt.TrainID()
	for _, res := range rt.Results {
		switch {
		case res.Domain == "fitness" && res.Blocking:
			out = append(out, model.Alert{
				Type: model.AlertFitnessInvalid, TrainID: id,
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("%s: %s", id, strings.Join(res.Reasons, " | ")),
			})
		case res.Domain == "fitness" && res.Status != "valid":
			out = append(out, model.Alert{
				Type: model.AlertCertificateExpiring, TrainID: id,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("%s: %s", id, strings.Join(res.Reasons, " | ")),
			})
		case res.Domain == "maintenance" && res.Blocking:
			out = append(out, model.Alert{
				Type: model.AlertSafetyJobOpen, TrainID: id,
				Severity: model.SeverityCritical,
				Message:  fmt.Sprintf("%s: %s", id, strings.Join(res.Reasons, " | ")),
			})
		case res.Domain == "mileage" && res.MustIBL:
			out = append(out, model.Alert{
				Type: model.AlertMileageThreshold, TrainID: id,
				Severity: model.SeverityHigh,
				Message:  fmt.Sprintf("%s: %s", id, strings.Join(res.Reasons, " | ")),
			})
		case res.Domain == "mileage" && res.Status == "imbalance":
			out = append(out, model.Alert{
				Type: model.AlertMileageImbalance, TrainID: id,
				Severity: model.SeverityLow,
				Message:  fmt.Sprintf("%s: %s", id, strings.Join(res.Reasons, " | ")),
			})
		case res.Domain == "cleaning" && res.Status == "vip_prep":
			out = append(out, model.Alert{
				Type: model.AlertVIPPrep, TrainID: id,
				Severity: model.SeverityMedium,
				Message:  fmt.Sprintf("%s: VIP inspection tomorrow", id),
			})
		}
	}
	return out
}

// fleetAvgKm is the mean lifetime mileage across trains with odometer data.
func fleetAvgKm(trains []model.TrainSnapshot) float64 {
	var kms []float64
	for _, ts := range trains {
		if ts.Mileage != nil && ts.Mileage.LifetimeKm > 0 {
			kms = append(kms, ts.Mileage.LifetimeKm)
		}
	}
	if len(kms) == 0 {
		return 0
	}
	return stat.Mean(kms, nil)
}

func brandingAtRisk(eligible []RankedTrain, roster map[string]bool) []model.Alert {
	var out []model.Alert
	for _, rt := range eligible {
		if roster[rt.TrainID()] {
			continue
		}
		for _, res := range rt.Results {
			if res.Domain == "branding" && res.Score >= rules.BrandingUrgentScore {
				out = append(out, model.Alert{
					Type: model.AlertBrandingAtRisk, TrainID: rt.TrainID(),
					Severity: model.SeverityMedium,
					Message:  fmt.Sprintf("%s held off service with branding urgency %.0f", rt.TrainID(), res.Score),
				})
			}
		}
	}
	return out
}
