// Package engine orchestrates induction planning: it owns the versioned
// plan store, serializes writes per depot and service date, and routes
// overrides, withdrawals and what-if runs to the right component.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kmrl/induction/core/emergency"
	"github.com/kmrl/induction/core/logger"
	"github.com/kmrl/induction/core/metrics"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/planlog"
	"github.com/kmrl/induction/core/planner"
	"github.com/kmrl/induction/core/whatif"
	"github.com/kmrl/induction/internal/eventbus"
)

// ErrOverrideRejected is returned when a manual change fails validation.
var ErrOverrideRejected = errors.New("engine: override rejected")

// Engine is the planning orchestrator. All plan writes for one depot and
// service date go through a single logical writer.
type Engine struct {
	planner *planner.Planner
	replan  *emergency.Replanner
	sim     *whatif.Simulator
	crisis  *emergency.CrisisDetector
	store   PlanStore
	audit   planlog.Store
	sink    metrics.Sink
	bus     *eventbus.Bus
	log     logger.Logger

	mu    sync.Mutex
	locks map[string]*depotLock
	snaps map[string]model.FleetSnapshot
}

// depotLock serializes plan writes for one depot/date and carries the cancel
// handle of the in-flight run so a crisis can preempt it.
type depotLock struct {
	sync.Mutex
	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func (l *depotLock) setCancel(c context.CancelFunc) {
	l.cancelMu.Lock()
	l.cancel = c
	l.cancelMu.Unlock()
}

func (l *depotLock) preempt() {
	l.cancelMu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancelMu.Unlock()
}

// Options configures an Engine. Zero values get working defaults.
type Options struct {
	Weights planner.Weights
	Store   PlanStore
	Audit   planlog.Store
	Metrics metrics.Sink
	Bus     *eventbus.Bus
}

// New builds an Engine.
func New(log logger.Logger, opts Options) (*Engine, error) {
	if opts.Weights == (planner.Weights{}) {
		opts.Weights = planner.DefaultWeights()
	}
	p, err := planner.New(log, opts.Weights)
	if err != nil {
		return nil, err
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Audit == nil {
		opts.Audit = planlog.NopStore{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NopSink{}
	}
	return &Engine{
		planner: p,
		replan:  emergency.NewReplanner(log),
		sim:     whatif.NewSimulator(log),
		crisis:  emergency.NewCrisisDetector(),
		store:   opts.Store,
		audit:   opts.Audit,
		sink:    opts.Metrics,
		bus:     opts.Bus,
		log:     log,
	}, nil
}

func (e *Engine) lockFor(key string) *depotLock {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locks == nil {
		e.locks = make(map[string]*depotLock)
		e.snaps = make(map[string]model.FleetSnapshot)
	}
	l, ok := e.locks[key]
	if !ok {
		l = &depotLock{}
		e.locks[key] = l
	}
	return l
}

// GeneratePlan runs a full planning cycle over the snapshot and stores the
// result as the next plan version for its depot and service date.
func (e *Engine) GeneratePlan(ctx context.Context, snap model.FleetSnapshot) (*model.InductionPlan, error) {
	key := chainKey(snap.Depot, snap.ServiceDate)
	lock := e.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	mode := model.ModeNormal
	if e.crisis.Active(snap.At) {
		mode = model.ModeCrisis
	}
	return e.generateLocked(ctx, lock, key, snap, mode)
}

// generateLocked runs the planner while holding the depot lock.
func (e *Engine) generateLocked(ctx context.Context, lock *depotLock, key string, snap model.FleetSnapshot, mode model.PlanningMode) (*model.InductionPlan, error) {
	runCtx, cancel := context.WithCancel(ctx)
	lock.setCancel(cancel)
	defer func() {
		cancel()
		lock.setCancel(nil)
	}()

	start := time.Now()
	plan, err := e.planner.Plan(runCtx, snap, mode)
	if err != nil {
		return nil, err
	}

	plan.Version = 1
	if prev, perr := e.store.Latest(snap.Depot, snap.ServiceDate); perr == nil {
		plan.Version = prev.Version + 1
		prev.Status = model.PlanSuperseded
		if err := e.store.Put(prev); err != nil {
			return nil, err
		}
	}
	if err := e.store.Put(plan); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.snaps[key] = snap.Clone()
	e.mu.Unlock()

	e.sink.RecordPlan(plan, time.Since(start))
	for _, a := range plan.Alerts {
		e.sink.RecordAlert(a)
	}
	e.appendAudit(planlog.Entry{
		Time: time.Now(), Kind: planlog.KindPlanGenerated,
		Depot: plan.Depot, ServiceDate: plan.ServiceDate,
		PlanID: plan.ID, Version: plan.Version,
		Detail: planlog.DetailOf(plan.Counts),
	})
	e.publish(PlanGenerated{Plan: *plan})
	return plan, nil
}

// Approve marks a draft plan as the night's committed plan.
func (e *Engine) Approve(planID, by string) (*model.InductionPlan, error) {
	plan, err := e.store.Get(planID)
	if err != nil {
		return nil, err
	}
	lock := e.lockFor(chainKey(plan.Depot, plan.ServiceDate))
	lock.Lock()
	defer lock.Unlock()

	plan, err = e.store.Get(planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != model.PlanDraft {
		return nil, fmt.Errorf("engine: plan %s is %s, only drafts can be approved", planID, plan.Status)
	}
	plan.Status = model.PlanApproved
	plan.ApprovedBy = by
	if err := e.store.Put(plan); err != nil {
		return nil, err
	}
	e.appendAudit(planlog.Entry{
		Time: time.Now(), Kind: planlog.KindPlanApproved,
		Depot: plan.Depot, ServiceDate: plan.ServiceDate, PlanID: plan.ID, Version: plan.Version,
	})
	e.publish(PlanApproved{PlanID: planID, By: by})
	return plan, nil
}

// OverrideRequest is a supervisor's manual assignment change.
type OverrideRequest struct {
	PlanID     string
	TrainID    string
	To         model.AssignmentType
	Reason     string
	Supervisor string
}

// Override applies a manual assignment change with a full audit trail. A
// change needs a reason and can never move a safety-blocked train into
// revenue service.
func (e *Engine) Override(req OverrideRequest) (*model.InductionPlan, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: a reason is required", ErrOverrideRejected)
	}
	if req.Supervisor == "" {
		return nil, fmt.Errorf("%w: supervisor identity is required", ErrOverrideRejected)
	}

	plan, err := e.store.Get(req.PlanID)
	if err != nil {
		return nil, err
	}
	lock := e.lockFor(chainKey(plan.Depot, plan.ServiceDate))
	lock.Lock()
	defer lock.Unlock()

	plan, err = e.store.Get(req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Status == model.PlanSuperseded {
		return nil, fmt.Errorf("%w: plan %s is superseded", ErrOverrideRejected, req.PlanID)
	}
	a := plan.AssignmentOf(req.TrainID)
	if a == nil {
		return nil, fmt.Errorf("%w: train %s is not in plan %s", ErrOverrideRejected, req.TrainID, req.PlanID)
	}
	if req.To == model.AssignService {
		for _, b := range a.Breakdown {
			if b.Blocking {
				return nil, fmt.Errorf("%w: %s is blocked (%s) and cannot enter service", ErrOverrideRejected, req.TrainID, b.Domain)
			}
		}
	}

	rec := model.OverrideRecord{
		ID: uuid.NewString(), PlanID: plan.ID, TrainID: req.TrainID,
		From: a.Type, To: req.To,
		Reason: req.Reason, Supervisor: req.Supervisor, At: time.Now(),
	}
	a.Type = req.To
	a.Overridden = true
	plan.Overrides = append(plan.Overrides, rec)
	plan.Recount()
	if err := e.store.Put(plan); err != nil {
		return nil, err
	}

	e.sink.RecordOverride(rec)
	e.appendAudit(planlog.Entry{
		Time: rec.At, Kind: planlog.KindOverride,
		Depot: plan.Depot, ServiceDate: plan.ServiceDate,
		PlanID: plan.ID, Version: plan.Version, TrainID: rec.TrainID,
		Detail: planlog.DetailOf(rec),
	})
	e.publish(PlanOverridden{Plan: *plan, Record: rec})
	e.log.Infof("override on %s: %s %s -> %s by %s", plan.ID, rec.TrainID, rec.From, rec.To, rec.Supervisor)
	return plan, nil
}

// HandleWithdrawal processes a service-hour train failure. A single failure
// gets a standby quick-check swap; repeated failures inside the crisis
// window preempt any in-flight run and trigger a full re-plan.
func (e *Engine) HandleWithdrawal(ctx context.Context, w model.Withdrawal) (*model.InductionPlan, *model.ReplacementPlan, error) {
	key, snap, ok := e.snapshotFor(w.TrainID)
	if !ok {
		return nil, nil, fmt.Errorf("engine: no current plan covers train %s", w.TrainID)
	}
	crisisNow := e.crisis.Record(w)
	e.publish(WithdrawalReceived{Withdrawal: w, Crisis: crisisNow})
	e.appendAudit(planlog.Entry{
		Time: w.ReportedAt, Kind: planlog.KindWithdrawal,
		Depot: snap.Depot, ServiceDate: snap.ServiceDate, TrainID: w.TrainID,
		Detail: planlog.DetailOf(w),
	})

	lock := e.lockFor(key)
	if crisisNow {
		lock.preempt()
	}
	lock.Lock()
	defer lock.Unlock()

	if crisisNow {
		plan, err := e.crisisReplan(ctx, lock, key, snap, w)
		return plan, nil, err
	}
	return e.quickSwap(ctx, snap, w)
}

// quickSwap finds a standby replacement and commits the swap as a new plan
// version.
func (e *Engine) quickSwap(ctx context.Context, snap model.FleetSnapshot, w model.Withdrawal) (*model.InductionPlan, *model.ReplacementPlan, error) {
	plan, err := e.store.Latest(snap.Depot, snap.ServiceDate)
	if err != nil {
		return nil, nil, err
	}
	rp, err := e.replan.QuickCheck(ctx, snap, plan, w)
	if rp != nil {
		e.sink.RecordReplacement(*rp)
	}
	if err != nil {
		// Degrade rather than leave a withdrawn train on the roster.
		e.applyWithdrawalOnly(plan, w)
		if perr := e.storeNextVersion(plan); perr != nil {
			return nil, rp, perr
		}
		return plan, rp, err
	}

	withdrawn := plan.AssignmentOf(w.TrainID)
	chosen := plan.AssignmentOf(rp.Chosen.TrainID)
	if withdrawn != nil && chosen != nil {
		chosen.Type = model.AssignService
		chosen.Rank = withdrawn.Rank
		chosen.Reason = fmt.Sprintf("replaces %s (%s)", w.TrainID, w.Reason)
		withdrawn.Type = model.AssignOutOfService
		withdrawn.Rank = 0
		withdrawn.Reason = fmt.Sprintf("withdrawn: %s", w.Reason)
	}
	plan.Mode = model.ModeEmergency
	plan.Recount()
	if err := e.storeNextVersion(plan); err != nil {
		return nil, rp, err
	}

	e.appendAudit(planlog.Entry{
		Time: rp.DecidedAt, Kind: planlog.KindReplacement,
		Depot: plan.Depot, ServiceDate: plan.ServiceDate,
		PlanID: plan.ID, Version: plan.Version, TrainID: rp.Chosen.TrainID,
		Detail: planlog.DetailOf(rp),
	})
	e.publish(ReplacementDecided{Plan: *plan, Replacement: *rp})
	return plan, rp, nil
}

// ReportCrisis handles a batch of simultaneous withdrawals as a declared
// crisis. Any in-flight run for the depot is preempted and the plan is
// regenerated without the withdrawn trains.
func (e *Engine) ReportCrisis(ctx context.Context, depot, serviceDate string, ws []model.Withdrawal) (*model.InductionPlan, error) {
	if len(ws) == 0 {
		return nil, fmt.Errorf("engine: crisis report carries no withdrawals")
	}
	key := chainKey(depot, serviceDate)
	e.mu.Lock()
	snap, ok := e.snaps[key]
	if ok {
		snap = snap.Clone()
	}
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("engine: no snapshot retained for %s/%s", depot, serviceDate)
	}

	last := ws[len(ws)-1]
	if last.ReportedAt.IsZero() {
		last.ReportedAt = time.Now()
	}
	for _, w := range ws {
		if w.ReportedAt.IsZero() {
			w.ReportedAt = last.ReportedAt
		}
		e.crisis.Record(w)
		e.publish(WithdrawalReceived{Withdrawal: w, Crisis: true})
		e.appendAudit(planlog.Entry{
			Time: w.ReportedAt, Kind: planlog.KindWithdrawal,
			Depot: depot, ServiceDate: serviceDate, TrainID: w.TrainID,
			Detail: planlog.DetailOf(w),
		})
	}

	lock := e.lockFor(key)
	lock.preempt()
	lock.Lock()
	defer lock.Unlock()
	return e.crisisReplan(ctx, lock, key, snap, last)
}

// crisisReplan regenerates the whole plan with every recent withdrawal
// removed from the available fleet.
func (e *Engine) crisisReplan(ctx context.Context, lock *depotLock, key string, snap model.FleetSnapshot, w model.Withdrawal) (*model.InductionPlan, error) {
	e.log.Warnf("crisis declared at %s: re-planning %s/%s", w.ReportedAt, snap.Depot, snap.ServiceDate)
	e.appendAudit(planlog.Entry{
		Time: w.ReportedAt, Kind: planlog.KindCrisis,
		Depot: snap.Depot, ServiceDate: snap.ServiceDate, TrainID: w.TrainID,
	})

	replanSnap := snap.Clone()
	replanSnap.At = w.ReportedAt
	for _, wd := range e.crisis.Recent(w.ReportedAt) {
		if ts := replanSnap.TrainByID(wd.TrainID); ts != nil {
			ts.Train.Status = model.TrainOutOfService
		}
	}
	return e.generateLocked(ctx, lock, key, replanSnap, model.ModeCrisis)
}

// applyWithdrawalOnly marks a withdrawn train out of service when no
// replacement exists, leaving the roster short and flagged.
func (e *Engine) applyWithdrawalOnly(plan *model.InductionPlan, w model.Withdrawal) {
	if a := plan.AssignmentOf(w.TrainID); a != nil {
		a.Type = model.AssignOutOfService
		a.Rank = 0
		a.Reason = fmt.Sprintf("withdrawn: %s", w.Reason)
	}
	plan.Degraded = true
	plan.Alerts = append(plan.Alerts, model.Alert{
		Type: model.AlertCapacityInfeasible, TrainID: w.TrainID,
		Severity: model.SeverityCritical,
		Message:  fmt.Sprintf("no standby replacement for withdrawn %s", w.TrainID),
	})
	plan.Recount()
}

// storeNextVersion saves the plan as a fresh version on its chain.
func (e *Engine) storeNextVersion(plan *model.InductionPlan) error {
	if prev, err := e.store.Latest(plan.Depot, plan.ServiceDate); err == nil && prev.ID == plan.ID {
		prev.Status = model.PlanSuperseded
		if err := e.store.Put(prev); err != nil {
			return err
		}
	}
	plan.ID = uuid.NewString()
	plan.Version++
	plan.Status = model.PlanDraft
	return e.store.Put(plan)
}

// WhatIf simulates a scenario against the latest plan of a depot and date.
func (e *Engine) WhatIf(ctx context.Context, depot, serviceDate string, sc whatif.Scenario) (*whatif.Result, error) {
	baseline, err := e.store.Latest(depot, serviceDate)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	snap, ok := e.snaps[chainKey(depot, serviceDate)]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("engine: no snapshot retained for %s/%s", depot, serviceDate)
	}
	return e.sim.Run(ctx, snap, baseline, sc)
}

// Plan returns a stored plan by ID.
func (e *Engine) Plan(planID string) (*model.InductionPlan, error) {
	return e.store.Get(planID)
}

// LatestPlan returns the newest plan for a depot and service date.
func (e *Engine) LatestPlan(depot, serviceDate string) (*model.InductionPlan, error) {
	return e.store.Latest(depot, serviceDate)
}

// PlanHistory returns every version for a depot and service date.
func (e *Engine) PlanHistory(depot, serviceDate string) ([]*model.InductionPlan, error) {
	return e.store.Versions(depot, serviceDate)
}

// AuditTrail queries the audit log.
func (e *Engine) AuditTrail(f planlog.Filter) ([]planlog.Entry, error) {
	return e.audit.Query(f)
}

func (e *Engine) snapshotFor(trainID string) (string, model.FleetSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, snap := range e.snaps {
		if snap.TrainByID(trainID) != nil {
			return key, snap.Clone(), true
		}
	}
	return "", model.FleetSnapshot{}, false
}

func (e *Engine) appendAudit(entry planlog.Entry) {
	if err := e.audit.Append(entry); err != nil {
		e.log.Errorf("audit append failed: %v", err)
	}
}

func (e *Engine) publish(event any) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}
