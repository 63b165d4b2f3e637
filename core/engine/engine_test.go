package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kmrl/induction/core/emergency"
	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/whatif"
	"github.com/kmrl/induction/infra/logger"
	"github.com/kmrl/induction/internal/eventbus"
)

var now = time.Date(2026, 8, 30, 21, 0, 0, 0, time.UTC)

func healthyTrain(id string) model.TrainSnapshot {
	var certs []model.FitnessCertificate
	for _, d := range model.Departments {
		certs = append(certs, model.FitnessCertificate{
			TrainID: id, Department: d, Status: model.CertValid,
			ValidFrom: now.AddDate(0, -1, 0), ValidTo: now.AddDate(0, 2, 0),
		})
	}
	return model.TrainSnapshot{
		Train:        model.Train{ID: id, Number: id, Status: model.TrainActive},
		Certificates: certs,
		Mileage: &model.MileageRecord{
			TrainID: id, KmSinceService: 2000,
			ServiceThresholdKm: 10000, WarningThresholdKm: 1000,
		},
		Cleaning: &model.CleaningRecord{
			TrainID: id, LastCleanedAt: now.Add(-12 * time.Hour),
			LightIntervalDays: 2, DeepIntervalDays: 7, MaxDaysWithoutCleaning: 10,
		},
	}
}

func fleet(n int) model.FleetSnapshot {
	snap := model.FleetSnapshot{
		Depot: "Muttom", At: now, ServiceDate: "2026-08-31",
		ServiceTarget: 3, StandbyMin: 2, IBLCapacity: 2,
		Layout: model.DepotLayout{Tracks: []model.Track{
			{ID: "IBL-1", Kind: model.TrackIBL, Capacity: 2},
		}},
	}
	for i := 0; i < n; i++ {
		snap.Trains = append(snap.Trains, healthyTrain(trainID(i)))
	}
	return snap
}

func trainID(i int) string {
	return string(rune('A'+i/10)) + string(rune('0'+i%10))
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(logger.NopLogger{}, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestGeneratePlanVersionsChain(t *testing.T) {
	e := newEngine(t)
	snap := fleet(7)

	p1, err := e.GeneratePlan(context.Background(), snap)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if p1.Version != 1 || p1.Status != model.PlanDraft {
		t.Fatalf("first plan version=%d status=%s", p1.Version, p1.Status)
	}

	p2, err := e.GeneratePlan(context.Background(), snap)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if p2.Version != 2 {
		t.Fatalf("second plan version = %d, want 2", p2.Version)
	}
	old, err := e.Plan(p1.ID)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if old.Status != model.PlanSuperseded {
		t.Fatalf("first plan status = %s, want superseded", old.Status)
	}
	latest, err := e.LatestPlan("Muttom", "2026-08-31")
	if err != nil {
		t.Fatalf("LatestPlan: %v", err)
	}
	if latest.ID != p2.ID {
		t.Fatalf("latest = %s, want %s", latest.ID, p2.ID)
	}
	history, err := e.PlanHistory("Muttom", "2026-08-31")
	if err != nil {
		t.Fatalf("PlanHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
}

func TestOverrideRequiresReason(t *testing.T) {
	e := newEngine(t)
	plan, err := e.GeneratePlan(context.Background(), fleet(7))
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	_, err = e.Override(OverrideRequest{
		PlanID: plan.ID, TrainID: plan.Assignments[0].TrainID,
		To: model.AssignStandby, Supervisor: "s.nair",
	})
	if !errors.Is(err, ErrOverrideRejected) {
		t.Fatalf("err = %v, want ErrOverrideRejected for missing reason", err)
	}
}

func TestOverrideCannotServiceBlockedTrain(t *testing.T) {
	e := newEngine(t)
	snap := fleet(7)
	snap.Trains[0].JobCards = []model.JobCard{
		{JobID: "J1", Status: model.JobOpen, SafetyCritical: true, RequiresIBL: true, Priority: model.PriorityCritical},
	}
	plan, err := e.GeneratePlan(context.Background(), snap)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	_, err = e.Override(OverrideRequest{
		PlanID: plan.ID, TrainID: "A0", To: model.AssignService,
		Reason: "need the capacity", Supervisor: "s.nair",
	})
	if !errors.Is(err, ErrOverrideRejected) {
		t.Fatalf("err = %v, want ErrOverrideRejected for blocked train", err)
	}
}

func TestOverrideAppliesWithAudit(t *testing.T) {
	e := newEngine(t)
	plan, err := e.GeneratePlan(context.Background(), fleet(7))
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	var standby string
	for _, a := range plan.Assignments {
		if a.Type == model.AssignStandby {
			standby = a.TrainID
			break
		}
	}
	updated, err := e.Override(OverrideRequest{
		PlanID: plan.ID, TrainID: standby, To: model.AssignService,
		Reason: "extra peak capacity requested", Supervisor: "s.nair",
	})
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	a := updated.AssignmentOf(standby)
	if a.Type != model.AssignService || !a.Overridden {
		t.Fatalf("assignment after override = %+v", a)
	}
	if len(updated.Overrides) != 1 || updated.Overrides[0].From != model.AssignStandby {
		t.Fatalf("override records = %+v", updated.Overrides)
	}
}

func TestApproveLifecycle(t *testing.T) {
	e := newEngine(t)
	plan, err := e.GeneratePlan(context.Background(), fleet(7))
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	approved, err := e.Approve(plan.ID, "depot.chief")
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != model.PlanApproved || approved.ApprovedBy != "depot.chief" {
		t.Fatalf("approved plan = %+v", approved)
	}
	if _, err := e.Approve(plan.ID, "depot.chief"); err == nil {
		t.Fatalf("re-approving must fail")
	}
}

func TestWithdrawalQuickSwap(t *testing.T) {
	e, err := New(logger.NopLogger{}, Options{Bus: eventbus.New()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	plan, err := e.GeneratePlan(context.Background(), fleet(8))
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	var service, standbys []string
	for _, a := range plan.Assignments {
		switch a.Type {
		case model.AssignService:
			service = append(service, a.TrainID)
		case model.AssignStandby:
			standbys = append(standbys, a.TrainID)
		}
	}

	w := model.Withdrawal{TrainID: service[0], Reason: "door fault", ReportedAt: now.Add(11 * time.Hour)}
	updated, rp, err := e.HandleWithdrawal(context.Background(), w)
	if err != nil {
		t.Fatalf("HandleWithdrawal: %v", err)
	}
	if rp == nil || rp.Chosen == nil {
		t.Fatalf("expected a chosen replacement")
	}
	if a := updated.AssignmentOf(service[0]); a.Type != model.AssignOutOfService {
		t.Fatalf("withdrawn train assignment = %+v", a)
	}
	repl := updated.AssignmentOf(rp.Chosen.TrainID)
	if repl.Type != model.AssignService {
		t.Fatalf("replacement assignment = %+v", repl)
	}
	found := false
	for _, id := range standbys {
		if id == rp.Chosen.TrainID {
			found = true
		}
	}
	if !found {
		t.Fatalf("replacement %s did not come from standby %v", rp.Chosen.TrainID, standbys)
	}
	if updated.Version != plan.Version+1 {
		t.Fatalf("swap must bump the version, got %d", updated.Version)
	}
}

func TestSecondWithdrawalEscalatesToCrisis(t *testing.T) {
	e := newEngine(t)
	plan, err := e.GeneratePlan(context.Background(), fleet(9))
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	var service []string
	for _, a := range plan.Assignments {
		if a.Type == model.AssignService {
			service = append(service, a.TrainID)
		}
	}

	t0 := now.Add(11 * time.Hour)
	if _, _, err := e.HandleWithdrawal(context.Background(), model.Withdrawal{TrainID: service[0], Reason: "hvac", ReportedAt: t0}); err != nil {
		t.Fatalf("first withdrawal: %v", err)
	}
	crisisPlan, rp, err := e.HandleWithdrawal(context.Background(), model.Withdrawal{TrainID: service[1], Reason: "traction", ReportedAt: t0.Add(5 * time.Minute)})
	if err != nil {
		t.Fatalf("second withdrawal: %v", err)
	}
	if rp != nil {
		t.Fatalf("crisis path must re-plan, not quick-swap")
	}
	if crisisPlan.Mode != model.ModeCrisis {
		t.Fatalf("mode = %s, want crisis", crisisPlan.Mode)
	}
	for _, id := range service[:2] {
		if a := crisisPlan.AssignmentOf(id); a == nil || a.Type != model.AssignOutOfService {
			t.Fatalf("withdrawn %s in crisis plan = %+v", id, a)
		}
	}
}

func TestReportCrisisReplansBatch(t *testing.T) {
	e := newEngine(t)
	plan, err := e.GeneratePlan(context.Background(), fleet(9))
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	var service []string
	for _, a := range plan.Assignments {
		if a.Type == model.AssignService {
			service = append(service, a.TrainID)
		}
	}

	t0 := now.Add(11 * time.Hour)
	crisisPlan, err := e.ReportCrisis(context.Background(), "Muttom", "2026-08-31", []model.Withdrawal{
		{TrainID: service[0], Reason: "collision damage", ReportedAt: t0},
		{TrainID: service[1], Reason: "collision damage", ReportedAt: t0},
	})
	if err != nil {
		t.Fatalf("ReportCrisis: %v", err)
	}
	if crisisPlan.Mode != model.ModeCrisis {
		t.Fatalf("mode = %s, want crisis", crisisPlan.Mode)
	}
	if crisisPlan.Version != plan.Version+1 {
		t.Fatalf("crisis plan version = %d, want %d", crisisPlan.Version, plan.Version+1)
	}
	for _, id := range service[:2] {
		if a := crisisPlan.AssignmentOf(id); a == nil || a.Type != model.AssignOutOfService {
			t.Fatalf("withdrawn %s in crisis plan = %+v", id, a)
		}
	}
}

func TestReportCrisisNeedsWithdrawals(t *testing.T) {
	e := newEngine(t)
	if _, err := e.ReportCrisis(context.Background(), "Muttom", "2026-08-31", nil); err == nil {
		t.Fatalf("empty crisis report must fail")
	}
}

func TestWithdrawalWithoutStandbyDegrades(t *testing.T) {
	e := newEngine(t)
	snap := fleet(3)
	snap.ServiceTarget = 3
	snap.StandbyMin = 0
	plan, err := e.GeneratePlan(context.Background(), snap)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if plan.Counts.Standby != 0 {
		t.Fatalf("fixture expects an empty standby pool, got %d", plan.Counts.Standby)
	}
	w := model.Withdrawal{TrainID: plan.Assignments[0].TrainID, Reason: "bogie", ReportedAt: now.Add(12 * time.Hour)}
	updated, _, err := e.HandleWithdrawal(context.Background(), w)
	if !errors.Is(err, emergency.ErrNoFeasibleReplacement) {
		t.Fatalf("err = %v, want ErrNoFeasibleReplacement", err)
	}
	if updated == nil || !updated.Degraded {
		t.Fatalf("plan must be stored degraded, got %+v", updated)
	}
}

func TestWhatIfUsesRetainedSnapshot(t *testing.T) {
	e := newEngine(t)
	if _, err := e.GeneratePlan(context.Background(), fleet(7)); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	res, err := e.WhatIf(context.Background(), "Muttom", "2026-08-31", whatif.Scenario{
		Name:       "lose A0",
		Transforms: []whatif.Transform{whatif.WithdrawTrain("A0")},
	})
	if err != nil {
		t.Fatalf("WhatIf: %v", err)
	}
	if res.Scenario != "lose A0" {
		t.Fatalf("scenario = %q", res.Scenario)
	}
	latest, err := e.LatestPlan("Muttom", "2026-08-31")
	if err != nil {
		t.Fatalf("LatestPlan: %v", err)
	}
	if latest.Version != 1 {
		t.Fatalf("what-if must not create plan versions, latest = %d", latest.Version)
	}
}
