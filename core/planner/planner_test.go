package planner

import (
	"context"
	"testing"
	"time"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
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
		Layout: model.DepotLayout{Depot: "Muttom", Tracks: []model.Track{
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

func newPlanner(t *testing.T) *Planner {
	t.Helper()
	p, err := New(logger.NopLogger{}, DefaultWeights())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestPlanPartitionsFleet(t *testing.T) {
	snap := fleet(8)
	// A1 has an open safety-critical job, A2 needs a deep clean before a VIP
	// visit, A3 is decommissioned.
	snap.Trains[1].JobCards = []model.JobCard{
		{JobID: "J1", Status: model.JobOpen, SafetyCritical: true, RequiresIBL: true, Priority: model.PriorityCritical},
	}
	snap.Trains[2].Cleaning.VIPInspectionTomorrow = true
	snap.Trains[3].Train.Status = model.TrainDecommissioned

	plan, err := newPlanner(t).Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.Counts.Service != 3 {
		t.Fatalf("service count = %d, want 3", plan.Counts.Service)
	}
	if a := plan.AssignmentOf("A1"); a == nil || a.Type != model.AssignIBLMaint {
		t.Fatalf("safety-job train assignment = %+v, want IBL_MAINTENANCE", a)
	}
	if a := plan.AssignmentOf("A2"); a == nil || a.Type != model.AssignIBLCleaning {
		t.Fatalf("VIP train assignment = %+v, want IBL_CLEANING", a)
	}
	if a := plan.AssignmentOf("A3"); a == nil || a.Type != model.AssignOutOfService {
		t.Fatalf("decommissioned train assignment = %+v, want OUT_OF_SERVICE", a)
	}
	if plan.Degraded {
		t.Fatalf("plan should not be degraded: %+v", plan.Alerts)
	}
}

func TestBlockedTrainNeverInService(t *testing.T) {
	snap := fleet(4)
	snap.ServiceTarget = 4
	for i := range snap.Trains[0].Certificates {
		snap.Trains[0].Certificates[i].Status = model.CertExpired
	}
	plan, err := newPlanner(t).Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	a := plan.AssignmentOf("A0")
	if a == nil || a.Type == model.AssignService || a.Type == model.AssignStandby {
		t.Fatalf("expired-certificate train assigned %+v, must be held out", a)
	}
	if !plan.Degraded {
		t.Fatalf("shorted roster must mark the plan degraded")
	}
	found := false
	for _, al := range plan.Alerts {
		if al.Type == model.AlertFitnessInvalid && al.TrainID == "A0" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing fitness_invalid alert: %+v", plan.Alerts)
	}
}

func TestBayOverflowDegradesPlan(t *testing.T) {
	snap := fleet(6)
	snap.IBLCapacity = 1
	for i := 0; i < 3; i++ {
		snap.Trains[i].Cleaning.SpecialCleanRequired = true
	}
	plan, err := newPlanner(t).Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !plan.Degraded {
		t.Fatalf("bay overflow must degrade the plan")
	}
	var overflow int
	for _, al := range plan.Alerts {
		if al.Type == model.AlertCapacityInfeasible && al.Severity == model.SeverityCritical {
			overflow++
		}
	}
	if overflow == 0 {
		t.Fatalf("missing capacity alerts: %+v", plan.Alerts)
	}
}

func TestCombinedBayNeedGetsOneSlot(t *testing.T) {
	snap := fleet(5)
	snap.Trains[0].Cleaning.SpecialCleanRequired = true
	snap.Trains[0].JobCards = []model.JobCard{
		{JobID: "J1", Status: model.JobOpen, RequiresIBL: true, Priority: model.PriorityHigh},
	}
	plan, err := newPlanner(t).Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if a := plan.AssignmentOf("A0"); a == nil || a.Type != model.AssignIBLBoth {
		t.Fatalf("assignment = %+v, want IBL_BOTH", a)
	}
}

func TestRankTieBreakIsTotalOrder(t *testing.T) {
	mk := func(id string, blocking int, composite, risk float64) RankedTrain {
		return RankedTrain{
			Snapshot:    model.TrainSnapshot{Train: model.Train{ID: id}},
			Blocking:    blocking,
			Composite:   composite,
			MileageRisk: risk,
		}
	}
	trains := []RankedTrain{
		mk("T4", 0, 80, 10),
		mk("T3", 0, 80, 10),
		mk("T2", 0, 80, 5),
		mk("T1", 0, 90, 50),
		mk("T0", 1, 99, 0),
	}
	Rank(trains)
	want := []string{"T1", "T2", "T3", "T4", "T0"}
	for i, w := range want {
		if trains[i].TrainID() != w {
			t.Fatalf("rank %d = %s, want %s", i, trains[i].TrainID(), w)
		}
	}
}

func TestLPAndGreedyAgreeOnClearOrdering(t *testing.T) {
	var eligible []RankedTrain
	for i := 0; i < 8; i++ {
		eligible = append(eligible, RankedTrain{
			Snapshot:  model.TrainSnapshot{Train: model.Train{ID: trainID(i)}},
			Composite: float64(100 - i*7),
		})
	}
	Rank(eligible)
	lpPick, err := LPSelector{}.Select(eligible, 4)
	if err != nil {
		t.Fatalf("LP: %v", err)
	}
	greedy, err := GreedySelector{}.Select(eligible, 4)
	if err != nil {
		t.Fatalf("greedy: %v", err)
	}
	got := map[string]bool{}
	for _, id := range lpPick {
		got[id] = true
	}
	for _, id := range greedy {
		if !got[id] {
			t.Fatalf("LP roster %v missing greedy pick %s", lpPick, id)
		}
	}
}

func TestLPSelectsOptimalRosterFromUnsortedInput(t *testing.T) {
	composites := map[string]float64{"T1": 90, "T2": 40, "T3": 85, "T4": 10, "T5": 70}
	var eligible []RankedTrain
	for _, id := range []string{"T1", "T2", "T3", "T4", "T5"} {
		eligible = append(eligible, RankedTrain{
			Snapshot:  model.TrainSnapshot{Train: model.Train{ID: id}},
			Composite: composites[id],
		})
	}
	got, err := LPSelector{}.Select(eligible, 3)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	want := map[string]bool{"T1": true, "T3": true, "T5": true}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("roster %v includes %s, want the three highest composites", got, id)
		}
	}
	if len(got) != 3 {
		t.Fatalf("roster %v, want 3 trains", got)
	}
}

func TestSelectorInfeasibleWhenShort(t *testing.T) {
	eligible := []RankedTrain{{Snapshot: model.TrainSnapshot{Train: model.Train{ID: "T1"}}}}
	if _, err := (LPSelector{}).Select(eligible, 3); err == nil {
		t.Fatalf("expected infeasible error")
	}
	if _, err := (GreedySelector{}).Select(eligible, 3); err == nil {
		t.Fatalf("expected infeasible error")
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	snap := fleet(8)
	snap.Trains[2].JobCards = []model.JobCard{
		{JobID: "J1", Status: model.JobOpen, Priority: model.PriorityHigh},
	}
	p := newPlanner(t)
	a, err := p.Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	b, err := p.Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(a.Assignments) != len(b.Assignments) {
		t.Fatalf("assignment count differs: %d vs %d", len(a.Assignments), len(b.Assignments))
	}
	for i := range a.Assignments {
		x, y := a.Assignments[i], b.Assignments[i]
		if x.TrainID != y.TrainID || x.Type != y.Type || x.Rank != y.Rank {
			t.Fatalf("run differs at %d: %+v vs %+v", i, x, y)
		}
	}
}

func TestPlanFlagsMileageImbalance(t *testing.T) {
	snap := fleet(6)
	for i := range snap.Trains {
		snap.Trains[i].Mileage.LifetimeKm = 100000
	}
	// Well above the fleet mean even with its own mileage included.
	snap.Trains[0].Mileage.LifetimeKm = 140000

	plan, err := newPlanner(t).Plan(context.Background(), snap, model.ModeNormal)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	var found bool
	for _, a := range plan.Alerts {
		if a.Type == model.AlertMileageImbalance {
			if a.TrainID != "A0" {
				t.Fatalf("imbalance alert on %s, want A0", a.TrainID)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("no mileage imbalance alert in %v", plan.Alerts)
	}
}

func TestPlanHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newPlanner(t).Plan(ctx, fleet(4), model.ModeNormal); err == nil {
		t.Fatalf("cancelled context must abort the run")
	}
}

func TestEmptySnapshotRejected(t *testing.T) {
	_, err := newPlanner(t).Plan(context.Background(), model.FleetSnapshot{Depot: "Muttom"}, model.ModeNormal)
	if err == nil {
		t.Fatalf("expected invalid input error")
	}
}

func TestWeightsValidation(t *testing.T) {
	w := DefaultWeights()
	w.Branding = 250
	if err := w.Validate(); err == nil {
		t.Fatalf("branding weight above the band must fail validation")
	}
}
