package emergency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
)

var now = time.Date(2026, 8, 31, 8, 15, 0, 0, time.UTC)

func standbyTrain(id string) model.TrainSnapshot {
	var certs []model.FitnessCertificate
	for _, d := range model.Departments {
		certs = append(certs, model.FitnessCertificate{
			TrainID: id, Department: d, Status: model.CertValid,
			ValidFrom: now.AddDate(0, -1, 0), ValidTo: now.AddDate(0, 2, 0),
		})
	}
	return model.TrainSnapshot{
		Train:        model.Train{ID: id, Number: id, Status: model.TrainStandby},
		Certificates: certs,
		Mileage: &model.MileageRecord{
			TrainID: id, KmSinceService: 1000,
			ServiceThresholdKm: 10000, WarningThresholdKm: 1000,
		},
		Cleaning: &model.CleaningRecord{
			TrainID: id, LastCleanedAt: now.Add(-6 * time.Hour),
			LightIntervalDays: 2, DeepIntervalDays: 7, MaxDaysWithoutCleaning: 10,
		},
	}
}

func fixture() (model.FleetSnapshot, *model.InductionPlan) {
	snap := model.FleetSnapshot{
		Depot: "Muttom", At: now,
		Trains: []model.TrainSnapshot{standbyTrain("S1"), standbyTrain("S2")},
		Layout: model.DepotLayout{Tracks: []model.Track{
			{ID: "ST-1", Occupancy: []string{"S1", "S2"}},
		}},
	}
	plan := &model.InductionPlan{Assignments: []model.Assignment{
		{TrainID: "W1", Type: model.AssignService, Rank: 1},
		{TrainID: "S1", Type: model.AssignStandby},
		{TrainID: "S2", Type: model.AssignStandby},
	}}
	return snap, plan
}

func TestQuickCheckPrefersUnblockedTrack(t *testing.T) {
	snap, plan := fixture()
	w := model.Withdrawal{TrainID: "W1", Reason: "door fault", ReportedAt: now}
	rp, err := NewReplanner(logger.NopLogger{}).QuickCheck(context.Background(), snap, plan, w)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	// S1 sits at the track exit, S2 behind it.
	if rp.Chosen == nil || rp.Chosen.TrainID != "S1" {
		t.Fatalf("chosen = %+v, want S1", rp.Chosen)
	}
	if rp.Chosen.DeploymentEst != 10*time.Minute {
		t.Fatalf("deployment = %s, want 10m for zero moves", rp.Chosen.DeploymentEst)
	}
	if len(rp.Candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(rp.Candidates))
	}
}

func TestQuickCheckSkipsBlockedStandby(t *testing.T) {
	snap, plan := fixture()
	snap.Trains[0].JobCards = []model.JobCard{
		{JobID: "J1", Status: model.JobOpen, SafetyCritical: true, Priority: model.PriorityCritical},
	}
	w := model.Withdrawal{TrainID: "W1", Reason: "brake alarm", ReportedAt: now}
	rp, err := NewReplanner(logger.NopLogger{}).QuickCheck(context.Background(), snap, plan, w)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	if rp.Chosen.TrainID != "S2" {
		t.Fatalf("chosen = %s, want S2 once S1 is safety-blocked", rp.Chosen.TrainID)
	}
}

func TestQuickCheckMatchesConfiguration(t *testing.T) {
	snap, plan := fixture()
	withdrawn := standbyTrain("W1")
	withdrawn.Train.Status = model.TrainInService
	withdrawn.Train.Configuration = "4-car"
	snap.Trains = append(snap.Trains, withdrawn)
	// S1 holds the better track position but cannot run a 4-car duty.
	snap.Trains[0].Train.Configuration = "8-car"
	snap.Trains[1].Train.Configuration = "4-car"

	w := model.Withdrawal{TrainID: "W1", Reason: "pantograph", ReportedAt: now}
	rp, err := NewReplanner(logger.NopLogger{}).QuickCheck(context.Background(), snap, plan, w)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	if rp.Chosen == nil || rp.Chosen.TrainID != "S2" {
		t.Fatalf("chosen = %+v, want the configuration-compatible S2", rp.Chosen)
	}
	if len(rp.Candidates) != 1 {
		t.Fatalf("candidates = %d, want only the compatible standby", len(rp.Candidates))
	}
}

func TestQuickCheckNoCompatibleConfiguration(t *testing.T) {
	snap, plan := fixture()
	withdrawn := standbyTrain("W1")
	withdrawn.Train.Status = model.TrainInService
	withdrawn.Train.Configuration = "4-car"
	snap.Trains = append(snap.Trains, withdrawn)
	for i := 0; i < 2; i++ {
		snap.Trains[i].Train.Configuration = "8-car"
	}
	w := model.Withdrawal{TrainID: "W1", Reason: "pantograph", ReportedAt: now}
	_, err := NewReplanner(logger.NopLogger{}).QuickCheck(context.Background(), snap, plan, w)
	if !errors.Is(err, ErrNoFeasibleReplacement) {
		t.Fatalf("err = %v, want ErrNoFeasibleReplacement", err)
	}
}

func TestQuickCheckNoCandidates(t *testing.T) {
	snap, plan := fixture()
	for i := range snap.Trains {
		snap.Trains[i].JobCards = []model.JobCard{
			{JobID: "J", Status: model.JobOpen, SafetyCritical: true, Priority: model.PriorityCritical},
		}
	}
	w := model.Withdrawal{TrainID: "W1", Reason: "hvac", ReportedAt: now}
	_, err := NewReplanner(logger.NopLogger{}).QuickCheck(context.Background(), snap, plan, w)
	if !errors.Is(err, ErrNoFeasibleReplacement) {
		t.Fatalf("err = %v, want ErrNoFeasibleReplacement", err)
	}
}

func TestQuickCheckEmergencyCertMinimum(t *testing.T) {
	snap, plan := fixture()
	// 2 days of validity fails the normal minimum but passes the emergency one.
	for i := range snap.Trains[0].Certificates {
		snap.Trains[0].Certificates[i].ValidTo = now.AddDate(0, 0, 2)
	}
	w := model.Withdrawal{TrainID: "W1", Reason: "traction", ReportedAt: now}
	rp, err := NewReplanner(logger.NopLogger{}).QuickCheck(context.Background(), snap, plan, w)
	if err != nil {
		t.Fatalf("QuickCheck: %v", err)
	}
	if len(rp.Candidates) != 2 {
		t.Fatalf("short-validity standby must stay eligible in emergency, got %d candidates", len(rp.Candidates))
	}
}

func TestCrisisDetectorWindow(t *testing.T) {
	d := NewCrisisDetector()
	if d.Record(model.Withdrawal{TrainID: "T1", ReportedAt: now}) {
		t.Fatalf("single withdrawal must not declare crisis")
	}
	if !d.Record(model.Withdrawal{TrainID: "T2", ReportedAt: now.Add(10 * time.Minute)}) {
		t.Fatalf("second withdrawal inside the window must declare crisis")
	}
	if d.Active(now.Add(2 * time.Hour)) {
		t.Fatalf("crisis must lapse once the window moves on")
	}
	if d.Record(model.Withdrawal{TrainID: "T3", ReportedAt: now.Add(3 * time.Hour)}) {
		t.Fatalf("stale withdrawals must not count toward a new crisis")
	}
}
