package model

import "testing"

func TestPlanRecount(t *testing.T) {
	p := InductionPlan{Assignments: []Assignment{
		{TrainID: "T1", Type: AssignService},
		{TrainID: "T2", Type: AssignService},
		{TrainID: "T3", Type: AssignStandby},
		{TrainID: "T4", Type: AssignIBLMaint},
		{TrainID: "T5", Type: AssignIBLBoth},
		{TrainID: "T6", Type: AssignOutOfService},
	}}
	p.Recount()
	want := PlanCounts{Service: 2, Standby: 1, IBL: 2, OutOfService: 1}
	if p.Counts != want {
		t.Fatalf("counts = %+v, want %+v", p.Counts, want)
	}
}

func TestPlanCloneIsolation(t *testing.T) {
	p := InductionPlan{
		ID:          "plan-1",
		Assignments: []Assignment{{TrainID: "T1", Type: AssignService, Breakdown: []ScoreBreakdown{{Domain: "fitness", Score: 90}}}},
		Alerts:      []Alert{{Type: AlertVIPPrep, TrainID: "T1"}},
	}
	c := p.Clone()
	c.Assignments[0].Type = AssignStandby
	c.Assignments[0].Breakdown[0].Score = 0
	c.Alerts[0].TrainID = "T2"
	if p.Assignments[0].Type != AssignService || p.Assignments[0].Breakdown[0].Score != 90 {
		t.Fatalf("clone mutation leaked into original assignments")
	}
	if p.Alerts[0].TrainID != "T1" {
		t.Fatalf("clone mutation leaked into original alerts")
	}
}

func TestFleetSnapshotCloneIsolation(t *testing.T) {
	m := &MileageRecord{TrainID: "T1", KmSinceService: 100}
	f := FleetSnapshot{
		Depot:  "Muttom",
		Trains: []TrainSnapshot{{Train: Train{ID: "T1"}, Mileage: m}},
		Layout: DepotLayout{Tracks: []Track{{ID: "S1", Occupancy: []string{"T1"}}}},
	}
	c := f.Clone()
	c.Trains[0].Mileage.KmSinceService = 999
	c.Layout.Tracks[0].Occupancy[0] = "T9"
	if f.Trains[0].Mileage.KmSinceService != 100 {
		t.Fatalf("mileage record shared between clone and original")
	}
	if f.Layout.Tracks[0].Occupancy[0] != "T1" {
		t.Fatalf("track occupancy shared between clone and original")
	}
}

func TestBlockersAhead(t *testing.T) {
	d := DepotLayout{Tracks: []Track{
		{ID: "S1", Occupancy: []string{"T1", "T2", "T3"}},
		{ID: "S2", Occupancy: []string{"T4"}},
	}}
	if got := d.BlockersAhead("T3"); got != 2 {
		t.Fatalf("blockers for T3 = %d, want 2", got)
	}
	if got := d.BlockersAhead("T4"); got != 0 {
		t.Fatalf("blockers for T4 = %d, want 0", got)
	}
	if got := d.BlockersAhead("T9"); got != 0 {
		t.Fatalf("unstabled train must report zero blockers, got %d", got)
	}
}
