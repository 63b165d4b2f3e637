package model

import (
	"testing"
	"time"
)

var now = time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

func TestCertificateValidAt(t *testing.T) {
	c := FitnessCertificate{
		Department: DeptRollingStock,
		Status:     CertValid,
		ValidFrom:  now.AddDate(0, 0, -30),
		ValidTo:    now.AddDate(0, 0, 10),
	}
	if !c.ValidAt(now) {
		t.Fatalf("expected valid certificate")
	}
	c.Status = CertExpired
	if c.ValidAt(now) {
		t.Fatalf("expired certificate must not be valid")
	}
	c.EmergencyOverride = true
	c.OverrideExpiresAt = now.Add(2 * time.Hour)
	if !c.ValidAt(now) {
		t.Fatalf("emergency override must make certificate count")
	}
	if c.ValidAt(now.Add(3 * time.Hour)) {
		t.Fatalf("lapsed override must not count")
	}
}

func TestJobCardOpenAndOverdue(t *testing.T) {
	j := JobCard{Status: JobInProgress, DueDate: now.AddDate(0, 0, -1)}
	if !j.IsOpen() || !j.IsOverdue(now) {
		t.Fatalf("in-progress past-due job must be open and overdue")
	}
	j.Status = JobClosed
	if j.IsOpen() || j.IsOverdue(now) {
		t.Fatalf("closed job must be neither open nor overdue")
	}
}

func TestBrandingUrgency(t *testing.T) {
	b := BrandingContract{
		Tier:               TierPlatinum,
		CampaignEnd:        now.AddDate(0, 0, 30),
		TargetHoursMonthly: 100,
		CurrentHoursMonth:  50,
	}
	// 50% deficit with one month left is 50 urgency.
	if got := b.UrgencyScore(now); got < 49 || got > 51 {
		t.Fatalf("urgency = %.1f, want ~50", got)
	}
	b.CampaignEnd = now.AddDate(0, 0, 3)
	if got := b.UrgencyScore(now); got != 100 {
		t.Fatalf("urgency = %.1f, want capped at 100", got)
	}
	b.CurrentHoursMonth = 100
	if got := b.UrgencyScore(now); got != 0 {
		t.Fatalf("no deficit must give zero urgency, got %.1f", got)
	}
}

func TestMileageRisk(t *testing.T) {
	m := MileageRecord{KmSinceService: 9500, ServiceThresholdKm: 10000, WarningThresholdKm: 1000}
	if got := m.ThresholdRiskScore(); got != 50 {
		t.Fatalf("risk = %.1f, want 50 halfway through warning zone", got)
	}
	m.KmSinceService = 10000
	if got := m.ThresholdRiskScore(); got != 100 {
		t.Fatalf("at-threshold risk = %.1f, want 100", got)
	}
	m.KmSinceService = 8000
	if got := m.ThresholdRiskScore(); got != 0 {
		t.Fatalf("outside warning zone risk = %.1f, want 0", got)
	}
	if !m.CanCompleteDay(500) {
		t.Fatalf("2000 km headroom must cover a 500 km day")
	}
	if m.CanCompleteDay(2500) {
		t.Fatalf("day crossing the threshold must be rejected")
	}
}

func TestCleaningUrgencyLadder(t *testing.T) {
	c := CleaningRecord{LightIntervalDays: 2, DeepIntervalDays: 7, MaxDaysWithoutCleaning: 10}
	cases := []struct {
		days float64
		want float64
	}{
		{1, 0}, {3, 30}, {8, 60}, {11, 90},
	}
	for _, tc := range cases {
		c.LastCleanedAt = now.Add(-time.Duration(tc.days*24) * time.Hour)
		if got := c.Urgency(now); got != tc.want {
			t.Fatalf("urgency after %.0f days = %.0f, want %.0f", tc.days, got, tc.want)
		}
	}
	c.VIPInspectionTomorrow = true
	if got := c.Urgency(now); got != 95 {
		t.Fatalf("VIP urgency = %.0f, want 95", got)
	}
	c.SpecialCleanRequired = true
	if got := c.Urgency(now); got != 100 {
		t.Fatalf("special-clean urgency = %.0f, want 100", got)
	}
}
