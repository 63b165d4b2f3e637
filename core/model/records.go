package model

import "time"

// Department identifies the authority issuing a fitness certificate. A train
// needs valid certificates from all three departments for revenue service.
type Department string

const (
	DeptRollingStock Department = "RollingStock"
	DeptSignalling   Department = "Signalling"
	DeptTelecom      Department = "Telecom"
)

// Departments lists every required certificate-issuing department.
var Departments = []Department{DeptRollingStock, DeptSignalling, DeptTelecom}

// CertificateStatus tracks the lifecycle of a fitness certificate.
type CertificateStatus string

const (
	CertValid        CertificateStatus = "Valid"
	CertExpiringSoon CertificateStatus = "ExpiringSoon"
	CertExpired      CertificateStatus = "Expired"
	CertSuspended    CertificateStatus = "Suspended"
	CertConditional  CertificateStatus = "Conditional"
)

// FitnessCertificate is a department fitness clearance with a validity window
// and an optional supervisor-approved emergency override.
type FitnessCertificate struct {
	TrainID    string            `json:"train_id"`
	Number     string            `json:"number,omitempty"`
	Department Department        `json:"department"`
	Status     CertificateStatus `json:"status"`
	ValidFrom  time.Time         `json:"valid_from"`
	ValidTo    time.Time         `json:"valid_to"`

	EmergencyOverride bool      `json:"emergency_override,omitempty"`
	OverrideBy        string    `json:"override_by,omitempty"`
	OverrideReason    string    `json:"override_reason,omitempty"`
	OverrideExpiresAt time.Time `json:"override_expires_at,omitempty"`
}

// ValidAt reports whether the certificate is valid at the given time. An
// unexpired emergency override makes an otherwise invalid certificate count.
func (c FitnessCertificate) ValidAt(at time.Time) bool {
	if c.EmergencyOverride && !c.OverrideExpiresAt.IsZero() && !at.After(c.OverrideExpiresAt) {
		return true
	}
	if c.Status == CertExpired || c.Status == CertSuspended {
		return false
	}
	return !at.Before(c.ValidFrom) && !at.After(c.ValidTo)
}

// DaysUntilExpiry returns whole days between from and the certificate expiry.
// Negative values indicate an already expired certificate.
func (c FitnessCertificate) DaysUntilExpiry(from time.Time) int {
	return int(c.ValidTo.Sub(from).Hours() / 24)
}

// JobStatus tracks the lifecycle of a maintenance work order.
type JobStatus string

const (
	JobOpen         JobStatus = "OPEN"
	JobInProgress   JobStatus = "IN_PROGRESS"
	JobPendingParts JobStatus = "PENDING_PARTS"
	JobDeferred     JobStatus = "DEFERRED"
	JobClosed       JobStatus = "CLOSED"
)

// JobPriority ranges from 1 (critical) to 5 (routine).
type JobPriority int

const (
	PriorityCritical JobPriority = 1
	PriorityHigh     JobPriority = 2
	PriorityMedium   JobPriority = 3
	PriorityLow      JobPriority = 4
	PriorityRoutine  JobPriority = 5
)

// JobCard is an open maintenance work order against a train.
type JobCard struct {
	TrainID        string      `json:"train_id"`
	JobID          string      `json:"job_id"`
	Title          string      `json:"title,omitempty"`
	Priority       JobPriority `json:"priority"`
	Status         JobStatus   `json:"status"`
	SafetyCritical bool        `json:"safety_critical,omitempty"`
	RequiresIBL    bool        `json:"requires_ibl,omitempty"`
	DueDate        time.Time   `json:"due_date,omitempty"`
}

// IsOpen reports whether the job still needs work.
func (j JobCard) IsOpen() bool {
	switch j.Status {
	case JobOpen, JobInProgress, JobPendingParts:
		return true
	}
	return false
}

// IsOverdue reports whether an open job has passed its due date.
func (j JobCard) IsOverdue(now time.Time) bool {
	return j.IsOpen() && !j.DueDate.IsZero() && now.After(j.DueDate)
}

// BrandingTier orders advertising contracts by commercial priority.
type BrandingTier string

const (
	TierPlatinum BrandingTier = "platinum"
	TierGold     BrandingTier = "gold"
	TierSilver   BrandingTier = "silver"
	TierBronze   BrandingTier = "bronze"
)

// BrandingContract tracks an advertiser exposure commitment on a train.
type BrandingContract struct {
	TrainID       string       `json:"train_id"`
	BrandName     string       `json:"brand_name"`
	Tier          BrandingTier `json:"tier"`
	CampaignStart time.Time    `json:"campaign_start"`
	CampaignEnd   time.Time    `json:"campaign_end"`

	TargetHoursWeekly  float64 `json:"target_hours_weekly,omitempty"`
	TargetHoursMonthly float64 `json:"target_hours_monthly"`
	CurrentHoursWeek   float64 `json:"current_hours_week,omitempty"`
	CurrentHoursMonth  float64 `json:"current_hours_month"`

	PenaltyPerHourShortfall float64 `json:"penalty_per_hour_shortfall,omitempty"`
}

// WeeklyDeficit returns the exposure shortfall for the current week.
func (b BrandingContract) WeeklyDeficit() float64 {
	if d := b.TargetHoursWeekly - b.CurrentHoursWeek; d > 0 {
		return d
	}
	return 0
}

// MonthlyDeficit returns the exposure shortfall for the current month.
func (b BrandingContract) MonthlyDeficit() float64 {
	if d := b.TargetHoursMonthly - b.CurrentHoursMonth; d > 0 {
		return d
	}
	return 0
}

// UrgencyScore rates how urgently the contract needs exposure, 0-100. Urgency
// rises with the deficit ratio and shrinks with remaining campaign time.
func (b BrandingContract) UrgencyScore(now time.Time) float64 {
	if now.After(b.CampaignEnd) {
		return 0
	}
	remainingDays := b.CampaignEnd.Sub(now).Hours() / 24
	if remainingDays <= 0 {
		return 100
	}
	var deficitRatio float64
	if b.TargetHoursMonthly > 0 {
		deficitRatio = b.MonthlyDeficit() / b.TargetHoursMonthly
	}
	urgency := (deficitRatio * 100) / (remainingDays / 30)
	if urgency > 100 {
		return 100
	}
	return urgency
}

// Breached reports whether the contract ended with an unmet exposure target.
func (b BrandingContract) Breached(now time.Time) bool {
	return now.After(b.CampaignEnd) && b.MonthlyDeficit() > 0
}

// MileageRecord is the odometer state of a train relative to its service
// thresholds.
type MileageRecord struct {
	TrainID            string  `json:"train_id"`
	LifetimeKm         float64 `json:"lifetime_km,omitempty"`
	KmSinceService     float64 `json:"km_since_service"`
	ServiceThresholdKm float64 `json:"service_threshold_km"`
	WarningThresholdKm float64 `json:"warning_threshold_km"`
	AvgDailyKm         float64 `json:"avg_daily_km,omitempty"`
}

// KmToThreshold returns kilometers remaining until the service threshold.
func (m MileageRecord) KmToThreshold() float64 {
	if d := m.ServiceThresholdKm - m.KmSinceService; d > 0 {
		return d
	}
	return 0
}

// ThresholdRiskScore rates proximity to the service threshold, 0 = safe,
// 100 = at or over the threshold. Linear within the warning zone.
func (m MileageRecord) ThresholdRiskScore() float64 {
	remaining := m.KmToThreshold()
	if remaining <= 0 {
		return 100
	}
	if m.WarningThresholdKm <= 0 || remaining >= m.WarningThresholdKm {
		return 0
	}
	return 100 * (1 - remaining/m.WarningThresholdKm)
}

// CanCompleteDay reports whether the train can run the predicted distance
// without crossing its service threshold.
func (m MileageRecord) CanCompleteDay(predictedKm float64) bool {
	return m.KmSinceService+predictedKm < m.ServiceThresholdKm
}

// CleaningStatus tracks the cleanliness state of a train.
type CleaningStatus string

const (
	CleaningOK              CleaningStatus = "ok"
	CleaningDue             CleaningStatus = "due"
	CleaningOverdue         CleaningStatus = "overdue"
	CleaningSpecialRequired CleaningStatus = "special_required"
)

// CleaningRecord tracks cleaning state and policy thresholds for a train.
type CleaningRecord struct {
	TrainID       string         `json:"train_id"`
	Status        CleaningStatus `json:"status,omitempty"`
	LastCleanedAt time.Time      `json:"last_cleaned_at"`

	LightIntervalDays      int `json:"light_interval_days"`
	DeepIntervalDays       int `json:"deep_interval_days"`
	MaxDaysWithoutCleaning int `json:"max_days_without_cleaning"`

	SpecialCleanRequired  bool `json:"special_clean_required,omitempty"`
	VIPInspectionTomorrow bool `json:"vip_inspection_tomorrow,omitempty"`
}

// DaysSinceCleaning returns days elapsed since the last completed cleaning.
// A train never cleaned reports a very large value.
func (c CleaningRecord) DaysSinceCleaning(now time.Time) float64 {
	if c.LastCleanedAt.IsZero() {
		return 1e9
	}
	return now.Sub(c.LastCleanedAt).Hours() / 24
}

// Required reports whether policy demands a cleaning before service.
func (c CleaningRecord) Required(now time.Time) bool {
	return c.DaysSinceCleaning(now) >= float64(c.MaxDaysWithoutCleaning) ||
		c.SpecialCleanRequired ||
		c.VIPInspectionTomorrow ||
		c.Status == CleaningOverdue ||
		c.Status == CleaningSpecialRequired
}

// Urgency rates cleaning need, 0 = fresh, 100 = critical.
func (c CleaningRecord) Urgency(now time.Time) float64 {
	if c.SpecialCleanRequired {
		return 100
	}
	if c.VIPInspectionTomorrow {
		return 95
	}
	days := c.DaysSinceCleaning(now)
	switch {
	case days >= float64(c.MaxDaysWithoutCleaning):
		return 90
	case days >= float64(c.DeepIntervalDays):
		return 60
	case days >= float64(c.LightIntervalDays):
		return 30
	}
	return 0
}
