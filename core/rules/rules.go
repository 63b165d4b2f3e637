// Package rules centralizes the operational constants the planner and the
// domain scorers share. Every threshold that operations may want to tune
// lives here with its default value.
package rules

import "time"

// Fitness certificate policy.
const (
	CertMinValidityDays          = 3
	CertMinValidityDaysEmergency = 1
	CertExpiringSoonMaxDays      = 14
	CertExpiringSoonMinDays      = 7

	CertScoreValid    = 100.0
	CertScoreExpiring = 80.0
	CertScoreCritical = 60.0
	CertScoreExpired  = 0.0
)

// Maintenance job policy.
const (
	JobDeductionCritical = 30.0
	JobDeductionHigh     = 15.0
	JobDeductionMedium   = 5.0
	JobDeductionOverdue  = 20.0
)

// Branding policy. Tier multipliers weight urgency by commercial value.
const (
	BrandingScoreNoContracts = 50.0

	TierMultPlatinum = 1.0
	TierMultGold     = 0.9
	TierMultSilver   = 0.75
	TierMultBronze   = 0.6
)

// Mileage policy. A train more than MileageImbalanceRatio above the fleet
// average lifetime mileage is flagged so wear spreads back toward balance.
const (
	MileageScoreCannotFinish = 20.0
	DefaultPredictedDayKm    = 450.0
	MileageImbalanceRatio    = 0.15
)

// Cross-domain thresholds used by conflict detection and branding alerts.
const (
	BrandingUrgentScore   = 80.0
	BrandingCriticalScore = 90.0
	MileageLowScore       = 50.0
	CleaningLowScore      = 50.0
	ServiceReadyScore     = 70.0
	ConflictGapHigh       = 60.0
)

// Stabling policy. Each shunting move costs ScorePerMove points; congested
// tracks add StructuralPenaltyMoves extra moves.
const (
	StablingScorePerMove          = 20.0
	StablingStructuralPenalty     = 2
	StablingStructuralMinBlockers = 3
)

// Composite weights for normal planning. Branding is configurable within
// [BrandingWeightMin, BrandingWeightMax]; the rest are fixed.
const (
	WeightFitness     = 100.0
	WeightMaintenance = 100.0
	WeightBranding    = 80.0
	WeightMileage     = 50.0
	WeightCleaning    = 40.0
	WeightStabling    = 30.0

	BrandingWeightMin = 0.0
	BrandingWeightMax = 200.0
)

// Emergency replacement weights and readiness bonuses. Readiness favors
// standby trains that can reach the mainline fastest.
const (
	EmergencyWeightFitness     = 0.30
	EmergencyWeightMaintenance = 0.25
	EmergencyWeightBranding    = 0.05
	EmergencyWeightMileage     = 0.05
	EmergencyWeightCleaning    = 0.03
	EmergencyWeightStabling    = 0.05

	ReadinessBonusFast   = 27.0
	ReadinessBonusMedium = 20.0
	ReadinessBonusSlow   = 10.0

	ReadinessFastMinutes   = 15
	ReadinessMediumMinutes = 20
	ReadinessSlowMinutes   = 25
)

// Deployment time model for emergency swaps.
const (
	DeployBaseMinutes        = 10
	DeployMinutesPerMove     = 5
	DeployCleaningPenaltyMin = 5
)

// Capacity defaults for one depot.
const (
	DefaultServiceTarget = 18
	DefaultStandbyMin    = 2
	DefaultIBLCapacity   = 4
)

// Replanning policy.
const (
	QuickCheckBudget = 30 * time.Second
	CrisisWindow     = 30 * time.Minute
	CrisisThreshold  = 1 // more than this many withdrawals in the window
	OverrideTTL      = 24 * time.Hour
)
