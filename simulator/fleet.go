// Package simulator generates synthetic fleet snapshots for demos and load
// testing the planner without live depot feeds.
package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/core/rules"
)

// Options shapes the generated fleet.
type Options struct {
	Depot         string
	ServiceDate   string
	Trains        int
	Seed          int64
	At            time.Time
	ServiceTarget int
	StandbyMin    int
	IBLCapacity   int

	// Fault rates, 0-1. Zero means a healthy fleet.
	ExpiredCertRate  float64
	SafetyJobRate    float64
	OpenJobRate      float64
	BrandingRate     float64
	DirtyRate        float64
	HighMileageRate  float64
	VIPInspectionDue bool
}

// DefaultOptions returns a 25-train fleet with a realistic fault mix.
func DefaultOptions() Options {
	return Options{
		Depot:           "Muttom",
		Trains:          25,
		Seed:            1,
		ServiceTarget:   rules.DefaultServiceTarget,
		StandbyMin:      rules.DefaultStandbyMin,
		IBLCapacity:     rules.DefaultIBLCapacity,
		ExpiredCertRate: 0.08,
		SafetyJobRate:   0.04,
		OpenJobRate:     0.3,
		BrandingRate:    0.4,
		DirtyRate:       0.2,
		HighMileageRate: 0.12,
	}
}

// Generate builds a deterministic snapshot for the options.
func Generate(opts Options) model.FleetSnapshot {
	rng := rand.New(rand.NewSource(opts.Seed))
	at := opts.At
	if at.IsZero() {
		at = time.Now()
	}
	if opts.ServiceDate == "" {
		opts.ServiceDate = at.AddDate(0, 0, 1).Format("2006-01-02")
	}

	snap := model.FleetSnapshot{
		Depot:         opts.Depot,
		At:            at,
		ServiceDate:   opts.ServiceDate,
		PredictedKm:   rules.DefaultPredictedDayKm,
		ServiceTarget: opts.ServiceTarget,
		StandbyMin:    opts.StandbyMin,
		IBLCapacity:   opts.IBLCapacity,
	}

	var kms []float64
	for i := 0; i < opts.Trains; i++ {
		id := fmt.Sprintf("KM-%03d", i+1)
		ts := model.TrainSnapshot{
			Train: model.Train{ID: id, Number: id, Status: model.TrainActive, Depot: opts.Depot},
		}

		for _, d := range model.Departments {
			cert := model.FitnessCertificate{
				TrainID: id, Department: d, Status: model.CertValid,
				ValidFrom: at.AddDate(0, -2, 0),
				ValidTo:   at.AddDate(0, 0, 15+rng.Intn(90)),
			}
			if rng.Float64() < opts.ExpiredCertRate {
				cert.Status = model.CertExpired
				cert.ValidTo = at.AddDate(0, 0, -rng.Intn(5)-1)
			}
			ts.Certificates = append(ts.Certificates, cert)
		}

		if rng.Float64() < opts.SafetyJobRate {
			ts.JobCards = append(ts.JobCards, model.JobCard{
				TrainID: id, JobID: fmt.Sprintf("%s-SJ", id), Title: "brake caliper inspection",
				Priority: model.PriorityCritical, Status: model.JobOpen,
				SafetyCritical: true, RequiresIBL: true,
				DueDate: at.AddDate(0, 0, 1),
			})
		} else if rng.Float64() < opts.OpenJobRate {
			ts.JobCards = append(ts.JobCards, model.JobCard{
				TrainID: id, JobID: fmt.Sprintf("%s-J1", id), Title: "HVAC filter swap",
				Priority: model.JobPriority(2 + rng.Intn(3)), Status: model.JobOpen,
				DueDate: at.AddDate(0, 0, rng.Intn(14)-3),
			})
		}

		if rng.Float64() < opts.BrandingRate {
			tiers := []model.BrandingTier{model.TierPlatinum, model.TierGold, model.TierSilver, model.TierBronze}
			target := 200 + 40*rng.Float64()*4
			ts.Contracts = append(ts.Contracts, model.BrandingContract{
				TrainID: id, BrandName: fmt.Sprintf("brand-%02d", rng.Intn(20)),
				Tier:          tiers[rng.Intn(len(tiers))],
				CampaignStart: at.AddDate(0, -1, 0),
				CampaignEnd:   at.AddDate(0, 0, 15+rng.Intn(60)),
				TargetHoursMonthly: target,
				CurrentHoursMonth:  target * rng.Float64(),
			})
		}

		kmSince := 1000 + rng.Float64()*6000
		if rng.Float64() < opts.HighMileageRate {
			kmSince = 9300 + rng.Float64()*600
		}
		lifetime := 150000 + rng.Float64()*400000
		kms = append(kms, lifetime)
		ts.Mileage = &model.MileageRecord{
			TrainID: id, LifetimeKm: lifetime,
			KmSinceService: kmSince, ServiceThresholdKm: 10000, WarningThresholdKm: 1000,
			AvgDailyKm: rules.DefaultPredictedDayKm,
		}

		cleanedDays := rng.Intn(3)
		if rng.Float64() < opts.DirtyRate {
			cleanedDays = 6 + rng.Intn(7)
		}
		ts.Cleaning = &model.CleaningRecord{
			TrainID: id, Status: model.CleaningOK,
			LastCleanedAt:          at.AddDate(0, 0, -cleanedDays),
			LightIntervalDays:      2,
			DeepIntervalDays:       7,
			MaxDaysWithoutCleaning: 10,
			VIPInspectionTomorrow:  opts.VIPInspectionDue && i == 0,
		}

		snap.Trains = append(snap.Trains, ts)
	}

	snap.FleetAvgKm = stat.Mean(kms, nil)
	snap.Layout = generateLayout(opts, snap.Trains)
	return snap
}

// generateLayout parks trains on stabling tracks of four and adds bay tracks
// for the IBL capacity.
func generateLayout(opts Options, trains []model.TrainSnapshot) model.DepotLayout {
	layout := model.DepotLayout{Depot: opts.Depot}
	const perTrack = 4
	var track *model.Track
	for i := range trains {
		if i%perTrack == 0 {
			layout.Tracks = append(layout.Tracks, model.Track{
				ID:       fmt.Sprintf("SBL-%02d", len(layout.Tracks)+1),
				Depot:    opts.Depot,
				Kind:     model.TrackStabling,
				Capacity: perTrack,
			})
		}
		track = &layout.Tracks[len(layout.Tracks)-1]
		track.Occupancy = append(track.Occupancy, trains[i].Train.ID)
		trains[i].Train.CurrentTrack = track.ID
		trains[i].Train.Position = len(track.Occupancy) - 1
	}
	bays := (opts.IBLCapacity + 1) / 2
	for i := 0; i < bays; i++ {
		layout.Tracks = append(layout.Tracks, model.Track{
			ID:       fmt.Sprintf("IBL-%02d", i+1),
			Depot:    opts.Depot,
			Kind:     model.TrackIBL,
			Capacity: 2,
		})
	}
	return layout
}
