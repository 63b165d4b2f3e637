package model

import "time"

// TrainSnapshot bundles everything known about one train at planning time.
type TrainSnapshot struct {
	Train        Train                `json:"train"`
	Certificates []FitnessCertificate `json:"certificates,omitempty"`
	JobCards     []JobCard            `json:"job_cards,omitempty"`
	Contracts    []BrandingContract   `json:"contracts,omitempty"`
	Mileage      *MileageRecord       `json:"mileage,omitempty"`
	Cleaning     *CleaningRecord      `json:"cleaning,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s TrainSnapshot) Clone() TrainSnapshot {
	out := s
	out.Certificates = append([]FitnessCertificate(nil), s.Certificates...)
	out.JobCards = append([]JobCard(nil), s.JobCards...)
	out.Contracts = append([]BrandingContract(nil), s.Contracts...)
	if s.Mileage != nil {
		m := *s.Mileage
		out.Mileage = &m
	}
	if s.Cleaning != nil {
		c := *s.Cleaning
		out.Cleaning = &c
	}
	return out
}

// FleetSnapshot is the immutable input of one planning run: the fleet state
// of a depot as of At.
type FleetSnapshot struct {
	Depot         string          `json:"depot"`
	At            time.Time       `json:"at"`
	ServiceDate   string          `json:"service_date"`
	Trains        []TrainSnapshot `json:"trains"`
	Layout        DepotLayout     `json:"layout"`
	PredictedKm   float64         `json:"predicted_km,omitempty"`
	FleetAvgKm    float64         `json:"fleet_avg_km,omitempty"`
	ServiceTarget int             `json:"service_target,omitempty"`
	StandbyMin    int             `json:"standby_min,omitempty"`
	IBLCapacity   int             `json:"ibl_capacity,omitempty"`
}

// Clone returns a deep copy of the snapshot. What-if simulations transform
// the copy and never the original.
func (f FleetSnapshot) Clone() FleetSnapshot {
	out := f
	out.Trains = make([]TrainSnapshot, len(f.Trains))
	for i, t := range f.Trains {
		out.Trains[i] = t.Clone()
	}
	out.Layout = f.Layout.Clone()
	return out
}

// TrainByID returns the snapshot for a train, or nil when absent.
func (f *FleetSnapshot) TrainByID(id string) *TrainSnapshot {
	for i := range f.Trains {
		if f.Trains[i].Train.ID == id {
			return &f.Trains[i]
		}
	}
	return nil
}
