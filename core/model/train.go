package model

// TrainStatus describes the operational state of a trainset.
type TrainStatus int

const (
	TrainActive TrainStatus = iota
	TrainInService
	TrainStandby
	TrainOutOfService
	TrainDecommissioned
)

// String returns a human-readable representation of the train status.
func (s TrainStatus) String() string {
	switch s {
	case TrainActive:
		return "ACTIVE"
	case TrainInService:
		return "IN_SERVICE"
	case TrainStandby:
		return "STANDBY"
	case TrainOutOfService:
		return "OUT_OF_SERVICE"
	case TrainDecommissioned:
		return "DECOMMISSIONED"
	default:
		return "unknown"
	}
}

// Train represents a trainset in the fleet. Trains are never deleted, only
// decommissioned.
type Train struct {
	ID            string      `json:"id"`
	Number        string      `json:"number"`
	Configuration string      `json:"configuration,omitempty"`
	Status        TrainStatus `json:"status"`
	Depot         string      `json:"depot,omitempty"`
	CurrentTrack  string      `json:"current_track,omitempty"`
	Position      int         `json:"position,omitempty"`
}

// Available reports whether the train can be considered for the nightly
// roster. Withdrawn and decommissioned trains are not.
func (t Train) Available() bool {
	return t.Status != TrainOutOfService && t.Status != TrainDecommissioned
}
