package model

// TrackKind distinguishes revenue stabling tracks from maintenance bays.
type TrackKind string

const (
	TrackStabling TrackKind = "stabling"
	TrackIBL      TrackKind = "ibl"
)

// Track is a depot track. Occupancy is ordered from the exit end: index 0 is
// the train that can leave without any shunting.
type Track struct {
	ID        string    `json:"id"`
	Depot     string    `json:"depot,omitempty"`
	Kind      TrackKind `json:"kind"`
	Capacity  int       `json:"capacity"`
	Occupancy []string  `json:"occupancy"`
}

// PositionOf returns the zero-based slot of the train counted from the exit
// end, or -1 when the train is not on this track.
func (t Track) PositionOf(trainID string) int {
	for i, id := range t.Occupancy {
		if id == trainID {
			return i
		}
	}
	return -1
}

// Free returns remaining slots on the track.
func (t Track) Free() int {
	if f := t.Capacity - len(t.Occupancy); f > 0 {
		return f
	}
	return 0
}

// DepotLayout is the track geometry of one depot.
type DepotLayout struct {
	Depot  string  `json:"depot"`
	Tracks []Track `json:"tracks"`
}

// TrackOf returns the track holding the train, or nil.
func (d DepotLayout) TrackOf(trainID string) *Track {
	for i := range d.Tracks {
		if d.Tracks[i].PositionOf(trainID) >= 0 {
			return &d.Tracks[i]
		}
	}
	return nil
}

// BlockersAhead counts trains between the given train and the exit end of its
// track. A train not on any track has no blockers.
func (d DepotLayout) BlockersAhead(trainID string) int {
	t := d.TrackOf(trainID)
	if t == nil {
		return 0
	}
	return t.PositionOf(trainID)
}

// IBLCapacity sums free slots across maintenance bays.
func (d DepotLayout) IBLCapacity() int {
	var n int
	for _, t := range d.Tracks {
		if t.Kind == TrackIBL {
			n += t.Free()
		}
	}
	return n
}

// Clone returns a deep copy of the layout.
func (d DepotLayout) Clone() DepotLayout {
	out := DepotLayout{Depot: d.Depot, Tracks: make([]Track, len(d.Tracks))}
	for i, t := range d.Tracks {
		t.Occupancy = append([]string(nil), t.Occupancy...)
		out.Tracks[i] = t
	}
	return out
}
