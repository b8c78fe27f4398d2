package ctdf

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

type PickDrop string

const (
	PickDropScheduled            PickDrop = "SCHEDULED"
	PickDropNone                 PickDrop = "NONE"
	PickDropCallAgency           PickDrop = "CALL_AGENCY"
	PickDropCoordinateWithDriver PickDrop = "COORDINATE_WITH_DRIVER"
	PickDropCancelled            PickDrop = "CANCELLED"
)

// PickDropFromGTFS maps GTFS pickup_type / drop_off_type values
func PickDropFromGTFS(code int) PickDrop {
	switch code {
	case 1:
		return PickDropNone
	case 2:
		return PickDropCallAgency
	case 3:
		return PickDropCoordinateWithDriver
	default:
		return PickDropScheduled
	}
}

func (p PickDrop) IsRoutable() bool {
	return p != PickDropNone && p != PickDropCancelled
}

// StopPattern is the ordered list of stops a trip visits together with the
// boarding and alighting policy at each one. Two trips with equal stop
// patterns on the same route share a TripPattern.
type StopPattern struct {
	Stops    []*Stop    `groups:"basic"`
	Pickups  []PickDrop `groups:"detailed"`
	Dropoffs []PickDrop `groups:"detailed"`
}

func NewStopPattern(stops []*Stop) StopPattern {
	pattern := StopPattern{
		Stops:    stops,
		Pickups:  make([]PickDrop, len(stops)),
		Dropoffs: make([]PickDrop, len(stops)),
	}
	for i := range stops {
		pattern.Pickups[i] = PickDropScheduled
		pattern.Dropoffs[i] = PickDropScheduled
	}

	return pattern
}

func (p StopPattern) Size() int {
	return len(p.Stops)
}

func (p StopPattern) Stop(index int) *Stop {
	return p.Stops[index]
}

func (p StopPattern) StopIDs() []string {
	ids := make([]string, len(p.Stops))
	for i, stop := range p.Stops {
		ids[i] = stop.PrimaryIdentifier
	}

	return ids
}

// Key is the identity of the pattern, equal for equal patterns
func (p StopPattern) Key() string {
	var builder strings.Builder
	for i, stop := range p.Stops {
		if i > 0 {
			builder.WriteString("|")
		}
		builder.WriteString(fmt.Sprintf("%s/%s/%s", stop.PrimaryIdentifier, p.Pickups[i], p.Dropoffs[i]))
	}

	return builder.String()
}

func (p StopPattern) Equals(other StopPattern) bool {
	return p.Key() == other.Key()
}

func (p StopPattern) Hash() string {
	hash := sha256.Sum256([]byte(p.Key()))

	return fmt.Sprintf("%x", hash[:6])
}

type TripPattern struct {
	PrimaryIdentifier string `groups:"basic"`

	Route       *Route      `groups:"basic"`
	StopPattern StopPattern `groups:"basic"`

	// The scheduled pattern a realtime pattern was derived from, if any
	OriginalPattern *TripPattern `groups:"internal" json:"-"`

	CreatedByRealtime bool `groups:"detailed"`
}

func (p *TripPattern) NumStops() int {
	return p.StopPattern.Size()
}

func (p *TripPattern) Stop(index int) *Stop {
	return p.StopPattern.Stop(index)
}

func (p *TripPattern) IsModifiedFromScheduled() bool {
	return p.CreatedByRealtime && p.OriginalPattern != nil
}
