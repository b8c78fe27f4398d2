package ctdf

import (
	"golang.org/x/exp/slices"
)

// Timetable holds the realtime trip times of one pattern on one service
// date. A Timetable is never mutated once published, changes produce a new
// Timetable.
type Timetable struct {
	Pattern     *TripPattern `groups:"basic"`
	ServiceDate ServiceDate  `groups:"basic"`

	TripTimes []*RealTimeTripTimes `groups:"basic"`
}

func NewTimetable(pattern *TripPattern, serviceDate ServiceDate) *Timetable {
	return &Timetable{Pattern: pattern, ServiceDate: serviceDate}
}

func (t *Timetable) IsEmpty() bool {
	return len(t.TripTimes) == 0
}

func (t *Timetable) TripTimesForTrip(tripID string) *RealTimeTripTimes {
	for _, tripTimes := range t.TripTimes {
		if tripTimes.TripID() == tripID {
			return tripTimes
		}
	}

	return nil
}

// WithTripTimes returns a copy with the times of the trip replaced or added,
// ordered by first departure
func (t *Timetable) WithTripTimes(tripTimes *RealTimeTripTimes) *Timetable {
	updated := &Timetable{
		Pattern:     t.Pattern,
		ServiceDate: t.ServiceDate,
		TripTimes:   make([]*RealTimeTripTimes, 0, len(t.TripTimes)+1),
	}

	for _, existing := range t.TripTimes {
		if existing.TripID() != tripTimes.TripID() {
			updated.TripTimes = append(updated.TripTimes, existing)
		}
	}
	updated.TripTimes = append(updated.TripTimes, tripTimes)

	slices.SortStableFunc(updated.TripTimes, func(a, b *RealTimeTripTimes) int {
		if a.NumStops() == 0 || b.NumStops() == 0 {
			return 0
		}
		return a.DepartureTime(0) - b.DepartureTime(0)
	})

	return updated
}

// WithoutTrip returns a copy without the trip, or the same Timetable if the
// trip was not present
func (t *Timetable) WithoutTrip(tripID string) *Timetable {
	if t.TripTimesForTrip(tripID) == nil {
		return t
	}

	updated := &Timetable{
		Pattern:     t.Pattern,
		ServiceDate: t.ServiceDate,
		TripTimes:   make([]*RealTimeTripTimes, 0, len(t.TripTimes)),
	}
	for _, existing := range t.TripTimes {
		if existing.TripID() != tripID {
			updated.TripTimes = append(updated.TripTimes, existing)
		}
	}

	return updated
}
