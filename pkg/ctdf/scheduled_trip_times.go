package ctdf

// ScheduledTripTimes is the timetabled baseline of one trip. Times are
// seconds since the start of the service day.
type ScheduledTripTimes struct {
	Trip *Trip `groups:"basic"`

	Arrivals      []int    `groups:"basic"`
	Departures    []int    `groups:"basic"`
	StopSequences []int    `groups:"detailed"`
	Headsigns     []string `groups:"detailed" json:",omitempty"`
}

// NewScheduledTripTimes validates the times before returning them. A nil
// sequence slice is filled with the GTFS default of 0..n-1.
func NewScheduledTripTimes(trip *Trip, arrivals []int, departures []int, stopSequences []int, headsigns []string) (*ScheduledTripTimes, error) {
	if stopSequences == nil {
		stopSequences = make([]int, len(arrivals))
		for i := range stopSequences {
			stopSequences[i] = i
		}
	}

	if err := validateIncreasingTimes(trip.PrimaryIdentifier, arrivals, departures); err != nil {
		return nil, err
	}

	return &ScheduledTripTimes{
		Trip:          trip,
		Arrivals:      arrivals,
		Departures:    departures,
		StopSequences: stopSequences,
		Headsigns:     headsigns,
	}, nil
}

func (s *ScheduledTripTimes) TripID() string {
	return s.Trip.PrimaryIdentifier
}

func (s *ScheduledTripTimes) NumStops() int {
	return len(s.Arrivals)
}

func (s *ScheduledTripTimes) ArrivalTime(stop int) int {
	return s.Arrivals[stop]
}

func (s *ScheduledTripTimes) DepartureTime(stop int) int {
	return s.Departures[stop]
}

func (s *ScheduledTripTimes) StopSequence(stop int) int {
	return s.StopSequences[stop]
}

// StopIndexOfSequence finds the position carrying a GTFS stop_sequence value
func (s *ScheduledTripTimes) StopIndexOfSequence(sequence int) (int, bool) {
	for i, value := range s.StopSequences {
		if value == sequence {
			return i, true
		}
	}

	return -1, false
}

func (s *ScheduledTripTimes) Headsign(stop int) string {
	if stop < len(s.Headsigns) && s.Headsigns[stop] != "" {
		return s.Headsigns[stop]
	}

	return s.Trip.Headsign
}
