package ctdf

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// RealTimeTripTimes are the times a trip is expected to run with on one
// service date. Values are only created through RealTimeTripTimesBuilder.Build
// and are never modified afterwards.
type RealTimeTripTimes struct {
	Scheduled *ScheduledTripTimes `groups:"internal" copier:"-" json:"-"`

	Arrivals   []int `groups:"basic"`
	Departures []int `groups:"basic"`

	State      RealTimeState       `groups:"basic"`
	StopStates []StopRealTimeState `groups:"basic"`

	ExtraCalls []bool            `groups:"detailed"`
	Occupancy  []OccupancyStatus `groups:"detailed"`
	Headsigns  []string          `groups:"detailed"`

	WheelchairAccessibility Accessibility `groups:"detailed" json:",omitempty"`
}

// NewScheduledRealTimeTripTimes wraps a scheduled baseline without any
// realtime information
func NewScheduledRealTimeTripTimes(scheduled *ScheduledTripTimes) *RealTimeTripTimes {
	times, _ := NewRealTimeTripTimesBuilder(scheduled).Build()

	return times
}

func (t *RealTimeTripTimes) Trip() *Trip {
	return t.Scheduled.Trip
}

func (t *RealTimeTripTimes) TripID() string {
	return t.Scheduled.TripID()
}

func (t *RealTimeTripTimes) NumStops() int {
	return len(t.Arrivals)
}

func (t *RealTimeTripTimes) ArrivalTime(stop int) int {
	return t.Arrivals[stop]
}

func (t *RealTimeTripTimes) DepartureTime(stop int) int {
	return t.Departures[stop]
}

func (t *RealTimeTripTimes) ScheduledArrivalTime(stop int) int {
	return t.Scheduled.ArrivalTime(stop)
}

func (t *RealTimeTripTimes) ScheduledDepartureTime(stop int) int {
	return t.Scheduled.DepartureTime(stop)
}

func (t *RealTimeTripTimes) ArrivalDelay(stop int) int {
	return t.Arrivals[stop] - t.Scheduled.ArrivalTime(stop)
}

func (t *RealTimeTripTimes) DepartureDelay(stop int) int {
	return t.Departures[stop] - t.Scheduled.DepartureTime(stop)
}

func (t *RealTimeTripTimes) StopState(stop int) StopRealTimeState {
	return t.StopStates[stop]
}

func (t *RealTimeTripTimes) IsCancelledStop(stop int) bool {
	return t.StopStates[stop] == StopRealTimeStateCancelled
}

func (t *RealTimeTripTimes) IsNoDataStop(stop int) bool {
	return t.StopStates[stop] == StopRealTimeStateNoData
}

func (t *RealTimeTripTimes) IsRecordedStop(stop int) bool {
	return t.StopStates[stop] == StopRealTimeStateRecorded
}

func (t *RealTimeTripTimes) IsPredictionInaccurate(stop int) bool {
	return t.StopStates[stop] == StopRealTimeStateInaccuratePrediction
}

func (t *RealTimeTripTimes) IsExtraCall(stop int) bool {
	return t.ExtraCalls[stop]
}

// IsRealTimeUpdated reports whether realtime data is shown for a stop
func (t *RealTimeTripTimes) IsRealTimeUpdated(stop int) bool {
	return t.State != RealTimeStateScheduled && !t.IsNoDataStop(stop)
}

func (t *RealTimeTripTimes) Headsign(stop int) string {
	if t.Headsigns[stop] != "" {
		return t.Headsigns[stop]
	}

	return t.Scheduled.Headsign(stop)
}

func (t *RealTimeTripTimes) IsCanceledOrDeleted() bool {
	return t.State == RealTimeStateCanceled || t.State == RealTimeStateDeleted
}

func (t *RealTimeTripTimes) IsDeleted() bool {
	return t.State == RealTimeStateDeleted
}

// Copy returns a deep copy sharing only the scheduled baseline
func (t *RealTimeTripTimes) Copy() (*RealTimeTripTimes, error) {
	duplicate := &RealTimeTripTimes{}
	if err := copier.CopyWithOption(duplicate, t, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy realtime times of %s: %w", t.TripID(), err)
	}
	duplicate.Scheduled = t.Scheduled

	return duplicate, nil
}

// CreateBuilder starts a builder from these times. Explicit realtime flags
// start cleared and stop states start at DEFAULT.
func (t *RealTimeTripTimes) CreateBuilder() (*RealTimeTripTimesBuilder, error) {
	duplicate, err := t.Copy()
	if err != nil {
		return nil, err
	}
	numStops := duplicate.NumStops()

	builder := &RealTimeTripTimesBuilder{
		scheduled:    duplicate.Scheduled,
		arrivals:     duplicate.Arrivals,
		departures:   duplicate.Departures,
		arrivalSet:   make([]bool, numStops),
		departureSet: make([]bool, numStops),
		stopStates:   make([]StopRealTimeState, numStops),
		extraCalls:   duplicate.ExtraCalls,
		occupancy:    duplicate.Occupancy,
		headsigns:    duplicate.Headsigns,
		state:        duplicate.State,
		wheelchair:   duplicate.WheelchairAccessibility,
	}
	for i := range builder.stopStates {
		builder.stopStates[i] = StopRealTimeStateDefault
	}

	return builder, nil
}
