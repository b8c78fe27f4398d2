package ctdf

// RealTimeTripTimesBuilder collects realtime changes to a trip before they
// are validated into an immutable RealTimeTripTimes. It also remembers which
// stops received explicit realtime data so that delay interpolation knows
// which times are observations and which are fill-in.
type RealTimeTripTimesBuilder struct {
	scheduled *ScheduledTripTimes

	arrivals     []int
	departures   []int
	arrivalSet   []bool
	departureSet []bool

	stopStates []StopRealTimeState
	extraCalls []bool
	occupancy  []OccupancyStatus
	headsigns  []string

	state      RealTimeState
	wheelchair Accessibility
}

func NewRealTimeTripTimesBuilder(scheduled *ScheduledTripTimes) *RealTimeTripTimesBuilder {
	numStops := scheduled.NumStops()

	builder := &RealTimeTripTimesBuilder{
		scheduled:    scheduled,
		arrivals:     make([]int, numStops),
		departures:   make([]int, numStops),
		arrivalSet:   make([]bool, numStops),
		departureSet: make([]bool, numStops),
		stopStates:   make([]StopRealTimeState, numStops),
		extraCalls:   make([]bool, numStops),
		occupancy:    make([]OccupancyStatus, numStops),
		headsigns:    make([]string, numStops),
		state:        RealTimeStateScheduled,
		wheelchair:   scheduled.Trip.WheelchairAccessibility,
	}

	copy(builder.arrivals, scheduled.Arrivals)
	copy(builder.departures, scheduled.Departures)
	for i := 0; i < numStops; i++ {
		builder.stopStates[i] = StopRealTimeStateDefault
		builder.occupancy[i] = OccupancyStatusNoDataAvailable
	}

	return builder
}

func (b *RealTimeTripTimesBuilder) Scheduled() *ScheduledTripTimes {
	return b.scheduled
}

func (b *RealTimeTripTimesBuilder) TripID() string {
	return b.scheduled.TripID()
}

func (b *RealTimeTripTimesBuilder) NumStops() int {
	return len(b.arrivals)
}

func (b *RealTimeTripTimesBuilder) ScheduledArrivalTime(stop int) int {
	return b.scheduled.ArrivalTime(stop)
}

func (b *RealTimeTripTimesBuilder) ScheduledDepartureTime(stop int) int {
	return b.scheduled.DepartureTime(stop)
}

func (b *RealTimeTripTimesBuilder) ArrivalTime(stop int) int {
	return b.arrivals[stop]
}

func (b *RealTimeTripTimesBuilder) DepartureTime(stop int) int {
	return b.departures[stop]
}

func (b *RealTimeTripTimesBuilder) ArrivalDelay(stop int) int {
	return b.arrivals[stop] - b.scheduled.ArrivalTime(stop)
}

func (b *RealTimeTripTimesBuilder) DepartureDelay(stop int) int {
	return b.departures[stop] - b.scheduled.DepartureTime(stop)
}

// HasArrival reports whether the arrival at stop was set from realtime data
func (b *RealTimeTripTimesBuilder) HasArrival(stop int) bool {
	return b.arrivalSet[stop]
}

func (b *RealTimeTripTimesBuilder) HasDeparture(stop int) bool {
	return b.departureSet[stop]
}

func (b *RealTimeTripTimesBuilder) HasRealTimeData(stop int) bool {
	return b.arrivalSet[stop] || b.departureSet[stop]
}

// FirstStopWithRealTimeData returns -1 when no stop carries realtime data
func (b *RealTimeTripTimesBuilder) FirstStopWithRealTimeData() int {
	for i := 0; i < b.NumStops(); i++ {
		if b.HasRealTimeData(i) {
			return i
		}
	}

	return -1
}

func (b *RealTimeTripTimesBuilder) WithArrivalTime(stop int, time int) *RealTimeTripTimesBuilder {
	b.arrivals[stop] = time
	b.arrivalSet[stop] = true
	return b
}

func (b *RealTimeTripTimesBuilder) WithDepartureTime(stop int, time int) *RealTimeTripTimesBuilder {
	b.departures[stop] = time
	b.departureSet[stop] = true
	return b
}

func (b *RealTimeTripTimesBuilder) WithArrivalDelay(stop int, delay int) *RealTimeTripTimesBuilder {
	return b.WithArrivalTime(stop, b.scheduled.ArrivalTime(stop)+delay)
}

func (b *RealTimeTripTimesBuilder) WithDepartureDelay(stop int, delay int) *RealTimeTripTimesBuilder {
	return b.WithDepartureTime(stop, b.scheduled.DepartureTime(stop)+delay)
}

// WithInterpolatedArrivalDelay sets a time without marking it as observed
func (b *RealTimeTripTimesBuilder) WithInterpolatedArrivalDelay(stop int, delay int) *RealTimeTripTimesBuilder {
	b.arrivals[stop] = b.scheduled.ArrivalTime(stop) + delay
	return b
}

func (b *RealTimeTripTimesBuilder) WithInterpolatedDepartureDelay(stop int, delay int) *RealTimeTripTimesBuilder {
	b.departures[stop] = b.scheduled.DepartureTime(stop) + delay
	return b
}

func (b *RealTimeTripTimesBuilder) StopState(stop int) StopRealTimeState {
	return b.stopStates[stop]
}

func (b *RealTimeTripTimesBuilder) WithStopState(stop int, state StopRealTimeState) *RealTimeTripTimesBuilder {
	b.stopStates[stop] = state
	return b
}

func (b *RealTimeTripTimesBuilder) WithNoData(stop int) *RealTimeTripTimesBuilder {
	return b.WithStopState(stop, StopRealTimeStateNoData)
}

func (b *RealTimeTripTimesBuilder) WithCancelledStop(stop int) *RealTimeTripTimesBuilder {
	return b.WithStopState(stop, StopRealTimeStateCancelled)
}

func (b *RealTimeTripTimesBuilder) WithExtraCall(stop int, extra bool) *RealTimeTripTimesBuilder {
	b.extraCalls[stop] = extra
	return b
}

func (b *RealTimeTripTimesBuilder) WithOccupancy(stop int, occupancy OccupancyStatus) *RealTimeTripTimesBuilder {
	b.occupancy[stop] = occupancy
	return b
}

func (b *RealTimeTripTimesBuilder) WithHeadsign(stop int, headsign string) *RealTimeTripTimesBuilder {
	b.headsigns[stop] = headsign
	return b
}

func (b *RealTimeTripTimesBuilder) State() RealTimeState {
	return b.state
}

func (b *RealTimeTripTimesBuilder) WithState(state RealTimeState) *RealTimeTripTimesBuilder {
	b.state = state
	return b
}

func (b *RealTimeTripTimesBuilder) CancelTrip() *RealTimeTripTimesBuilder {
	return b.WithState(RealTimeStateCanceled)
}

func (b *RealTimeTripTimesBuilder) DeleteTrip() *RealTimeTripTimesBuilder {
	return b.WithState(RealTimeStateDeleted)
}

func (b *RealTimeTripTimesBuilder) WithWheelchairAccessibility(accessibility Accessibility) *RealTimeTripTimesBuilder {
	b.wheelchair = accessibility
	return b
}

// Build validates that times never decrease along the trip
func (b *RealTimeTripTimesBuilder) Build() (*RealTimeTripTimes, error) {
	if err := validateIncreasingTimes(b.TripID(), b.arrivals, b.departures); err != nil {
		return nil, err
	}

	times := &RealTimeTripTimes{
		Scheduled:               b.scheduled,
		Arrivals:                append([]int(nil), b.arrivals...),
		Departures:              append([]int(nil), b.departures...),
		State:                   b.state,
		StopStates:              append([]StopRealTimeState(nil), b.stopStates...),
		ExtraCalls:              append([]bool(nil), b.extraCalls...),
		Occupancy:               append([]OccupancyStatus(nil), b.occupancy...),
		Headsigns:               append([]string(nil), b.headsigns...),
		WheelchairAccessibility: b.wheelchair,
	}

	return times, nil
}
