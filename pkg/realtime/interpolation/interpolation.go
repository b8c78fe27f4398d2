package interpolation

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// PropagateBackwards repairs the stops before the first stop with realtime
// data so that times keep increasing. It returns the index propagation
// started from, and false when nothing was propagated.
//
// Each earlier stop keeps its scheduled time when that is already early
// enough, otherwise it gets the smallest negative delay that fits before the
// following stop. Every repaired stop is marked NO_DATA as its delay is not
// an observation.
func PropagateBackwards(builder *ctdf.RealTimeTripTimesBuilder, policy tripupdate.BackwardsPropagation) (int, bool) {
	if policy == tripupdate.BackwardsPropagationNone || policy == "" {
		return 0, false
	}

	firstUpdated := builder.FirstStopWithRealTimeData()
	if firstUpdated < 0 {
		return 0, false
	}
	if firstUpdated == 0 && policy == tripupdate.BackwardsPropagationRequired {
		return 0, false
	}

	nextArrival := builder.ArrivalTime(firstUpdated)
	for stop := firstUpdated - 1; stop >= 0; stop-- {
		departureDelay := min(0, nextArrival-builder.ScheduledDepartureTime(stop))
		builder.WithInterpolatedDepartureDelay(stop, departureDelay)

		arrivalDelay := min(0, builder.DepartureTime(stop)-builder.ScheduledArrivalTime(stop))
		builder.WithInterpolatedArrivalDelay(stop, arrivalDelay)

		builder.WithNoData(stop)
		nextArrival = builder.ArrivalTime(stop)
	}

	return firstUpdated, true
}

// PropagateForwards carries the delay of the last stop with realtime data to
// the following stops without any. Stop states are left alone.
func PropagateForwards(builder *ctdf.RealTimeTripTimesBuilder, policy tripupdate.ForwardsPropagation) bool {
	if policy == tripupdate.ForwardsPropagationNone || policy == "" {
		return false
	}

	propagated := false
	haveDelay := false
	delay := 0

	for stop := 0; stop < builder.NumStops(); stop++ {
		if builder.HasRealTimeData(stop) {
			if builder.HasDeparture(stop) {
				delay = builder.DepartureDelay(stop)
			} else {
				delay = builder.ArrivalDelay(stop)
			}
			haveDelay = true
			continue
		}
		if !haveDelay {
			continue
		}

		builder.WithInterpolatedArrivalDelay(stop, delay)
		builder.WithInterpolatedDepartureDelay(stop, delay)
		propagated = true
	}

	return propagated
}
