package handler

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/interpolation"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// applyStopTimeUpdate writes the realtime data of one stop. A time given for
// only one side of the stop applies the same delay to the other side.
func applyStopTimeUpdate(builder *ctdf.RealTimeTripTimesBuilder, stop int, stopTimeUpdate *tripupdate.ParsedStopTimeUpdate, timeShift int) {
	switch {
	case stopTimeUpdate.Status == tripupdate.StopUpdateStatusNoData:
		builder.WithNoData(stop)
	case stopTimeUpdate.Arrival != nil && stopTimeUpdate.Departure != nil:
		builder.WithArrivalTime(stop, stopTimeUpdate.Arrival.Resolve(builder.ScheduledArrivalTime(stop), timeShift))
		builder.WithDepartureTime(stop, stopTimeUpdate.Departure.Resolve(builder.ScheduledDepartureTime(stop), timeShift))
	case stopTimeUpdate.Arrival != nil:
		arrival := stopTimeUpdate.Arrival.Resolve(builder.ScheduledArrivalTime(stop), timeShift)
		builder.WithArrivalTime(stop, arrival)
		builder.WithDepartureDelay(stop, arrival-builder.ScheduledArrivalTime(stop))
	case stopTimeUpdate.Departure != nil:
		departure := stopTimeUpdate.Departure.Resolve(builder.ScheduledDepartureTime(stop), timeShift)
		builder.WithDepartureTime(stop, departure)
		builder.WithArrivalDelay(stop, departure-builder.ScheduledDepartureTime(stop))
	}

	switch {
	case stopTimeUpdate.IsSkipped():
		builder.WithCancelledStop(stop)
	case stopTimeUpdate.Recorded:
		builder.WithStopState(stop, ctdf.StopRealTimeStateRecorded)
	case stopTimeUpdate.PredictionInaccurate:
		builder.WithStopState(stop, ctdf.StopRealTimeStateInaccuratePrediction)
	}

	if stopTimeUpdate.Occupancy != nil {
		builder.WithOccupancy(stop, *stopTimeUpdate.Occupancy)
	}
	if stopTimeUpdate.Headsign != "" {
		builder.WithHeadsign(stop, stopTimeUpdate.Headsign)
	}
}

func applyTripProperties(builder *ctdf.RealTimeTripTimesBuilder, update *tripupdate.ParsedTripUpdate) {
	if update.WheelchairAccessibility != nil {
		builder.WithWheelchairAccessibility(*update.WheelchairAccessibility)
	}
}

func interpolate(builder *ctdf.RealTimeTripTimesBuilder, options tripupdate.UpdateOptions) {
	interpolation.PropagateForwards(builder, options.ForwardsPropagation)
	interpolation.PropagateBackwards(builder, options.BackwardsPropagation)
}

func buildTripTimes(builder *ctdf.RealTimeTripTimesBuilder) (*ctdf.RealTimeTripTimes, error) {
	tripTimes, err := builder.Build()
	if err != nil {
		return nil, tripupdate.FromDataValidation(err)
	}

	return tripTimes, nil
}

// plannedStop is a stop of a synthesized pattern with the position it had in
// the scheduled pattern, -1 for stops that were not scheduled
type plannedStop struct {
	update        *tripupdate.ParsedStopTimeUpdate
	stop          *ctdf.Stop
	originalIndex int
}

func plannedStopPattern(planned []plannedStop, original *ctdf.TripPattern) ctdf.StopPattern {
	stops := make([]*ctdf.Stop, len(planned))
	for i, p := range planned {
		stops[i] = p.stop
	}

	stopPattern := ctdf.NewStopPattern(stops)
	for i, p := range planned {
		pickup, dropoff := ctdf.PickDropScheduled, ctdf.PickDropScheduled
		if original != nil && p.originalIndex >= 0 {
			pickup = original.StopPattern.Pickups[p.originalIndex]
			dropoff = original.StopPattern.Dropoffs[p.originalIndex]
		}

		stopPattern.Pickups[i] = p.update.PickupOr(pickup)
		stopPattern.Dropoffs[i] = p.update.DropoffOr(dropoff)
	}

	return stopPattern
}

// synthesizeSchedule builds the scheduled baseline of a pattern that does not
// exist in the static schedule. Each side of a stop takes the scheduled
// anchor of its update, the original scheduled time of the stop, or the
// realtime time itself. Stops without any time inherit the departure of the
// stop before. The baseline never decreases.
func synthesizeSchedule(trip *ctdf.Trip, planned []plannedStop, original *ctdf.ScheduledTripTimes, timeShift int) (*ctdf.ScheduledTripTimes, error) {
	arrivals := make([]int, len(planned))
	departures := make([]int, len(planned))
	headsigns := make([]string, len(planned))

	previousDeparture := 0
	for i, p := range planned {
		arrival, hasArrival := scheduledSide(p.update.Arrival, p.originalIndex, original, (*ctdf.ScheduledTripTimes).ArrivalTime, timeShift)
		departure, hasDeparture := scheduledSide(p.update.Departure, p.originalIndex, original, (*ctdf.ScheduledTripTimes).DepartureTime, timeShift)

		switch {
		case hasArrival && !hasDeparture:
			departure = arrival
		case hasDeparture && !hasArrival:
			arrival = departure
		case !hasArrival && !hasDeparture:
			if i == 0 {
				return nil, tripupdate.NewStopUpdateError(trip.PrimaryIdentifier, tripupdate.ErrorInvalidArrivalTime, i)
			}
			arrival, departure = previousDeparture, previousDeparture
		}

		if i > 0 {
			arrival = max(arrival, previousDeparture)
		}
		departure = max(departure, arrival)

		arrivals[i] = arrival
		departures[i] = departure
		headsigns[i] = p.update.Headsign
		previousDeparture = departure
	}

	return ctdf.NewScheduledTripTimes(trip, arrivals, departures, nil, headsigns)
}

func scheduledSide(timeUpdate *tripupdate.TimeUpdate, originalIndex int, original *ctdf.ScheduledTripTimes, originalTime func(*ctdf.ScheduledTripTimes, int) int, timeShift int) (int, bool) {
	if timeUpdate != nil {
		if scheduled, ok := timeUpdate.Scheduled(); ok {
			return scheduled + timeShift, true
		}
	}

	if original != nil && originalIndex >= 0 {
		return originalTime(original, originalIndex), true
	}

	if timeUpdate != nil && timeUpdate.IsAbsolute() {
		return timeUpdate.Time() + timeShift, true
	}

	return 0, false
}
