package handler

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// updateExisting applies delays and times to a scheduled trip. It builds on
// the previous update of the trip for the same day when there is one.
// Stops that are skipped, change platform or change pickup and dropoff move
// the trip onto a realtime pattern for the day.
func (h *Handler) updateExisting(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedExistingTrip) (*ctdf.RealTimeTripUpdate, error) {
	builder := ctdf.NewRealTimeTripTimesBuilder(resolved.ScheduledTimes)
	if current := resolved.CurrentTimes; current != nil && current.State == ctdf.RealTimeStateUpdated && current.Scheduled == resolved.ScheduledTimes {
		var err error
		if builder, err = current.CreateBuilder(); err != nil {
			return nil, err
		}
	}
	builder.WithState(ctdf.RealTimeStateUpdated)

	applyTripProperties(builder, update)
	if update.TripHeadsign != "" {
		for stop := 0; stop < builder.NumStops(); stop++ {
			builder.WithHeadsign(stop, update.TripHeadsign)
		}
	}

	scheduledPattern := resolved.ScheduledPattern
	stopPattern := copyStopPattern(scheduledPattern.StopPattern)
	patternChanged := false

	for i := range update.StopTimeUpdates {
		stopTimeUpdate := &update.StopTimeUpdates[i]
		index := resolved.StopIndices[i]

		if stop := resolved.Stops[i]; stop != nil && stop.PrimaryIdentifier != stopPattern.Stops[index].PrimaryIdentifier {
			stopPattern.Stops[index] = stop
			patternChanged = true
		}

		pickup := stopTimeUpdate.PickupOr(stopPattern.Pickups[index])
		dropoff := stopTimeUpdate.DropoffOr(stopPattern.Dropoffs[index])
		if pickup != stopPattern.Pickups[index] || dropoff != stopPattern.Dropoffs[index] {
			stopPattern.Pickups[index] = pickup
			stopPattern.Dropoffs[index] = dropoff
			patternChanged = true
		}

		applyStopTimeUpdate(builder, index, stopTimeUpdate, resolved.TimeShift)
	}

	interpolate(builder, update.Options)

	tripTimes, err := buildTripTimes(builder)
	if err != nil {
		return nil, err
	}

	pattern := scheduledPattern
	if patternChanged {
		pattern = h.PatternCache.GetOrCreate(stopPattern, resolved.Trip, scheduledPattern)
	}

	result := h.newRealTimeTripUpdate(update, pattern, tripTimes, resolved.ServiceDate)
	if pattern != scheduledPattern {
		result.ScheduledPatternToDelete = scheduledPattern
	}

	return result, nil
}

func copyStopPattern(stopPattern ctdf.StopPattern) ctdf.StopPattern {
	return ctdf.StopPattern{
		Stops:    append([]*ctdf.Stop(nil), stopPattern.Stops...),
		Pickups:  append([]ctdf.PickDrop(nil), stopPattern.Pickups...),
		Dropoffs: append([]ctdf.PickDrop(nil), stopPattern.Dropoffs...),
	}
}
