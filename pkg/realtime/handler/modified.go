package handler

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// modifyTrip replaces the stops of a scheduled trip for one day. positions
// maps every stop time update to its stop in the scheduled pattern, or -1
// for stops the schedule does not have.
func (h *Handler) modifyTrip(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedExistingTrip, positions []int) (*ctdf.RealTimeTripUpdate, error) {
	planned := make([]plannedStop, len(update.StopTimeUpdates))
	for i := range update.StopTimeUpdates {
		planned[i] = plannedStop{
			update:        &update.StopTimeUpdates[i],
			stop:          resolved.Stops[i],
			originalIndex: positions[i],
		}
	}

	scheduled, err := synthesizeSchedule(resolved.Trip, planned, resolved.ScheduledTimes, resolved.TimeShift)
	if err != nil {
		return nil, err
	}

	builder := ctdf.NewRealTimeTripTimesBuilder(scheduled).WithState(ctdf.RealTimeStateModified)
	applyTripProperties(builder, update)
	for i, p := range planned {
		applyStopTimeUpdate(builder, i, p.update, resolved.TimeShift)
		builder.WithExtraCall(i, p.update.IsExtraCall)
	}
	interpolate(builder, update.Options)

	tripTimes, err := buildTripTimes(builder)
	if err != nil {
		return nil, err
	}

	stopPattern := plannedStopPattern(planned, resolved.ScheduledPattern)
	pattern := h.PatternCache.GetOrCreate(stopPattern, resolved.Trip, resolved.ScheduledPattern)

	result := h.newRealTimeTripUpdate(update, pattern, tripTimes, resolved.ServiceDate)
	if pattern != resolved.ScheduledPattern {
		result.ScheduledPatternToDelete = resolved.ScheduledPattern
	}

	return result, nil
}

// matchOriginalPositions finds the replacement stops in the scheduled
// pattern, keeping their order
func matchOriginalPositions(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedExistingTrip) []int {
	positions := make([]int, len(update.StopTimeUpdates))

	cursor := 0
	for i, stop := range resolved.Stops {
		positions[i] = -1

		for position := cursor; position < resolved.ScheduledPattern.NumStops(); position++ {
			if resolved.ScheduledPattern.Stop(position).IsPartOfSameStationAs(stop) {
				positions[i] = position
				cursor = position + 1
				break
			}
		}
	}

	return positions
}

// extraCallPositions maps every call that is not extra onto the scheduled
// stop at the same place in the order
func extraCallPositions(update *tripupdate.ParsedTripUpdate) []int {
	positions := make([]int, len(update.StopTimeUpdates))

	position := 0
	for i, stopTimeUpdate := range update.StopTimeUpdates {
		if stopTimeUpdate.IsExtraCall {
			positions[i] = -1
			continue
		}

		positions[i] = position
		position++
	}

	return positions
}
