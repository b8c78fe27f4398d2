package handler

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// removeTrip cancels or deletes a trip on its current pattern. Trips added by
// realtime updates keep their added times, everything else starts from the
// schedule.
func (h *Handler) removeTrip(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedTripRemoval) (*ctdf.RealTimeTripUpdate, error) {
	var builder *ctdf.RealTimeTripTimesBuilder
	var pattern *ctdf.TripPattern

	if resolved.IsAddedTrip {
		var err error
		if builder, err = resolved.AddedTimes.CreateBuilder(); err != nil {
			return nil, err
		}
		pattern = resolved.AddedPattern
	} else {
		builder = ctdf.NewRealTimeTripTimesBuilder(resolved.ScheduledTimes)
		pattern = resolved.ScheduledPattern
	}

	if update.Type == tripupdate.UpdateTypeDeleteTrip {
		builder.DeleteTrip()
	} else {
		builder.CancelTrip()
	}

	tripTimes, err := buildTripTimes(builder)
	if err != nil {
		return nil, err
	}

	return h.newRealTimeTripUpdate(update, pattern, tripTimes, resolved.ServiceDate), nil
}
