package handler

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// addNewTrip creates a trip missing from the static schedule. Unknown stops
// are left out of its pattern. A later update of the same trip reuses the
// trip and route created the first time.
func (h *Handler) addNewTrip(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedNewTrip) (*ctdf.RealTimeTripUpdate, error) {
	trip := resolved.AddedTrip
	routeCreated := false

	if trip == nil {
		route, created, err := h.RouteCreator.CreateOrFetchRoute(update)
		if err != nil {
			return nil, err
		}
		routeCreated = created

		if trip, err = h.createTrip(update, route); err != nil {
			return nil, err
		}
	}

	planned := make([]plannedStop, 0, len(update.StopTimeUpdates))
	for i, stop := range resolved.Stops {
		if stop == nil {
			continue
		}
		planned = append(planned, plannedStop{update: &update.StopTimeUpdates[i], stop: stop, originalIndex: -1})
	}

	scheduled, err := synthesizeSchedule(trip, planned, nil, 0)
	if err != nil {
		return nil, err
	}

	builder := ctdf.NewRealTimeTripTimesBuilder(scheduled).WithState(ctdf.RealTimeStateAdded)
	applyTripProperties(builder, update)
	for i, p := range planned {
		applyStopTimeUpdate(builder, i, p.update, 0)
	}
	interpolate(builder, update.Options)

	tripTimes, err := buildTripTimes(builder)
	if err != nil {
		return nil, err
	}

	pattern := h.PatternCache.GetOrCreate(plannedStopPattern(planned, nil), trip, nil)

	result := h.newRealTimeTripUpdate(update, pattern, tripTimes, resolved.ServiceDate)
	result.TripCreation = !resolved.IsUpdateToAddedTrip
	result.RouteCreation = routeCreated
	result.AddedTripOnServiceDate = &ctdf.TripOnServiceDate{
		PrimaryIdentifier: fmt.Sprintf("%s:%s", trip.PrimaryIdentifier, resolved.ServiceDate.Compact()),
		Trip:              trip,
		ServiceDate:       resolved.ServiceDate,
	}
	if update.TripCreation != nil {
		result.AddedTripOnServiceDate.ReplacementFor = update.TripCreation.ReplacedTrips
	}

	return result, nil
}

func (h *Handler) createTrip(update *tripupdate.ParsedTripUpdate, route *ctdf.Route) (*ctdf.Trip, error) {
	trip := &ctdf.Trip{
		PrimaryIdentifier: update.TripID(),
		Route:             route,
		Operator:          route.Operator,
		Mode:              route.Mode,
		SubMode:           route.SubMode,
		CreationDateTime:  h.Now(),
		DataSource:        update.DataSource,
	}

	if update.TripCreation != nil {
		if err := copier.CopyWithOption(trip, update.TripCreation, copier.Option{IgnoreEmpty: true}); err != nil {
			return nil, fmt.Errorf("copying trip creation info: %w", err)
		}
		trip.ServiceRef = update.TripCreation.ServiceID
	}

	if update.TripHeadsign != "" {
		trip.Headsign = update.TripHeadsign
	}
	if update.TripShortName != "" {
		trip.ShortName = update.TripShortName
	}
	if update.WheelchairAccessibility != nil {
		trip.WheelchairAccessibility = *update.WheelchairAccessibility
	}

	return trip, nil
}
