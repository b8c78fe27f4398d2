// Package routecreation finds or builds the route of a trip added by a
// realtime update. GTFS-RT and SIRI-ET identify operators differently so
// each format has its own strategy.
package routecreation

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// RouteLookup is where previously added routes are found
type RouteLookup interface {
	AddedRoute(routeID string) *ctdf.Route
}

type RouteCreator interface {
	// CreateOrFetchRoute returns the route and whether it was created
	CreateOrFetchRoute(update *tripupdate.ParsedTripUpdate) (*ctdf.Route, bool, error)
}

func creationInfo(update *tripupdate.ParsedTripUpdate) tripupdate.TripCreationInfo {
	if update.TripCreation == nil {
		return tripupdate.TripCreationInfo{}
	}

	return *update.TripCreation
}

func routeID(update *tripupdate.ParsedTripUpdate, info tripupdate.TripCreationInfo) string {
	if info.Route.RouteID != "" {
		return info.Route.RouteID
	}

	return update.Trip.RouteID
}

func existingRoute(model *ctdf.TransitModel, lookup RouteLookup, id string) *ctdf.Route {
	if id == "" {
		return nil
	}
	if route := lookup.AddedRoute(id); route != nil {
		return route
	}

	return model.Route(id)
}

// copyRouteInfo fills the names and url of a new route
func copyRouteInfo(route *ctdf.Route, info tripupdate.RouteCreationInfo) error {
	if err := copier.CopyWithOption(route, &info, copier.Option{IgnoreEmpty: true}); err != nil {
		return fmt.Errorf("copying route creation info: %w", err)
	}

	return nil
}
