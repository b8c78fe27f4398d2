package routecreation

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

const autogeneratedAgencySuffix = ":autogenerated-gtfs-rt-added-route"

// GTFSRouteCreator builds routes for GTFS-RT added trips. A route carrying
// extension data gets a best effort agency, otherwise a minimal bus route
// named after the trip is created under an agency generated for the
// realtime feed.
type GTFSRouteCreator struct {
	model  *ctdf.TransitModel
	lookup RouteLookup

	autogeneratedAgency *ctdf.Agency
}

func NewGTFSRouteCreator(feedID string, model *ctdf.TransitModel, lookup RouteLookup) *GTFSRouteCreator {
	return &GTFSRouteCreator{
		model:  model,
		lookup: lookup,
		autogeneratedAgency: &ctdf.Agency{
			PrimaryIdentifier: feedID + autogeneratedAgencySuffix,
			PrimaryName:       "Agency automatically added by realtime update",
			Timezone:          model.TimeZone.String(),
			Synthetic:         true,
		},
	}
}

func (c *GTFSRouteCreator) CreateOrFetchRoute(update *tripupdate.ParsedTripUpdate) (*ctdf.Route, bool, error) {
	info := creationInfo(update)
	id := routeID(update, info)

	if route := existingRoute(c.model, c.lookup, id); route != nil {
		return route, false, nil
	}

	if id == "" {
		id = update.TripID()
	}

	route := &ctdf.Route{
		PrimaryIdentifier: id,
		Mode:              ctdf.TransitModeBus,
		DataSource:        update.DataSource,
	}

	if !info.Route.HasExtensionData() {
		route.LongName = update.TripID()
		route.Agency = c.autogeneratedAgency

		return route, true, nil
	}

	if err := copyRouteInfo(route, info.Route); err != nil {
		return nil, false, err
	}
	if info.Route.RouteType != nil {
		route.Mode = ctdf.TransitModeFromGTFSRouteType(*info.Route.RouteType)
	}
	route.Agency = c.resolveAgency(info.Route.AgencyID)

	return route, true, nil
}

func (c *GTFSRouteCreator) resolveAgency(agencyID string) *ctdf.Agency {
	if agency := c.model.Agency(agencyID); agency != nil {
		return agency
	}

	if agencies := c.model.Agencies(); len(agencies) > 0 {
		return agencies[0]
	}

	return c.autogeneratedAgency
}
