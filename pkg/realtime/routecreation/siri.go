package routecreation

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// SIRIRouteCreator builds routes for SIRI extra journeys. The agency comes
// from another route of the same operator or from the replaced route.
type SIRIRouteCreator struct {
	model  *ctdf.TransitModel
	lookup RouteLookup
}

func NewSIRIRouteCreator(model *ctdf.TransitModel, lookup RouteLookup) *SIRIRouteCreator {
	return &SIRIRouteCreator{model: model, lookup: lookup}
}

func (c *SIRIRouteCreator) CreateOrFetchRoute(update *tripupdate.ParsedTripUpdate) (*ctdf.Route, bool, error) {
	info := creationInfo(update)
	id := routeID(update, info)

	if route := existingRoute(c.model, c.lookup, id); route != nil {
		return route, false, nil
	}

	operator := c.model.Operator(info.OperatorRef)
	replacedRoute := c.model.Route(info.Route.ReplacedRouteID)

	agency := c.agencyForOperator(operator)
	if agency == nil && replacedRoute != nil {
		agency = replacedRoute.Agency
	}
	if agency == nil {
		return nil, false, tripupdate.NewUpdateError(update.TripID(), tripupdate.ErrorCannotResolveAgency)
	}

	if id == "" {
		id = update.TripID()
	}

	route := &ctdf.Route{
		PrimaryIdentifier: id,
		Mode:              info.Mode,
		SubMode:           resolveSubMode(info.SubMode, replacedRoute),
		Agency:            agency,
		Operator:          operator,
		DataSource:        update.DataSource,
	}
	if err := copyRouteInfo(route, info.Route); err != nil {
		return nil, false, err
	}

	if route.Mode == "" {
		route.Mode = ctdf.TransitModeBus
		if replacedRoute != nil {
			route.Mode = replacedRoute.Mode
		}
	}

	return route, true, nil
}

// agencyForOperator returns the agency of the first route, ordered by id,
// run by the operator
func (c *SIRIRouteCreator) agencyForOperator(operator *ctdf.Operator) *ctdf.Agency {
	if operator == nil {
		return nil
	}

	for _, route := range c.model.Routes() {
		if route.OperatorRef() == operator.PrimaryIdentifier && route.Agency != nil {
			return route.Agency
		}
	}

	return nil
}

func resolveSubMode(subMode string, replacedRoute *ctdf.Route) string {
	if subMode != "" {
		return subMode
	}
	if replacedRoute == nil {
		return ""
	}

	switch replacedRoute.Mode {
	case ctdf.TransitModeRail:
		return ctdf.SubModeReplacementRailService
	case ctdf.TransitModeBus:
		return ctdf.SubModeRailReplacementBus
	default:
		return ""
	}
}
