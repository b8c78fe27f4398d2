// Package handler turns resolved trip updates into realtime trip times and
// patterns ready to be written into the buffer.
package handler

import (
	"time"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/patterncache"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/routecreation"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"github.com/travigo/timetable-realtime/pkg/realtime/validator"
)

type Handler struct {
	FeedID string

	Resolver     *resolver.Resolver
	PatternCache *patterncache.TripPatternCache
	RouteCreator routecreation.RouteCreator

	Now func() time.Time
}

func New(feedID string, tripResolver *resolver.Resolver, patternCache *patterncache.TripPatternCache, routeCreator routecreation.RouteCreator) *Handler {
	return &Handler{
		FeedID:       feedID,
		Resolver:     tripResolver,
		PatternCache: patternCache,
		RouteCreator: routeCreator,
		Now:          time.Now,
	}
}

// Handle resolves, validates and handles a single update. Errors are always
// *tripupdate.UpdateError and never affect other updates.
func (h *Handler) Handle(update *tripupdate.ParsedTripUpdate) (*ctdf.RealTimeTripUpdate, tripupdate.UpdateSuccess, error) {
	if update == nil {
		return nil, tripupdate.NoWarnings(), tripupdate.NewUpdateError("", tripupdate.ErrorInvalidInputStructure)
	}

	var result *ctdf.RealTimeTripUpdate
	success := tripupdate.NoWarnings()
	var err error

	switch update.Type {
	case tripupdate.UpdateTypeUpdateExisting:
		var resolved *resolver.ResolvedExistingTrip
		if resolved, err = h.Resolver.ResolveExistingTrip(update); err != nil {
			break
		}
		if err = validator.ValidateExistingTrip(update, resolved); err != nil {
			break
		}
		result, err = h.updateExisting(update, resolved)

	case tripupdate.UpdateTypeModifyTrip:
		var resolved *resolver.ResolvedExistingTrip
		if resolved, err = h.Resolver.ResolveExistingTrip(update); err != nil {
			break
		}
		if err = validator.ValidateModification(update, resolved); err != nil {
			break
		}
		result, err = h.modifyTrip(update, resolved, matchOriginalPositions(update, resolved))

	case tripupdate.UpdateTypeAddExtraCalls:
		var resolved *resolver.ResolvedExistingTrip
		if resolved, err = h.Resolver.ResolveExistingTrip(update); err != nil {
			break
		}
		if err = validator.ValidateExtraCalls(update, resolved); err != nil {
			break
		}
		result, err = h.modifyTrip(update, resolved, extraCallPositions(update))

	case tripupdate.UpdateTypeAddNewTrip:
		var resolved *resolver.ResolvedNewTrip
		if resolved, err = h.Resolver.ResolveNewTrip(update); err != nil {
			break
		}
		if success, err = validator.ValidateNewTrip(update, resolved); err != nil {
			break
		}
		result, err = h.addNewTrip(update, resolved)

	case tripupdate.UpdateTypeCancelTrip, tripupdate.UpdateTypeDeleteTrip:
		var resolved *resolver.ResolvedTripRemoval
		if resolved, err = h.Resolver.ResolveTripRemoval(update); err != nil {
			break
		}
		if err = validator.ValidateTripRemoval(resolved); err != nil {
			break
		}
		result, err = h.removeTrip(update, resolved)

	default:
		err = tripupdate.NewUpdateError(update.TripID(), tripupdate.ErrorInvalidInputStructure)
	}

	if err != nil {
		return nil, tripupdate.NoWarnings(), tripupdate.AsUpdateError(update.TripID(), err)
	}

	return result, success, nil
}

func (h *Handler) newRealTimeTripUpdate(update *tripupdate.ParsedTripUpdate, pattern *ctdf.TripPattern, tripTimes *ctdf.RealTimeTripTimes, serviceDate ctdf.ServiceDate) *ctdf.RealTimeTripUpdate {
	return &ctdf.RealTimeTripUpdate{
		FeedID:      h.FeedID,
		Pattern:     pattern,
		TripTimes:   tripTimes,
		ServiceDate: serviceDate,
		DataSource:  update.DataSource,
	}
}
