package resolver

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"github.com/travigo/timetable-realtime/pkg/schedule"
)

// RealTimeView is the read side of the realtime buffer updates resolve
// against
type RealTimeView interface {
	RealTimeTripTimes(tripID string, serviceDate ctdf.ServiceDate) *ctdf.RealTimeTripTimes
	RealTimePattern(tripID string, serviceDate ctdf.ServiceDate) *ctdf.TripPattern
	AddedTrip(tripID string) *ctdf.Trip
	AddedRoute(routeID string) *ctdf.Route
}

// Resolver turns the references of a parsed update into schedule objects
type Resolver struct {
	model *ctdf.TransitModel
	view  RealTimeView
}

func New(model *ctdf.TransitModel, view RealTimeView) *Resolver {
	return &Resolver{model: model, view: view}
}

func (r *Resolver) Model() *ctdf.TransitModel {
	return r.model
}

func (r *Resolver) View() RealTimeView {
	return r.view
}

// ResolvedExistingTrip is a trip of the static schedule together with its
// current realtime state and the position of every stop time update
type ResolvedExistingTrip struct {
	Trip        *ctdf.Trip
	ServiceDate ctdf.ServiceDate
	TimeShift   int

	ScheduledPattern *ctdf.TripPattern
	ScheduledTimes   *ctdf.ScheduledTripTimes

	CurrentPattern *ctdf.TripPattern
	CurrentTimes   *ctdf.RealTimeTripTimes

	// Per stop time update, the stop it names (nil when unknown) and its
	// position in the scheduled pattern (-1 when it has none)
	Stops       []*ctdf.Stop
	StopIndices []int
}

// ResolvedNewTrip is a trip that is not part of the static schedule
type ResolvedNewTrip struct {
	TripID      string
	ServiceDate ctdf.ServiceDate
	TimeShift   int

	ExistsInSchedule bool

	// Set when an earlier update already added this trip
	IsUpdateToAddedTrip bool
	AddedTrip           *ctdf.Trip
	AddedPattern        *ctdf.TripPattern
	AddedTimes          *ctdf.RealTimeTripTimes

	Stops []*ctdf.Stop
}

// ResolvedTripRemoval is the trip a cancellation or deletion applies to.
// For trips added by realtime updates the added pattern and times are kept
// so the static schedule is never touched.
type ResolvedTripRemoval struct {
	TripID      string
	ServiceDate ctdf.ServiceDate

	Trip             *ctdf.Trip
	ScheduledPattern *ctdf.TripPattern
	ScheduledTimes   *ctdf.ScheduledTripTimes

	IsAddedTrip  bool
	AddedPattern *ctdf.TripPattern
	AddedTimes   *ctdf.RealTimeTripTimes
}

func (r *ResolvedTripRemoval) Found() bool {
	return r.ScheduledTimes != nil || r.IsAddedTrip
}

func (r *Resolver) ResolveExistingTrip(update *tripupdate.ParsedTripUpdate) (*ResolvedExistingTrip, error) {
	trip := r.ResolveTrip(update.Trip, update.ServiceDate)
	if trip == nil {
		return nil, tripupdate.NewUpdateError(update.TripID(), tripupdate.ErrorTripNotFound)
	}

	serviceDate, err := r.ResolveServiceDate(update, trip)
	if err != nil {
		return nil, err
	}

	tripID := trip.PrimaryIdentifier
	resolved := &ResolvedExistingTrip{
		Trip:             trip,
		ServiceDate:      serviceDate,
		TimeShift:        update.TimeShift(serviceDate),
		ScheduledPattern: r.model.PatternForTrip(tripID),
		ScheduledTimes:   r.model.ScheduledTripTimes(tripID),
		CurrentPattern:   r.view.RealTimePattern(tripID, serviceDate),
		CurrentTimes:     r.view.RealTimeTripTimes(tripID, serviceDate),
		Stops:            r.resolveStops(update.StopTimeUpdates),
	}
	if resolved.ScheduledPattern == nil || resolved.ScheduledTimes == nil {
		return nil, tripupdate.NewUpdateError(tripID, tripupdate.ErrorTripNotFound)
	}

	resolved.StopIndices = matchStopIndices(update, resolved.ScheduledPattern, resolved.ScheduledTimes, resolved.Stops)

	return resolved, nil
}

func (r *Resolver) ResolveNewTrip(update *tripupdate.ParsedTripUpdate) (*ResolvedNewTrip, error) {
	tripID := update.TripID()
	if update.ServiceDate.IsZero() {
		return nil, tripupdate.NewUpdateError(tripID, tripupdate.ErrorNoStartDate)
	}

	resolved := &ResolvedNewTrip{
		TripID:           tripID,
		ServiceDate:      update.ServiceDate,
		ExistsInSchedule: r.model.Trip(tripID) != nil,
		Stops:            r.resolveStops(update.StopTimeUpdates),
	}

	if added := r.view.AddedTrip(tripID); added != nil {
		resolved.IsUpdateToAddedTrip = true
		resolved.AddedTrip = added
		resolved.AddedPattern = r.view.RealTimePattern(tripID, update.ServiceDate)
		resolved.AddedTimes = r.view.RealTimeTripTimes(tripID, update.ServiceDate)
	}

	return resolved, nil
}

func (r *Resolver) ResolveTripRemoval(update *tripupdate.ParsedTripUpdate) (*ResolvedTripRemoval, error) {
	resolved := &ResolvedTripRemoval{TripID: update.TripID(), ServiceDate: update.ServiceDate}

	if trip := r.ResolveTrip(update.Trip, update.ServiceDate); trip != nil {
		serviceDate, err := r.ResolveServiceDate(update, trip)
		if err != nil {
			return nil, err
		}

		resolved.TripID = trip.PrimaryIdentifier
		resolved.Trip = trip
		resolved.ServiceDate = serviceDate
		resolved.ScheduledPattern = r.model.PatternForTrip(trip.PrimaryIdentifier)
		resolved.ScheduledTimes = r.model.ScheduledTripTimes(trip.PrimaryIdentifier)

		return resolved, nil
	}

	if update.ServiceDate.IsZero() {
		return nil, tripupdate.NewUpdateError(resolved.TripID, tripupdate.ErrorNoStartDate)
	}

	if added := r.view.AddedTrip(resolved.TripID); added != nil {
		resolved.Trip = added
		resolved.AddedPattern = r.view.RealTimePattern(resolved.TripID, update.ServiceDate)
		resolved.AddedTimes = r.view.RealTimeTripTimes(resolved.TripID, update.ServiceDate)
		resolved.IsAddedTrip = resolved.AddedPattern != nil && resolved.AddedTimes != nil
	}

	return resolved, nil
}

// ResolveTrip finds a scheduled trip by id, or by route, direction and start
// time when fuzzy matching is allowed
func (r *Resolver) ResolveTrip(reference tripupdate.TripReference, serviceDate ctdf.ServiceDate) *ctdf.Trip {
	if trip := r.model.Trip(reference.TripID); trip != nil {
		return trip
	}

	if !reference.FuzzyMatching || reference.RouteID == "" || reference.StartTime == "" {
		return nil
	}

	startTime, err := schedule.ParseTime(reference.StartTime)
	if err != nil {
		return nil
	}

	for _, trip := range r.model.TripsForRoute(reference.RouteID) {
		if reference.Direction != nil && trip.DirectionID != nil && *trip.DirectionID != *reference.Direction {
			continue
		}
		if !serviceDate.IsZero() && !r.model.RunsOn(trip.ServiceRef, serviceDate) {
			continue
		}

		scheduled := r.model.ScheduledTripTimes(trip.PrimaryIdentifier)
		if scheduled != nil && scheduled.NumStops() > 0 && scheduled.DepartureTime(0) == startTime {
			return trip
		}
	}

	return nil
}

// ResolveServiceDate picks the operating day of a scheduled trip. When the
// feed did not state the day, a trip still running after midnight is
// matched to the previous day.
func (r *Resolver) ResolveServiceDate(update *tripupdate.ParsedTripUpdate, trip *ctdf.Trip) (ctdf.ServiceDate, error) {
	serviceDate := update.ServiceDate
	if serviceDate.IsZero() {
		return serviceDate, tripupdate.NewUpdateError(trip.PrimaryIdentifier, tripupdate.ErrorNoStartDate)
	}

	if r.model.RunsOn(trip.ServiceRef, serviceDate) {
		return serviceDate, nil
	}

	if !update.ServiceDateExplicit {
		previous := serviceDate.AddDays(-1)
		scheduled := r.model.ScheduledTripTimes(trip.PrimaryIdentifier)

		if r.model.RunsOn(trip.ServiceRef, previous) && scheduled != nil && scheduled.ArrivalTime(scheduled.NumStops()-1) >= 24*60*60 {
			return previous, nil
		}
	}

	if !r.model.InServicePeriod(serviceDate) {
		return serviceDate, tripupdate.NewUpdateError(trip.PrimaryIdentifier, tripupdate.ErrorOutsideServicePeriod)
	}

	return serviceDate, tripupdate.NewUpdateError(trip.PrimaryIdentifier, tripupdate.ErrorNoServiceOnDate)
}

// ResolveStop never fails, unknown stops come back as nil
func (r *Resolver) ResolveStop(reference tripupdate.StopReference) *ctdf.Stop {
	if reference.Strategy == tripupdate.StopResolutionAssigned && reference.AssignedStopID != "" {
		if stop := r.model.Stop(reference.AssignedStopID); stop != nil {
			return stop
		}
	}

	if reference.StopID == "" {
		return nil
	}

	return r.model.Stop(reference.StopID)
}

func (r *Resolver) resolveStops(stopTimeUpdates []tripupdate.ParsedStopTimeUpdate) []*ctdf.Stop {
	stops := make([]*ctdf.Stop, len(stopTimeUpdates))
	for i, stopTimeUpdate := range stopTimeUpdates {
		stops[i] = r.ResolveStop(stopTimeUpdate.StopReference)
	}

	return stops
}

func matchStopIndices(update *tripupdate.ParsedTripUpdate, pattern *ctdf.TripPattern, scheduled *ctdf.ScheduledTripTimes, stops []*ctdf.Stop) []int {
	indices := make([]int, len(update.StopTimeUpdates))

	if update.Options.StopUpdateStrategy == tripupdate.StopUpdateStrategyFull {
		for i := range indices {
			indices[i] = -1
			if i < pattern.NumStops() {
				indices[i] = i
			}
		}
		return indices
	}

	cursor := 0
	for i, stopTimeUpdate := range update.StopTimeUpdates {
		index := -1

		if stopTimeUpdate.StopSequence != nil {
			if found, ok := scheduled.StopIndexOfSequence(*stopTimeUpdate.StopSequence); ok {
				index = found
			}
		} else {
			for position := cursor; position < pattern.NumStops(); position++ {
				patternStop := pattern.Stop(position)
				if patternStop.PrimaryIdentifier == stopTimeUpdate.StopReference.StopID || patternStop.IsPartOfSameStationAs(stops[i]) {
					index = position
					break
				}
			}
		}

		if index >= 0 {
			cursor = index + 1
		}
		indices[i] = index
	}

	return indices
}
