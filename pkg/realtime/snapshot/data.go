package snapshot

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

type tripDateKey struct {
	tripID      string
	serviceDate ctdf.ServiceDate
}

type patternDateKey struct {
	patternID   string
	serviceDate ctdf.ServiceDate
}

// timetableData is the realtime state shared by the write buffer and the
// published snapshots. Every value stored in it is immutable so a clone only
// copies the maps.
type timetableData struct {
	model *ctdf.TransitModel

	timetables map[patternDateKey]*ctdf.Timetable
	entries    map[tripDateKey]*ctdf.RealTimeTripUpdate

	addedTrips         map[string]*ctdf.Trip
	addedRoutes        map[string]*ctdf.Route
	tripOnServiceDates map[string]*ctdf.TripOnServiceDate

	feedEntries map[string]map[tripDateKey]bool

	// feed that created each added trip and route
	addedTripFeeds  map[string]string
	addedRouteFeeds map[string]string
}

func newTimetableData(model *ctdf.TransitModel) *timetableData {
	return &timetableData{
		model:              model,
		timetables:         map[patternDateKey]*ctdf.Timetable{},
		entries:            map[tripDateKey]*ctdf.RealTimeTripUpdate{},
		addedTrips:         map[string]*ctdf.Trip{},
		addedRoutes:        map[string]*ctdf.Route{},
		tripOnServiceDates: map[string]*ctdf.TripOnServiceDate{},
		feedEntries:        map[string]map[tripDateKey]bool{},
		addedTripFeeds:     map[string]string{},
		addedRouteFeeds:    map[string]string{},
	}
}

func (d *timetableData) clone() *timetableData {
	duplicate := &timetableData{
		model:              d.model,
		timetables:         make(map[patternDateKey]*ctdf.Timetable, len(d.timetables)),
		entries:            make(map[tripDateKey]*ctdf.RealTimeTripUpdate, len(d.entries)),
		addedTrips:         make(map[string]*ctdf.Trip, len(d.addedTrips)),
		addedRoutes:        make(map[string]*ctdf.Route, len(d.addedRoutes)),
		tripOnServiceDates: make(map[string]*ctdf.TripOnServiceDate, len(d.tripOnServiceDates)),
		feedEntries:        make(map[string]map[tripDateKey]bool, len(d.feedEntries)),
		addedTripFeeds:     make(map[string]string, len(d.addedTripFeeds)),
		addedRouteFeeds:    make(map[string]string, len(d.addedRouteFeeds)),
	}

	for key, value := range d.timetables {
		duplicate.timetables[key] = value
	}
	for key, value := range d.entries {
		duplicate.entries[key] = value
	}
	for key, value := range d.addedTrips {
		duplicate.addedTrips[key] = value
	}
	for key, value := range d.addedRoutes {
		duplicate.addedRoutes[key] = value
	}
	for key, value := range d.tripOnServiceDates {
		duplicate.tripOnServiceDates[key] = value
	}
	for feedID, keys := range d.feedEntries {
		copied := make(map[tripDateKey]bool, len(keys))
		for key := range keys {
			copied[key] = true
		}
		duplicate.feedEntries[feedID] = copied
	}
	for key, value := range d.addedTripFeeds {
		duplicate.addedTripFeeds[key] = value
	}
	for key, value := range d.addedRouteFeeds {
		duplicate.addedRouteFeeds[key] = value
	}

	return duplicate
}

// Update returns the last realtime update written for the trip on the date
func (d *timetableData) Update(tripID string, serviceDate ctdf.ServiceDate) *ctdf.RealTimeTripUpdate {
	return d.entries[tripDateKey{tripID: tripID, serviceDate: serviceDate}]
}

// RealTimeTripTimes returns nil when the trip has no realtime data
func (d *timetableData) RealTimeTripTimes(tripID string, serviceDate ctdf.ServiceDate) *ctdf.RealTimeTripTimes {
	if update := d.Update(tripID, serviceDate); update != nil {
		return update.TripTimes
	}

	return nil
}

// TripTimes returns the realtime times of a trip, or its scheduled times
// when it runs on the date without realtime data
func (d *timetableData) TripTimes(tripID string, serviceDate ctdf.ServiceDate) *ctdf.RealTimeTripTimes {
	if times := d.RealTimeTripTimes(tripID, serviceDate); times != nil {
		return times
	}

	trip := d.model.Trip(tripID)
	if trip == nil || !d.model.RunsOn(trip.ServiceRef, serviceDate) {
		return nil
	}

	scheduled := d.model.ScheduledTripTimes(tripID)
	if scheduled == nil {
		return nil
	}

	return ctdf.NewScheduledRealTimeTripTimes(scheduled)
}

// RealTimePattern returns nil when the trip has no realtime data
func (d *timetableData) RealTimePattern(tripID string, serviceDate ctdf.ServiceDate) *ctdf.TripPattern {
	if update := d.Update(tripID, serviceDate); update != nil {
		return update.Pattern
	}

	return nil
}

// PatternForTrip is the pattern the trip runs on for the date, a realtime
// pattern when one replaced the scheduled one
func (d *timetableData) PatternForTrip(tripID string, serviceDate ctdf.ServiceDate) *ctdf.TripPattern {
	if pattern := d.RealTimePattern(tripID, serviceDate); pattern != nil {
		return pattern
	}

	return d.model.PatternForTrip(tripID)
}

func (d *timetableData) Timetable(pattern *ctdf.TripPattern, serviceDate ctdf.ServiceDate) *ctdf.Timetable {
	return d.timetables[patternDateKey{patternID: pattern.PrimaryIdentifier, serviceDate: serviceDate}]
}

func (d *timetableData) AddedTrip(tripID string) *ctdf.Trip {
	return d.addedTrips[tripID]
}

func (d *timetableData) AddedRoute(routeID string) *ctdf.Route {
	return d.addedRoutes[routeID]
}

func (d *timetableData) TripOnServiceDate(id string) *ctdf.TripOnServiceDate {
	return d.tripOnServiceDates[id]
}

func (d *timetableData) Model() *ctdf.TransitModel {
	return d.model
}

func (d *timetableData) IsEmpty() bool {
	return len(d.entries) == 0
}

func (d *timetableData) Size() int {
	return len(d.entries)
}

func (d *timetableData) FeedSize(feedID string) int {
	return len(d.feedEntries[feedID])
}

// Updates lists every stored realtime update of a service date
func (d *timetableData) Updates(serviceDate ctdf.ServiceDate) []*ctdf.RealTimeTripUpdate {
	var updates []*ctdf.RealTimeTripUpdate
	for key, update := range d.entries {
		if key.serviceDate == serviceDate {
			updates = append(updates, update)
		}
	}

	return updates
}
