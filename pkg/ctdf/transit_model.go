package ctdf

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// TransitModel is the static schedule the realtime updates are applied to.
// It is filled once at startup and only read afterwards.
type TransitModel struct {
	FeedID   string
	TimeZone *time.Location

	agencies  map[string]*Agency
	operators map[string]*Operator
	stops     map[string]*Stop
	routes    map[string]*Route
	trips     map[string]*Trip

	patterns       map[string]*TripPattern
	patternForTrip map[string]*TripPattern
	scheduledTimes map[string]*ScheduledTripTimes
	tripsForRoute  map[string][]*Trip

	serviceCalendar map[string]map[ServiceDate]bool
	serviceStart    ServiceDate
	serviceEnd      ServiceDate
}

func NewTransitModel(feedID string, timeZone *time.Location) *TransitModel {
	if timeZone == nil {
		timeZone = time.UTC
	}

	return &TransitModel{
		FeedID:          feedID,
		TimeZone:        timeZone,
		agencies:        map[string]*Agency{},
		operators:       map[string]*Operator{},
		stops:           map[string]*Stop{},
		routes:          map[string]*Route{},
		trips:           map[string]*Trip{},
		patterns:        map[string]*TripPattern{},
		patternForTrip:  map[string]*TripPattern{},
		scheduledTimes:  map[string]*ScheduledTripTimes{},
		tripsForRoute:   map[string][]*Trip{},
		serviceCalendar: map[string]map[ServiceDate]bool{},
	}
}

func (m *TransitModel) AddAgency(agency *Agency) {
	m.agencies[agency.PrimaryIdentifier] = agency
}

func (m *TransitModel) AddOperator(operator *Operator) {
	m.operators[operator.PrimaryIdentifier] = operator
}

func (m *TransitModel) AddStop(stop *Stop) {
	m.stops[stop.PrimaryIdentifier] = stop
}

func (m *TransitModel) AddRoute(route *Route) {
	m.routes[route.PrimaryIdentifier] = route
}

// AddTrip registers a scheduled trip together with the pattern it runs on.
// Patterns are shared between trips with equal stop patterns on a route.
func (m *TransitModel) AddTrip(trip *Trip, stopPattern StopPattern, times *ScheduledTripTimes) *TripPattern {
	routeRef := trip.RouteRef()
	patternID := fmt.Sprintf("%s:%s", routeRef, stopPattern.Hash())

	pattern, exists := m.patterns[patternID]
	if !exists {
		pattern = &TripPattern{
			PrimaryIdentifier: patternID,
			Route:             trip.Route,
			StopPattern:       stopPattern,
		}
		m.patterns[patternID] = pattern
	}

	m.trips[trip.PrimaryIdentifier] = trip
	m.patternForTrip[trip.PrimaryIdentifier] = pattern
	m.scheduledTimes[trip.PrimaryIdentifier] = times
	m.tripsForRoute[routeRef] = append(m.tripsForRoute[routeRef], trip)

	return pattern
}

func (m *TransitModel) AddServiceDate(serviceRef string, date ServiceDate) {
	if m.serviceCalendar[serviceRef] == nil {
		m.serviceCalendar[serviceRef] = map[ServiceDate]bool{}
	}
	m.serviceCalendar[serviceRef][date] = true

	if m.serviceStart.IsZero() || date.Before(m.serviceStart) {
		m.serviceStart = date
	}
	if m.serviceEnd.IsZero() || date.After(m.serviceEnd) {
		m.serviceEnd = date
	}
}

func (m *TransitModel) RemoveServiceDate(serviceRef string, date ServiceDate) {
	delete(m.serviceCalendar[serviceRef], date)
}

func (m *TransitModel) Agency(id string) *Agency {
	return m.agencies[id]
}

// Agencies are returned ordered by identifier
func (m *TransitModel) Agencies() []*Agency {
	ids := sortedKeys(m.agencies)

	agencies := make([]*Agency, len(ids))
	for i, id := range ids {
		agencies[i] = m.agencies[id]
	}

	return agencies
}

func (m *TransitModel) Operator(id string) *Operator {
	return m.operators[id]
}

func (m *TransitModel) Stop(id string) *Stop {
	return m.stops[id]
}

func (m *TransitModel) Route(id string) *Route {
	return m.routes[id]
}

// Routes are returned ordered by identifier
func (m *TransitModel) Routes() []*Route {
	ids := sortedKeys(m.routes)

	routes := make([]*Route, len(ids))
	for i, id := range ids {
		routes[i] = m.routes[id]
	}

	return routes
}

func (m *TransitModel) Trip(id string) *Trip {
	return m.trips[id]
}

func (m *TransitModel) TripsForRoute(routeID string) []*Trip {
	return m.tripsForRoute[routeID]
}

func (m *TransitModel) PatternForTrip(tripID string) *TripPattern {
	return m.patternForTrip[tripID]
}

func (m *TransitModel) Pattern(id string) *TripPattern {
	return m.patterns[id]
}

func (m *TransitModel) ScheduledTripTimes(tripID string) *ScheduledTripTimes {
	return m.scheduledTimes[tripID]
}

func (m *TransitModel) RunsOn(serviceRef string, date ServiceDate) bool {
	return m.serviceCalendar[serviceRef][date]
}

// InServicePeriod reports whether a date falls between the first and last
// day any service runs
func (m *TransitModel) InServicePeriod(date ServiceDate) bool {
	if m.serviceStart.IsZero() {
		return false
	}

	return !date.Before(m.serviceStart) && !date.After(m.serviceEnd)
}

func (m *TransitModel) ServicePeriod() (ServiceDate, ServiceDate) {
	return m.serviceStart, m.serviceEnd
}

func (m *TransitModel) Counts() map[string]int {
	return map[string]int{
		"agencies":  len(m.agencies),
		"operators": len(m.operators),
		"stops":     len(m.stops),
		"routes":    len(m.routes),
		"trips":     len(m.trips),
		"patterns":  len(m.patterns),
	}
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}
