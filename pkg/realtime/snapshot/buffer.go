package snapshot

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// Listener is told about every update written into a buffer
type Listener interface {
	OnTripUpdate(update *ctdf.RealTimeTripUpdate)
}

type ListenerFunc func(update *ctdf.RealTimeTripUpdate)

func (f ListenerFunc) OnTripUpdate(update *ctdf.RealTimeTripUpdate) {
	f(update)
}

// Buffer is the mutable realtime state handlers write into. It is not safe
// for concurrent use, the Manager serialises writers.
type Buffer struct {
	*timetableData

	listeners []Listener
	dirty     bool
}

func NewBuffer(model *ctdf.TransitModel) *Buffer {
	return &Buffer{timetableData: newTimetableData(model)}
}

func (b *Buffer) AddListener(listener Listener) {
	b.listeners = append(b.listeners, listener)
}

func (b *Buffer) IsDirty() bool {
	return b.dirty
}

// Update writes a handled trip update, replacing any earlier realtime state
// of the same trip on the same service date
func (b *Buffer) Update(update *ctdf.RealTimeTripUpdate) (tripupdate.UpdateSuccess, error) {
	if update == nil || update.Pattern == nil || update.TripTimes == nil {
		return tripupdate.UpdateSuccess{}, tripupdate.NewUpdateError("", tripupdate.ErrorUnknown)
	}

	tripID := update.TripID()
	if update.ServiceDate.IsZero() {
		return tripupdate.UpdateSuccess{}, tripupdate.NewUpdateError(tripID, tripupdate.ErrorNoServiceOnDate)
	}

	key := tripDateKey{tripID: tripID, serviceDate: update.ServiceDate}
	if previous := b.entries[key]; previous != nil {
		b.removeEntry(key, previous)
	}

	b.writeTripTimes(update.Pattern, update.ServiceDate, update.TripTimes)

	if update.ScheduledPatternToDelete != nil && update.ScheduledPatternToDelete != update.Pattern {
		if scheduled := b.model.ScheduledTripTimes(tripID); scheduled != nil {
			deleted, err := ctdf.NewRealTimeTripTimesBuilder(scheduled).DeleteTrip().Build()
			if err != nil {
				return tripupdate.UpdateSuccess{}, tripupdate.AsUpdateError(tripID, err)
			}
			b.writeTripTimes(update.ScheduledPatternToDelete, update.ServiceDate, deleted)
		}
	}

	if update.TripCreation {
		b.addedTrips[tripID] = update.Trip()
		b.addedTripFeeds[tripID] = update.FeedID
	}
	if update.RouteCreation && update.Trip().Route != nil {
		routeID := update.Trip().Route.PrimaryIdentifier
		b.addedRoutes[routeID] = update.Trip().Route
		b.addedRouteFeeds[routeID] = update.FeedID
	}
	if update.AddedTripOnServiceDate != nil {
		b.tripOnServiceDates[update.AddedTripOnServiceDate.PrimaryIdentifier] = update.AddedTripOnServiceDate
	}

	b.entries[key] = update
	if b.feedEntries[update.FeedID] == nil {
		b.feedEntries[update.FeedID] = map[tripDateKey]bool{}
	}
	b.feedEntries[update.FeedID][key] = true
	b.dirty = true

	for _, listener := range b.listeners {
		listener.OnTripUpdate(update)
	}

	return tripupdate.NoWarnings(), nil
}

// Clear drops everything a feed has written, used before applying a full
// dataset
func (b *Buffer) Clear(feedID string) {
	for key := range b.feedEntries[feedID] {
		if entry := b.entries[key]; entry != nil {
			b.removeEntry(key, entry)
		}
	}
	delete(b.feedEntries, feedID)

	for tripID, owner := range b.addedTripFeeds {
		if owner == feedID {
			delete(b.addedTrips, tripID)
			delete(b.addedTripFeeds, tripID)
		}
	}
	for routeID, owner := range b.addedRouteFeeds {
		if owner == feedID {
			delete(b.addedRoutes, routeID)
			delete(b.addedRouteFeeds, routeID)
		}
	}

	for id, tripOnServiceDate := range b.tripOnServiceDates {
		if b.addedTrips[tripOnServiceDate.Trip.PrimaryIdentifier] == nil {
			delete(b.tripOnServiceDates, id)
		}
	}

	b.dirty = true
}

// PurgeExpiredData removes realtime state of service dates before the given
// one, reporting whether anything was removed
func (b *Buffer) PurgeExpiredData(before ctdf.ServiceDate) bool {
	purged := false

	for key, entry := range b.entries {
		if key.serviceDate.Before(before) {
			b.removeEntry(key, entry)
			purged = true
		}
	}
	for key := range b.timetables {
		if key.serviceDate.Before(before) {
			delete(b.timetables, key)
			purged = true
		}
	}
	for id, tripOnServiceDate := range b.tripOnServiceDates {
		if tripOnServiceDate.ServiceDate.Before(before) {
			delete(b.tripOnServiceDates, id)
			purged = true
		}
	}

	if purged {
		b.dirty = true
	}

	return purged
}

func (b *Buffer) writeTripTimes(pattern *ctdf.TripPattern, serviceDate ctdf.ServiceDate, tripTimes *ctdf.RealTimeTripTimes) {
	key := patternDateKey{patternID: pattern.PrimaryIdentifier, serviceDate: serviceDate}

	timetable, exists := b.timetables[key]
	if !exists {
		timetable = ctdf.NewTimetable(pattern, serviceDate)
	}

	b.timetables[key] = timetable.WithTripTimes(tripTimes)
}

func (b *Buffer) removeTripTimes(pattern *ctdf.TripPattern, serviceDate ctdf.ServiceDate, tripID string) {
	key := patternDateKey{patternID: pattern.PrimaryIdentifier, serviceDate: serviceDate}

	timetable, exists := b.timetables[key]
	if !exists {
		return
	}

	timetable = timetable.WithoutTrip(tripID)
	if timetable.IsEmpty() {
		delete(b.timetables, key)
	} else {
		b.timetables[key] = timetable
	}
}

func (b *Buffer) removeEntry(key tripDateKey, entry *ctdf.RealTimeTripUpdate) {
	b.removeTripTimes(entry.Pattern, key.serviceDate, key.tripID)
	if entry.ScheduledPatternToDelete != nil {
		b.removeTripTimes(entry.ScheduledPatternToDelete, key.serviceDate, key.tripID)
	}

	delete(b.entries, key)
	if keys := b.feedEntries[entry.FeedID]; keys != nil {
		delete(keys, key)
	}
}
