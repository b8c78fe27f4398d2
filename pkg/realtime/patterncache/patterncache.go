package patterncache

import (
	"fmt"
	"sync"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

type cacheKey struct {
	routeID        string
	stopPatternKey string
}

// TripPatternCache hands out the realtime patterns created for modified and
// added trips. Equal stop patterns on the same route always map to the same
// pattern instance.
type TripPatternCache struct {
	feedID string

	mutex    sync.Mutex
	patterns map[cacheKey]*ctdf.TripPattern
}

func NewTripPatternCache(feedID string) *TripPatternCache {
	return &TripPatternCache{
		feedID:   feedID,
		patterns: map[cacheKey]*ctdf.TripPattern{},
	}
}

// GetOrCreate returns originalPattern when the stop pattern is unchanged from
// it, otherwise the cached realtime pattern for the trip's route, creating
// it on first use
func (c *TripPatternCache) GetOrCreate(stopPattern ctdf.StopPattern, trip *ctdf.Trip, originalPattern *ctdf.TripPattern) *ctdf.TripPattern {
	if originalPattern != nil && originalPattern.StopPattern.Equals(stopPattern) {
		return originalPattern
	}

	key := cacheKey{routeID: trip.RouteRef(), stopPatternKey: stopPattern.Key()}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if pattern, exists := c.patterns[key]; exists {
		return pattern
	}

	pattern := &ctdf.TripPattern{
		PrimaryIdentifier: c.generatePatternID(trip, stopPattern),
		Route:             trip.Route,
		StopPattern:       stopPattern,
		OriginalPattern:   originalPattern,
		CreatedByRealtime: true,
	}
	c.patterns[key] = pattern

	return pattern
}

func (c *TripPatternCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.patterns)
}

func (c *TripPatternCache) generatePatternID(trip *ctdf.Trip, stopPattern ctdf.StopPattern) string {
	return fmt.Sprintf("%s:%s:RT:%s", c.feedID, trip.RouteRef(), stopPattern.Hash())
}
