// Package applier applies batches of parsed trip updates to the realtime
// buffer and reports what happened to each of them.
package applier

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/realtime/handler"
	"github.com/travigo/timetable-realtime/pkg/realtime/patterncache"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/routecreation"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

type Format string

const (
	FormatGTFSRT Format = "gtfs-rt"
	FormatSIRIET Format = "siri-et"
)

type feed struct {
	format       Format
	patternCache *patterncache.TripPatternCache
}

type Applier struct {
	manager *snapshot.Manager
	metrics *Metrics

	// Replaces the options of every update when set
	OverrideOptions *tripupdate.UpdateOptions

	Now func() time.Time

	feedsMutex sync.Mutex
	feeds      map[string]*feed

	batchListeners []BatchListener
}

// BatchListener is told about the result of every applied batch
type BatchListener interface {
	OnBatch(result *BatchResult)
}

func New(manager *snapshot.Manager, metrics *Metrics) *Applier {
	if metrics == nil {
		metrics = NewMetrics()
	}

	return &Applier{
		manager: manager,
		metrics: metrics,
		Now:     time.Now,
		feeds:   map[string]*feed{},
	}
}

// AddBatchListener must be called before the first batch is applied
func (a *Applier) AddBatchListener(listener BatchListener) {
	a.batchListeners = append(a.batchListeners, listener)
}

func (a *Applier) Metrics() *Metrics {
	return a.metrics
}

// RegisterFeed sets the format of a feed, which decides how routes of added
// trips are created. Unregistered feeds are treated as GTFS-RT.
func (a *Applier) RegisterFeed(feedID string, format Format) {
	a.feed(feedID).format = format
}

// Fork returns an applier writing to the same manager with the same feeds
// registered but empty pattern caches, so anything it applies leaves this
// applier untouched. Options replaces the options of every update when set.
func (a *Applier) Fork(options *tripupdate.UpdateOptions) *Applier {
	forked := New(a.manager, nil)
	forked.Now = a.Now
	forked.OverrideOptions = options

	a.feedsMutex.Lock()
	defer a.feedsMutex.Unlock()

	for feedID, registered := range a.feeds {
		forked.feeds[feedID] = &feed{
			format:       registered.format,
			patternCache: patterncache.NewTripPatternCache(feedID),
		}
	}

	return forked
}

func (a *Applier) feed(feedID string) *feed {
	a.feedsMutex.Lock()
	defer a.feedsMutex.Unlock()

	if a.feeds[feedID] == nil {
		a.feeds[feedID] = &feed{
			format:       FormatGTFSRT,
			patternCache: patterncache.NewTripPatternCache(feedID),
		}
	}

	return a.feeds[feedID]
}

// ApplyTripUpdates applies a batch to the manager's buffer. A full dataset
// first removes everything the feed wrote before. The buffer is not
// committed.
func (a *Applier) ApplyTripUpdates(feedID string, updates []ParseResult, incrementality Incrementality) *BatchResult {
	if updates == nil {
		return &BatchResult{FeedID: feedID}
	}

	startTime := a.Now()

	var result *BatchResult
	var bufferSize int
	a.manager.WithBuffer(func(buffer *snapshot.Buffer) {
		result = a.ApplyToBuffer(buffer, feedID, updates, incrementality)
		bufferSize = buffer.FeedSize(feedID)
	})

	duration := a.Now().Sub(startTime)
	a.metrics.observe(result, duration.Seconds(), bufferSize)

	log.Info().
		Str("feed", feedID).
		Str("incrementality", string(incrementality)).
		Int("successes", len(result.Successes)).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Str("duration", duration.String()).
		Msg("Applied trip updates")

	for _, listener := range a.batchListeners {
		listener.OnBatch(result)
	}

	return result
}

// ApplyToBuffer applies a batch to any buffer. The caller must be the only
// writer of the buffer.
func (a *Applier) ApplyToBuffer(buffer *snapshot.Buffer, feedID string, updates []ParseResult, incrementality Incrementality) *BatchResult {
	result := &BatchResult{FeedID: feedID}

	if incrementality == FullDataset {
		buffer.Clear(feedID)
	}

	tripHandler := a.handler(buffer, feedID)
	format := a.feed(feedID).format

	for _, parsed := range updates {
		if parsed.Err != nil {
			result.addError(tripupdate.AsUpdateError("", parsed.Err))
			continue
		}

		update := parsed.Update
		if update == nil {
			result.addError(tripupdate.NewUpdateError("", tripupdate.ErrorInvalidInputStructure))
			continue
		}
		if a.OverrideOptions != nil {
			overridden := *update
			overridden.Options = *a.OverrideOptions
			if format == FormatSIRIET {
				overridden.Options.ForwardsPropagation = tripupdate.ForwardsPropagationNone
			}
			update = &overridden
		}

		realtimeUpdate, success, err := tripHandler.Handle(update)
		if err != nil {
			result.addError(tripupdate.AsUpdateError(update.TripID(), err))
			continue
		}

		bufferSuccess, err := buffer.Update(realtimeUpdate)
		if err != nil {
			result.addError(tripupdate.AsUpdateError(update.TripID(), err))
			continue
		}

		result.addSuccess(realtimeUpdate, success.AddWarnings(bufferSuccess.Warnings...))
	}

	for _, updateError := range result.Errors {
		log.Debug().
			Str("feed", feedID).
			Str("trip", updateError.TripID).
			Str("error", string(updateError.Type)).
			Int("stop", updateError.StopIndex).
			Msg("Trip update failed")
	}

	return result
}

func (a *Applier) handler(buffer *snapshot.Buffer, feedID string) *handler.Handler {
	feed := a.feed(feedID)
	model := buffer.Model()

	var routeCreator routecreation.RouteCreator
	switch feed.format {
	case FormatSIRIET:
		routeCreator = routecreation.NewSIRIRouteCreator(model, buffer)
	default:
		routeCreator = routecreation.NewGTFSRouteCreator(feedID, model, buffer)
	}

	tripHandler := handler.New(feedID, resolver.New(model, buffer), feed.patternCache, routeCreator)
	tripHandler.Now = a.Now

	return tripHandler
}
