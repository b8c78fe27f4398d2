package applier

import (
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/timetable-realtime/pkg/realtime/gtfsrt"
	"github.com/travigo/timetable-realtime/pkg/realtime/siri"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

const maxParseGoroutines = 8

// ParseResult is a parsed update or the reason it could not be parsed
type ParseResult struct {
	Update *tripupdate.ParsedTripUpdate
	Err    error
}

func Parsed(updates ...*tripupdate.ParsedTripUpdate) []ParseResult {
	results := make([]ParseResult, len(updates))
	for i, update := range updates {
		results[i] = ParseResult{Update: update}
	}

	return results
}

// ParseAll parses wire messages in parallel. Results keep the order of the
// messages so the batch is applied in feed order.
func ParseAll[T any](messages []T, parse func(T, tripupdate.ParseContext) (*tripupdate.ParsedTripUpdate, error), context tripupdate.ParseContext) []ParseResult {
	results := make([]ParseResult, len(messages))

	p := pool.New().WithMaxGoroutines(maxParseGoroutines)
	for i, message := range messages {
		i, message := i, message
		p.Go(func() {
			update, err := parse(message, context)
			results[i] = ParseResult{Update: update, Err: err}
		})
	}
	p.Wait()

	return results
}

func ParseGTFSRTFeed(feed *gtfsrt.Feed, context tripupdate.ParseContext) ([]ParseResult, Incrementality) {
	incrementality := Differential
	if feed.FullDataset {
		incrementality = FullDataset
	}

	return ParseAll(feed.TripUpdates, gtfsrt.Parse, context), incrementality
}

func ParseSIRIDelivery(delivery *siri.ServiceDelivery, context tripupdate.ParseContext) []ParseResult {
	return ParseAll(delivery.EstimatedVehicleJourneys, siri.Parse, context)
}
