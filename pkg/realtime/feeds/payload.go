// Package feeds polls realtime feeds and applies what they publish. Pollers
// put fetched payloads on a queue, the batch consumer decodes and applies
// them in order.
package feeds

import (
	"bytes"
	"errors"
	"time"

	"github.com/travigo/timetable-realtime/pkg/config"
	"github.com/travigo/timetable-realtime/pkg/realtime/applier"
	"github.com/travigo/timetable-realtime/pkg/realtime/gtfsrt"
	"github.com/travigo/timetable-realtime/pkg/realtime/siri"
)

const QueueName = "realtime-feed-queue"

var ErrUnknownFeed = errors.New("Payload is for an unknown feed")

// Payload is one fetched response of a feed
type Payload struct {
	FeedID  string
	Fetched time.Time
	Body    []byte
}

// Decode parses a feed response into updates ready to apply
func Decode(feed *config.Feed, body []byte, fetched time.Time) ([]applier.ParseResult, applier.Incrementality, error) {
	context := feed.ParseContext(fetched)

	var updates []applier.ParseResult
	var incrementality applier.Incrementality

	switch feed.Format {
	case config.FormatSIRIET:
		delivery, err := siri.DecodeServiceDelivery(bytes.NewReader(body))
		if err != nil {
			return nil, "", err
		}

		updates = applier.ParseSIRIDelivery(delivery, context)
		incrementality = applier.Differential
	default:
		var decoded *gtfsrt.Feed
		var err error
		if isJSON(body) {
			decoded, err = gtfsrt.DecodeJSONFeed(body)
		} else {
			decoded, err = gtfsrt.DecodeFeed(body)
		}
		if err != nil {
			return nil, "", err
		}

		updates, incrementality = applier.ParseGTFSRTFeed(decoded, context)
	}

	if feed.Incrementality != "" {
		incrementality = applier.Incrementality(feed.Incrementality)
	}

	return updates, incrementality, nil
}

func isJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
