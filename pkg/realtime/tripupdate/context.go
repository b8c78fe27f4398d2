package tripupdate

import (
	"time"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

// ParseContext is what parsers need to know about the feed an update came from
type ParseContext struct {
	FeedID   string
	TimeZone *time.Location

	// Day used for updates that do not state their service date
	ServiceDateSupplier func() ctdf.ServiceDate

	Options           UpdateOptions
	FuzzyTripMatching bool

	DataSource *ctdf.DataSource
}

func (c ParseContext) Location() *time.Location {
	if c.TimeZone == nil {
		return time.UTC
	}

	return c.TimeZone
}

func (c ParseContext) CurrentServiceDate() ctdf.ServiceDate {
	if c.ServiceDateSupplier != nil {
		return c.ServiceDateSupplier()
	}

	return ctdf.ServiceDateOf(time.Now().In(c.Location()))
}
