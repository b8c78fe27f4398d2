package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/realtime/applier"
)

type Indexer interface {
	Add(ctx context.Context, item esutil.BulkIndexerItem) error
}

type UpdateEvent struct {
	Timestamp time.Time

	Feed        string
	Trip        string
	ServiceDate string `json:",omitempty"`

	Success    bool
	State      string `json:",omitempty"`
	FailReason string `json:",omitempty"`
	StopIndex  *int   `json:",omitempty"`

	TripCreation bool `json:",omitempty"`
}

// AuditListener indexes one event per handled update of every batch
type AuditListener struct {
	Indexer Indexer
	Now     func() time.Time
}

func NewAuditListener(indexer Indexer) *AuditListener {
	return &AuditListener{
		Indexer: indexer,
		Now:     time.Now,
	}
}

func IndexName(t time.Time) string {
	yearNumber, weekNumber := t.ISOWeek()

	return fmt.Sprintf("realtime-update-events-%d-%d", yearNumber, weekNumber)
}

func (l *AuditListener) OnBatch(result *applier.BatchResult) {
	currentTime := l.Now()
	indexName := IndexName(currentTime)

	for _, update := range result.Successes {
		l.index(indexName, UpdateEvent{
			Timestamp:    currentTime,
			Feed:         result.FeedID,
			Trip:         update.TripID(),
			ServiceDate:  update.ServiceDate.String(),
			Success:      true,
			State:        string(update.TripTimes.State),
			TripCreation: update.TripCreation,
		})
	}

	for _, updateError := range result.Errors {
		event := UpdateEvent{
			Timestamp:  currentTime,
			Feed:       result.FeedID,
			Trip:       updateError.TripID,
			Success:    false,
			FailReason: string(updateError.Type),
		}
		if updateError.HasStopIndex() {
			stopIndex := updateError.StopIndex
			event.StopIndex = &stopIndex
		}

		l.index(indexName, event)
	}
}

func (l *AuditListener) index(indexName string, event UpdateEvent) {
	document, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode update event")
		return
	}

	err = l.Indexer.Add(context.Background(), esutil.BulkIndexerItem{
		Index:  indexName,
		Action: "index",
		Body:   bytes.NewReader(document),
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			if err != nil {
				log.Error().Err(err).Str("indexName", indexName).Msg("Failed to index update event")
			} else {
				log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index update event")
			}
		},
	})
	if err != nil {
		log.Error().Err(err).Str("indexName", indexName).Msg("Failed to queue update event")
	}
}
