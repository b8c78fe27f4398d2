package feeds

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/config"
	"github.com/travigo/timetable-realtime/pkg/realtime/applier"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
)

const batchSize = 20

// BatchConsumer applies queued feed payloads in delivery order and commits
// the buffer once per batch
type BatchConsumer struct {
	Config  *config.Config
	Applier *applier.Applier
	Manager *snapshot.Manager
}

func NewBatchConsumer(config *config.Config, applier *applier.Applier, manager *snapshot.Manager) *BatchConsumer {
	return &BatchConsumer{
		Config:  config,
		Applier: applier,
		Manager: manager,
	}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, delivery := range batch {
		if err := consumer.apply(delivery.Payload()); err != nil {
			log.Error().Err(err).Msg("Failed to apply feed payload")

			if err := delivery.Reject(); err != nil {
				log.Error().Err(err).Msg("Failed to reject delivery")
			}
			continue
		}

		if err := delivery.Ack(); err != nil {
			log.Error().Err(err).Msg("Failed to ack delivery")
		}
	}

	if committed := consumer.Manager.CommitIfDirty(); committed != nil {
		log.Debug().Int("trips", committed.Size()).Msg("Committed realtime snapshot")
	}
}

func (consumer *BatchConsumer) apply(raw string) error {
	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("decoding payload: %w", err)
	}

	feed := consumer.Config.Feed(payload.FeedID)
	if feed == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFeed, payload.FeedID)
	}

	updates, incrementality, err := Decode(feed, payload.Body, payload.Fetched)
	if err != nil {
		return fmt.Errorf("decoding feed %s: %w", feed.ID, err)
	}

	consumer.Applier.ApplyTripUpdates(feed.ID, updates, incrementality)

	return nil
}

// StartConsumers registers every configured feed with the applier and starts
// consuming the feed queue
func StartConsumers(connection rmq.Connection, config *config.Config, feedApplier *applier.Applier, manager *snapshot.Manager) (rmq.Queue, error) {
	for _, feed := range config.Feeds {
		feedApplier.RegisterFeed(feed.ID, applier.Format(feed.Format))
	}

	queue, err := connection.OpenQueue(QueueName)
	if err != nil {
		return nil, err
	}
	if err := queue.StartConsuming(batchSize*2, 1*time.Second); err != nil {
		return nil, err
	}

	// One consumer keeps payloads of a feed in order
	if _, err := queue.AddBatchConsumer(QueueName, batchSize, 2*time.Second, NewBatchConsumer(config, feedApplier, manager)); err != nil {
		return nil, err
	}

	log.Info().Int("feeds", len(config.Feeds)).Msg("Started realtime feed consumer")

	return queue, nil
}
