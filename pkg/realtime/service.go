package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/config"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/applier"
	"github.com/travigo/timetable-realtime/pkg/realtime/feeds"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// Service holds the realtime state of one schedule and every feed applied
// to it
type Service struct {
	Config  *config.Config
	Manager *snapshot.Manager
	Applier *applier.Applier
}

func NewService(cfg *config.Config, model *ctdf.TransitModel, now func() time.Time) *Service {
	manager := snapshot.NewManager(model, snapshot.ManagerOptions{
		PurgeAfterDays: cfg.PurgeAfterDays,
		Now:            now,
	})

	feedApplier := applier.New(manager, nil)
	feedApplier.Now = now
	for _, feed := range cfg.Feeds {
		feedApplier.RegisterFeed(feed.ID, applier.Format(feed.Format))
	}

	return &Service{
		Config:  cfg,
		Manager: manager,
		Applier: feedApplier,
	}
}

func (s *Service) feed(feedID string) (*config.Feed, error) {
	feed := s.Config.Feed(feedID)
	if feed == nil {
		return nil, fmt.Errorf("%w: %s", feeds.ErrUnknownFeed, feedID)
	}

	return feed, nil
}

// ApplyPayload decodes one feed response, applies it and commits
func (s *Service) ApplyPayload(feedID string, body []byte, fetched time.Time) (*applier.BatchResult, error) {
	feed, err := s.feed(feedID)
	if err != nil {
		return nil, err
	}

	updates, incrementality, err := feeds.Decode(feed, body, fetched)
	if err != nil {
		return nil, err
	}

	result := s.Applier.ApplyTripUpdates(feed.ID, updates, incrementality)
	s.Manager.Commit()

	return result, nil
}

// ComparePayload applies a feed response to two scratch buffers, the second
// with the given options, and reports how the results differ. The committed
// state is not changed.
func (s *Service) ComparePayload(feedID string, body []byte, fetched time.Time, shadowOptions tripupdate.UpdateOptions) (*applier.Comparison, error) {
	feed, err := s.feed(feedID)
	if err != nil {
		return nil, err
	}

	updates, incrementality, err := feeds.Decode(feed, body, fetched)
	if err != nil {
		return nil, err
	}

	primary := s.Applier.Fork(nil)
	shadow := s.Applier.Fork(&shadowOptions)

	return applier.ShadowCompare(s.Manager, primary, shadow, feed.ID, updates, incrementality), nil
}

// RunCommitLoop commits the buffer whenever it changed, until the context is
// cancelled
func (s *Service) RunCommitLoop(ctx context.Context) {
	ticker := time.NewTicker(s.Config.CommitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if committed := s.Manager.CommitIfDirty(); committed != nil {
				log.Debug().Int64("sequence", committed.Sequence).Int("trips", committed.Size()).Msg("Committed realtime snapshot")
			}
		}
	}
}
