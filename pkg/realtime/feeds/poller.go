package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/config"
)

const defaultMaxRetries = 3

// Poller fetches one feed on its interval and queues every changed response
type Poller struct {
	Feed   *config.Feed
	Client *http.Client
	Queue  rmq.Queue

	// Skips responses identical to the previous one when set
	Digests *DigestCache

	MaxRetries uint64
	Backoff    func() backoff.BackOff
	Now        func() time.Time
}

func NewPoller(feed *config.Feed, queue rmq.Queue, digests *DigestCache) *Poller {
	return &Poller{
		Feed:       feed,
		Client:     &http.Client{Timeout: 30 * time.Second},
		Queue:      queue,
		Digests:    digests,
		MaxRetries: defaultMaxRetries,
		Backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		Now: time.Now,
	}
}

// Run polls until the context is cancelled
func (p *Poller) Run(ctx context.Context) {
	log.Info().Str("feed", p.Feed.ID).Str("interval", p.Feed.Interval.String()).Msg("Starting feed poller")

	ticker := time.NewTicker(p.Feed.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.Poll(ctx); err != nil {
			log.Error().Err(err).Str("feed", p.Feed.ID).Msg("Failed to poll feed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll fetches the feed once and reports whether a payload was published
func (p *Poller) Poll(ctx context.Context) (bool, error) {
	body, err := p.fetch(ctx)
	if err != nil {
		return false, err
	}

	if p.Digests != nil {
		changed, err := p.Digests.Changed(ctx, p.Feed.ID, body)
		if err != nil {
			log.Warn().Err(err).Str("feed", p.Feed.ID).Msg("Digest check failed, publishing anyway")
		} else if !changed {
			log.Debug().Str("feed", p.Feed.ID).Msg("Feed unchanged")
			return false, nil
		}
	}

	payload, err := json.Marshal(Payload{
		FeedID:  p.Feed.ID,
		Fetched: p.Now(),
		Body:    body,
	})
	if err != nil {
		return false, err
	}

	if err := p.Queue.PublishBytes(payload); err != nil {
		return false, fmt.Errorf("publishing feed %s: %w", p.Feed.ID, err)
	}

	log.Debug().Str("feed", p.Feed.ID).Int("bytes", len(body)).Msg("Published feed payload")

	if p.Digests != nil {
		if err := p.Digests.Remember(ctx, p.Feed.ID, body); err != nil {
			log.Warn().Err(err).Str("feed", p.Feed.ID).Msg("Failed to remember feed digest")
		}
	}

	return true, nil
}

func (p *Poller) fetch(ctx context.Context) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Feed.URL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for key, value := range p.Feed.Headers {
			req.Header.Set(key, value)
		}

		resp, err := p.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("feed %s returned status %d", p.Feed.ID, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(err)
			}
			return err
		}

		body, err = io.ReadAll(resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(p.Backoff(), p.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return body, nil
}
