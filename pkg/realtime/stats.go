package realtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
)

func StartStatsServer(listen string, connection rmq.Connection, client *redis.Client, manager *snapshot.Manager) {
	mux := http.NewServeMux()
	mux.Handle("/realtime-stats/overview", NewStatsHandler(connection))
	mux.Handle("/health", NewHealthHandler(client, manager))

	log.Info().Msgf("Stats server listening on http://%s/realtime-stats/overview", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Error().Err(err).Msg("Stats server stopped")
	}
}

type StatsServerHandler struct {
	redisConnection rmq.Connection
}

func NewStatsHandler(connection rmq.Connection) *StatsServerHandler {
	return &StatsServerHandler{redisConnection: connection}
}

func (handler *StatsServerHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	layout := request.FormValue("layout")
	refresh := request.FormValue("refresh")

	queues, err := handler.redisConnection.GetOpenQueues()
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	stats, err := handler.redisConnection.CollectStats(queues)
	if err != nil {
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}

	fmt.Fprint(writer, stats.GetHtml(layout, refresh))
}

// HealthHandler fails when redis is unreachable or no snapshot was committed
// within MaxSnapshotAge
type HealthHandler struct {
	client  *redis.Client
	manager *snapshot.Manager

	MaxSnapshotAge time.Duration
	Now            func() time.Time
}

func NewHealthHandler(client *redis.Client, manager *snapshot.Manager) *HealthHandler {
	return &HealthHandler{
		client:         client,
		manager:        manager,
		MaxSnapshotAge: 15 * time.Minute,
		Now:            time.Now,
	}
}

func (handler *HealthHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if handler.client != nil {
		if err := handler.client.Ping(context.TODO()).Err(); err != nil {
			writer.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(writer, err)

			return
		}
	}

	current := handler.manager.Snapshot()
	if age := handler.Now().Sub(current.Committed); current.Sequence > 0 && age > handler.MaxSnapshotAge {
		writer.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(writer, "Last snapshot committed %s ago", age.Round(time.Second))

		return
	}

	writer.WriteHeader(http.StatusOK)
	fmt.Fprint(writer, "OK")
}
