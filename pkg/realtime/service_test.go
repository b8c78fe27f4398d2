package realtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/timetable-realtime/pkg/config"
	"github.com/travigo/timetable-realtime/pkg/realtime/feeds"
	"github.com/travigo/timetable-realtime/pkg/realtime/realtimetest"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"google.golang.org/protobuf/proto"
)

var now = time.Date(2024, time.May, 1, 7, 30, 0, 0, time.UTC)

func newTestService() *Service {
	cfg := &config.Config{
		Feeds: []config.Feed{
			{
				ID:       realtimetest.FeedID,
				Format:   config.FormatGTFSRT,
				URL:      "http://example.com/feed",
				Interval: time.Minute,
			},
		},
		CommitInterval: time.Second,
	}

	return NewService(cfg, realtimetest.Model(), func() time.Time { return now })
}

func delayFeed(t *testing.T, delay int32) []byte {
	t.Helper()

	body, err := proto.Marshal(&gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfs.FeedHeader_DIFFERENTIAL.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: []*gtfs.FeedEntity{
			{
				Id: proto.String("T1"),
				TripUpdate: &gtfs.TripUpdate{
					Trip: &gtfs.TripDescriptor{
						TripId:               proto.String("T1"),
						StartDate:            proto.String(realtimetest.ServiceDate.Compact()),
						ScheduleRelationship: gtfs.TripDescriptor_SCHEDULED.Enum(),
					},
					StopTimeUpdate: []*gtfs.TripUpdate_StopTimeUpdate{
						{
							StopSequence: proto.Uint32(1),
							Arrival:      &gtfs.TripUpdate_StopTimeEvent{Delay: proto.Int32(delay)},
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)

	return body
}

func TestServiceApplyPayload(t *testing.T) {
	service := newTestService()

	result, err := service.ApplyPayload(realtimetest.FeedID, delayFeed(t, 120), now)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total())
	assert.Len(t, result.Successes, 1)

	snapshot := service.Manager.Snapshot()
	assert.Equal(t, int64(1), snapshot.Sequence)

	times := snapshot.RealTimeTripTimes("T1", realtimetest.ServiceDate)
	require.NotNil(t, times)
	assert.Equal(t, 120, times.ArrivalDelay(1))
}

func TestServiceApplyPayloadUnknownFeed(t *testing.T) {
	service := newTestService()

	_, err := service.ApplyPayload("other", delayFeed(t, 120), now)
	assert.ErrorIs(t, err, feeds.ErrUnknownFeed)
	assert.Equal(t, int64(0), service.Manager.Snapshot().Sequence)
}

func TestServiceComparePayloadLeavesSnapshot(t *testing.T) {
	service := newTestService()

	options := service.Config.Feed(realtimetest.FeedID).UpdateOptions()
	options.BackwardsPropagation = tripupdate.BackwardsPropagationNone

	comparison, err := service.ComparePayload(realtimetest.FeedID, delayFeed(t, 120), now, options)
	require.NoError(t, err)
	assert.Equal(t, 1, comparison.Primary.Total())
	assert.Equal(t, 1, comparison.Shadow.Total())

	assert.Equal(t, int64(0), service.Manager.Snapshot().Sequence)
	assert.Nil(t, service.Manager.Snapshot().RealTimeTripTimes("T1", realtimetest.ServiceDate))
}

func TestHealthHandler(t *testing.T) {
	redisServer := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})

	service := newTestService()
	handler := NewHealthHandler(client, service.Manager)
	handler.Now = func() time.Time { return now }

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)

	service.Manager.Commit()
	handler.Now = func() time.Time { return now.Add(time.Hour) }

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	redisServer.Close()

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
