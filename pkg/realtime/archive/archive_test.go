package archive

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/applier"
	"github.com/travigo/timetable-realtime/pkg/realtime/realtimetest"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var now = time.Date(2024, time.May, 1, 7, 30, 0, 0, time.UTC)

type recordingWriter struct {
	calls [][]mongo.WriteModel
}

func (w *recordingWriter) BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error) {
	w.calls = append(w.calls, models)
	return &mongo.BulkWriteResult{UpsertedCount: int64(len(models))}, nil
}

type recordingIndexer struct {
	items []esutil.BulkIndexerItem
}

func (i *recordingIndexer) Add(ctx context.Context, item esutil.BulkIndexerItem) error {
	i.items = append(i.items, item)
	return nil
}

func newApplier() (*applier.Applier, *snapshot.Manager) {
	manager := snapshot.NewManager(realtimetest.Model(), snapshot.ManagerOptions{Now: func() time.Time { return now }})

	feedApplier := applier.New(manager, nil)
	feedApplier.Now = func() time.Time { return now }

	return feedApplier, manager
}

func delayUpdate(tripID string, sequence int, delay int) *tripupdate.ParsedTripUpdate {
	return &tripupdate.ParsedTripUpdate{
		Type:                tripupdate.UpdateTypeUpdateExisting,
		Trip:                tripupdate.TripReference{TripID: tripID},
		ServiceDate:         realtimetest.ServiceDate,
		ServiceDateExplicit: true,
		StopTimeUpdates: []tripupdate.ParsedStopTimeUpdate{
			{StopSequence: &sequence, Status: tripupdate.StopUpdateStatusScheduled, Arrival: tripupdate.DelayTimeUpdate(delay)},
		},
		Options: tripupdate.DefaultGTFSRTOptions(),
	}
}

func TestMongoListenerArchivesOnCommit(t *testing.T) {
	feedApplier, manager := newApplier()

	writer := &recordingWriter{}
	listener := NewMongoListener(writer)
	manager.AddListener(listener)
	manager.AddCommitListener(listener)

	feedApplier.ApplyTripUpdates(realtimetest.FeedID, applier.Parsed(delayUpdate("T1", 1, 60)), applier.Differential)
	feedApplier.ApplyTripUpdates(realtimetest.FeedID, applier.Parsed(delayUpdate("T1", 2, 120)), applier.Differential)
	assert.Empty(t, writer.calls)

	manager.Commit()
	require.Len(t, writer.calls, 1)
	require.Len(t, writer.calls[0], 1)

	model, ok := writer.calls[0][0].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, bson.M{"primaryidentifier": "testfeed:T1:20240501"}, model.Filter)
	require.NotNil(t, model.Upsert)
	assert.True(t, *model.Upsert)

	var decoded struct {
		Set ctdf.ArchivedTripUpdate `bson:"$set"`
	}
	require.NoError(t, bson.Unmarshal(model.Update.([]byte), &decoded))

	archived := decoded.Set
	assert.Equal(t, "T1", archived.TripRef)
	assert.Equal(t, "R1", archived.RouteRef)
	assert.Equal(t, ctdf.RealTimeStateUpdated, archived.State)
	assert.Equal(t, int64(1), archived.SnapshotSequence)
	require.Len(t, archived.Stops, 4)
	assert.Equal(t, "A", archived.Stops[0].StopRef)
	assert.Equal(t, 120, archived.Stops[2].ArrivalOffset)
	assert.Equal(t, 120, archived.Stops[3].ArrivalOffset)

	// Nothing new to write
	manager.Commit()
	assert.Len(t, writer.calls, 1)
}

func TestArchivedTripUpdateTimes(t *testing.T) {
	feedApplier, manager := newApplier()
	feedApplier.ApplyTripUpdates(realtimetest.FeedID, applier.Parsed(delayUpdate("T1", 0, 60)), applier.Differential)

	update := manager.Commit().Update("T1", realtimetest.ServiceDate)
	require.NotNil(t, update)

	archived := ctdf.NewArchivedTripUpdate(update, time.UTC, now)
	assert.Equal(t, "testfeed:T1:20240501", archived.PrimaryIdentifier)
	assert.Equal(t, time.Date(2024, time.May, 1, 8, 0, 0, 0, time.UTC), archived.Stops[0].ScheduledArrivalTime)
	assert.Equal(t, time.Date(2024, time.May, 1, 8, 1, 0, 0, time.UTC), archived.Stops[0].ExpectedArrivalTime)
	assert.Equal(t, time.Date(2024, time.May, 1, 8, 16, 0, 0, time.UTC), archived.Stops[3].ExpectedArrivalTime)
}

func TestAuditListenerIndexesBatch(t *testing.T) {
	feedApplier, _ := newApplier()

	indexer := &recordingIndexer{}
	audit := NewAuditListener(indexer)
	audit.Now = func() time.Time { return now }
	feedApplier.AddBatchListener(audit)

	feedApplier.ApplyTripUpdates(realtimetest.FeedID, applier.Parsed(delayUpdate("T1", 1, 60), delayUpdate("NOPE", 1, 60)), applier.Differential)

	require.Len(t, indexer.items, 2)

	var events []UpdateEvent
	for _, item := range indexer.items {
		assert.Equal(t, "realtime-update-events-2024-18", item.Index)
		assert.Equal(t, "index", item.Action)

		body, err := io.ReadAll(item.Body)
		require.NoError(t, err)

		var event UpdateEvent
		require.NoError(t, json.Unmarshal(body, &event))
		events = append(events, event)
	}

	assert.Equal(t, "T1", events[0].Trip)
	assert.True(t, events[0].Success)
	assert.Equal(t, string(ctdf.RealTimeStateUpdated), events[0].State)
	assert.Equal(t, "2024-05-01", events[0].ServiceDate)

	assert.Equal(t, "NOPE", events[1].Trip)
	assert.False(t, events[1].Success)
	assert.Equal(t, string(tripupdate.ErrorTripNotFound), events[1].FailReason)
	assert.Nil(t, events[1].StopIndex)
}
