package snapshot

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/realtimetest"
)

func delayedUpdate(t *testing.T, model *ctdf.TransitModel, feedID string, tripID string, delay int) *ctdf.RealTimeTripUpdate {
	t.Helper()

	builder := ctdf.NewRealTimeTripTimesBuilder(model.ScheduledTripTimes(tripID)).WithState(ctdf.RealTimeStateUpdated)
	for stop := 0; stop < builder.NumStops(); stop++ {
		builder.WithArrivalDelay(stop, delay).WithDepartureDelay(stop, delay)
	}
	times, err := builder.Build()
	require.NoError(t, err)

	return &ctdf.RealTimeTripUpdate{
		FeedID:      feedID,
		Pattern:     model.PatternForTrip(tripID),
		TripTimes:   times,
		ServiceDate: realtimetest.ServiceDate,
	}
}

func TestUpdateAndCommit(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})

	_, err := manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 60))
	require.NoError(t, err)

	// nothing visible before commit
	assert.Nil(t, manager.Snapshot().RealTimeTripTimes("T1", realtimetest.ServiceDate))

	snapshot := manager.Commit()
	require.NotNil(t, snapshot)
	assert.Same(t, snapshot, manager.Snapshot())
	assert.Equal(t, 60, snapshot.TripTimes("T1", realtimetest.ServiceDate).ArrivalDelay(2))

	timetable := snapshot.Timetable(model.PatternForTrip("T1"), realtimetest.ServiceDate)
	require.NotNil(t, timetable)
	assert.Len(t, timetable.TripTimes, 1)

	// scheduled fallback for trips without realtime data
	scheduled := snapshot.TripTimes("T2", realtimetest.ServiceDate)
	require.NotNil(t, scheduled)
	assert.Equal(t, ctdf.RealTimeStateScheduled, scheduled.State)
	assert.Nil(t, snapshot.TripTimes("T2", ctdf.NewServiceDate(2024, time.June, 1)))
}

func TestLaterUpdateSupersedes(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})

	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 60))
	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 120))
	snapshot := manager.Commit()

	assert.Equal(t, 1, snapshot.Size())
	assert.Equal(t, 120, snapshot.TripTimes("T1", realtimetest.ServiceDate).DepartureDelay(0))
	assert.Len(t, snapshot.Timetable(model.PatternForTrip("T1"), realtimetest.ServiceDate).TripTimes, 1)
}

func TestModifiedPatternDeletesScheduledRun(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})

	original := model.PatternForTrip("T1")
	modifiedPattern := &ctdf.TripPattern{
		PrimaryIdentifier: "modified",
		Route:             original.Route,
		StopPattern:       original.StopPattern,
		OriginalPattern:   original,
		CreatedByRealtime: true,
	}

	update := delayedUpdate(t, model, "feed", "T1", 0)
	update.Pattern = modifiedPattern
	update.ScheduledPatternToDelete = original
	manager.UpdateBuffer(update)

	snapshot := manager.Commit()
	assert.Same(t, modifiedPattern, snapshot.PatternForTrip("T1", realtimetest.ServiceDate))
	deleted := snapshot.Timetable(original, realtimetest.ServiceDate).TripTimesForTrip("T1")
	require.NotNil(t, deleted)
	assert.True(t, deleted.IsDeleted())

	// going back to the scheduled pattern removes the modified run
	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 30))
	snapshot = manager.Commit()
	assert.Same(t, original, snapshot.PatternForTrip("T1", realtimetest.ServiceDate))
	assert.Nil(t, snapshot.Timetable(modifiedPattern, realtimetest.ServiceDate))
	assert.Equal(t, ctdf.RealTimeStateUpdated, snapshot.Timetable(original, realtimetest.ServiceDate).TripTimesForTrip("T1").State)
}

func TestClearBufferOnlyAffectsFeed(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})

	manager.UpdateBuffer(delayedUpdate(t, model, "first", "T1", 60))
	manager.UpdateBuffer(delayedUpdate(t, model, "second", "T2", 60))
	manager.ClearBuffer("first")
	snapshot := manager.Commit()

	assert.Nil(t, snapshot.RealTimeTripTimes("T1", realtimetest.ServiceDate))
	assert.NotNil(t, snapshot.RealTimeTripTimes("T2", realtimetest.ServiceDate))
	assert.Equal(t, 0, snapshot.FeedSize("first"))
	assert.Equal(t, 1, snapshot.FeedSize("second"))
}

func TestSnapshotIsolation(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})

	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 60))
	before := manager.Commit()

	first := delayedUpdate(t, model, "feed", "T1", 300)
	second := delayedUpdate(t, model, "feed", "T2", 300)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		manager.WithBuffer(func(buffer *Buffer) {
			buffer.Update(first)
			buffer.Update(second)
		})
		manager.Commit()
	}()

	// the reader keeps seeing its own snapshot however the writer interleaves
	for i := 0; i < 100; i++ {
		assert.Equal(t, 60, before.TripTimes("T1", realtimetest.ServiceDate).ArrivalDelay(0))
		assert.Nil(t, before.RealTimeTripTimes("T2", realtimetest.ServiceDate))
	}
	wg.Wait()

	after := manager.Snapshot()
	assert.Equal(t, 300, after.TripTimes("T1", realtimetest.ServiceDate).ArrivalDelay(0))
	assert.Equal(t, 60, before.TripTimes("T1", realtimetest.ServiceDate).ArrivalDelay(0))
	assert.Greater(t, after.Sequence, before.Sequence)
}

func TestCommitIfDirty(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})

	assert.Nil(t, manager.CommitIfDirty())

	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 60))
	assert.NotNil(t, manager.CommitIfDirty())
	assert.Nil(t, manager.CommitIfDirty())
}

func TestListenersAndPurge(t *testing.T) {
	model := realtimetest.Model()
	now := time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)
	manager := NewManager(model, ManagerOptions{PurgeAfterDays: 2, Now: func() time.Time { return now }})

	var written []string
	manager.AddListener(ListenerFunc(func(update *ctdf.RealTimeTripUpdate) {
		written = append(written, update.TripID())
	}))

	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 60))
	assert.Equal(t, []string{"T1"}, written)

	// 1 May is more than two days before 10 May
	snapshot := manager.Commit()
	assert.True(t, snapshot.IsEmpty())
}

func TestSeedBufferIsIndependent(t *testing.T) {
	model := realtimetest.Model()
	manager := NewManager(model, ManagerOptions{})
	manager.UpdateBuffer(delayedUpdate(t, model, "feed", "T1", 60))
	manager.Commit()

	seeded := manager.SeedBuffer()
	seeded.Update(delayedUpdate(t, model, "feed", "T2", 60))
	seeded.Clear("feed")

	assert.True(t, seeded.IsEmpty())
	assert.Equal(t, 1, manager.Snapshot().Size())
	assert.Nil(t, manager.CommitIfDirty())
}
