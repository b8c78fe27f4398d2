package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/realtimetest"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

func newResolver() (*Resolver, *snapshot.Buffer) {
	model := realtimetest.Model()
	buffer := snapshot.NewBuffer(model)

	return New(model, buffer), buffer
}

func sequence(value int) *int {
	return &value
}

func stopUpdate(stopID string) tripupdate.ParsedStopTimeUpdate {
	return tripupdate.ParsedStopTimeUpdate{
		StopReference: tripupdate.StopReference{StopID: stopID, Strategy: tripupdate.StopResolutionDirect},
		Status:        tripupdate.StopUpdateStatusScheduled,
	}
}

func existingUpdate(tripID string, stopTimeUpdates ...tripupdate.ParsedStopTimeUpdate) *tripupdate.ParsedTripUpdate {
	return &tripupdate.ParsedTripUpdate{
		Type:                tripupdate.UpdateTypeUpdateExisting,
		Trip:                tripupdate.TripReference{TripID: tripID},
		ServiceDate:         realtimetest.ServiceDate,
		ServiceDateExplicit: true,
		StopTimeUpdates:     stopTimeUpdates,
		Options:             tripupdate.DefaultGTFSRTOptions(),
	}
}

func TestResolveExistingTrip(t *testing.T) {
	resolver, _ := newResolver()

	bySequence := stopUpdate("")
	bySequence.StopSequence = sequence(1)
	unknownSequence := stopUpdate("")
	unknownSequence.StopSequence = sequence(10)

	update := existingUpdate("T1", bySequence, stopUpdate("D"), unknownSequence, stopUpdate("A"))
	resolved, err := resolver.ResolveExistingTrip(update)
	require.NoError(t, err)

	assert.Equal(t, "T1", resolved.Trip.PrimaryIdentifier)
	assert.Equal(t, realtimetest.ServiceDate, resolved.ServiceDate)
	assert.Equal(t, 0, resolved.TimeShift)
	assert.Nil(t, resolved.CurrentTimes)

	// A is before the cursor left by D so it is not matched
	assert.Equal(t, []int{1, 3, -1, -1}, resolved.StopIndices)
	assert.Nil(t, resolved.Stops[0])
	assert.Equal(t, "D", resolved.Stops[1].PrimaryIdentifier)
}

func TestResolveIsRepeatable(t *testing.T) {
	resolver, _ := newResolver()
	update := existingUpdate("T2", stopUpdate("B"))

	first, err := resolver.ResolveExistingTrip(update)
	require.NoError(t, err)
	second, err := resolver.ResolveExistingTrip(update)
	require.NoError(t, err)

	assert.Same(t, first.Trip, second.Trip)
	assert.Same(t, first.ScheduledPattern, second.ScheduledPattern)
	assert.Equal(t, first.ServiceDate, second.ServiceDate)
	assert.Equal(t, first.StopIndices, second.StopIndices)
}

func TestResolveSameStationPlatform(t *testing.T) {
	resolver, _ := newResolver()

	update := existingUpdate("T1", stopUpdate("C2"))
	resolved, err := resolver.ResolveExistingTrip(update)
	require.NoError(t, err)

	assert.Equal(t, []int{2}, resolved.StopIndices)
}

func TestResolveFullStrategyIsPositional(t *testing.T) {
	resolver, _ := newResolver()

	update := existingUpdate("T3", stopUpdate("A"), stopUpdate("E"), stopUpdate("B"))
	update.Options = tripupdate.DefaultSIRIOptions()

	resolved, err := resolver.ResolveExistingTrip(update)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, -1}, resolved.StopIndices)
}

func TestResolveServiceDate(t *testing.T) {
	resolver, _ := newResolver()

	update := existingUpdate("T1")
	update.ServiceDate = ctdf.NewServiceDate(2024, time.June, 3)
	_, err := resolver.ResolveExistingTrip(update)
	var updateError *tripupdate.UpdateError
	require.ErrorAs(t, err, &updateError)
	assert.Equal(t, tripupdate.ErrorOutsideServicePeriod, updateError.Type)

	resolver.Model().RemoveServiceDate("WEEK", ctdf.NewServiceDate(2024, time.May, 2))
	update.ServiceDate = ctdf.NewServiceDate(2024, time.May, 2)
	_, err = resolver.ResolveExistingTrip(update)
	require.ErrorAs(t, err, &updateError)
	assert.Equal(t, tripupdate.ErrorNoServiceOnDate, updateError.Type)

	update.ServiceDate = ctdf.ServiceDate{}
	_, err = resolver.ResolveExistingTrip(update)
	require.ErrorAs(t, err, &updateError)
	assert.Equal(t, tripupdate.ErrorNoStartDate, updateError.Type)
}

func TestResolveUnknownTrip(t *testing.T) {
	resolver, _ := newResolver()

	_, err := resolver.ResolveExistingTrip(existingUpdate("NOPE"))
	var updateError *tripupdate.UpdateError
	require.ErrorAs(t, err, &updateError)
	assert.Equal(t, tripupdate.ErrorTripNotFound, updateError.Type)
	assert.Equal(t, "NOPE", updateError.TripID)
}

func TestFuzzyTripMatching(t *testing.T) {
	resolver, _ := newResolver()

	reference := tripupdate.TripReference{TripID: "unknown", RouteID: "R1", StartTime: "09:00:00"}
	assert.Nil(t, resolver.ResolveTrip(reference, realtimetest.ServiceDate))

	reference.FuzzyMatching = true
	trip := resolver.ResolveTrip(reference, realtimetest.ServiceDate)
	require.NotNil(t, trip)
	assert.Equal(t, "T2", trip.PrimaryIdentifier)

	reference.StartTime = " 09:00:00"
	require.NotNil(t, resolver.ResolveTrip(reference, realtimetest.ServiceDate))

	reference.StartTime = "09:01:00"
	assert.Nil(t, resolver.ResolveTrip(reference, realtimetest.ServiceDate))

	reference.StartTime = "09:-1:00"
	assert.Nil(t, resolver.ResolveTrip(reference, realtimetest.ServiceDate))
}

func TestResolveAssignedStop(t *testing.T) {
	resolver, _ := newResolver()

	reference := tripupdate.StopReference{StopID: "C1", AssignedStopID: "C2", Strategy: tripupdate.StopResolutionAssigned}
	assert.Equal(t, "C2", resolver.ResolveStop(reference).PrimaryIdentifier)

	reference.Strategy = tripupdate.StopResolutionDirect
	assert.Equal(t, "C1", resolver.ResolveStop(reference).PrimaryIdentifier)

	assert.Nil(t, resolver.ResolveStop(tripupdate.StopReference{StopID: "missing"}))
}

func TestResolveNewAndRemoval(t *testing.T) {
	resolver, _ := newResolver()

	update := &tripupdate.ParsedTripUpdate{
		Type:            tripupdate.UpdateTypeAddNewTrip,
		Trip:            tripupdate.TripReference{TripID: "NEW1"},
		ServiceDate:     realtimetest.ServiceDate,
		StopTimeUpdates: []tripupdate.ParsedStopTimeUpdate{stopUpdate("A"), stopUpdate("X")},
	}

	resolved, err := resolver.ResolveNewTrip(update)
	require.NoError(t, err)
	assert.False(t, resolved.ExistsInSchedule)
	assert.False(t, resolved.IsUpdateToAddedTrip)
	assert.NotNil(t, resolved.Stops[0])
	assert.Nil(t, resolved.Stops[1])

	update.Type = tripupdate.UpdateTypeCancelTrip
	removal, err := resolver.ResolveTripRemoval(update)
	require.NoError(t, err)
	assert.False(t, removal.Found())

	update.Trip.TripID = "T1"
	removal, err = resolver.ResolveTripRemoval(update)
	require.NoError(t, err)
	assert.True(t, removal.Found())
	assert.False(t, removal.IsAddedTrip)
}
