package ctdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScheduledTimes(t *testing.T, tripID string, times ...int) *ScheduledTripTimes {
	t.Helper()

	scheduled, err := NewScheduledTripTimes(&Trip{PrimaryIdentifier: tripID}, times, append([]int(nil), times...), nil, nil)
	require.NoError(t, err)

	return scheduled
}

func TestScheduledTripTimesRejectsDecreasingTimes(t *testing.T) {
	_, err := NewScheduledTripTimes(&Trip{PrimaryIdentifier: "T1"}, []int{0, 300, 200}, []int{0, 300, 200}, nil, nil)

	var validationError *DataValidationError
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, DataValidationNegativeHopTime, validationError.Kind)
	assert.Equal(t, 2, validationError.StopIndex)
	assert.Equal(t, "T1", validationError.TripID)
}

func TestBuilderRejectsNegativeDwell(t *testing.T) {
	builder := NewRealTimeTripTimesBuilder(testScheduledTimes(t, "T1", 0, 300, 600))
	builder.WithArrivalDelay(1, 120).WithDepartureDelay(1, 60)

	_, err := builder.Build()

	var validationError *DataValidationError
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, DataValidationNegativeDwellTime, validationError.Kind)
	assert.Equal(t, 1, validationError.StopIndex)
}

func TestBuilderRejectsNegativeHop(t *testing.T) {
	builder := NewRealTimeTripTimesBuilder(testScheduledTimes(t, "T1", 0, 300, 600))
	builder.WithArrivalDelay(1, -400).WithDepartureDelay(1, -400)

	_, err := builder.Build()

	var validationError *DataValidationError
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, DataValidationNegativeHopTime, validationError.Kind)
	assert.Equal(t, 1, validationError.StopIndex)
}

func TestBuilderNeverClamps(t *testing.T) {
	builder := NewRealTimeTripTimesBuilder(testScheduledTimes(t, "T1", 0, 300))
	builder.WithDepartureDelay(0, 400)

	times, err := builder.Build()
	assert.Nil(t, times)
	assert.Error(t, err)
}

func TestRealTimeTripTimesDelays(t *testing.T) {
	builder := NewRealTimeTripTimesBuilder(testScheduledTimes(t, "T1", 0, 300, 600))
	builder.WithState(RealTimeStateUpdated)
	builder.WithArrivalDelay(1, 60).WithDepartureDelay(1, 90)
	builder.WithInterpolatedArrivalDelay(2, 90).WithInterpolatedDepartureDelay(2, 90)

	assert.True(t, builder.HasRealTimeData(1))
	assert.False(t, builder.HasRealTimeData(2))
	assert.Equal(t, 1, builder.FirstStopWithRealTimeData())

	times, err := builder.Build()
	require.NoError(t, err)

	assert.Equal(t, RealTimeStateUpdated, times.State)
	assert.Equal(t, 60, times.ArrivalDelay(1))
	assert.Equal(t, 90, times.DepartureDelay(1))
	assert.Equal(t, 690, times.ArrivalTime(2))
	assert.Equal(t, 0, times.DepartureDelay(0))
	assert.True(t, times.IsRealTimeUpdated(1))
}

func TestCreateBuilderClearsExplicitData(t *testing.T) {
	builder := NewRealTimeTripTimesBuilder(testScheduledTimes(t, "T1", 0, 300))
	builder.WithState(RealTimeStateUpdated).WithArrivalDelay(1, 30).WithDepartureDelay(1, 30).WithNoData(0)
	times, err := builder.Build()
	require.NoError(t, err)

	next, err := times.CreateBuilder()
	require.NoError(t, err)
	assert.False(t, next.HasRealTimeData(1))
	assert.Equal(t, 30, next.ArrivalDelay(1))
	assert.Equal(t, StopRealTimeStateDefault, next.StopState(0))

	next.WithArrivalDelay(1, 60).WithDepartureDelay(1, 60)
	updated, err := next.Build()
	require.NoError(t, err)

	// original is untouched
	assert.Equal(t, 30, times.ArrivalDelay(1))
	assert.Equal(t, 60, updated.ArrivalDelay(1))
	assert.Same(t, times.Scheduled, updated.Scheduled)
}

func TestCopyIsIndependent(t *testing.T) {
	builder := NewRealTimeTripTimesBuilder(testScheduledTimes(t, "T1", 0, 300))
	builder.WithState(RealTimeStateUpdated).WithArrivalDelay(1, 30)
	times, err := builder.Build()
	require.NoError(t, err)

	duplicate, err := times.Copy()
	require.NoError(t, err)
	assert.Equal(t, times.Arrivals, duplicate.Arrivals)
	assert.Same(t, times.Scheduled, duplicate.Scheduled)

	duplicate.Arrivals[1] = 0
	assert.Equal(t, 330, times.ArrivalTime(1))
}

func TestScheduledStopSequenceLookup(t *testing.T) {
	scheduled, err := NewScheduledTripTimes(&Trip{PrimaryIdentifier: "T1"}, []int{0, 60, 120}, []int{0, 60, 120}, []int{5, 10, 15}, nil)
	require.NoError(t, err)

	index, found := scheduled.StopIndexOfSequence(10)
	assert.True(t, found)
	assert.Equal(t, 1, index)

	_, found = scheduled.StopIndexOfSequence(11)
	assert.False(t, found)
}
