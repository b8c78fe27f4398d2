package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/timetable-realtime/pkg/realtime/realtimetest"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

func newResolver() *resolver.Resolver {
	model := realtimetest.Model()
	return resolver.New(model, snapshot.NewBuffer(model))
}

func calls(stopIDs ...string) []tripupdate.ParsedStopTimeUpdate {
	stopTimeUpdates := make([]tripupdate.ParsedStopTimeUpdate, len(stopIDs))
	for i, stopID := range stopIDs {
		stopTimeUpdates[i] = tripupdate.ParsedStopTimeUpdate{
			StopReference: tripupdate.StopReference{StopID: stopID},
			Status:        tripupdate.StopUpdateStatusScheduled,
		}
	}
	return stopTimeUpdates
}

func update(updateType tripupdate.UpdateType, tripID string, options tripupdate.UpdateOptions, stopTimeUpdates []tripupdate.ParsedStopTimeUpdate) *tripupdate.ParsedTripUpdate {
	return &tripupdate.ParsedTripUpdate{
		Type:                updateType,
		Trip:                tripupdate.TripReference{TripID: tripID},
		ServiceDate:         realtimetest.ServiceDate,
		ServiceDateExplicit: true,
		StopTimeUpdates:     stopTimeUpdates,
		Options:             options,
	}
}

func requireErrorType(t *testing.T, err error, errorType tripupdate.ErrorType, stopIndex int) {
	t.Helper()

	var updateError *tripupdate.UpdateError
	require.ErrorAs(t, err, &updateError)
	assert.Equal(t, errorType, updateError.Type)
	assert.Equal(t, stopIndex, updateError.StopIndex)
}

func TestValidateFullUpdate(t *testing.T) {
	r := newResolver()
	siri := tripupdate.DefaultSIRIOptions()

	tests := []struct {
		name      string
		stops     []string
		errorType tripupdate.ErrorType
		stopIndex int
	}{
		{name: "exact", stops: []string{"A", "B", "C1", "D"}},
		{name: "platform change", stops: []string{"A", "B", "C2", "D"}},
		{name: "too few", stops: []string{"A", "B", "C1"}, errorType: tripupdate.ErrorTooFewStops, stopIndex: -1},
		{name: "too many", stops: []string{"A", "B", "C1", "D", "E"}, errorType: tripupdate.ErrorTooManyStops, stopIndex: -1},
		{name: "other station", stops: []string{"A", "E", "C1", "D"}, errorType: tripupdate.ErrorStopMismatch, stopIndex: 1},
		{name: "unknown stop", stops: []string{"A", "B", "X", "D"}, errorType: tripupdate.ErrorUnknownStop, stopIndex: 2},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			parsed := update(tripupdate.UpdateTypeUpdateExisting, "T1", siri, calls(test.stops...))
			resolved, err := r.ResolveExistingTrip(parsed)
			require.NoError(t, err)

			err = ValidateExistingTrip(parsed, resolved)
			if test.errorType == "" {
				assert.NoError(t, err)
				return
			}
			requireErrorType(t, err, test.errorType, test.stopIndex)
		})
	}
}

func TestValidateFullUpdateRejectsSequences(t *testing.T) {
	r := newResolver()

	stopTimeUpdates := calls("A", "B", "C1", "D")
	sequence := 2
	stopTimeUpdates[2].StopSequence = &sequence

	parsed := update(tripupdate.UpdateTypeUpdateExisting, "T1", tripupdate.DefaultSIRIOptions(), stopTimeUpdates)
	resolved, err := r.ResolveExistingTrip(parsed)
	require.NoError(t, err)

	requireErrorType(t, ValidateExistingTrip(parsed, resolved), tripupdate.ErrorInvalidStopSequence, -1)
}

func TestValidatePartialUpdate(t *testing.T) {
	r := newResolver()

	parsed := update(tripupdate.UpdateTypeUpdateExisting, "T1", tripupdate.DefaultGTFSRTOptions(), calls("C1"))
	resolved, err := r.ResolveExistingTrip(parsed)
	require.NoError(t, err)
	assert.NoError(t, ValidateExistingTrip(parsed, resolved))

	stopTimeUpdates := calls("")
	sequence := 9
	stopTimeUpdates[0].StopSequence = &sequence
	parsed = update(tripupdate.UpdateTypeUpdateExisting, "T1", tripupdate.DefaultGTFSRTOptions(), stopTimeUpdates)
	resolved, err = r.ResolveExistingTrip(parsed)
	require.NoError(t, err)
	requireErrorType(t, ValidateExistingTrip(parsed, resolved), tripupdate.ErrorInvalidStopSequence, 0)

	parsed = update(tripupdate.UpdateTypeUpdateExisting, "T1", tripupdate.DefaultGTFSRTOptions(), calls("E"))
	resolved, err = r.ResolveExistingTrip(parsed)
	require.NoError(t, err)
	requireErrorType(t, ValidateExistingTrip(parsed, resolved), tripupdate.ErrorUnknownStop, 0)
}

func TestValidateExtraCalls(t *testing.T) {
	r := newResolver()

	tests := []struct {
		name       string
		constraint tripupdate.StopReplacementConstraint
		stops      []string
		extra      []bool
		errorType  tripupdate.ErrorType
		stopIndex  int
	}{
		{
			name:       "inserted stop",
			constraint: tripupdate.StopReplacementSameParentStation,
			stops:      []string{"A", "E", "B", "C1", "D"},
			extra:      []bool{false, true, false, false, false},
		},
		{
			name:       "count mismatch",
			constraint: tripupdate.StopReplacementAnyStop,
			stops:      []string{"A", "E", "B", "D"},
			extra:      []bool{false, true, false, false},
			errorType:  tripupdate.ErrorTooFewStops,
			stopIndex:  -1,
		},
		{
			name:       "same station substitution",
			constraint: tripupdate.StopReplacementSameParentStation,
			stops:      []string{"A", "B", "E", "C2", "D"},
			extra:      []bool{false, false, true, false, false},
		},
		{
			name:       "substitution not allowed",
			constraint: tripupdate.StopReplacementNotAllowed,
			stops:      []string{"A", "B", "E", "C2", "D"},
			extra:      []bool{false, false, true, false, false},
			errorType:  tripupdate.ErrorStopMismatch,
			stopIndex:  3,
		},
		{
			name:       "any stop",
			constraint: tripupdate.StopReplacementAnyStop,
			stops:      []string{"A", "E", "C1", "D", "B"},
			extra:      []bool{false, false, false, false, true},
		},
		{
			name:       "other station",
			constraint: tripupdate.StopReplacementSameParentStation,
			stops:      []string{"A", "E", "C1", "D", "B"},
			extra:      []bool{false, false, false, false, true},
			errorType:  tripupdate.ErrorStopMismatch,
			stopIndex:  1,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			options := tripupdate.DefaultSIRIOptions()
			options.StopReplacementConstraint = test.constraint

			stopTimeUpdates := calls(test.stops...)
			for i := range stopTimeUpdates {
				stopTimeUpdates[i].IsExtraCall = test.extra[i]
			}

			parsed := update(tripupdate.UpdateTypeAddExtraCalls, "T1", options, stopTimeUpdates)
			resolved, err := r.ResolveExistingTrip(parsed)
			require.NoError(t, err)

			err = ValidateExtraCalls(parsed, resolved)
			if test.errorType == "" {
				assert.NoError(t, err)
				return
			}
			requireErrorType(t, err, test.errorType, test.stopIndex)
		})
	}
}

func TestValidateModification(t *testing.T) {
	r := newResolver()

	parsed := update(tripupdate.UpdateTypeModifyTrip, "T1", tripupdate.DefaultGTFSRTOptions(), calls("A"))
	resolved, err := r.ResolveExistingTrip(parsed)
	require.NoError(t, err)
	requireErrorType(t, ValidateModification(parsed, resolved), tripupdate.ErrorTooFewStops, -1)

	parsed = update(tripupdate.UpdateTypeModifyTrip, "T1", tripupdate.DefaultGTFSRTOptions(), calls("A", "X", "D"))
	resolved, err = r.ResolveExistingTrip(parsed)
	require.NoError(t, err)
	requireErrorType(t, ValidateModification(parsed, resolved), tripupdate.ErrorUnknownStop, 1)

	parsed = update(tripupdate.UpdateTypeModifyTrip, "T1", tripupdate.DefaultGTFSRTOptions(), calls("A", "E"))
	resolved, err = r.ResolveExistingTrip(parsed)
	require.NoError(t, err)
	assert.NoError(t, ValidateModification(parsed, resolved))
}

func TestValidateNewTrip(t *testing.T) {
	r := newResolver()

	parsed := update(tripupdate.UpdateTypeAddNewTrip, "NEW", tripupdate.DefaultGTFSRTOptions(), calls("A", "X", "E"))
	resolved, err := r.ResolveNewTrip(parsed)
	require.NoError(t, err)

	success, err := ValidateNewTrip(parsed, resolved)
	require.NoError(t, err)
	assert.Equal(t, []tripupdate.WarningType{tripupdate.WarningUnknownStopsRemovedFromAddedTrip}, success.Warnings)

	parsed.Options.StrictNewTrips = true
	_, err = ValidateNewTrip(parsed, resolved)
	requireErrorType(t, err, tripupdate.ErrorUnknownStop, 1)

	parsed = update(tripupdate.UpdateTypeAddNewTrip, "NEW", tripupdate.DefaultGTFSRTOptions(), calls("A", "X", "Y"))
	resolved, err = r.ResolveNewTrip(parsed)
	require.NoError(t, err)
	_, err = ValidateNewTrip(parsed, resolved)
	requireErrorType(t, err, tripupdate.ErrorTooFewStops, -1)

	parsed = update(tripupdate.UpdateTypeAddNewTrip, "T1", tripupdate.DefaultGTFSRTOptions(), calls("A", "E"))
	resolved, err = r.ResolveNewTrip(parsed)
	require.NoError(t, err)
	_, err = ValidateNewTrip(parsed, resolved)
	requireErrorType(t, err, tripupdate.ErrorTripAlreadyExists, -1)
}

func TestValidateTripRemoval(t *testing.T) {
	r := newResolver()

	parsed := update(tripupdate.UpdateTypeCancelTrip, "MISSING", tripupdate.DefaultGTFSRTOptions(), nil)
	resolved, err := r.ResolveTripRemoval(parsed)
	require.NoError(t, err)
	requireErrorType(t, ValidateTripRemoval(resolved), tripupdate.ErrorNoTripForCancellationFound, -1)

	parsed.Trip.TripID = "T2"
	resolved, err = r.ResolveTripRemoval(parsed)
	require.NoError(t, err)
	assert.NoError(t, ValidateTripRemoval(resolved))
}
