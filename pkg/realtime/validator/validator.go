// Package validator checks the preconditions of resolved trip updates.
// Handlers only run on updates that passed validation.
package validator

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

const minimumStops = 2

// ValidateExistingTrip checks that every stop time update addresses a stop of
// the scheduled pattern
func ValidateExistingTrip(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedExistingTrip) error {
	tripID := resolved.Trip.PrimaryIdentifier

	if update.Options.StopUpdateStrategy == tripupdate.StopUpdateStrategyFull {
		if err := validateFullUpdate(update, tripID, resolved.ScheduledPattern.NumStops()); err != nil {
			return err
		}
	}

	for i, stopTimeUpdate := range update.StopTimeUpdates {
		if resolved.StopIndices[i] >= 0 {
			continue
		}

		if stopTimeUpdate.StopSequence != nil {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorInvalidStopSequence, i)
		}
		return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorUnknownStop, i)
	}

	// a matched stop may name another stop than the pattern, a platform change
	for i, stop := range resolved.Stops {
		if stop == nil {
			if update.Options.StopUpdateStrategy == tripupdate.StopUpdateStrategyFull {
				return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorUnknownStop, i)
			}
			continue
		}

		scheduled := resolved.ScheduledPattern.Stop(resolved.StopIndices[i])
		if !replacementAllowed(update.Options.StopReplacementConstraint, scheduled, stop) {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorStopMismatch, i)
		}
	}

	return nil
}

// ValidateModification checks a replacement stop list
func ValidateModification(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedExistingTrip) error {
	tripID := resolved.Trip.PrimaryIdentifier

	if len(update.StopTimeUpdates) < minimumStops {
		return tripupdate.NewUpdateError(tripID, tripupdate.ErrorTooFewStops)
	}

	for i, stop := range resolved.Stops {
		if stop == nil {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorUnknownStop, i)
		}
	}

	return nil
}

// ValidateExtraCalls checks that apart from the extra calls the update visits
// the stops of the scheduled pattern, allowing substitutions according to
// the stop replacement constraint
func ValidateExtraCalls(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedExistingTrip) error {
	tripID := resolved.Trip.PrimaryIdentifier

	if err := ValidateModification(update, resolved); err != nil {
		return err
	}

	pattern := resolved.ScheduledPattern
	nonExtra := 0
	for _, stopTimeUpdate := range update.StopTimeUpdates {
		if !stopTimeUpdate.IsExtraCall {
			nonExtra++
		}
	}

	if nonExtra < pattern.NumStops() {
		return tripupdate.NewUpdateError(tripID, tripupdate.ErrorTooFewStops)
	}
	if nonExtra > pattern.NumStops() {
		return tripupdate.NewUpdateError(tripID, tripupdate.ErrorTooManyStops)
	}

	position := 0
	for i, stopTimeUpdate := range update.StopTimeUpdates {
		if stopTimeUpdate.IsExtraCall {
			continue
		}

		if !replacementAllowed(update.Options.StopReplacementConstraint, pattern.Stop(position), resolved.Stops[i]) {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorStopMismatch, i)
		}
		position++
	}

	return nil
}

// ValidateNewTrip checks an added trip. Outside strict mode unknown stops are
// dropped later by the handler, so only a warning is returned.
func ValidateNewTrip(update *tripupdate.ParsedTripUpdate, resolved *resolver.ResolvedNewTrip) (tripupdate.UpdateSuccess, error) {
	if resolved.ExistsInSchedule {
		return tripupdate.NoWarnings(), tripupdate.NewUpdateError(resolved.TripID, tripupdate.ErrorTripAlreadyExists)
	}

	known := 0
	for i, stop := range resolved.Stops {
		if stop != nil {
			known++
			continue
		}

		if update.Options.StrictNewTrips {
			return tripupdate.NoWarnings(), tripupdate.NewStopUpdateError(resolved.TripID, tripupdate.ErrorUnknownStop, i)
		}
	}

	if known < minimumStops {
		return tripupdate.NoWarnings(), tripupdate.NewUpdateError(resolved.TripID, tripupdate.ErrorTooFewStops)
	}

	if known < len(resolved.Stops) {
		return tripupdate.WithWarnings(tripupdate.WarningUnknownStopsRemovedFromAddedTrip), nil
	}

	return tripupdate.NoWarnings(), nil
}

func ValidateTripRemoval(resolved *resolver.ResolvedTripRemoval) error {
	if !resolved.Found() {
		return tripupdate.NewUpdateError(resolved.TripID, tripupdate.ErrorNoTripForCancellationFound)
	}

	return nil
}

func validateFullUpdate(update *tripupdate.ParsedTripUpdate, tripID string, numStops int) error {
	if update.UsesStopSequences() {
		return tripupdate.NewUpdateError(tripID, tripupdate.ErrorInvalidStopSequence)
	}

	if len(update.StopTimeUpdates) < numStops {
		return tripupdate.NewUpdateError(tripID, tripupdate.ErrorTooFewStops)
	}
	if len(update.StopTimeUpdates) > numStops {
		return tripupdate.NewUpdateError(tripID, tripupdate.ErrorTooManyStops)
	}

	return nil
}

func replacementAllowed(constraint tripupdate.StopReplacementConstraint, scheduled *ctdf.Stop, actual *ctdf.Stop) bool {
	if scheduled.PrimaryIdentifier == actual.PrimaryIdentifier {
		return true
	}

	switch constraint {
	case tripupdate.StopReplacementNotAllowed:
		return false
	case tripupdate.StopReplacementSameParentStation:
		return scheduled.IsPartOfSameStationAs(actual)
	default:
		return true
	}
}
