package tripupdate

import (
	"errors"
	"fmt"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

type ErrorType string

const (
	// structural
	ErrorNoTripID                  ErrorType = "NO_TRIP_ID"
	ErrorNoStopReference           ErrorType = "NO_STOP_REFERENCE"
	ErrorMixedOrderAndVisitNumber  ErrorType = "MIXED_ORDER_AND_VISIT_NUMBER"
	ErrorEmptyStopPointRef         ErrorType = "EMPTY_STOP_POINT_REF"
	ErrorNotImplementedUnscheduled ErrorType = "NOT_IMPLEMENTED_UNSCHEDULED"
	ErrorNotImplementedDuplicated  ErrorType = "NOT_IMPLEMENTED_DUPLICATED"
	ErrorInvalidInputStructure     ErrorType = "INVALID_INPUT_STRUCTURE"
	ErrorNotMonitored              ErrorType = "NOT_MONITORED"
	ErrorNoStartDate               ErrorType = "NO_START_DATE"
	ErrorNoUpdates                 ErrorType = "NO_UPDATES"

	// resolution
	ErrorTripNotFound         ErrorType = "TRIP_NOT_FOUND"
	ErrorNoServiceOnDate      ErrorType = "NO_SERVICE_ON_DATE"
	ErrorOutsideServicePeriod ErrorType = "OUTSIDE_SERVICE_PERIOD"
	ErrorUnknownStop          ErrorType = "UNKNOWN_STOP"

	// validation
	ErrorTooFewStops                ErrorType = "TOO_FEW_STOPS"
	ErrorTooManyStops               ErrorType = "TOO_MANY_STOPS"
	ErrorInvalidStopSequence        ErrorType = "INVALID_STOP_SEQUENCE"
	ErrorStopMismatch               ErrorType = "STOP_MISMATCH"
	ErrorTripAlreadyExists          ErrorType = "TRIP_ALREADY_EXISTS"
	ErrorNoTripForCancellationFound ErrorType = "NO_TRIP_FOR_CANCELLATION_FOUND"

	// handling
	ErrorNegativeDwellTime    ErrorType = "NEGATIVE_DWELL_TIME"
	ErrorNegativeHopTime      ErrorType = "NEGATIVE_HOP_TIME"
	ErrorCannotResolveAgency  ErrorType = "CANNOT_RESOLVE_AGENCY"
	ErrorInvalidArrivalTime   ErrorType = "INVALID_ARRIVAL_TIME"
	ErrorInvalidDepartureTime ErrorType = "INVALID_DEPARTURE_TIME"

	ErrorUnknown ErrorType = "UNKNOWN"
)

const noStopIndex = -1

// UpdateError is the failure of a single trip update. It never aborts the
// rest of a batch.
type UpdateError struct {
	Type      ErrorType
	TripID    string
	StopIndex int
}

func NewUpdateError(tripID string, errorType ErrorType) *UpdateError {
	return &UpdateError{Type: errorType, TripID: tripID, StopIndex: noStopIndex}
}

func NewStopUpdateError(tripID string, errorType ErrorType, stopIndex int) *UpdateError {
	return &UpdateError{Type: errorType, TripID: tripID, StopIndex: stopIndex}
}

func (e *UpdateError) HasStopIndex() bool {
	return e.StopIndex != noStopIndex
}

func (e *UpdateError) Error() string {
	if e.HasStopIndex() {
		return fmt.Sprintf("%s for trip %q at stop index %d", e.Type, e.TripID, e.StopIndex)
	}

	return fmt.Sprintf("%s for trip %q", e.Type, e.TripID)
}

// FromDataValidation converts trip times construction failures
func FromDataValidation(err error) *UpdateError {
	var validationError *ctdf.DataValidationError
	if !errors.As(err, &validationError) {
		return NewUpdateError("", ErrorUnknown)
	}

	errorType := ErrorNegativeHopTime
	if validationError.Kind == ctdf.DataValidationNegativeDwellTime {
		errorType = ErrorNegativeDwellTime
	}

	return NewStopUpdateError(validationError.TripID, errorType, validationError.StopIndex)
}

// AsUpdateError returns err as an UpdateError, wrapping unknown errors
func AsUpdateError(tripID string, err error) *UpdateError {
	var updateError *UpdateError
	if errors.As(err, &updateError) {
		return updateError
	}

	var validationError *ctdf.DataValidationError
	if errors.As(err, &validationError) {
		return FromDataValidation(err)
	}

	return NewUpdateError(tripID, ErrorUnknown)
}

type WarningType string

const (
	WarningUnknownStopsRemovedFromAddedTrip WarningType = "UNKNOWN_STOPS_REMOVED_FROM_ADDED_TRIP"
)

// UpdateSuccess is an applied update, possibly with warnings
type UpdateSuccess struct {
	Warnings []WarningType
}

func NoWarnings() UpdateSuccess {
	return UpdateSuccess{}
}

func WithWarnings(warnings ...WarningType) UpdateSuccess {
	return UpdateSuccess{Warnings: warnings}
}

func (s UpdateSuccess) AddWarnings(warnings ...WarningType) UpdateSuccess {
	return UpdateSuccess{Warnings: append(append([]WarningType(nil), s.Warnings...), warnings...)}
}
