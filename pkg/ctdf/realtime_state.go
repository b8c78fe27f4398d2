package ctdf

import "fmt"

type RealTimeState string

const (
	RealTimeStateScheduled RealTimeState = "SCHEDULED"
	RealTimeStateUpdated   RealTimeState = "UPDATED"
	RealTimeStateCanceled  RealTimeState = "CANCELED"
	RealTimeStateDeleted   RealTimeState = "DELETED"
	RealTimeStateAdded     RealTimeState = "ADDED"
	RealTimeStateModified  RealTimeState = "MODIFIED"
)

type StopRealTimeState string

const (
	StopRealTimeStateDefault              StopRealTimeState = "DEFAULT"
	StopRealTimeStateNoData               StopRealTimeState = "NO_DATA"
	StopRealTimeStateCancelled            StopRealTimeState = "CANCELLED"
	StopRealTimeStateRecorded             StopRealTimeState = "RECORDED"
	StopRealTimeStateInaccuratePrediction StopRealTimeState = "INACCURATE_PREDICTIONS"
)

type OccupancyStatus string

const (
	OccupancyStatusNoDataAvailable         OccupancyStatus = "NO_DATA_AVAILABLE"
	OccupancyStatusEmpty                   OccupancyStatus = "EMPTY"
	OccupancyStatusManySeatsAvailable      OccupancyStatus = "MANY_SEATS_AVAILABLE"
	OccupancyStatusFewSeatsAvailable       OccupancyStatus = "FEW_SEATS_AVAILABLE"
	OccupancyStatusStandingRoomOnly        OccupancyStatus = "STANDING_ROOM_ONLY"
	OccupancyStatusCrushedStandingRoomOnly OccupancyStatus = "CRUSHED_STANDING_ROOM_ONLY"
	OccupancyStatusFull                    OccupancyStatus = "FULL"
	OccupancyStatusNotAcceptingPassengers  OccupancyStatus = "NOT_ACCEPTING_PASSENGERS"
)

type DataValidationErrorKind string

const (
	DataValidationNegativeDwellTime DataValidationErrorKind = "NEGATIVE_DWELL_TIME"
	DataValidationNegativeHopTime   DataValidationErrorKind = "NEGATIVE_HOP_TIME"
)

// DataValidationError is raised when trip times are not increasing
type DataValidationError struct {
	Kind      DataValidationErrorKind
	TripID    string
	StopIndex int
}

func (e *DataValidationError) Error() string {
	if e.Kind == DataValidationNegativeDwellTime {
		return fmt.Sprintf("Negative dwell time for trip %s at stop index %d", e.TripID, e.StopIndex)
	}

	return fmt.Sprintf("Negative hop time for trip %s at stop index %d", e.TripID, e.StopIndex)
}

func validateIncreasingTimes(tripID string, arrivals []int, departures []int) error {
	for i := range arrivals {
		if departures[i] < arrivals[i] {
			return &DataValidationError{Kind: DataValidationNegativeDwellTime, TripID: tripID, StopIndex: i}
		}
		if i > 0 && arrivals[i] < departures[i-1] {
			return &DataValidationError{Kind: DataValidationNegativeHopTime, TripID: tripID, StopIndex: i}
		}
	}

	return nil
}
