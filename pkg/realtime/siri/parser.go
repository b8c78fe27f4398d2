// Package siri decodes SIRI-ET estimated vehicle journeys into the canonical
// update model. SIRI only carries absolute times so no delay is ever
// propagated forwards.
package siri

import (
	"strings"
	"time"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"golang.org/x/exp/slices"
)

// Parse converts one EstimatedVehicleJourney
func Parse(journey *EstimatedVehicleJourney, context tripupdate.ParseContext) (*tripupdate.ParsedTripUpdate, error) {
	if journey == nil {
		return nil, tripupdate.NewUpdateError("", tripupdate.ErrorInvalidInputStructure)
	}

	tripID := journey.TripID()
	if tripID == "" {
		return nil, tripupdate.NewUpdateError("", tripupdate.ErrorNoTripID)
	}
	if !journey.IsMonitored() && !journey.Cancellation {
		return nil, tripupdate.NewUpdateError(tripID, tripupdate.ErrorNotMonitored)
	}

	calls := journey.Calls()
	if err := validateCallOrdering(tripID, calls); err != nil {
		return nil, err
	}

	location := context.Location()
	serviceDate, explicit := serviceDateOf(journey, calls, location)
	if serviceDate.IsZero() {
		serviceDate = context.CurrentServiceDate()
	}

	options := context.Options
	if options.StopUpdateStrategy == "" {
		options = tripupdate.DefaultSIRIOptions()
	}
	options.ForwardsPropagation = tripupdate.ForwardsPropagationNone

	parsed := &tripupdate.ParsedTripUpdate{
		Type: updateTypeOf(journey, calls),
		Trip: tripupdate.TripReference{
			TripID:        tripID,
			RouteID:       journey.LineRef,
			FuzzyMatching: context.FuzzyTripMatching,
		},
		ServiceDate:         serviceDate,
		ServiceDateExplicit: explicit,
		TripHeadsign:        journey.DestinationDisplay,
		Options:             options,
		DataSource:          context.DataSource,
	}

	for _, call := range calls {
		parsed.StopTimeUpdates = append(parsed.StopTimeUpdates, parseCall(journey, call, serviceDate, location))
	}

	if parsed.Type == tripupdate.UpdateTypeAddNewTrip {
		parsed.TripCreation = tripCreationInfo(journey, tripID)
	}

	return parsed, nil
}

func updateTypeOf(journey *EstimatedVehicleJourney, calls []*Call) tripupdate.UpdateType {
	switch {
	case journey.Cancellation:
		return tripupdate.UpdateTypeCancelTrip
	case journey.ExtraJourney:
		return tripupdate.UpdateTypeAddNewTrip
	case slices.ContainsFunc(calls, func(call *Call) bool { return call.ExtraCall }):
		return tripupdate.UpdateTypeAddExtraCalls
	default:
		return tripupdate.UpdateTypeUpdateExisting
	}
}

// validateCallOrdering checks that every call is addressed by exactly one of
// Order and VisitNumber
func validateCallOrdering(tripID string, calls []*Call) error {
	for i, call := range calls {
		if call.StopPointRef == "" {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorEmptyStopPointRef, i)
		}
		if call.Order != nil && call.VisitNumber != nil {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorMixedOrderAndVisitNumber, i)
		}
		if call.Order == nil && call.VisitNumber == nil {
			return tripupdate.NewStopUpdateError(tripID, tripupdate.ErrorNoStopReference, i)
		}
	}

	return nil
}

// serviceDateOf reads the data frame of the journey, falling back to the day
// of the first aimed time
func serviceDateOf(journey *EstimatedVehicleJourney, calls []*Call, location *time.Location) (ctdf.ServiceDate, bool) {
	if journey.FramedVehicleJourneyRef != nil && journey.FramedVehicleJourneyRef.DataFrameRef != "" {
		if serviceDate, err := ctdf.ParseServiceDate(journey.FramedVehicleJourneyRef.DataFrameRef); err == nil {
			return serviceDate, true
		}
	}

	for _, call := range calls {
		if aimed := firstTime(call.AimedDepartureTime, call.AimedArrivalTime); aimed != nil {
			return ctdf.ServiceDateOf(aimed.In(location)), false
		}
	}

	return ctdf.ServiceDate{}, false
}

func parseCall(journey *EstimatedVehicleJourney, call *Call, serviceDate ctdf.ServiceDate, location *time.Location) tripupdate.ParsedStopTimeUpdate {
	parsed := tripupdate.ParsedStopTimeUpdate{
		StopReference: tripupdate.StopReference{
			StopID:   call.StopPointRef,
			Strategy: tripupdate.StopResolutionDirect,
		},
		Status:               tripupdate.StopUpdateStatusScheduled,
		Headsign:             call.DestinationDisplay,
		IsExtraCall:          call.ExtraCall,
		Recorded:             call.IsRecorded(),
		PredictionInaccurate: call.PredictionInaccurate || journey.PredictionInaccurate,
	}

	if call.ExtraCall {
		parsed.Status = tripupdate.StopUpdateStatusAdded
	}
	if call.Cancellation {
		parsed.Status = tripupdate.StopUpdateStatusCancelled
	}

	if call.IsRecorded() {
		parsed.Arrival = timeUpdate(firstTime(call.ActualArrivalTime, call.ExpectedArrivalTime, call.AimedArrivalTime), call.AimedArrivalTime, serviceDate, location)
		parsed.Departure = timeUpdate(firstTime(call.ActualDepartureTime, call.ExpectedDepartureTime, call.AimedDepartureTime), call.AimedDepartureTime, serviceDate, location)
	} else {
		parsed.Arrival = timeUpdate(firstTime(call.ExpectedArrivalTime, call.AimedArrivalTime), call.AimedArrivalTime, serviceDate, location)
		parsed.Departure = timeUpdate(firstTime(call.ExpectedDepartureTime, call.AimedDepartureTime), call.AimedDepartureTime, serviceDate, location)
	}

	occupancy := call.Occupancy
	if occupancy == "" {
		occupancy = journey.Occupancy
	}
	if occupancy != "" {
		status := mapOccupancy(occupancy)
		parsed.Occupancy = &status
	}

	return parsed
}

func timeUpdate(realtime *time.Time, aimed *time.Time, serviceDate ctdf.ServiceDate, location *time.Location) *tripupdate.TimeUpdate {
	if realtime == nil {
		return nil
	}

	var scheduled *int
	if aimed != nil {
		seconds := serviceDate.SecondsSinceStartOfService(*aimed, location)
		scheduled = &seconds
	}

	return tripupdate.AbsoluteTimeUpdate(serviceDate.SecondsSinceStartOfService(*realtime, location), scheduled)
}

func firstTime(times ...*time.Time) *time.Time {
	for _, t := range times {
		if t != nil && !t.IsZero() {
			return t
		}
	}

	return nil
}

func tripCreationInfo(journey *EstimatedVehicleJourney, tripID string) *tripupdate.TripCreationInfo {
	headsign := journey.DestinationDisplay
	if headsign == "" {
		headsign = journey.DestinationName
	}

	return &tripupdate.TripCreationInfo{
		TripID:        tripID,
		Headsign:      headsign,
		OperatorRef:   journey.OperatorRef,
		Mode:          mapVehicleMode(journey.VehicleMode),
		SubMode:       journey.VehicleSubmode,
		ReplacedTrips: journey.VehicleJourneyRef,
		Route: tripupdate.RouteCreationInfo{
			RouteID:         journey.LineRef,
			ShortName:       journey.PublishedLineName,
			ReplacedRouteID: journey.ExternalLineRef,
		},
	}
}

func mapVehicleMode(mode string) ctdf.TransitMode {
	switch strings.ToLower(mode) {
	case "rail":
		return ctdf.TransitModeRail
	case "coach":
		return ctdf.TransitModeCoach
	case "tram":
		return ctdf.TransitModeTram
	case "metro", "underground":
		return ctdf.TransitModeSubway
	case "ferry", "water":
		return ctdf.TransitModeFerry
	case "air":
		return ctdf.TransitModeAirplane
	case "bus":
		return ctdf.TransitModeBus
	default:
		return ""
	}
}

func mapOccupancy(occupancy string) ctdf.OccupancyStatus {
	switch occupancy {
	case "empty":
		return ctdf.OccupancyStatusEmpty
	case "manySeatsAvailable", "seatsAvailable":
		return ctdf.OccupancyStatusManySeatsAvailable
	case "fewSeatsAvailable":
		return ctdf.OccupancyStatusFewSeatsAvailable
	case "standingRoomOnly", "standingAvailable":
		return ctdf.OccupancyStatusStandingRoomOnly
	case "crushedStandingRoomOnly":
		return ctdf.OccupancyStatusCrushedStandingRoomOnly
	case "full":
		return ctdf.OccupancyStatusFull
	case "notAcceptingPassengers":
		return ctdf.OccupancyStatusNotAcceptingPassengers
	default:
		return ctdf.OccupancyStatusNoDataAvailable
	}
}
