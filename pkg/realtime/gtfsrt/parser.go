// Package gtfsrt decodes GTFS-realtime trip updates into the canonical
// update model.
package gtfsrt

import (
	"time"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

// Parse converts one GTFS-RT trip update. Stop time updates without a stop
// id or stop sequence are skipped.
func Parse(update *TripUpdate, context tripupdate.ParseContext) (*tripupdate.ParsedTripUpdate, error) {
	if update == nil {
		return nil, tripupdate.NewUpdateError("", tripupdate.ErrorInvalidInputStructure)
	}
	if update.TripID == "" {
		return nil, tripupdate.NewUpdateError("", tripupdate.ErrorNoTripID)
	}

	updateType, err := mapScheduleRelationship(update)
	if err != nil {
		return nil, err
	}

	serviceDate, explicit := context.CurrentServiceDate(), false
	if update.StartDate != "" {
		if serviceDate, err = ctdf.ParseServiceDate(update.StartDate); err != nil {
			return nil, tripupdate.NewUpdateError(update.TripID, tripupdate.ErrorInvalidInputStructure)
		}
		explicit = true
	}

	options := context.Options
	if options.StopUpdateStrategy == "" {
		options = tripupdate.DefaultGTFSRTOptions()
	}

	parsed := &tripupdate.ParsedTripUpdate{
		Type: updateType,
		Trip: tripupdate.TripReference{
			TripID:        update.TripID,
			RouteID:       update.RouteID,
			StartTime:     update.StartTime,
			Direction:     update.DirectionID,
			FuzzyMatching: context.FuzzyTripMatching,
		},
		ServiceDate:         serviceDate,
		ServiceDateExplicit: explicit,
		Options:             options,
		DataSource:          context.DataSource,
	}

	if update.TripProperties != nil {
		parsed.TripHeadsign = update.TripProperties.TripHeadsign
		parsed.TripShortName = update.TripProperties.TripShortName
	}
	if update.Vehicle != nil && update.Vehicle.WheelchairAccessible != nil {
		accessibility := ctdf.AccessibilityFromGTFSRT(*update.Vehicle.WheelchairAccessible)
		parsed.WheelchairAccessibility = &accessibility
	}

	location := context.Location()
	for _, stopTimeUpdate := range update.StopTimeUpdates {
		if stopTimeUpdate.StopID == "" && stopTimeUpdate.AssignedStopID == "" && stopTimeUpdate.StopSequence == nil {
			continue
		}

		parsed.StopTimeUpdates = append(parsed.StopTimeUpdates, parseStopTimeUpdate(stopTimeUpdate, serviceDate, location))
	}

	if updateType == tripupdate.UpdateTypeUpdateExisting && len(parsed.StopTimeUpdates) == 0 && parsed.WheelchairAccessibility == nil {
		return nil, tripupdate.NewUpdateError(update.TripID, tripupdate.ErrorNoUpdates)
	}

	if updateType == tripupdate.UpdateTypeAddNewTrip {
		parsed.TripCreation = tripCreationInfo(update, parsed)
	}

	return parsed, nil
}

func mapScheduleRelationship(update *TripUpdate) (tripupdate.UpdateType, error) {
	switch update.ScheduleRelationship {
	case TripScheduled:
		return tripupdate.UpdateTypeUpdateExisting, nil
	case TripCanceled:
		return tripupdate.UpdateTypeCancelTrip, nil
	case TripDeleted:
		return tripupdate.UpdateTypeDeleteTrip, nil
	case TripAdded, TripNew:
		return tripupdate.UpdateTypeAddNewTrip, nil
	case TripReplacement:
		return tripupdate.UpdateTypeModifyTrip, nil
	case TripUnscheduled:
		return "", tripupdate.NewUpdateError(update.TripID, tripupdate.ErrorNotImplementedUnscheduled)
	case TripDuplicated:
		return "", tripupdate.NewUpdateError(update.TripID, tripupdate.ErrorNotImplementedDuplicated)
	default:
		return "", tripupdate.NewUpdateError(update.TripID, tripupdate.ErrorInvalidInputStructure)
	}
}

func parseStopTimeUpdate(stopTimeUpdate StopTimeUpdate, serviceDate ctdf.ServiceDate, location *time.Location) tripupdate.ParsedStopTimeUpdate {
	parsed := tripupdate.ParsedStopTimeUpdate{
		StopReference: tripupdate.StopReference{
			StopID:         stopTimeUpdate.StopID,
			AssignedStopID: stopTimeUpdate.AssignedStopID,
			Strategy:       tripupdate.StopResolutionDirect,
		},
		Status:    tripupdate.StopUpdateStatusScheduled,
		Arrival:   parseStopTimeEvent(stopTimeUpdate.Arrival, serviceDate, location),
		Departure: parseStopTimeEvent(stopTimeUpdate.Departure, serviceDate, location),
		Headsign:  stopTimeUpdate.StopHeadsign,
	}

	if stopTimeUpdate.AssignedStopID != "" {
		parsed.StopReference.Strategy = tripupdate.StopResolutionAssigned
	}
	if stopTimeUpdate.StopSequence != nil {
		sequence := int(*stopTimeUpdate.StopSequence)
		parsed.StopSequence = &sequence
	}

	switch stopTimeUpdate.ScheduleRelationship {
	case StopSkipped:
		parsed.Status = tripupdate.StopUpdateStatusSkipped
	case StopNoData:
		parsed.Status = tripupdate.StopUpdateStatusNoData
	}

	if stopTimeUpdate.PickupType != nil {
		pickup := ctdf.PickDropFromGTFS(*stopTimeUpdate.PickupType)
		parsed.Pickup = &pickup
	}
	if stopTimeUpdate.DropOffType != nil {
		dropoff := ctdf.PickDropFromGTFS(*stopTimeUpdate.DropOffType)
		parsed.Dropoff = &dropoff
	}
	if stopTimeUpdate.OccupancyStatus != nil {
		occupancy := mapOccupancyStatus(*stopTimeUpdate.OccupancyStatus)
		parsed.Occupancy = &occupancy
	}

	return parsed
}

// parseStopTimeEvent prefers an absolute time over a delay
func parseStopTimeEvent(event *StopTimeEvent, serviceDate ctdf.ServiceDate, location *time.Location) *tripupdate.TimeUpdate {
	if event == nil {
		return nil
	}

	if event.Time != nil && *event.Time > 0 {
		var scheduled *int
		if event.ScheduledTime != nil {
			seconds := serviceDate.SecondsSinceStartOfService(time.Unix(*event.ScheduledTime, 0), location)
			scheduled = &seconds
		}

		return tripupdate.AbsoluteTimeUpdate(serviceDate.SecondsSinceStartOfService(time.Unix(*event.Time, 0), location), scheduled)
	}

	if event.Delay != nil {
		return tripupdate.DelayTimeUpdate(int(*event.Delay))
	}

	return nil
}

func tripCreationInfo(update *TripUpdate, parsed *tripupdate.ParsedTripUpdate) *tripupdate.TripCreationInfo {
	info := &tripupdate.TripCreationInfo{
		TripID:    update.TripID,
		Headsign:  parsed.TripHeadsign,
		ShortName: parsed.TripShortName,
		Route:     tripupdate.RouteCreationInfo{RouteID: update.RouteID},
	}
	if parsed.WheelchairAccessibility != nil {
		info.WheelchairAccessibility = *parsed.WheelchairAccessibility
	}

	if update.Route != nil {
		info.Route.ShortName = update.Route.ShortName
		info.Route.LongName = update.Route.LongName
		info.Route.URL = update.Route.URL
		info.Route.AgencyID = update.Route.AgencyID
		info.Route.RouteType = update.Route.RouteType
		if update.Route.RouteType != nil {
			info.Mode = ctdf.TransitModeFromGTFSRouteType(*update.Route.RouteType)
		}
	}

	return info
}

func mapOccupancyStatus(code int32) ctdf.OccupancyStatus {
	switch code {
	case 0:
		return ctdf.OccupancyStatusEmpty
	case 1:
		return ctdf.OccupancyStatusManySeatsAvailable
	case 2:
		return ctdf.OccupancyStatusFewSeatsAvailable
	case 3:
		return ctdf.OccupancyStatusStandingRoomOnly
	case 4:
		return ctdf.OccupancyStatusCrushedStandingRoomOnly
	case 5:
		return ctdf.OccupancyStatusFull
	case 6, 8:
		return ctdf.OccupancyStatusNotAcceptingPassengers
	default:
		return ctdf.OccupancyStatusNoDataAvailable
	}
}
