package gtfsrt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

// Schedule relationship codes of TripDescriptor. DELETED and NEW are newer
// than some published bindings so they are kept as plain codes.
const (
	TripScheduled   int32 = int32(gtfs.TripDescriptor_SCHEDULED)
	TripAdded       int32 = int32(gtfs.TripDescriptor_ADDED)
	TripUnscheduled int32 = int32(gtfs.TripDescriptor_UNSCHEDULED)
	TripCanceled    int32 = int32(gtfs.TripDescriptor_CANCELED)
	TripReplacement int32 = int32(gtfs.TripDescriptor_REPLACEMENT)
	TripDuplicated  int32 = 6
	TripDeleted     int32 = 7
	TripNew         int32 = 8
)

// Schedule relationship codes of StopTimeUpdate
const (
	StopScheduled   int32 = int32(gtfs.TripUpdate_StopTimeUpdate_SCHEDULED)
	StopSkipped     int32 = int32(gtfs.TripUpdate_StopTimeUpdate_SKIPPED)
	StopNoData      int32 = int32(gtfs.TripUpdate_StopTimeUpdate_NO_DATA)
	StopUnscheduled int32 = 3
)

// Feed is a decoded GTFS-RT trip updates feed
type Feed struct {
	Timestamp   time.Time
	FullDataset bool
	TripUpdates []*TripUpdate
}

// TripUpdate mirrors the GTFS-RT TripUpdate message including the
// experimental fields for added trips. It decodes from the protobuf bindings
// or from the JSON form of the message.
type TripUpdate struct {
	TripID               string `json:"trip_id"`
	RouteID              string `json:"route_id,omitempty"`
	DirectionID          *int   `json:"direction_id,omitempty"`
	StartTime            string `json:"start_time,omitempty"`
	StartDate            string `json:"start_date,omitempty"`
	ScheduleRelationship int32  `json:"schedule_relationship"`

	StopTimeUpdates []StopTimeUpdate `json:"stop_time_update,omitempty"`

	TripProperties *TripProperties `json:"trip_properties,omitempty"`
	Vehicle        *Vehicle        `json:"vehicle,omitempty"`
	Route          *AddedRoute     `json:"route,omitempty"`
}

type StopTimeUpdate struct {
	StopSequence         *uint32 `json:"stop_sequence,omitempty"`
	StopID               string  `json:"stop_id,omitempty"`
	AssignedStopID       string  `json:"assigned_stop_id,omitempty"`
	ScheduleRelationship int32   `json:"schedule_relationship"`

	Arrival   *StopTimeEvent `json:"arrival,omitempty"`
	Departure *StopTimeEvent `json:"departure,omitempty"`

	StopHeadsign    string `json:"stop_headsign,omitempty"`
	PickupType      *int   `json:"pickup_type,omitempty"`
	DropOffType     *int   `json:"drop_off_type,omitempty"`
	OccupancyStatus *int32 `json:"departure_occupancy_status,omitempty"`
}

type StopTimeEvent struct {
	Delay         *int32 `json:"delay,omitempty"`
	Time          *int64 `json:"time,omitempty"`
	ScheduledTime *int64 `json:"scheduled_time,omitempty"`
}

type TripProperties struct {
	TripHeadsign  string `json:"trip_headsign,omitempty"`
	TripShortName string `json:"trip_short_name,omitempty"`
}

type Vehicle struct {
	ID                   string `json:"id,omitempty"`
	WheelchairAccessible *int   `json:"wheelchair_accessible,omitempty"`
}

// AddedRoute describes the route of an added trip that is not part of the
// static schedule
type AddedRoute struct {
	ShortName string `json:"route_short_name,omitempty"`
	LongName  string `json:"route_long_name,omitempty"`
	URL       string `json:"route_url,omitempty"`
	AgencyID  string `json:"agency_id,omitempty"`
	RouteType *int   `json:"route_type,omitempty"`
}

// DecodeFeed decodes a protobuf FeedMessage
func DecodeFeed(body []byte) (*Feed, error) {
	message := gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("decoding GTFS-RT protobuf: %w", err)
	}

	feed := &Feed{
		Timestamp:   time.Unix(int64(message.GetHeader().GetTimestamp()), 0),
		FullDataset: message.GetHeader().GetIncrementality() == gtfs.FeedHeader_FULL_DATASET,
	}

	for _, entity := range message.GetEntity() {
		if entity.GetIsDeleted() || entity.GetTripUpdate() == nil {
			continue
		}

		feed.TripUpdates = append(feed.TripUpdates, FromProto(entity.GetTripUpdate()))
	}

	return feed, nil
}

type jsonFeed struct {
	Header struct {
		Timestamp      int64  `json:"timestamp"`
		Incrementality string `json:"incrementality"`
	} `json:"header"`
	Entity []struct {
		ID         string      `json:"id"`
		IsDeleted  bool        `json:"is_deleted"`
		TripUpdate *TripUpdate `json:"trip_update"`
	} `json:"entity"`
}

// DecodeJSONFeed decodes the JSON form of a FeedMessage
func DecodeJSONFeed(body []byte) (*Feed, error) {
	var message jsonFeed
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("decoding GTFS-RT json: %w", err)
	}

	feed := &Feed{
		Timestamp:   time.Unix(message.Header.Timestamp, 0),
		FullDataset: message.Header.Incrementality != "DIFFERENTIAL",
	}

	for _, entity := range message.Entity {
		if entity.IsDeleted || entity.TripUpdate == nil {
			continue
		}

		feed.TripUpdates = append(feed.TripUpdates, entity.TripUpdate)
	}

	return feed, nil
}

// FromProto converts a protobuf TripUpdate
func FromProto(tripUpdate *gtfs.TripUpdate) *TripUpdate {
	trip := tripUpdate.GetTrip()

	converted := &TripUpdate{
		TripID:               trip.GetTripId(),
		RouteID:              trip.GetRouteId(),
		StartTime:            trip.GetStartTime(),
		StartDate:            trip.GetStartDate(),
		ScheduleRelationship: int32(trip.GetScheduleRelationship()),
	}
	if trip.DirectionId != nil {
		direction := int(trip.GetDirectionId())
		converted.DirectionID = &direction
	}
	if vehicle := tripUpdate.GetVehicle(); vehicle != nil {
		converted.Vehicle = &Vehicle{ID: vehicle.GetId()}
	}

	for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
		converted.StopTimeUpdates = append(converted.StopTimeUpdates, StopTimeUpdate{
			StopSequence:         stopTimeUpdate.StopSequence,
			StopID:               stopTimeUpdate.GetStopId(),
			ScheduleRelationship: int32(stopTimeUpdate.GetScheduleRelationship()),
			Arrival:              stopTimeEventFromProto(stopTimeUpdate.GetArrival()),
			Departure:            stopTimeEventFromProto(stopTimeUpdate.GetDeparture()),
		})
	}

	return converted
}

func stopTimeEventFromProto(event *gtfs.TripUpdate_StopTimeEvent) *StopTimeEvent {
	if event == nil || (event.Delay == nil && event.Time == nil) {
		return nil
	}

	return &StopTimeEvent{Delay: event.Delay, Time: event.Time}
}
