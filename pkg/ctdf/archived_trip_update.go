package ctdf

import (
	"fmt"
	"time"
)

// ArchivedTripUpdate is the stored form of a committed realtime trip update
type ArchivedTripUpdate struct {
	PrimaryIdentifier string `groups:"basic"`

	FeedID      string `groups:"basic"`
	TripRef     string `groups:"basic"`
	RouteRef    string `groups:"basic"`
	PatternRef  string `groups:"basic"`
	ServiceDate string `groups:"basic"`

	State RealTimeState `groups:"basic"`

	TripCreation bool `groups:"detailed"`

	ModificationDateTime time.Time `groups:"detailed"`
	SnapshotSequence     int64     `groups:"internal"`

	DataSource *DataSource `groups:"internal"`

	Stops []*ArchivedTripUpdateStop `groups:"basic"`
}

type ArchivedTripUpdateStop struct {
	StopRef string `groups:"basic"`

	ScheduledArrivalTime   time.Time `groups:"basic"`
	ScheduledDepartureTime time.Time `groups:"basic"`

	ExpectedArrivalTime   time.Time `groups:"basic"`
	ExpectedDepartureTime time.Time `groups:"basic"`

	ArrivalOffset   int `groups:"basic"`
	DepartureOffset int `groups:"basic"`

	State StopRealTimeState `groups:"basic"`
}

func ArchivedTripUpdateIdentifier(feedID string, tripID string, serviceDate ServiceDate) string {
	return fmt.Sprintf("%s:%s:%s", feedID, tripID, serviceDate.Compact())
}

// NewArchivedTripUpdate flattens an update into wall clock times of the given
// timezone
func NewArchivedTripUpdate(update *RealTimeTripUpdate, location *time.Location, modified time.Time) *ArchivedTripUpdate {
	times := update.TripTimes
	trip := update.Trip()

	archived := &ArchivedTripUpdate{
		PrimaryIdentifier:    ArchivedTripUpdateIdentifier(update.FeedID, update.TripID(), update.ServiceDate),
		FeedID:               update.FeedID,
		TripRef:              update.TripID(),
		ServiceDate:          update.ServiceDate.String(),
		State:                times.State,
		TripCreation:         update.TripCreation,
		ModificationDateTime: modified,
		DataSource:           update.DataSource,
	}
	if trip != nil {
		archived.RouteRef = trip.RouteRef()
	}
	if update.Pattern != nil {
		archived.PatternRef = update.Pattern.PrimaryIdentifier
	}

	for i := 0; i < times.NumStops(); i++ {
		stop := &ArchivedTripUpdateStop{
			ScheduledArrivalTime:   update.ServiceDate.Time(times.ScheduledArrivalTime(i), location),
			ScheduledDepartureTime: update.ServiceDate.Time(times.ScheduledDepartureTime(i), location),
			ExpectedArrivalTime:    update.ServiceDate.Time(times.ArrivalTime(i), location),
			ExpectedDepartureTime:  update.ServiceDate.Time(times.DepartureTime(i), location),
			ArrivalOffset:          times.ArrivalDelay(i),
			DepartureOffset:        times.DepartureDelay(i),
			State:                  times.StopState(i),
		}
		if update.Pattern != nil && update.Pattern.Stop(i) != nil {
			stop.StopRef = update.Pattern.Stop(i).PrimaryIdentifier
		}

		archived.Stops = append(archived.Stops, stop)
	}

	return archived
}
