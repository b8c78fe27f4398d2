package ctdf

// RealTimeTripUpdate is the result of handling one trip update, ready to be
// written into the timetable buffer
type RealTimeTripUpdate struct {
	FeedID string `groups:"basic"`

	Pattern     *TripPattern       `groups:"basic"`
	TripTimes   *RealTimeTripTimes `groups:"basic"`
	ServiceDate ServiceDate        `groups:"basic"`

	AddedTripOnServiceDate *TripOnServiceDate `groups:"detailed" json:",omitempty"`
	TripCreation           bool               `groups:"detailed"`
	RouteCreation          bool               `groups:"detailed"`

	DataSource *DataSource `groups:"internal" json:",omitempty"`

	// The scheduled pattern the trip must no longer run on for this date
	ScheduledPatternToDelete *TripPattern `groups:"internal" json:",omitempty"`
}

func (u *RealTimeTripUpdate) Trip() *Trip {
	return u.TripTimes.Trip()
}

func (u *RealTimeTripUpdate) TripID() string {
	return u.TripTimes.TripID()
}
