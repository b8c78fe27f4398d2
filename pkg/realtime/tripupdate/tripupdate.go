package tripupdate

import (
	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

type UpdateType string

const (
	UpdateTypeUpdateExisting UpdateType = "UPDATE_EXISTING"
	UpdateTypeModifyTrip     UpdateType = "MODIFY_TRIP"
	UpdateTypeAddNewTrip     UpdateType = "ADD_NEW_TRIP"
	UpdateTypeAddExtraCalls  UpdateType = "ADD_EXTRA_CALLS"
	UpdateTypeCancelTrip     UpdateType = "CANCEL_TRIP"
	UpdateTypeDeleteTrip     UpdateType = "DELETE_TRIP"
)

// TripReference identifies a trip in an update before it is resolved
type TripReference struct {
	TripID    string
	RouteID   string
	StartTime string
	Direction *int

	// Allow matching on route, direction and start time when the id is unknown
	FuzzyMatching bool
}

// ParsedTripUpdate is a format independent trip update. Parsers create it
// and nothing modifies it afterwards.
type ParsedTripUpdate struct {
	Type UpdateType
	Trip TripReference

	// Day the update applies to and whether the feed stated it explicitly.
	// Absolute stop times are measured from the start of this day.
	ServiceDate         ctdf.ServiceDate
	ServiceDateExplicit bool

	StopTimeUpdates []ParsedStopTimeUpdate

	TripCreation *TripCreationInfo

	TripHeadsign            string
	TripShortName           string
	WheelchairAccessibility *ctdf.Accessibility

	Options    UpdateOptions
	DataSource *ctdf.DataSource
}

func (u *ParsedTripUpdate) TripID() string {
	return u.Trip.TripID
}

// TimeShift converts absolute times measured from ServiceDate into times
// measured from the resolved service date
func (u *ParsedTripUpdate) TimeShift(resolved ctdf.ServiceDate) int {
	if u.ServiceDate.IsZero() || resolved.IsZero() {
		return 0
	}

	return resolved.DaysUntil(u.ServiceDate) * 24 * 60 * 60
}

func (u *ParsedTripUpdate) UsesStopSequences() bool {
	for _, stopTimeUpdate := range u.StopTimeUpdates {
		if stopTimeUpdate.StopSequence != nil {
			return true
		}
	}

	return false
}

// TripCreationInfo carries what is needed to build a trip missing from the
// static schedule
type TripCreationInfo struct {
	TripID    string
	Headsign  string
	ShortName string
	ServiceID string

	OperatorRef string
	Mode        ctdf.TransitMode
	SubMode     string

	WheelchairAccessibility ctdf.Accessibility

	ReplacedTrips []string

	Route RouteCreationInfo
}

type RouteCreationInfo struct {
	RouteID   string
	ShortName string
	LongName  string
	URL       string
	AgencyID  string
	RouteType *int

	// Set when the added trip replaces service on another route
	ReplacedRouteID string
}

func (r RouteCreationInfo) HasExtensionData() bool {
	return r.LongName != "" || r.ShortName != "" || r.URL != ""
}
