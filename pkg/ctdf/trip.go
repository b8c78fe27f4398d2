package ctdf

import "time"

type Trip struct {
	PrimaryIdentifier string `groups:"basic"`

	// GTFS service_id, the key into the service calendar
	ServiceRef string `groups:"internal"`

	Route    *Route    `groups:"basic" json:",omitempty" copier:"-"`
	Operator *Operator `groups:"detailed" json:",omitempty"`

	Headsign    string `groups:"basic" json:",omitempty"`
	ShortName   string `groups:"basic" json:",omitempty"`
	DirectionID *int   `groups:"detailed" json:",omitempty"`

	Mode    TransitMode `groups:"detailed" json:",omitempty"`
	SubMode string      `groups:"detailed" json:",omitempty"`

	WheelchairAccessibility Accessibility `groups:"detailed" json:",omitempty"`

	CreationDateTime time.Time   `groups:"detailed" json:",omitempty"`
	DataSource       *DataSource `groups:"internal" json:",omitempty"`
}

func (t *Trip) RouteRef() string {
	if t.Route == nil {
		return ""
	}

	return t.Route.PrimaryIdentifier
}

// TripOnServiceDate is one concrete run of a trip on a given day
type TripOnServiceDate struct {
	PrimaryIdentifier string      `groups:"basic"`
	Trip              *Trip       `groups:"basic"`
	ServiceDate       ServiceDate `groups:"basic"`

	ReplacementFor []string `groups:"detailed" json:",omitempty"`
}
