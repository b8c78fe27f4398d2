package ctdf

type Stop struct {
	PrimaryIdentifier string `groups:"basic"`
	PrimaryName       string `groups:"basic"`

	// Identifier of the station this stop belongs to, empty if none
	ParentStationRef string `groups:"detailed" json:",omitempty"`

	Location *Location `groups:"detailed" json:",omitempty"`

	WheelchairBoarding Accessibility `groups:"detailed" json:",omitempty"`
}

type Location struct {
	Latitude  float64
	Longitude float64
}

func (s *Stop) IsPartOfSameStationAs(other *Stop) bool {
	if s == nil || other == nil {
		return false
	}
	if s.PrimaryIdentifier == other.PrimaryIdentifier {
		return true
	}

	return s.ParentStationRef != "" && s.ParentStationRef == other.ParentStationRef
}
