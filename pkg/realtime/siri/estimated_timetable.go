package siri

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"golang.org/x/net/html/charset"
)

type EstimatedVehicleJourney struct {
	RecordedAtTime *time.Time

	LineRef           string
	ExternalLineRef   string
	PublishedLineName string
	DirectionRef      string
	OperatorRef       string
	VehicleMode       string
	VehicleSubmode    string

	DatedVehicleJourneyRef      string
	FramedVehicleJourneyRef     *FramedVehicleJourneyRef
	EstimatedVehicleJourneyCode string
	VehicleJourneyRef           []string `xml:"VehicleJourneyRef"`

	DestinationName    string
	DestinationDisplay string

	Cancellation bool
	ExtraJourney bool
	Monitored    *bool

	PredictionInaccurate bool
	Occupancy            string

	RecordedCalls  []*Call `xml:"RecordedCalls>RecordedCall"`
	EstimatedCalls []*Call `xml:"EstimatedCalls>EstimatedCall"`
}

type FramedVehicleJourneyRef struct {
	DataFrameRef           string
	DatedVehicleJourneyRef string
}

// Call is a RecordedCall or an EstimatedCall. Recorded calls only carry
// actual times and estimated calls only expected ones.
type Call struct {
	StopPointRef string
	Order        *int
	VisitNumber  *int

	ExtraCall    bool
	Cancellation bool

	PredictionInaccurate bool
	Occupancy            string
	DestinationDisplay   string

	AimedArrivalTime      *time.Time
	ExpectedArrivalTime   *time.Time
	ActualArrivalTime     *time.Time
	AimedDepartureTime    *time.Time
	ExpectedDepartureTime *time.Time
	ActualDepartureTime   *time.Time

	recorded bool
}

func (c *Call) IsRecorded() bool {
	return c.recorded
}

// Calls returns the recorded calls followed by the estimated ones
func (j *EstimatedVehicleJourney) Calls() []*Call {
	calls := make([]*Call, 0, len(j.RecordedCalls)+len(j.EstimatedCalls))
	for _, call := range j.RecordedCalls {
		call.recorded = true
		calls = append(calls, call)
	}

	return append(calls, j.EstimatedCalls...)
}

func (j *EstimatedVehicleJourney) TripID() string {
	if j.FramedVehicleJourneyRef != nil && j.FramedVehicleJourneyRef.DatedVehicleJourneyRef != "" {
		return j.FramedVehicleJourneyRef.DatedVehicleJourneyRef
	}
	if j.DatedVehicleJourneyRef != "" {
		return j.DatedVehicleJourneyRef
	}

	return j.EstimatedVehicleJourneyCode
}

func (j *EstimatedVehicleJourney) IsMonitored() bool {
	return j.Monitored == nil || *j.Monitored
}

// ServiceDelivery is the content of an EstimatedTimetableDelivery response
type ServiceDelivery struct {
	ResponseTimestamp time.Time
	ProducerRef       string

	EstimatedVehicleJourneys []*EstimatedVehicleJourney
}

// DecodeServiceDelivery streams a SIRI document and collects every
// EstimatedVehicleJourney in it, whatever frame it is nested in
func DecodeServiceDelivery(reader io.Reader) (*ServiceDelivery, error) {
	delivery := &ServiceDelivery{}

	d := xml.NewDecoder(reader)
	d.CharsetReader = charset.NewReaderLabel

	depth := 0
	for {
		tok, err := d.Token()
		if tok == nil || err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("decoding SIRI token: %w", err)
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			depth++

			switch ty.Name.Local {
			case "EstimatedVehicleJourney":
				var journey EstimatedVehicleJourney
				if err = d.DecodeElement(&journey, &ty); err != nil {
					return nil, fmt.Errorf("decoding EstimatedVehicleJourney: %w", err)
				}
				depth--

				delivery.EstimatedVehicleJourneys = append(delivery.EstimatedVehicleJourneys, &journey)
			case "ResponseTimestamp":
				// Only the ServiceDelivery level timestamp
				if depth > 3 || !delivery.ResponseTimestamp.IsZero() {
					continue
				}
				if err = d.DecodeElement(&delivery.ResponseTimestamp, &ty); err != nil {
					return nil, fmt.Errorf("decoding ResponseTimestamp: %w", err)
				}
				depth--
			case "ProducerRef":
				if err = d.DecodeElement(&delivery.ProducerRef, &ty); err != nil {
					return nil, fmt.Errorf("decoding ProducerRef: %w", err)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}

	return delivery, nil
}
