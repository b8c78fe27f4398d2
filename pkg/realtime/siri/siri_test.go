package siri

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/timetable-realtime/pkg/config"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/handler"
	"github.com/travigo/timetable-realtime/pkg/realtime/patterncache"
	"github.com/travigo/timetable-realtime/pkg/realtime/realtimetest"
	"github.com/travigo/timetable-realtime/pkg/realtime/resolver"
	"github.com/travigo/timetable-realtime/pkg/realtime/routecreation"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
)

const estimatedTimetable = `<?xml version="1.0" encoding="ISO-8859-1"?>
<Siri xmlns="http://www.siri.org.uk/siri" version="2.0">
  <ServiceDelivery>
    <ResponseTimestamp>2024-05-01T07:55:00Z</ResponseTimestamp>
    <ProducerRef>TEST</ProducerRef>
    <EstimatedTimetableDelivery version="2.0">
      <ResponseTimestamp>2024-05-01T07:55:01Z</ResponseTimestamp>
      <EstimatedJourneyVersionFrame>
        <EstimatedVehicleJourney>
          <LineRef>R1</LineRef>
          <FramedVehicleJourneyRef>
            <DataFrameRef>2024-05-01</DataFrameRef>
            <DatedVehicleJourneyRef>T1</DatedVehicleJourneyRef>
          </FramedVehicleJourneyRef>
          <DestinationDisplay>DESTINATION</DestinationDisplay>
          <Monitored>true</Monitored>
          <RecordedCalls>
            <RecordedCall>
              <StopPointRef>A</StopPointRef>
              <Order>1</Order>
              <AimedDepartureTime>2024-05-01T08:00:00Z</AimedDepartureTime>
              <ActualDepartureTime>2024-05-01T08:01:00Z</ActualDepartureTime>
            </RecordedCall>
          </RecordedCalls>
          <EstimatedCalls>
            <EstimatedCall>
              <StopPointRef>B</StopPointRef>
              <Order>2</Order>
              <AimedArrivalTime>2024-05-01T08:05:00Z</AimedArrivalTime>
              <ExpectedArrivalTime>2024-05-01T08:07:00Z</ExpectedArrivalTime>
              <AimedDepartureTime>2024-05-01T08:05:00Z</AimedDepartureTime>
              <ExpectedDepartureTime>2024-05-01T08:07:00Z</ExpectedDepartureTime>
              <Occupancy>seatsAvailable</Occupancy>
            </EstimatedCall>
            <EstimatedCall>
              <StopPointRef>C1</StopPointRef>
              <Order>3</Order>
              <AimedArrivalTime>2024-05-01T08:10:00Z</AimedArrivalTime>
              <ExpectedArrivalTime>2024-05-01T08:11:00Z</ExpectedArrivalTime>
              <AimedDepartureTime>2024-05-01T08:10:00Z</AimedDepartureTime>
              <ExpectedDepartureTime>2024-05-01T08:11:00Z</ExpectedDepartureTime>
            </EstimatedCall>
            <EstimatedCall>
              <StopPointRef>D</StopPointRef>
              <Order>4</Order>
              <AimedArrivalTime>2024-05-01T08:15:00Z</AimedArrivalTime>
              <ExpectedArrivalTime>2024-05-01T08:15:00Z</ExpectedArrivalTime>
            </EstimatedCall>
          </EstimatedCalls>
        </EstimatedVehicleJourney>
        <EstimatedVehicleJourney>
          <LineRef>R1</LineRef>
          <DatedVehicleJourneyRef>T2</DatedVehicleJourneyRef>
          <Cancellation>true</Cancellation>
          <Monitored>false</Monitored>
        </EstimatedVehicleJourney>
      </EstimatedJourneyVersionFrame>
    </EstimatedTimetableDelivery>
  </ServiceDelivery>
</Siri>`

func parseContext() tripupdate.ParseContext {
	return tripupdate.ParseContext{
		FeedID:              realtimetest.FeedID,
		TimeZone:            time.UTC,
		ServiceDateSupplier: func() ctdf.ServiceDate { return realtimetest.ServiceDate },
	}
}

func decode(t *testing.T, document string) *ServiceDelivery {
	t.Helper()

	delivery, err := DecodeServiceDelivery(strings.NewReader(document))
	require.NoError(t, err)

	return delivery
}

func TestDecodeServiceDelivery(t *testing.T) {
	// DestinationDisplay holds a latin-1 encoded e acute
	delivery := decode(t, strings.Replace(estimatedTimetable, "DESTINATION", "Caf\xe9 Square", 1))

	assert.Equal(t, "TEST", delivery.ProducerRef)
	assert.Equal(t, time.Date(2024, time.May, 1, 7, 55, 0, 0, time.UTC), delivery.ResponseTimestamp.UTC())
	require.Len(t, delivery.EstimatedVehicleJourneys, 2)

	journey := delivery.EstimatedVehicleJourneys[0]
	assert.Equal(t, "T1", journey.TripID())
	assert.Equal(t, "Café Square", journey.DestinationDisplay)
	assert.True(t, journey.IsMonitored())
	require.Len(t, journey.RecordedCalls, 1)
	require.Len(t, journey.EstimatedCalls, 3)
	assert.Equal(t, 2, *journey.EstimatedCalls[0].Order)

	calls := journey.Calls()
	assert.True(t, calls[0].IsRecorded())
	assert.False(t, calls[1].IsRecorded())

	cancelled := delivery.EstimatedVehicleJourneys[1]
	assert.Equal(t, "T2", cancelled.TripID())
	assert.True(t, cancelled.Cancellation)
	assert.False(t, cancelled.IsMonitored())
}

func TestDecodeMalformedDocument(t *testing.T) {
	_, err := DecodeServiceDelivery(strings.NewReader("<Siri><ServiceDelivery>"))
	assert.Error(t, err)
}

func TestParseEstimatedVehicleJourney(t *testing.T) {
	delivery := decode(t, estimatedTimetable)

	parsed, err := Parse(delivery.EstimatedVehicleJourneys[0], parseContext())
	require.NoError(t, err)

	assert.Equal(t, tripupdate.UpdateTypeUpdateExisting, parsed.Type)
	assert.Equal(t, "T1", parsed.TripID())
	assert.Equal(t, "R1", parsed.Trip.RouteID)
	assert.Equal(t, realtimetest.ServiceDate, parsed.ServiceDate)
	assert.True(t, parsed.ServiceDateExplicit)
	assert.Equal(t, tripupdate.DefaultSIRIOptions(), parsed.Options)
	require.Len(t, parsed.StopTimeUpdates, 4)

	recorded := parsed.StopTimeUpdates[0]
	assert.True(t, recorded.Recorded)
	assert.Nil(t, recorded.Arrival)
	assert.True(t, recorded.Departure.IsAbsolute())
	assert.Equal(t, realtimetest.Seconds(8, 1), recorded.Departure.Time())
	aimed, ok := recorded.Departure.Scheduled()
	assert.True(t, ok)
	assert.Equal(t, realtimetest.Seconds(8, 0), aimed)
	assert.Nil(t, recorded.StopSequence)

	estimated := parsed.StopTimeUpdates[1]
	assert.False(t, estimated.Recorded)
	assert.Equal(t, realtimetest.Seconds(8, 7), estimated.Arrival.Time())
	assert.Equal(t, ctdf.OccupancyStatusManySeatsAvailable, *estimated.Occupancy)

	last := parsed.StopTimeUpdates[3]
	assert.Nil(t, last.Departure)

	cancelled, err := Parse(delivery.EstimatedVehicleJourneys[1], parseContext())
	require.NoError(t, err)
	assert.Equal(t, tripupdate.UpdateTypeCancelTrip, cancelled.Type)
	assert.False(t, cancelled.ServiceDateExplicit)
	assert.Equal(t, realtimetest.ServiceDate, cancelled.ServiceDate)
}

func order(value int) *int {
	return &value
}

func TestParseUpdateTypes(t *testing.T) {
	extraCall := &EstimatedVehicleJourney{
		DatedVehicleJourneyRef: "T1",
		EstimatedCalls: []*Call{
			{StopPointRef: "A", Order: order(1)},
			{StopPointRef: "E", Order: order(2), ExtraCall: true},
		},
	}
	parsed, err := Parse(extraCall, parseContext())
	require.NoError(t, err)
	assert.Equal(t, tripupdate.UpdateTypeAddExtraCalls, parsed.Type)
	assert.True(t, parsed.StopTimeUpdates[1].IsExtraCall)
	assert.Equal(t, tripupdate.StopUpdateStatusAdded, parsed.StopTimeUpdates[1].Status)

	extraJourney := &EstimatedVehicleJourney{
		EstimatedVehicleJourneyCode: "EXTRA1",
		LineRef:                     "NEWLINE",
		ExternalLineRef:             "R2",
		OperatorRef:                 "OP2",
		VehicleMode:                 "bus",
		DestinationName:             "Stop E",
		ExtraJourney:                true,
		VehicleJourneyRef:           []string{"T3"},
	}
	parsed, err = Parse(extraJourney, parseContext())
	require.NoError(t, err)
	assert.Equal(t, tripupdate.UpdateTypeAddNewTrip, parsed.Type)
	require.NotNil(t, parsed.TripCreation)
	assert.Equal(t, "EXTRA1", parsed.TripCreation.TripID)
	assert.Equal(t, "Stop E", parsed.TripCreation.Headsign)
	assert.Equal(t, ctdf.TransitModeBus, parsed.TripCreation.Mode)
	assert.Equal(t, "R2", parsed.TripCreation.Route.ReplacedRouteID)
	assert.Equal(t, []string{"T3"}, parsed.TripCreation.ReplacedTrips)

	cancelledCall := &EstimatedVehicleJourney{
		DatedVehicleJourneyRef: "T1",
		EstimatedCalls:         []*Call{{StopPointRef: "B", VisitNumber: order(1), Cancellation: true}},
	}
	parsed, err = Parse(cancelledCall, parseContext())
	require.NoError(t, err)
	assert.Equal(t, tripupdate.UpdateTypeUpdateExisting, parsed.Type)
	assert.True(t, parsed.StopTimeUpdates[0].IsSkipped())
}

func TestParseErrors(t *testing.T) {
	unmonitored := false

	tests := []struct {
		name      string
		journey   *EstimatedVehicleJourney
		errorType tripupdate.ErrorType
		stopIndex int
	}{
		{
			name:      "no trip id",
			journey:   &EstimatedVehicleJourney{},
			errorType: tripupdate.ErrorNoTripID,
			stopIndex: -1,
		},
		{
			name:      "not monitored",
			journey:   &EstimatedVehicleJourney{DatedVehicleJourneyRef: "T1", Monitored: &unmonitored},
			errorType: tripupdate.ErrorNotMonitored,
			stopIndex: -1,
		},
		{
			name: "empty stop point ref",
			journey: &EstimatedVehicleJourney{DatedVehicleJourneyRef: "T1", EstimatedCalls: []*Call{
				{StopPointRef: "A", Order: order(1)},
				{Order: order(2)},
			}},
			errorType: tripupdate.ErrorEmptyStopPointRef,
			stopIndex: 1,
		},
		{
			name: "order and visit number",
			journey: &EstimatedVehicleJourney{DatedVehicleJourneyRef: "T1", EstimatedCalls: []*Call{
				{StopPointRef: "A", Order: order(1), VisitNumber: order(1)},
			}},
			errorType: tripupdate.ErrorMixedOrderAndVisitNumber,
			stopIndex: 0,
		},
		{
			name: "neither order nor visit number",
			journey: &EstimatedVehicleJourney{DatedVehicleJourneyRef: "T1", EstimatedCalls: []*Call{
				{StopPointRef: "A"},
			}},
			errorType: tripupdate.ErrorNoStopReference,
			stopIndex: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse(test.journey, parseContext())

			var updateError *tripupdate.UpdateError
			require.ErrorAs(t, err, &updateError)
			assert.Equal(t, test.errorType, updateError.Type)
			assert.Equal(t, test.stopIndex, updateError.StopIndex)
		})
	}
}

func newHandler() (*handler.Handler, *snapshot.Buffer) {
	model := realtimetest.Model()
	buffer := snapshot.NewBuffer(model)

	return handler.New(
		realtimetest.FeedID,
		resolver.New(model, buffer),
		patterncache.NewTripPatternCache(realtimetest.FeedID),
		routecreation.NewSIRIRouteCreator(model, buffer),
	), buffer
}

func TestHandleParsedJourney(t *testing.T) {
	delivery := decode(t, estimatedTimetable)
	tripHandler, _ := newHandler()

	parsed, err := Parse(delivery.EstimatedVehicleJourneys[0], parseContext())
	require.NoError(t, err)

	update, _, err := tripHandler.Handle(parsed)
	require.NoError(t, err)

	times := update.TripTimes
	assert.Equal(t, ctdf.RealTimeStateUpdated, times.State)
	assert.Equal(t, realtimetest.Seconds(8, 1), times.ArrivalTime(0))
	assert.Equal(t, realtimetest.Seconds(8, 1), times.DepartureTime(0))
	assert.True(t, times.IsRecordedStop(0))
	assert.Equal(t, realtimetest.Seconds(8, 7), times.ArrivalTime(1))
	assert.Equal(t, realtimetest.Seconds(8, 11), times.DepartureTime(2))
	assert.Equal(t, realtimetest.Seconds(8, 15), times.ArrivalTime(3))
}

func TestHandleExtraJourney(t *testing.T) {
	tripHandler, _ := newHandler()

	aimed := func(hour int, minute int) *time.Time {
		value := time.Date(2024, time.May, 1, hour, minute, 0, 0, time.UTC)
		return &value
	}

	journey := &EstimatedVehicleJourney{
		FramedVehicleJourneyRef: &FramedVehicleJourneyRef{DataFrameRef: "2024-05-01", DatedVehicleJourneyRef: "EXTRA1"},
		LineRef:                 "NEWLINE",
		OperatorRef:             "OP2",
		ExtraJourney:            true,
		EstimatedCalls: []*Call{
			{StopPointRef: "A", Order: order(1), AimedDepartureTime: aimed(12, 0)},
			{StopPointRef: "E", Order: order(2), AimedArrivalTime: aimed(12, 30)},
		},
	}

	parsed, err := Parse(journey, parseContext())
	require.NoError(t, err)

	update, _, err := tripHandler.Handle(parsed)
	require.NoError(t, err)

	assert.Equal(t, ctdf.RealTimeStateAdded, update.TripTimes.State)
	assert.True(t, update.RouteCreation)
	require.NotNil(t, update.Trip().Route)
	assert.Equal(t, "AG2", update.Trip().Route.Agency.PrimaryIdentifier)
	assert.Equal(t, realtimetest.Seconds(12, 30), update.TripTimes.ArrivalTime(1))
}

func TestParseNeverPropagatesForwards(t *testing.T) {
	delivery := decode(t, estimatedTimetable)

	feed := &config.Feed{
		ID:                  realtimetest.FeedID,
		Format:              config.FormatSIRIET,
		URL:                 "http://example.com/siri",
		ForwardsPropagation: string(tripupdate.ForwardsPropagationDefault),
	}

	parsed, err := Parse(delivery.EstimatedVehicleJourneys[0], feed.ParseContext(time.Date(2024, time.May, 1, 7, 55, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, tripupdate.ForwardsPropagationNone, parsed.Options.ForwardsPropagation)

	context := parseContext()
	context.Options = tripupdate.DefaultGTFSRTOptions()
	context.Options.ForwardsPropagation = tripupdate.ForwardsPropagationDefault

	parsed, err = Parse(delivery.EstimatedVehicleJourneys[0], context)
	require.NoError(t, err)
	assert.Equal(t, tripupdate.ForwardsPropagationNone, parsed.Options.ForwardsPropagation)
}
