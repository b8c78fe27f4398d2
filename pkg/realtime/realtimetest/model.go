// Package realtimetest provides a small static schedule for tests of the
// realtime packages.
package realtimetest

import (
	"fmt"
	"time"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

const FeedID = "testfeed"

// ServiceDate is a day every test trip runs on
var ServiceDate = ctdf.NewServiceDate(2024, time.May, 1)

// Stops A, B, D, E and platforms C1 and C2 of station C.
//
//	T1  R1  A 08:00  B 08:05  C1 08:10  D 08:15
//	T2  R1  A 09:00  B 09:05  C1 09:10  D 09:15
//	T5  R1  A 10:00  B 10:05  C1 10:10  D 10:15  E 10:20
//	T3  R2  A 11:00  E 11:30
//
// R1 is a bus route run by OP1 for agency AG1, R2 a rail route run by OP2
// for AG2. Every trip runs in May 2024.
func Model() *ctdf.TransitModel {
	model := ctdf.NewTransitModel(FeedID, time.UTC)

	agency1 := &ctdf.Agency{PrimaryIdentifier: "AG1", PrimaryName: "Agency One", Timezone: "UTC"}
	agency2 := &ctdf.Agency{PrimaryIdentifier: "AG2", PrimaryName: "Agency Two", Timezone: "UTC"}
	operator1 := &ctdf.Operator{PrimaryIdentifier: "OP1", PrimaryName: "Operator One"}
	operator2 := &ctdf.Operator{PrimaryIdentifier: "OP2", PrimaryName: "Operator Two"}
	model.AddAgency(agency1)
	model.AddAgency(agency2)
	model.AddOperator(operator1)
	model.AddOperator(operator2)

	for _, id := range []string{"A", "B", "D", "E", "C"} {
		model.AddStop(&ctdf.Stop{PrimaryIdentifier: id, PrimaryName: "Stop " + id})
	}
	model.AddStop(&ctdf.Stop{PrimaryIdentifier: "C1", PrimaryName: "Stop C platform 1", ParentStationRef: "C"})
	model.AddStop(&ctdf.Stop{PrimaryIdentifier: "C2", PrimaryName: "Stop C platform 2", ParentStationRef: "C"})

	route1 := &ctdf.Route{PrimaryIdentifier: "R1", ShortName: "1", Mode: ctdf.TransitModeBus, Agency: agency1, Operator: operator1}
	route2 := &ctdf.Route{PrimaryIdentifier: "R2", ShortName: "2", Mode: ctdf.TransitModeRail, Agency: agency2, Operator: operator2}
	model.AddRoute(route1)
	model.AddRoute(route2)

	addTrip(model, "T1", route1, []string{"A", "B", "C1", "D"}, 8*3600, 300)
	addTrip(model, "T2", route1, []string{"A", "B", "C1", "D"}, 9*3600, 300)
	addTrip(model, "T5", route1, []string{"A", "B", "C1", "D", "E"}, 10*3600, 300)
	addTrip(model, "T3", route2, []string{"A", "E"}, 11*3600, 1800)

	for day := 1; day <= 31; day++ {
		model.AddServiceDate("WEEK", ctdf.NewServiceDate(2024, time.May, day))
	}

	return model
}

func addTrip(model *ctdf.TransitModel, tripID string, route *ctdf.Route, stopIDs []string, start int, interval int) {
	trip := &ctdf.Trip{
		PrimaryIdentifier: tripID,
		ServiceRef:        "WEEK",
		Route:             route,
		Operator:          route.Operator,
		Headsign:          "Stop " + stopIDs[len(stopIDs)-1],
		Mode:              route.Mode,
	}

	stops := make([]*ctdf.Stop, len(stopIDs))
	times := make([]int, len(stopIDs))
	for i, stopID := range stopIDs {
		stops[i] = model.Stop(stopID)
		times[i] = start + i*interval
	}

	scheduled, err := ctdf.NewScheduledTripTimes(trip, times, append([]int(nil), times...), nil, nil)
	if err != nil {
		panic(fmt.Sprintf("invalid test trip %s: %s", tripID, err))
	}

	model.AddTrip(trip, ctdf.NewStopPattern(stops), scheduled)
}

// Seconds converts a clock time into seconds since the start of the day
func Seconds(hour int, minute int) int {
	return hour*3600 + minute*60
}
