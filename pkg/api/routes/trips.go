package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
)

type TripStop struct {
	StopRef      string `groups:"basic"`
	StopSequence int    `groups:"detailed"`

	ScheduledArrivalTime   time.Time `groups:"basic"`
	ScheduledDepartureTime time.Time `groups:"basic"`

	ArrivalTime   time.Time `groups:"basic"`
	DepartureTime time.Time `groups:"basic"`

	ArrivalDelay   int `groups:"basic"`
	DepartureDelay int `groups:"basic"`

	State ctdf.StopRealTimeState `groups:"basic"`

	Headsign  string `groups:"detailed"`
	ExtraCall bool   `groups:"detailed"`
}

type TripDelay struct {
	StopRef        string `groups:"basic"`
	ArrivalDelay   int    `groups:"basic"`
	DepartureDelay int    `groups:"basic"`
}

type TripResponse struct {
	TripRef     string             `groups:"basic"`
	ServiceDate string             `groups:"basic"`
	RouteRef    string             `groups:"basic"`
	PatternRef  string             `groups:"basic"`
	State       ctdf.RealTimeState `groups:"basic"`
	RealTime    bool               `groups:"basic"`

	Trip *ctdf.Trip `groups:"detailed"`

	Stops []TripStop `groups:"basic"`
}

func TripsRouter(router fiber.Router, manager *snapshot.Manager, now func() time.Time) {
	router.Get("/:identifier", func(c *fiber.Ctx) error {
		return getTrip(c, manager.Snapshot(), now)
	})
	router.Get("/:identifier/pattern", func(c *fiber.Ctx) error {
		return getTripPattern(c, manager.Snapshot(), now)
	})
	router.Get("/:identifier/delays", func(c *fiber.Ctx) error {
		return getTripDelays(c, manager.Snapshot(), now)
	})
}

func AddedTripsRouter(router fiber.Router, manager *snapshot.Manager) {
	router.Get("/:identifier", func(c *fiber.Ctx) error {
		trip := manager.Snapshot().AddedTrip(c.Params("identifier"))
		if trip == nil {
			return sendError(c, fiber.StatusNotFound, "Could not find added Trip matching Identifier")
		}

		return sendReduced(c, trip)
	})
}

type tripLookup struct {
	serviceDate ctdf.ServiceDate
	times       *ctdf.RealTimeTripTimes
	pattern     *ctdf.TripPattern
}

func lookupTrip(c *fiber.Ctx, current *snapshot.Snapshot, now func() time.Time) (*tripLookup, error) {
	serviceDate, err := getServiceDate(c, current.Model(), now)
	if err != nil {
		return nil, sendError(c, fiber.StatusBadRequest, err.Error())
	}

	identifier := c.Params("identifier")
	times := current.TripTimes(identifier, serviceDate)
	pattern := current.PatternForTrip(identifier, serviceDate)
	if times == nil || pattern == nil {
		return nil, sendError(c, fiber.StatusNotFound, "Could not find Trip running on the date matching Identifier")
	}

	return &tripLookup{serviceDate: serviceDate, times: times, pattern: pattern}, nil
}

func getTrip(c *fiber.Ctx, current *snapshot.Snapshot, now func() time.Time) error {
	lookup, err := lookupTrip(c, current, now)
	if lookup == nil {
		return err
	}

	location := current.Model().TimeZone
	times := lookup.times

	response := TripResponse{
		TripRef:     times.TripID(),
		ServiceDate: lookup.serviceDate.String(),
		PatternRef:  lookup.pattern.PrimaryIdentifier,
		State:       times.State,
		RealTime:    current.RealTimeTripTimes(times.TripID(), lookup.serviceDate) != nil,
		Trip:        times.Trip(),
	}
	if lookup.pattern.Route != nil {
		response.RouteRef = lookup.pattern.Route.PrimaryIdentifier
	}

	for i := 0; i < times.NumStops(); i++ {
		response.Stops = append(response.Stops, TripStop{
			StopRef:                lookup.pattern.Stop(i).PrimaryIdentifier,
			StopSequence:           times.Scheduled.StopSequence(i),
			ScheduledArrivalTime:   lookup.serviceDate.Time(times.ScheduledArrivalTime(i), location),
			ScheduledDepartureTime: lookup.serviceDate.Time(times.ScheduledDepartureTime(i), location),
			ArrivalTime:            lookup.serviceDate.Time(times.ArrivalTime(i), location),
			DepartureTime:          lookup.serviceDate.Time(times.DepartureTime(i), location),
			ArrivalDelay:           times.ArrivalDelay(i),
			DepartureDelay:         times.DepartureDelay(i),
			State:                  times.StopState(i),
			Headsign:               times.Headsign(i),
			ExtraCall:              times.IsExtraCall(i),
		})
	}

	return sendReduced(c, response)
}

func getTripPattern(c *fiber.Ctx, current *snapshot.Snapshot, now func() time.Time) error {
	lookup, err := lookupTrip(c, current, now)
	if lookup == nil {
		return err
	}

	return sendReduced(c, lookup.pattern)
}

func getTripDelays(c *fiber.Ctx, current *snapshot.Snapshot, now func() time.Time) error {
	lookup, err := lookupTrip(c, current, now)
	if lookup == nil {
		return err
	}

	delays := []TripDelay{}
	for i := 0; i < lookup.times.NumStops(); i++ {
		delays = append(delays, TripDelay{
			StopRef:        lookup.pattern.Stop(i).PrimaryIdentifier,
			ArrivalDelay:   lookup.times.ArrivalDelay(i),
			DepartureDelay: lookup.times.DepartureDelay(i),
		})
	}

	return sendReduced(c, delays)
}
