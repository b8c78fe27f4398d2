package applier

import (
	"fmt"

	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"golang.org/x/exp/slices"
)

// TripDifference is a trip the two runs of a shadow comparison disagree on
type TripDifference struct {
	TripID      string
	ServiceDate ctdf.ServiceDate
	Reason      string

	Primary *ctdf.RealTimeTripTimes
	Shadow  *ctdf.RealTimeTripTimes
}

type Comparison struct {
	Primary *BatchResult
	Shadow  *BatchResult

	Differences []TripDifference
}

func (c *Comparison) Equal() bool {
	return len(c.Differences) == 0
}

// ShadowCompare applies the same batch with two appliers, each to its own
// buffer seeded from the committed snapshot, and reports the trips whose
// realtime times differ. Neither buffer reaches the manager.
func ShadowCompare(manager *snapshot.Manager, primary *Applier, shadow *Applier, feedID string, updates []ParseResult, incrementality Incrementality) *Comparison {
	primaryBuffer := manager.SeedBuffer()
	shadowBuffer := manager.SeedBuffer()

	comparison := &Comparison{
		Primary: primary.ApplyToBuffer(primaryBuffer, feedID, updates, incrementality),
		Shadow:  shadow.ApplyToBuffer(shadowBuffer, feedID, updates, incrementality),
	}

	type tripDate struct {
		tripID      string
		serviceDate ctdf.ServiceDate
	}

	var touched []tripDate
	for _, result := range []*BatchResult{comparison.Primary, comparison.Shadow} {
		for _, update := range result.Successes {
			key := tripDate{tripID: update.TripID(), serviceDate: update.ServiceDate}
			if !slices.Contains(touched, key) {
				touched = append(touched, key)
			}
		}
	}

	for _, key := range touched {
		primaryTimes := primaryBuffer.RealTimeTripTimes(key.tripID, key.serviceDate)
		shadowTimes := shadowBuffer.RealTimeTripTimes(key.tripID, key.serviceDate)

		if reason := compareTripTimes(primaryTimes, shadowTimes); reason != "" {
			comparison.Differences = append(comparison.Differences, TripDifference{
				TripID:      key.tripID,
				ServiceDate: key.serviceDate,
				Reason:      reason,
				Primary:     primaryTimes,
				Shadow:      shadowTimes,
			})
		}
	}

	return comparison
}

func compareTripTimes(primary *ctdf.RealTimeTripTimes, shadow *ctdf.RealTimeTripTimes) string {
	switch {
	case primary == nil && shadow == nil:
		return ""
	case primary == nil:
		return "missing from primary"
	case shadow == nil:
		return "missing from shadow"
	case primary.State != shadow.State:
		return fmt.Sprintf("state %s != %s", primary.State, shadow.State)
	case primary.NumStops() != shadow.NumStops():
		return fmt.Sprintf("%d stops != %d stops", primary.NumStops(), shadow.NumStops())
	}

	for stop := 0; stop < primary.NumStops(); stop++ {
		if primary.ArrivalTime(stop) != shadow.ArrivalTime(stop) {
			return fmt.Sprintf("stop %d arrival %d != %d", stop, primary.ArrivalTime(stop), shadow.ArrivalTime(stop))
		}
		if primary.DepartureTime(stop) != shadow.DepartureTime(stop) {
			return fmt.Sprintf("stop %d departure %d != %d", stop, primary.DepartureTime(stop), shadow.DepartureTime(stop))
		}
		if primary.StopState(stop) != shadow.StopState(stop) {
			return fmt.Sprintf("stop %d state %s != %s", stop, primary.StopState(stop), shadow.StopState(stop))
		}
	}

	return ""
}
