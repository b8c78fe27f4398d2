package tripupdate

import "github.com/travigo/timetable-realtime/pkg/ctdf"

type StopUpdateStatus string

const (
	StopUpdateStatusScheduled StopUpdateStatus = "SCHEDULED"
	StopUpdateStatusSkipped   StopUpdateStatus = "SKIPPED"
	StopUpdateStatusNoData    StopUpdateStatus = "NO_DATA"
	StopUpdateStatusAdded     StopUpdateStatus = "ADDED"
	StopUpdateStatusCancelled StopUpdateStatus = "CANCELLED"
)

type StopResolutionStrategy string

const (
	// Resolve the primary stop id only
	StopResolutionDirect StopResolutionStrategy = "DIRECT"
	// Prefer the assigned stop, falling back to the primary one
	StopResolutionAssigned StopResolutionStrategy = "ASSIGNED"
)

type StopReference struct {
	StopID         string
	AssignedStopID string
	Strategy       StopResolutionStrategy
}

func (s StopReference) IsEmpty() bool {
	return s.StopID == "" && s.AssignedStopID == ""
}

// TimeUpdate is either a delay relative to the schedule or an absolute time
// in seconds since the start of the service day, never both
type TimeUpdate struct {
	delay     *int
	absolute  *int
	scheduled *int
}

func DelayTimeUpdate(delay int) *TimeUpdate {
	return &TimeUpdate{delay: &delay}
}

// AbsoluteTimeUpdate may carry the scheduled time the absolute one replaces
func AbsoluteTimeUpdate(time int, scheduled *int) *TimeUpdate {
	return &TimeUpdate{absolute: &time, scheduled: scheduled}
}

func (t *TimeUpdate) IsDelay() bool {
	return t.delay != nil
}

func (t *TimeUpdate) IsAbsolute() bool {
	return t.absolute != nil
}

func (t *TimeUpdate) Delay() int {
	if t.delay == nil {
		return 0
	}
	return *t.delay
}

func (t *TimeUpdate) Time() int {
	if t.absolute == nil {
		return 0
	}
	return *t.absolute
}

func (t *TimeUpdate) Scheduled() (int, bool) {
	if t.scheduled == nil {
		return 0, false
	}
	return *t.scheduled, true
}

// Resolve returns the realtime time given the scheduled time of the stop
// and the shift between the update's day and the resolved service date
func (t *TimeUpdate) Resolve(scheduledTime int, timeShift int) int {
	if t.IsAbsolute() {
		return t.Time() + timeShift
	}

	return scheduledTime + t.Delay()
}

type ParsedStopTimeUpdate struct {
	StopReference StopReference
	StopSequence  *int

	Status StopUpdateStatus

	Arrival   *TimeUpdate
	Departure *TimeUpdate

	Headsign  string
	Pickup    *ctdf.PickDrop
	Dropoff   *ctdf.PickDrop
	Occupancy *ctdf.OccupancyStatus

	IsExtraCall          bool
	Recorded             bool
	PredictionInaccurate bool
}

func (s *ParsedStopTimeUpdate) IsSkipped() bool {
	return s.Status == StopUpdateStatusSkipped || s.Status == StopUpdateStatusCancelled
}

func (s *ParsedStopTimeUpdate) PickupOr(fallback ctdf.PickDrop) ctdf.PickDrop {
	if s.IsSkipped() {
		return ctdf.PickDropCancelled
	}
	if s.Pickup != nil {
		return *s.Pickup
	}
	return fallback
}

func (s *ParsedStopTimeUpdate) DropoffOr(fallback ctdf.PickDrop) ctdf.PickDrop {
	if s.IsSkipped() {
		return ctdf.PickDropCancelled
	}
	if s.Dropoff != nil {
		return *s.Dropoff
	}
	return fallback
}
