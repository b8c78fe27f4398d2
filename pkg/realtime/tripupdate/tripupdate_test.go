package tripupdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
)

func TestTimeUpdateResolve(t *testing.T) {
	delay := DelayTimeUpdate(120)
	assert.True(t, delay.IsDelay())
	assert.False(t, delay.IsAbsolute())
	assert.Equal(t, 720, delay.Resolve(600, 86400))

	scheduled := 500
	absolute := AbsoluteTimeUpdate(650, &scheduled)
	assert.True(t, absolute.IsAbsolute())
	assert.Equal(t, 650, absolute.Resolve(600, 0))
	assert.Equal(t, 650+86400, absolute.Resolve(600, 86400))
	anchor, ok := absolute.Scheduled()
	assert.True(t, ok)
	assert.Equal(t, 500, anchor)

	_, ok = AbsoluteTimeUpdate(650, nil).Scheduled()
	assert.False(t, ok)
}

func TestTimeShiftToPreviousDay(t *testing.T) {
	update := ParsedTripUpdate{ServiceDate: ctdf.NewServiceDate(2024, time.May, 2)}

	assert.Equal(t, 86400, update.TimeShift(ctdf.NewServiceDate(2024, time.May, 1)))
	assert.Equal(t, 0, update.TimeShift(ctdf.NewServiceDate(2024, time.May, 2)))
	assert.Equal(t, 0, (&ParsedTripUpdate{}).TimeShift(ctdf.NewServiceDate(2024, time.May, 2)))
}

func TestUpdateErrorConversion(t *testing.T) {
	err := &ctdf.DataValidationError{Kind: ctdf.DataValidationNegativeDwellTime, TripID: "T1", StopIndex: 3}

	converted := AsUpdateError("T1", err)
	assert.Equal(t, ErrorNegativeDwellTime, converted.Type)
	assert.Equal(t, 3, converted.StopIndex)
	assert.True(t, converted.HasStopIndex())

	plain := NewUpdateError("T2", ErrorTripNotFound)
	assert.Same(t, plain, AsUpdateError("T2", plain))
	assert.False(t, plain.HasStopIndex())
	assert.Equal(t, `TRIP_NOT_FOUND for trip "T2"`, plain.Error())
}

func TestSkippedStopsCancelBoarding(t *testing.T) {
	none := ctdf.PickDropNone
	skipped := ParsedStopTimeUpdate{Status: StopUpdateStatusSkipped, Pickup: &none}
	scheduled := ParsedStopTimeUpdate{Status: StopUpdateStatusScheduled, Pickup: &none}

	assert.Equal(t, ctdf.PickDropCancelled, skipped.PickupOr(ctdf.PickDropScheduled))
	assert.Equal(t, ctdf.PickDropNone, scheduled.PickupOr(ctdf.PickDropScheduled))
	assert.Equal(t, ctdf.PickDropScheduled, scheduled.DropoffOr(ctdf.PickDropScheduled))
}
