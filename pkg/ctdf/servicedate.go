package ctdf

import (
	"fmt"
	"time"
)

const ServiceDateFormat = "2006-01-02"
const ServiceDateCompactFormat = "20060102"

// ServiceDate is the operating calendar day a trip runs on. Times within a
// service day are counted in seconds from "noon minus 12h" so that trips
// running past midnight keep increasing times.
type ServiceDate struct {
	Year  int
	Month time.Month
	Day   int
}

func NewServiceDate(year int, month time.Month, day int) ServiceDate {
	return ServiceDateOf(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// ServiceDateOf returns the calendar day of t in t's own location
func ServiceDateOf(t time.Time) ServiceDate {
	year, month, day := t.Date()
	return ServiceDate{Year: year, Month: month, Day: day}
}

func ParseServiceDate(value string) (ServiceDate, error) {
	for _, layout := range []string{ServiceDateCompactFormat, ServiceDateFormat} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return ServiceDateOf(parsed), nil
		}
	}

	return ServiceDate{}, fmt.Errorf("invalid service date %q", value)
}

func (d ServiceDate) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

func (d ServiceDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d ServiceDate) Compact() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

func (d ServiceDate) noon(location *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, location)
}

func (d ServiceDate) AddDays(days int) ServiceDate {
	return ServiceDateOf(d.noon(time.UTC).AddDate(0, 0, days))
}

func (d ServiceDate) Weekday() time.Weekday {
	return d.noon(time.UTC).Weekday()
}

func (d ServiceDate) Before(other ServiceDate) bool {
	return d.Compact() < other.Compact()
}

func (d ServiceDate) After(other ServiceDate) bool {
	return d.Compact() > other.Compact()
}

// DaysUntil is the number of calendar days from d to other, negative when
// other is earlier
func (d ServiceDate) DaysUntil(other ServiceDate) int {
	return int(other.noon(time.UTC).Sub(d.noon(time.UTC)).Hours() / 24)
}

// StartOfService is the instant time-of-day offsets are measured from
func (d ServiceDate) StartOfService(location *time.Location) time.Time {
	return d.noon(location).Add(-12 * time.Hour)
}

// SecondsSinceStartOfService converts an instant into a service-day offset
func (d ServiceDate) SecondsSinceStartOfService(t time.Time, location *time.Location) int {
	return int(t.Sub(d.StartOfService(location)).Seconds())
}

// Time converts a service-day offset back into an instant
func (d ServiceDate) Time(secondsSinceStart int, location *time.Location) time.Time {
	return d.StartOfService(location).Add(time.Duration(secondsSinceStart) * time.Second)
}
