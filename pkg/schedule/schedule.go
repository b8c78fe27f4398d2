// Package schedule loads a static GTFS dataset into the in-memory transit
// model the realtime packages resolve updates against.
package schedule

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"golang.org/x/exp/slices"
)

var ErrMissingFile = errors.New("GTFS dataset is missing a required file")

type Schedule struct {
	Agencies      []Agency
	Stops         []Stop
	Routes        []Route
	Trips         []Trip
	StopTimes     []StopTime
	Calendars     []Calendar
	CalendarDates []CalendarDate
}

func init() {
	// Allow us to ignore those naughty records that have missing columns
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		return r
	})
}

func (s *Schedule) files() map[string]interface{} {
	return map[string]interface{}{
		"agency.txt":         &s.Agencies,
		"stops.txt":          &s.Stops,
		"routes.txt":         &s.Routes,
		"trips.txt":          &s.Trips,
		"stop_times.txt":     &s.StopTimes,
		"calendar.txt":       &s.Calendars,
		"calendar_dates.txt": &s.CalendarDates,
	}
}

var requiredFiles = []string{"agency.txt", "stops.txt", "routes.txt", "trips.txt", "stop_times.txt"}

// Parse reads the GTFS files of a dataset from any filesystem, such as a
// directory or an opened zip archive
func Parse(fsys fs.FS) (*Schedule, error) {
	schedule := &Schedule{}

	for fileName, destination := range schedule.files() {
		file, err := fsys.Open(fileName)
		if errors.Is(err, fs.ErrNotExist) {
			if slices.Contains(requiredFiles, fileName) {
				return nil, fmt.Errorf("%w: %s", ErrMissingFile, fileName)
			}
			continue
		} else if err != nil {
			return nil, err
		}

		log.Debug().Str("file", fileName).Msg("Loading file")

		err = gocsv.Unmarshal(file, destination)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", fileName, err)
		}
	}

	return schedule, nil
}

// LoadGTFS loads a dataset from a directory or a zip file and builds the
// transit model for the given feed
func LoadGTFS(path string, feedID string) (*ctdf.TransitModel, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var schedule *Schedule
	if info.IsDir() {
		schedule, err = Parse(os.DirFS(path))
	} else {
		var archive *zip.ReadCloser
		archive, err = zip.OpenReader(path)
		if err != nil {
			return nil, err
		}
		defer archive.Close()

		schedule, err = Parse(archive)
	}
	if err != nil {
		return nil, err
	}

	model, err := schedule.TransitModel(feedID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", filepath.Base(path)).Interface("counts", model.Counts()).Msg("Loaded GTFS schedule")

	return model, nil
}

// TransitModel converts the parsed files. Trips with times that are not
// increasing are skipped.
func (s *Schedule) TransitModel(feedID string) (*ctdf.TransitModel, error) {
	location := time.UTC
	if len(s.Agencies) > 0 && s.Agencies[0].Timezone != "" {
		var err error
		location, err = time.LoadLocation(s.Agencies[0].Timezone)
		if err != nil {
			return nil, fmt.Errorf("agency timezone: %w", err)
		}
	}

	model := ctdf.NewTransitModel(feedID, location)

	for _, agency := range s.Agencies {
		model.AddAgency(&ctdf.Agency{
			PrimaryIdentifier: agency.ID,
			PrimaryName:       agency.Name,
			Website:           agency.URL,
			Timezone:          agency.Timezone,
		})
		model.AddOperator(&ctdf.Operator{
			PrimaryIdentifier: agency.ID,
			PrimaryName:       agency.Name,
			Website:           agency.URL,
			PhoneNumber:       agency.Phone,
		})
	}

	for _, stop := range s.Stops {
		ctdfStop := &ctdf.Stop{
			PrimaryIdentifier:  stop.ID,
			PrimaryName:        stop.Name,
			ParentStationRef:   stop.Parent,
			WheelchairBoarding: ctdf.AccessibilityFromGTFS(stop.Wheelchair),
		}
		if stop.Latitude != 0 || stop.Longitude != 0 {
			ctdfStop.Location = &ctdf.Location{Latitude: stop.Latitude, Longitude: stop.Longitude}
		}

		model.AddStop(ctdfStop)
	}

	for _, route := range s.Routes {
		agencyID := route.AgencyID
		if agencyID == "" && len(s.Agencies) == 1 {
			agencyID = s.Agencies[0].ID
		}

		model.AddRoute(&ctdf.Route{
			PrimaryIdentifier: route.ID,
			ShortName:         route.ShortName,
			LongName:          route.LongName,
			URL:               route.URL,
			Mode:              ctdf.TransitModeFromGTFSRouteType(route.Type),
			Agency:            model.Agency(agencyID),
			Operator:          model.Operator(agencyID),
		})
	}

	stopTimes := map[string][]StopTime{}
	for _, stopTime := range s.StopTimes {
		stopTimes[stopTime.TripID] = append(stopTimes[stopTime.TripID], stopTime)
	}

	for _, trip := range s.Trips {
		if err := s.addTrip(model, trip, stopTimes[trip.ID]); err != nil {
			log.Warn().Err(err).Str("trip", trip.ID).Msg("Skipping trip")
		}
	}

	if err := s.addCalendar(model); err != nil {
		return nil, err
	}

	return model, nil
}

func (s *Schedule) addTrip(model *ctdf.TransitModel, trip Trip, stopTimes []StopTime) error {
	route := model.Route(trip.RouteID)
	if route == nil {
		return fmt.Errorf("unknown route %s", trip.RouteID)
	}
	if len(stopTimes) < 2 {
		return fmt.Errorf("trip has %d stop times", len(stopTimes))
	}

	slices.SortFunc(stopTimes, func(a, b StopTime) int {
		return a.StopSequence - b.StopSequence
	})

	ctdfTrip := &ctdf.Trip{
		PrimaryIdentifier:       trip.ID,
		ServiceRef:              trip.ServiceID,
		Route:                   route,
		Operator:                route.Operator,
		Headsign:                trip.Headsign,
		ShortName:               trip.Name,
		Mode:                    route.Mode,
		WheelchairAccessibility: ctdf.AccessibilityFromGTFS(trip.WheelchairAccessible),
	}
	if direction, err := strconv.Atoi(trip.DirectionID); err == nil {
		ctdfTrip.DirectionID = &direction
	}

	stops := make([]*ctdf.Stop, len(stopTimes))
	arrivals := make([]int, len(stopTimes))
	departures := make([]int, len(stopTimes))
	sequences := make([]int, len(stopTimes))
	headsigns := make([]string, len(stopTimes))
	hasHeadsigns := false

	for i, stopTime := range stopTimes {
		stops[i] = model.Stop(stopTime.StopID)
		if stops[i] == nil {
			return fmt.Errorf("unknown stop %s", stopTime.StopID)
		}

		arrival, departure, err := stopTimeSeconds(stopTime)
		if err != nil {
			return err
		}
		arrivals[i] = arrival
		departures[i] = departure
		sequences[i] = stopTime.StopSequence

		headsigns[i] = stopTime.StopHeadsign
		if stopTime.StopHeadsign != "" {
			hasHeadsigns = true
		}
	}
	if !hasHeadsigns {
		headsigns = nil
	}

	stopPattern := ctdf.NewStopPattern(stops)
	for i, stopTime := range stopTimes {
		stopPattern.Pickups[i] = ctdf.PickDropFromGTFS(stopTime.PickupType)
		stopPattern.Dropoffs[i] = ctdf.PickDropFromGTFS(stopTime.DropOffType)
	}

	scheduled, err := ctdf.NewScheduledTripTimes(ctdfTrip, arrivals, departures, sequences, headsigns)
	if err != nil {
		return err
	}

	model.AddTrip(ctdfTrip, stopPattern, scheduled)

	return nil
}

// stopTimeSeconds fills a missing arrival or departure from the other side
func stopTimeSeconds(stopTime StopTime) (int, int, error) {
	arrivalTime := stopTime.ArrivalTime
	departureTime := stopTime.DepartureTime
	if arrivalTime == "" {
		arrivalTime = departureTime
	}
	if departureTime == "" {
		departureTime = arrivalTime
	}

	arrival, err := ParseTime(arrivalTime)
	if err != nil {
		return 0, 0, err
	}
	departure, err := ParseTime(departureTime)
	if err != nil {
		return 0, 0, err
	}

	return arrival, departure, nil
}

// ParseTime converts a GTFS HH:MM:SS time, which may be past 24:00:00, into
// seconds since the start of the service day
func ParseTime(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid GTFS time %q", value)
	}

	seconds := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid GTFS time %q", value)
		}
		seconds = seconds*60 + n
	}

	return seconds, nil
}

func (s *Schedule) addCalendar(model *ctdf.TransitModel) error {
	for _, calendar := range s.Calendars {
		start, err := ctdf.ParseServiceDate(calendar.Start)
		if err != nil {
			return fmt.Errorf("calendar %s: %w", calendar.ServiceID, err)
		}
		end, err := ctdf.ParseServiceDate(calendar.End)
		if err != nil {
			return fmt.Errorf("calendar %s: %w", calendar.ServiceID, err)
		}

		for date := start; !date.After(end); date = date.AddDays(1) {
			if calendar.RunsOnWeekday(int(date.Weekday())) {
				model.AddServiceDate(calendar.ServiceID, date)
			}
		}
	}

	for _, calendarDate := range s.CalendarDates {
		date, err := ctdf.ParseServiceDate(calendarDate.Date)
		if err != nil {
			return fmt.Errorf("calendar date %s: %w", calendarDate.ServiceID, err)
		}

		switch calendarDate.ExceptionType {
		case CalendarDateAdded:
			model.AddServiceDate(calendarDate.ServiceID, date)
		case CalendarDateRemoved:
			model.RemoveServiceDate(calendarDate.ServiceID, date)
		}
	}

	return nil
}
