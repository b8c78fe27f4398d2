package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/tripupdate"
	"github.com/travigo/timetable-realtime/pkg/util"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "realtime.yml"
const defaultCommitInterval = 5 * time.Second
const defaultPollInterval = 30 * time.Second
const defaultAPIListen = ":8080"

var ErrNoFeeds = errors.New("No feeds configured")

const (
	FormatGTFSRT = "gtfs-rt"
	FormatSIRIET = "siri-et"
)

// Feed is one realtime feed to poll
type Feed struct {
	ID       string            `yaml:"id" validate:"required"`
	Format   string            `yaml:"format" validate:"required,oneof=gtfs-rt siri-et"`
	URL      string            `yaml:"url" validate:"required,url"`
	Headers  map[string]string `yaml:"headers"`
	Timezone string            `yaml:"timezone"`
	Interval time.Duration     `yaml:"interval" validate:"gte=0"`

	// SIRI carries no incrementality so it is set per feed. GTFS-RT feeds
	// state it in their header.
	Incrementality string `yaml:"incrementality" validate:"omitempty,oneof=FULL_DATASET DIFFERENTIAL"`

	BackwardsPropagation      string `yaml:"backwardsPropagation" validate:"omitempty,oneof=REQUIRED ALWAYS NONE"`
	ForwardsPropagation       string `yaml:"forwardsPropagation" validate:"omitempty,oneof=DEFAULT NONE"`
	StopReplacementConstraint string `yaml:"stopReplacementConstraint" validate:"omitempty,oneof=ANY_STOP NOT_ALLOWED SAME_PARENT_STATION"`
	StopUpdateStrategy        string `yaml:"stopUpdateStrategy" validate:"omitempty,oneof=FULL_UPDATE PARTIAL_UPDATE"`
	FuzzyTripMatching         bool   `yaml:"fuzzyTripMatching"`
	StrictNewTrips            bool   `yaml:"strictNewTrips"`
}

type Config struct {
	Feeds []Feed `yaml:"feeds" validate:"dive"`

	CommitInterval    time.Duration `yaml:"commitInterval" validate:"gte=0"`
	PurgeAfterDays    int           `yaml:"purgeAfterDays" validate:"gte=0"`
	ScheduleDirectory string        `yaml:"scheduleDirectory"`
	APIListen         string        `yaml:"apiListen"`
}

// Load reads the config file named by TRAVIGO_REALTIME_CONFIG, or
// realtime.yml, and applies the environment overrides
func Load() (*Config, error) {
	env := util.GetEnvironmentVariables()

	path := defaultConfigPath
	if env["TRAVIGO_REALTIME_CONFIG"] != "" {
		path = env["TRAVIGO_REALTIME_CONFIG"]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := config.applyEnvironment(env); err != nil {
		return nil, err
	}

	return config, nil
}

// Parse decodes and validates a YAML config, filling in defaults
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	if len(config.Feeds) == 0 {
		return nil, ErrNoFeeds
	}

	seen := map[string]bool{}
	for i := range config.Feeds {
		feed := &config.Feeds[i]
		if seen[feed.ID] {
			return nil, fmt.Errorf("duplicate feed id %s", feed.ID)
		}
		seen[feed.ID] = true

		if _, err := feed.Location(); err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.ID, err)
		}
		if feed.Interval == 0 {
			feed.Interval = defaultPollInterval
		}
	}

	if config.CommitInterval == 0 {
		config.CommitInterval = defaultCommitInterval
	}
	if config.APIListen == "" {
		config.APIListen = defaultAPIListen
	}

	return &config, nil
}

func (c *Config) applyEnvironment(env map[string]string) error {
	if env["TRAVIGO_REALTIME_COMMIT_INTERVAL"] != "" {
		interval, err := time.ParseDuration(env["TRAVIGO_REALTIME_COMMIT_INTERVAL"])
		if err != nil {
			return fmt.Errorf("TRAVIGO_REALTIME_COMMIT_INTERVAL: %w", err)
		}
		c.CommitInterval = interval
	}

	if env["TRAVIGO_REALTIME_PURGE_AFTER_DAYS"] != "" {
		days, err := strconv.Atoi(env["TRAVIGO_REALTIME_PURGE_AFTER_DAYS"])
		if err != nil {
			return fmt.Errorf("TRAVIGO_REALTIME_PURGE_AFTER_DAYS: %w", err)
		}
		c.PurgeAfterDays = days
	}

	if env["TRAVIGO_SCHEDULE_DIRECTORY"] != "" {
		c.ScheduleDirectory = env["TRAVIGO_SCHEDULE_DIRECTORY"]
	}
	if env["TRAVIGO_REALTIME_API_LISTEN"] != "" {
		c.APIListen = env["TRAVIGO_REALTIME_API_LISTEN"]
	}

	return nil
}

// Feed returns the feed with the given id, or nil
func (c *Config) Feed(id string) *Feed {
	for i := range c.Feeds {
		if c.Feeds[i].ID == id {
			return &c.Feeds[i]
		}
	}

	return nil
}

func (f *Feed) Location() (*time.Location, error) {
	if f.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(f.Timezone)
}

// UpdateOptions returns the defaults of the feed format with the configured
// overrides applied
func (f *Feed) UpdateOptions() tripupdate.UpdateOptions {
	options := tripupdate.DefaultGTFSRTOptions()
	if f.Format == FormatSIRIET {
		options = tripupdate.DefaultSIRIOptions()
	}

	if f.BackwardsPropagation != "" {
		options.BackwardsPropagation = tripupdate.BackwardsPropagation(f.BackwardsPropagation)
	}
	// SIRI only carries absolute times
	if f.ForwardsPropagation != "" && f.Format != FormatSIRIET {
		options.ForwardsPropagation = tripupdate.ForwardsPropagation(f.ForwardsPropagation)
	}
	if f.StopReplacementConstraint != "" {
		options.StopReplacementConstraint = tripupdate.StopReplacementConstraint(f.StopReplacementConstraint)
	}
	if f.StopUpdateStrategy != "" {
		options.StopUpdateStrategy = tripupdate.StopUpdateStrategy(f.StopUpdateStrategy)
	}
	options.StrictNewTrips = f.StrictNewTrips

	return options
}

// ParseContext describes the feed to the parsers, for a payload fetched at
// the given time
func (f *Feed) ParseContext(fetched time.Time) tripupdate.ParseContext {
	location, err := f.Location()
	if err != nil {
		location = time.UTC
	}

	return tripupdate.ParseContext{
		FeedID:   f.ID,
		TimeZone: location,
		ServiceDateSupplier: func() ctdf.ServiceDate {
			return ctdf.ServiceDateOf(fetched.In(location))
		},
		Options:           f.UpdateOptions(),
		FuzzyTripMatching: f.FuzzyTripMatching,
		DataSource: &ctdf.DataSource{
			OriginalFormat: f.dataSourceFormat(),
			Provider:       f.ID,
			Dataset:        f.URL,
			Timestamp:      fetched,
		},
	}
}

func (f *Feed) dataSourceFormat() string {
	if f.Format == FormatSIRIET {
		return ctdf.DataSourceFormatSIRIET
	}

	return ctdf.DataSourceFormatGTFSRT
}
