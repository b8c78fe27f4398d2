package ctdf

import "time"

const (
	DataSourceFormatGTFSRT = "GTFS-RT"
	DataSourceFormatSIRIET = "SIRI-ET"
	DataSourceFormatGTFS   = "GTFS"
)

type DataSource struct {
	OriginalFormat string    `groups:"internal"`
	Provider       string    `groups:"internal"`
	Dataset        string    `groups:"internal"`
	Identifier     string    `groups:"internal"`
	Timestamp      time.Time `groups:"internal"`
}
