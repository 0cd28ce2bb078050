package domain

import "time"

// Dataset names, also used as cache file stems.
const (
	DatasetDaily = "casualties_daily"
	DatasetNames = "killed_names"
)

// Source names used in logs, metrics and notifications.
const (
	SourceCSV      = "csv"
	SourceJSON     = "json"
	SourceRegistry = "registry"
)

// SnapshotEvent announces that a dataset was fetched from its remote source
// and written to the cache.
type SnapshotEvent struct {
	Dataset    string    `json:"dataset"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	Skipped    int       `json:"skipped,omitempty"`
	Path       string    `json:"path"`
	LatestDate *Date     `json:"latest_date,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}
