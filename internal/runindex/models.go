package runindex

import "time"

// Status tracks a run through its lifecycle.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one recorded experiment run. Content IDs point into the artifact
// store; the index never copies artifact payloads.
type Run struct {
	ID           string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Metric       string
	Rounds       int
	BaseSeed     int64
	CollectionID string
	FilterID     string
	ConfigID     string
	ResultID     string
	ManifestID   string
	MeanAccuracy float64
	ErrorMessage string
}
