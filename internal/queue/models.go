package queue

import "time"

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusDownloading Status = "downloading"
	StatusDownloaded  Status = "downloaded"
	StatusTranscoding Status = "transcoding"
	StatusCompleted   Status = "completed"
	StatusSkipped     Status = "skipped"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscoding,
	StatusCompleted,
	StatusSkipped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether the item has finished processing.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

// Item represents one media item persisted in SQLite.
type Item struct {
	ID           int64
	RunID        string
	Source       string
	SourceURL    string
	Title        string
	Uploader     string
	Status       Status
	RawFile      string
	OutputFile   string
	CoverFile    string
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary describes aggregated queue counts for a run.
type HealthSummary struct {
	Total     int
	Pending   int
	Active    int
	Completed int
	Skipped   int
	Failed    int
}
