package domain

import "time"

// SaveStatus enumerates aggregate outcomes of a batch insert.
type SaveStatus string

const (
	SaveSuccess        SaveStatus = "success"
	SavePartialSuccess SaveStatus = "partial_success"
	SaveError          SaveStatus = "error"
)

// SaveResult is the aggregate outcome of persisting one batch.
type SaveResult struct {
	Status     SaveStatus `json:"status"`
	Message    string     `json:"message"`
	Errors     []string   `json:"errors,omitempty"`
	Saved      int        `json:"saved"`
	Failed     int        `json:"failed"`
	Duplicates int        `json:"duplicates"`
}

// RunEvent is a timestamped status line emitted while a run progresses.
type RunEvent struct {
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
}

// RunSummary aggregates one pass of the article pipeline.
type RunSummary struct {
	TotalArticle int         `json:"totalArticle"`
	TotalSaved   int         `json:"totalSaved"`
	TotalSkipped int         `json:"totalSkipped"`
	TotalError   int         `json:"totalError"`
	ErrorList    []string    `json:"errorList"`
	Events       []RunEvent  `json:"-"`
	Save         *SaveResult `json:"save,omitempty"`
}

// RunLog is returned by a full sweep: source listing, harvest and pipeline.
// Summary is nil when the run stopped before the pipeline started.
type RunLog struct {
	RunID      string      `json:"runId"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
	Events     []RunEvent  `json:"events"`
	Summary    *RunSummary `json:"summary,omitempty"`
}

// Failed reports whether the run ended early, could not save, or recorded any error.
func (l RunLog) Failed() bool {
	return l.Summary == nil || l.Summary.Save == nil || l.Summary.TotalError > 0
}
