package events

import (
	"time"
)

// EventType represents different types of progress events
type EventType string

const (
	EventProgressChanged EventType = "progress.changed"
	EventQuizScored      EventType = "progress.quiz_scored"
	EventProgressReset   EventType = "progress.reset"
)

// ProgressEvent is the envelope for every externally broadcast progress
// change.
type ProgressEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ProgressChangedEvent mirrors the in-process change notification: which
// module moved and the recomputed percentages.
type ProgressChangedEvent struct {
	ModuleID        string `json:"module_id"`
	OverallProgress int    `json:"overall_progress"`
	ModuleProgress  *int   `json:"module_progress,omitempty"`
}

// QuizScoredEvent carries the outcome of a completed quiz pass.
type QuizScoredEvent struct {
	ModuleID     string `json:"module_id"`
	ScorePercent int    `json:"score_percent"`
	Passed       bool   `json:"passed"`
}
