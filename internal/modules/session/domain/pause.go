package domain

import (
	"fmt"
	"time"
)

// PauseEvent is one entry of the append-only pause ledger. It is open until
// ResumedAt is set; a session has at most one open event.
type PauseEvent struct {
	ID              string
	SessionID       string
	PausedAt        time.Time
	ResumedAt       *time.Time
	PausedBy        string
	ResumedBy       string
	Reason          string
	DurationSeconds *int64
}

func (e PauseEvent) Open() bool {
	return e.ResumedAt == nil
}

// Close returns the event completed at resumedAt.
func (e PauseEvent) Close(resumedBy string, resumedAt time.Time, durationSeconds int64) (PauseEvent, error) {
	if !e.Open() {
		return PauseEvent{}, fmt.Errorf("pause event %s is already closed", e.ID)
	}
	e.ResumedAt = &resumedAt
	e.ResumedBy = resumedBy
	e.DurationSeconds = &durationSeconds
	return e, nil
}
