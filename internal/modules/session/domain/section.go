package domain

import "time"

// SectionTiming records how long one agenda section actually took.
// ActualSeconds and OverrunSeconds are fixed only when the section ends.
type SectionTiming struct {
	AllocatedSeconds int64      `json:"allocated"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	PausedSeconds    int64      `json:"paused_duration"`
	ActualSeconds    *int64     `json:"actual,omitempty"`
	OverrunSeconds   *int64     `json:"overrun,omitempty"`
}

func (t SectionTiming) InProgress() bool {
	return !t.StartedAt.IsZero() && t.EndedAt == nil
}

func (t *SectionTiming) finish(endedAt time.Time) {
	actual := max(wholeSeconds(endedAt.Sub(t.StartedAt))-t.PausedSeconds, 0)
	t.EndedAt = &endedAt
	t.ActualSeconds = &actual
	t.OverrunSeconds = nil
	if actual > t.AllocatedSeconds {
		overrun := actual - t.AllocatedSeconds
		t.OverrunSeconds = &overrun
	}
}

func wholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
