package domain

import "time"

// ActiveSeconds is wall time since start minus every pause, including the
// one still open. Ended sessions are measured up to EndedAt.
func (s Session) ActiveSeconds(now time.Time) int64 {
	until := now
	if s.EndedAt != nil {
		until = *s.EndedAt
	}
	elapsed := until.Sub(s.StartTime) - s.ongoingPause(s.StartTime, until)
	return max(wholeSeconds(elapsed)-s.TotalPausedSeconds, 0)
}

// SectionSeconds is the live duration of an in-progress section or the
// fixed actual of a finished one. ok is false when the section never started.
func (s Session) SectionSeconds(id string, now time.Time) (seconds int64, ok bool) {
	timing, ok := s.SectionTimings[id]
	if !ok {
		return 0, false
	}
	if !timing.InProgress() {
		if timing.ActualSeconds != nil {
			return *timing.ActualSeconds, true
		}
		return 0, true
	}
	raw := now.Sub(timing.StartedAt) - s.ongoingPause(timing.StartedAt, now)
	return max(wholeSeconds(raw)-timing.PausedSeconds, 0), true
}

// CurrentSectionSeconds is zero when no section is current.
func (s Session) CurrentSectionSeconds(now time.Time) int64 {
	if s.CurrentSectionID == "" {
		return 0
	}
	seconds, _ := s.SectionSeconds(s.CurrentSectionID, now)
	return seconds
}
