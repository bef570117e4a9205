package domain

import "time"

type Pace string

const (
	PaceAhead    Pace = "ahead"
	PaceOnTrack  Pace = "on-track"
	PaceBehind   Pace = "behind"
	PaceCritical Pace = "critical"
)

// PacePolicy holds deviation thresholds in percent of allocated time.
type PacePolicy struct {
	CriticalAbovePct float64
	BehindAbovePct   float64
	AheadBelowPct    float64
}

func DefaultPacePolicy() PacePolicy {
	return PacePolicy{CriticalAbovePct: 20, BehindAbovePct: 10, AheadBelowPct: -5}
}

// Classify reports the pace and the deviation percent of actual against allocated.
func (p PacePolicy) Classify(allocatedSeconds, actualSeconds int64) (Pace, float64) {
	if allocatedSeconds <= 0 {
		return PaceOnTrack, 0
	}
	deviation := float64(actualSeconds-allocatedSeconds) / float64(allocatedSeconds) * 100
	switch {
	case deviation > p.CriticalAbovePct:
		return PaceCritical, deviation
	case deviation > p.BehindAbovePct:
		return PaceBehind, deviation
	case deviation < p.AheadBelowPct:
		return PaceAhead, deviation
	default:
		return PaceOnTrack, deviation
	}
}

type PaceReport struct {
	Pace             Pace    `json:"pace"`
	DeviationPct     float64 `json:"deviation_pct"`
	AllocatedSeconds int64   `json:"allocated_seconds"`
	ActualSeconds    int64   `json:"actual_seconds"`
}

// MeetingPace sums allocated and actual time over the catalog sections that
// have been started, using live durations for sections still in progress.
func (s Session) MeetingPace(catalog Catalog, now time.Time, policy PacePolicy) PaceReport {
	report := PaceReport{}
	for _, section := range catalog {
		timing, ok := s.SectionTimings[section.ID]
		if !ok {
			continue
		}
		report.AllocatedSeconds += timing.AllocatedSeconds
		seconds, _ := s.SectionSeconds(section.ID, now)
		report.ActualSeconds += seconds
	}
	report.Pace, report.DeviationPct = policy.Classify(report.AllocatedSeconds, report.ActualSeconds)
	return report
}
