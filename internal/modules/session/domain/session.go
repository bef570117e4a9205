package domain

import (
	"sort"
	"strings"
	"time"

	apperrors "meetingd/internal/platform/errors"
)

const SchemaVersion = 1

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

type EndReason string

const (
	EndReasonCompleted EndReason = "completed"
	EndReasonAbandoned EndReason = "abandoned"
)

// Session is the timing aggregate of one live meeting.
type Session struct {
	ID             string
	OrganizationID string
	TeamID         string
	Kind           string
	FacilitatorID  string

	IsActive           bool
	IsPaused           bool
	StartTime          time.Time
	LastPauseTime      *time.Time
	LastResumeTime     *time.Time
	TotalPausedSeconds int64

	CurrentSectionID       string
	CurrentSectionStart    *time.Time
	SectionTimings         map[string]SectionTiming
	SectionsCompletedOrder []string

	EndedAt   *time.Time
	EndReason EndReason
	CreatedAt time.Time
	UpdatedAt time.Time
}

type StartParams struct {
	ID             string
	OrganizationID string
	TeamID         string
	Kind           string
	FacilitatorID  string
}

func NewSession(p StartParams, now time.Time) (Session, error) {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return Session{}, apperrors.New(apperrors.CodeInvalidInput, "session id is required")
	case strings.TrimSpace(p.OrganizationID) == "":
		return Session{}, apperrors.New(apperrors.CodeInvalidInput, "organization id is required")
	case strings.TrimSpace(p.TeamID) == "":
		return Session{}, apperrors.New(apperrors.CodeInvalidInput, "team id is required")
	case strings.TrimSpace(p.Kind) == "":
		return Session{}, apperrors.New(apperrors.CodeInvalidInput, "meeting type is required")
	case strings.TrimSpace(p.FacilitatorID) == "":
		return Session{}, apperrors.New(apperrors.CodeInvalidInput, "facilitator id is required")
	}
	return Session{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		TeamID:         p.TeamID,
		Kind:           p.Kind,
		FacilitatorID:  p.FacilitatorID,
		IsActive:       true,
		StartTime:      now,
		SectionTimings: map[string]SectionTiming{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s Session) Status() Status {
	switch {
	case !s.IsActive:
		return StatusEnded
	case s.IsPaused:
		return StatusPaused
	default:
		return StatusActive
	}
}

func (s *Session) Pause(now time.Time) error {
	if !s.IsActive || s.IsPaused {
		return invalidTransition("pause", *s)
	}
	s.IsPaused = true
	s.LastPauseTime = &now
	s.UpdatedAt = now
	return nil
}

// Resume folds the ongoing pause into the totals and returns its length in seconds.
func (s *Session) Resume(now time.Time) (int64, error) {
	if !s.IsActive || !s.IsPaused || s.LastPauseTime == nil {
		return 0, invalidTransition("resume", *s)
	}
	if current, ok := s.SectionTimings[s.CurrentSectionID]; ok && current.InProgress() {
		current.PausedSeconds += wholeSeconds(s.ongoingPause(current.StartedAt, now))
		s.SectionTimings[s.CurrentSectionID] = current
	}
	paused := wholeSeconds(now.Sub(*s.LastPauseTime))
	s.TotalPausedSeconds += paused
	s.IsPaused = false
	s.LastResumeTime = &now
	s.UpdatedAt = now
	return paused, nil
}

// StartSection makes the requested section current, ending a different
// section that is still in progress.
func (s *Session) StartSection(requested string, catalog Catalog, now time.Time) (Section, error) {
	if !s.IsActive {
		return Section{}, invalidTransition("start a section in", *s)
	}
	canonical := ResolveSectionID(requested)
	section, ok := catalog.Find(canonical)
	if !ok {
		return Section{}, unknownSection(requested, canonical, catalog.IDs())
	}
	if s.SectionTimings == nil {
		s.SectionTimings = map[string]SectionTiming{}
	}
	if s.CurrentSectionID != "" && s.CurrentSectionID != canonical {
		if current, ok := s.SectionTimings[s.CurrentSectionID]; ok && current.InProgress() {
			s.finishSection(s.CurrentSectionID, now)
		}
	}
	s.SectionTimings[canonical] = SectionTiming{
		AllocatedSeconds: section.AllocatedSeconds(),
		StartedAt:        now,
	}
	s.CurrentSectionID = canonical
	s.CurrentSectionStart = &now
	s.SectionsCompletedOrder = append(s.SectionsCompletedOrder, canonical)
	s.UpdatedAt = now
	return section, nil
}

func (s *Session) EndSection(requested string, now time.Time) (string, SectionTiming, error) {
	canonical := ResolveSectionID(requested)
	timing, ok := s.SectionTimings[canonical]
	if !ok || !timing.InProgress() {
		return canonical, SectionTiming{}, sectionNotStarted(requested, canonical, s.startedSectionIDs())
	}
	s.finishSection(canonical, now)
	s.UpdatedAt = now
	return canonical, s.SectionTimings[canonical], nil
}

// End deactivates the session. A pause still open is folded in as if the
// session had been resumed at now; the returned values describe that pause.
func (s *Session) End(now time.Time, reason EndReason) (closedPauseSeconds int64, wasPaused bool, err error) {
	if !s.IsActive {
		return 0, false, invalidTransition("end", *s)
	}
	if s.IsPaused {
		closedPauseSeconds, err = s.Resume(now)
		if err != nil {
			return 0, false, err
		}
		wasPaused = true
	}
	if current, ok := s.SectionTimings[s.CurrentSectionID]; ok && current.InProgress() {
		s.finishSection(s.CurrentSectionID, now)
	}
	if reason == "" {
		reason = EndReasonCompleted
	}
	s.IsActive = false
	s.EndedAt = &now
	s.EndReason = reason
	s.UpdatedAt = now
	return closedPauseSeconds, wasPaused, nil
}

func (s *Session) finishSection(id string, now time.Time) {
	timing := s.SectionTimings[id]
	timing.PausedSeconds += wholeSeconds(s.ongoingPause(timing.StartedAt, now))
	timing.finish(now)
	s.SectionTimings[id] = timing
}

// ongoingPause is the part of the open meeting pause that falls after since.
func (s Session) ongoingPause(since, now time.Time) time.Duration {
	if !s.IsPaused || s.LastPauseTime == nil {
		return 0
	}
	from := *s.LastPauseTime
	if since.After(from) {
		from = since
	}
	if d := now.Sub(from); d > 0 {
		return d
	}
	return 0
}

func (s Session) startedSectionIDs() []string {
	ids := make([]string, 0, len(s.SectionTimings))
	for id, timing := range s.SectionTimings {
		if timing.InProgress() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy safe to hand to readers.
func (s Session) Clone() Session {
	out := s
	out.SectionTimings = make(map[string]SectionTiming, len(s.SectionTimings))
	for id, timing := range s.SectionTimings {
		out.SectionTimings[id] = timing
	}
	out.SectionsCompletedOrder = append([]string(nil), s.SectionsCompletedOrder...)
	return out
}
