package service

import (
	"strings"
	"time"

	"meetingd/internal/modules/session/domain"
	"meetingd/internal/modules/session/dto"
	"meetingd/internal/platform/clock"
	"meetingd/internal/platform/id"
)

// SessionService applies session transitions at the current clock reading.
// It holds no state of its own; persistence belongs to the caller.
type SessionService struct {
	clock  clock.Clock
	idGen  id.Generator
	policy domain.PacePolicy
	loc    *time.Location
}

func NewSessionService(clock clock.Clock, idGen id.Generator, policy domain.PacePolicy, loc *time.Location) *SessionService {
	if loc == nil {
		loc = time.Local
	}
	return &SessionService{clock: clock, idGen: idGen, policy: policy, loc: loc}
}

func (s *SessionService) Now() time.Time {
	return s.clock.Now().UTC()
}

func (s *SessionService) Policy() domain.PacePolicy {
	return s.policy
}

func (s *SessionService) Start(input dto.StartInput) (domain.Session, error) {
	return domain.NewSession(domain.StartParams{
		ID:             s.idGen.New(),
		OrganizationID: strings.TrimSpace(input.OrganizationID),
		TeamID:         strings.TrimSpace(input.TeamID),
		Kind:           strings.TrimSpace(input.MeetingType),
		FacilitatorID:  strings.TrimSpace(input.FacilitatorID),
	}, s.Now())
}

// Pause returns the ledger entry opened by the pause.
func (s *SessionService) Pause(session *domain.Session, actorID, reason string) (domain.PauseEvent, error) {
	now := s.Now()
	if err := session.Pause(now); err != nil {
		return domain.PauseEvent{}, err
	}
	return domain.PauseEvent{
		ID:        s.idGen.New(),
		SessionID: session.ID,
		PausedAt:  now,
		PausedBy:  actorID,
		Reason:    strings.TrimSpace(reason),
	}, nil
}

// Resume closes open, the ledger entry of the running pause. A missing entry
// is tolerated and reported as the zero event.
func (s *SessionService) Resume(session *domain.Session, open domain.PauseEvent, found bool, actorID string) (domain.PauseEvent, int64, error) {
	now := s.Now()
	paused, err := session.Resume(now)
	if err != nil {
		return domain.PauseEvent{}, 0, err
	}
	if !found {
		return domain.PauseEvent{}, paused, nil
	}
	closed, err := open.Close(actorID, now, paused)
	if err != nil {
		return domain.PauseEvent{}, 0, err
	}
	return closed, paused, nil
}

func (s *SessionService) StartSection(session *domain.Session, requested string, catalog domain.Catalog) (domain.Section, error) {
	return session.StartSection(requested, catalog, s.Now())
}

func (s *SessionService) EndSection(session *domain.Session, requested string) (string, domain.SectionTiming, error) {
	return session.EndSection(requested, s.Now())
}

// End runs the terminal transition. When the session was paused the open
// ledger entry is returned closed so the caller can persist it.
func (s *SessionService) End(session *domain.Session, open domain.PauseEvent, found bool, actorID string, reason domain.EndReason) (domain.PauseEvent, bool, error) {
	now := s.Now()
	paused, wasPaused, err := session.End(now, reason)
	if err != nil {
		return domain.PauseEvent{}, false, err
	}
	if !wasPaused || !found {
		return domain.PauseEvent{}, false, nil
	}
	closed, err := open.Close(actorID, now, paused)
	if err != nil {
		return domain.PauseEvent{}, false, err
	}
	return closed, true, nil
}

// Snapshot freezes a concluded session, filtering the conclusion to the
// local day of the end.
func (s *SessionService) Snapshot(session domain.Session, conclusion domain.Conclusion, catalog domain.Catalog) domain.Snapshot {
	now := s.Now()
	if session.EndedAt != nil {
		now = *session.EndedAt
	}
	return domain.BuildSnapshot(s.idGen.New(), session, conclusion, catalog, s.policy, now, s.loc)
}
