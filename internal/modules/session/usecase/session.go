package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"meetingd/internal/modules/session/domain"
	"meetingd/internal/modules/session/dto"
	sessionin "meetingd/internal/modules/session/port/in"
	sessionout "meetingd/internal/modules/session/port/out"
	"meetingd/internal/modules/session/service"
	apperrors "meetingd/internal/platform/errors"
	"meetingd/internal/platform/tx"
)

const defaultStaleAfter = 8 * time.Hour

type Dependencies struct {
	Service   *service.SessionService
	Sessions  sessionout.SessionStore
	Pauses    sessionout.PauseLedger
	Snapshots sessionout.SnapshotStore
	Catalog   sessionout.SectionCatalog
	Locker    sessionout.Locker
	Tx        tx.Manager
	Alerter   sessionout.Alerter
	Logger    logrus.FieldLogger
	Tracer    trace.Tracer
}

type Interactor struct {
	svc       *service.SessionService
	sessions  sessionout.SessionStore
	pauses    sessionout.PauseLedger
	snapshots sessionout.SnapshotStore
	catalog   sessionout.SectionCatalog
	locker    sessionout.Locker
	tx        tx.Manager
	alerter   sessionout.Alerter
	logger    logrus.FieldLogger
	tracer    trace.Tracer
}

func NewInteractor(deps Dependencies) sessionin.Usecase {
	i := &Interactor{
		svc:       deps.Service,
		sessions:  deps.Sessions,
		pauses:    deps.Pauses,
		snapshots: deps.Snapshots,
		catalog:   deps.Catalog,
		locker:    deps.Locker,
		tx:        deps.Tx,
		alerter:   deps.Alerter,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
	}
	if i.tx == nil {
		i.tx = tx.NoopManager{}
	}
	if i.logger == nil {
		i.logger = logrus.StandardLogger()
	}
	if i.tracer == nil {
		i.tracer = otel.Tracer("meetingd/session")
	}
	return i
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (out dto.StartOutput, err error) {
	input = normalizeStart(input)
	ctx, span := i.tracer.Start(ctx, "session.Start", trace.WithAttributes(
		attribute.String("team.id", input.TeamID),
		attribute.String("meeting.type", input.MeetingType),
	))
	defer func() { endSpan(span, err) }()

	session, resumed, err := i.startLocked(ctx, input)
	if err != nil {
		err = i.persistence(ctx, err, sessionout.Alert{
			OrganizationID: input.OrganizationID,
			TeamID:         input.TeamID,
			UserID:         input.FacilitatorID,
			ErrorType:      "start_failed",
			Phase:          "start",
		})
		return dto.StartOutput{}, err
	}

	span.SetAttributes(attribute.String("session.id", session.ID), attribute.Bool("session.resumed", resumed))
	i.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"team_id":    session.TeamID,
		"resumed":    resumed,
	}).Info("session started")
	return dto.StartOutput{Session: i.svc.View(session, i.svc.Now()), Resumed: resumed}, nil
}

// startLocked returns the team's active session of the kind, creating one
// when none exists. Losing the insert to another writer resumes the winner.
func (i *Interactor) startLocked(ctx context.Context, input dto.StartInput) (domain.Session, bool, error) {
	unlock, err := i.lock(ctx, teamKey(input.TeamID, input.MeetingType))
	if err != nil {
		return domain.Session{}, false, err
	}
	defer unlock()

	var session domain.Session
	resumed := false
	err = i.tx.Within(ctx, func(ctx context.Context) error {
		existing, err := i.sessions.FindActive(ctx, input.TeamID, input.MeetingType)
		switch {
		case err == nil:
			session, resumed = existing, true
			return nil
		case !errors.Is(err, apperrors.ErrNoActiveSession):
			return err
		}
		created, err := i.svc.Start(input)
		if err != nil {
			return err
		}
		if err := i.sessions.Create(ctx, created); err != nil {
			return err
		}
		session = created
		return nil
	})
	if errors.Is(err, sessionout.ErrActiveSessionExists) {
		existing, findErr := i.sessions.FindActive(ctx, input.TeamID, input.MeetingType)
		if findErr != nil {
			return domain.Session{}, false, err
		}
		i.logger.WithField("session_id", existing.ID).Debug("concurrent start resumed committed session")
		return existing, true, nil
	}
	if err != nil {
		return domain.Session{}, false, err
	}
	return session, resumed, nil
}

func normalizeStart(input dto.StartInput) dto.StartInput {
	input.OrganizationID = strings.TrimSpace(input.OrganizationID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.MeetingType = strings.TrimSpace(input.MeetingType)
	input.FacilitatorID = strings.TrimSpace(input.FacilitatorID)
	return input
}

func (i *Interactor) Pause(ctx context.Context, input dto.PauseInput) (out dto.PauseOutput, err error) {
	ctx, span := i.startSpan(ctx, "session.Pause", input.SessionID)
	defer func() { endSpan(span, err) }()

	var event domain.PauseEvent
	session, err := i.mutate(ctx, input.SessionID, "pause", func(ctx context.Context, session *domain.Session) error {
		opened, err := i.svc.Pause(session, input.ActorID, input.Reason)
		if err != nil {
			return err
		}
		if err := i.pauses.Append(ctx, opened); err != nil {
			return err
		}
		event = opened
		return nil
	})
	if err != nil {
		return dto.PauseOutput{}, err
	}
	return dto.PauseOutput{Session: i.svc.View(session, i.svc.Now()), PauseEventID: event.ID}, nil
}

func (i *Interactor) Resume(ctx context.Context, input dto.ResumeInput) (out dto.PauseOutput, err error) {
	ctx, span := i.startSpan(ctx, "session.Resume", input.SessionID)
	defer func() { endSpan(span, err) }()

	var (
		event  domain.PauseEvent
		paused int64
	)
	session, err := i.mutate(ctx, input.SessionID, "resume", func(ctx context.Context, session *domain.Session) error {
		open, found, err := i.pauses.FindOpen(ctx, session.ID)
		if err != nil {
			return err
		}
		closed, seconds, err := i.svc.Resume(session, open, found, input.ActorID)
		if err != nil {
			return err
		}
		if found {
			if err := i.pauses.CloseOpen(ctx, closed); err != nil {
				return err
			}
		} else {
			i.logger.WithField("session_id", session.ID).Warn("resumed session had no open pause event")
		}
		event, paused = closed, seconds
		return nil
	})
	if err != nil {
		return dto.PauseOutput{}, err
	}
	return dto.PauseOutput{
		Session:              i.svc.View(session, i.svc.Now()),
		PauseEventID:         event.ID,
		PauseDurationSeconds: paused,
	}, nil
}

func (i *Interactor) StartSection(ctx context.Context, input dto.SectionInput) (out dto.StartSectionOutput, err error) {
	ctx, span := i.startSpan(ctx, "session.StartSection", input.SessionID)
	defer func() { endSpan(span, err) }()

	var section domain.Section
	session, err := i.mutate(ctx, input.SessionID, "section", func(ctx context.Context, session *domain.Session) error {
		catalog, err := i.sections(ctx, *session)
		if err != nil {
			return err
		}
		started, err := i.svc.StartSection(session, input.SectionID, catalog)
		if err != nil {
			return err
		}
		section = started
		return nil
	})
	if err != nil {
		return dto.StartSectionOutput{}, err
	}
	span.SetAttributes(attribute.String("section.id", section.ID))
	return dto.StartSectionOutput{
		Session:          i.svc.View(session, i.svc.Now()),
		SectionID:        section.ID,
		SectionName:      section.Name,
		AllocatedSeconds: section.AllocatedSeconds(),
	}, nil
}

func (i *Interactor) EndSection(ctx context.Context, input dto.SectionInput) (out dto.EndSectionOutput, err error) {
	ctx, span := i.startSpan(ctx, "session.EndSection", input.SessionID)
	defer func() { endSpan(span, err) }()

	var (
		sectionID string
		timing    domain.SectionTiming
	)
	session, err := i.mutate(ctx, input.SessionID, "section", func(_ context.Context, session *domain.Session) error {
		id, ended, err := i.svc.EndSection(session, input.SectionID)
		if err != nil {
			return err
		}
		sectionID, timing = id, ended
		return nil
	})
	if err != nil {
		return dto.EndSectionOutput{}, err
	}
	out = dto.EndSectionOutput{Session: i.svc.View(session, i.svc.Now()), SectionID: sectionID}
	if timing.ActualSeconds != nil {
		out.ActualSeconds = *timing.ActualSeconds
	}
	if timing.OverrunSeconds != nil {
		out.OverrunSeconds = *timing.OverrunSeconds
	}
	return out, nil
}

// End concludes the session. The transition is committed before any snapshot
// is written; a failed snapshot is reported in ConclusionError, not as err.
func (i *Interactor) End(ctx context.Context, input dto.EndInput) (out dto.EndOutput, err error) {
	ctx, span := i.startSpan(ctx, "session.End", input.SessionID)
	defer func() { endSpan(span, err) }()

	session, err := i.end(ctx, input.SessionID, input.ActorID, domain.EndReasonCompleted)
	if err != nil {
		return dto.EndOutput{}, err
	}
	out = dto.EndOutput{
		Session:              i.svc.View(session, i.svc.Now()),
		FinalDurationSeconds: session.ActiveSeconds(*session.EndedAt),
	}
	if input.Conclusion == nil {
		return out, nil
	}

	snapshot, location, err := i.conclude(ctx, session, *input.Conclusion)
	if err != nil {
		conclusionErr := apperrors.Wrap(apperrors.CodeConclusionFailure, "conclusion snapshot failed", err)
		span.RecordError(conclusionErr)
		i.logger.WithError(err).WithField("session_id", session.ID).Error("conclusion snapshot failed")
		i.report(ctx, sessionout.Alert{
			OrganizationID: session.OrganizationID,
			TeamID:         session.TeamID,
			SessionID:      session.ID,
			UserID:         input.ActorID,
			ErrorType:      "conclude_failed",
			Severity:       sessionout.SeverityCritical,
			Message:        conclusionErr.Error(),
			Phase:          "conclude",
		})
		out.ConclusionError = conclusionErr.Error()
		return out, nil
	}
	out.SnapshotID = snapshot.ID
	out.SnapshotLocation = location
	return out, nil
}

func (i *Interactor) conclude(ctx context.Context, session domain.Session, input dto.ConclusionInput) (domain.Snapshot, string, error) {
	if i.snapshots == nil {
		return domain.Snapshot{}, "", fmt.Errorf("no snapshot store configured")
	}
	catalog, err := i.sections(ctx, session)
	if err != nil {
		return domain.Snapshot{}, "", err
	}
	snapshot := i.svc.Snapshot(session, service.Conclusion(input), catalog)
	location, err := i.snapshots.Save(ctx, snapshot)
	if err != nil {
		return domain.Snapshot{}, "", err
	}
	return snapshot, location, nil
}

func (i *Interactor) end(ctx context.Context, sessionID, actorID string, reason domain.EndReason) (domain.Session, error) {
	return i.mutate(ctx, sessionID, "end", func(ctx context.Context, session *domain.Session) error {
		open, found, err := i.pauses.FindOpen(ctx, session.ID)
		if err != nil {
			return err
		}
		closed, wasPaused, err := i.svc.End(session, open, found, actorID, reason)
		if err != nil {
			return err
		}
		if wasPaused {
			return i.pauses.CloseOpen(ctx, closed)
		}
		return nil
	})
}

func (i *Interactor) GetStatus(ctx context.Context, sessionID string) (out dto.StatusOutput, err error) {
	ctx, span := i.startSpan(ctx, "session.GetStatus", sessionID)
	defer func() { endSpan(span, err) }()

	var (
		session domain.Session
		events  []domain.PauseEvent
	)
	err = i.tx.Within(ctx, func(ctx context.Context) error {
		loaded, err := i.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		listed, err := i.pauses.List(ctx, sessionID)
		if err != nil {
			return err
		}
		session, events = loaded, listed
		return nil
	})
	if err != nil {
		return dto.StatusOutput{}, i.persistence(ctx, err, sessionout.Alert{SessionID: sessionID, Phase: "status"})
	}
	catalog, err := i.sections(ctx, session)
	if err != nil {
		return dto.StatusOutput{}, err
	}
	return i.svc.Status(session, catalog, events, i.svc.Now()), nil
}

func (i *Interactor) GetActive(ctx context.Context, input dto.ActiveInput) (out dto.SessionView, err error) {
	ctx, span := i.tracer.Start(ctx, "session.GetActive")
	defer func() { endSpan(span, err) }()

	session, err := i.sessions.FindActive(ctx, input.TeamID, input.MeetingType)
	if err != nil {
		return dto.SessionView{}, i.persistence(ctx, err, sessionout.Alert{TeamID: input.TeamID, Phase: "active"})
	}
	return i.svc.View(session, i.svc.Now()), nil
}

// CleanupStale abandons active sessions older than the cutoff. Failures on
// one session do not stop the sweep.
func (i *Interactor) CleanupStale(ctx context.Context, input dto.CleanupInput) (out dto.CleanupOutput, err error) {
	ctx, span := i.tracer.Start(ctx, "session.CleanupStale")
	defer func() { endSpan(span, err) }()

	staleAfter := input.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	cutoff := i.svc.Now().Add(-staleAfter)
	stale, err := i.sessions.ListActiveStartedBefore(ctx, cutoff)
	if err != nil {
		return dto.CleanupOutput{}, i.persistence(ctx, err, sessionout.Alert{Phase: "cleanup"})
	}
	out = dto.CleanupOutput{Abandoned: []string{}}
	for _, candidate := range stale {
		session, err := i.end(ctx, candidate.ID, "", domain.EndReasonAbandoned)
		if err != nil {
			if apperrors.CodeOf(err) == apperrors.CodeInvalidTransition {
				continue
			}
			out.Failed = append(out.Failed, candidate.ID)
			continue
		}
		out.Abandoned = append(out.Abandoned, session.ID)
		i.report(ctx, sessionout.Alert{
			OrganizationID: session.OrganizationID,
			TeamID:         session.TeamID,
			SessionID:      session.ID,
			UserID:         session.FacilitatorID,
			ErrorType:      "session_orphaned",
			Severity:       sessionout.SeverityWarning,
			Message:        fmt.Sprintf("session %s abandoned after %s without ending", session.ID, staleAfter),
			Phase:          "cleanup",
			Context:        map[string]string{"started_at": session.StartTime.Format(time.RFC3339)},
		})
	}
	span.SetAttributes(attribute.Int("sessions.abandoned", len(out.Abandoned)))
	return out, nil
}

// mutate runs fn against the freshly loaded session under the session lock
// and one transaction, then saves the aggregate. Failures are reported once
// the lock is released.
func (i *Interactor) mutate(ctx context.Context, sessionID, phase string, fn func(context.Context, *domain.Session) error) (domain.Session, error) {
	session, err := i.mutateLocked(ctx, sessionID, fn)
	if err != nil {
		if rejected(err) {
			i.logger.WithError(err).WithFields(logrus.Fields{"session_id": sessionID, "phase": phase}).Debug("session transition rejected")
			return domain.Session{}, err
		}
		return domain.Session{}, i.persistence(ctx, err, sessionout.Alert{SessionID: sessionID, ErrorType: "persistence_failed", Phase: phase})
	}
	return session, nil
}

func (i *Interactor) mutateLocked(ctx context.Context, sessionID string, fn func(context.Context, *domain.Session) error) (domain.Session, error) {
	unlock, err := i.lock(ctx, sessionKey(sessionID))
	if err != nil {
		return domain.Session{}, err
	}
	defer unlock()

	var session domain.Session
	err = i.tx.Within(ctx, func(ctx context.Context) error {
		loaded, err := i.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		working := loaded.Clone()
		if err := fn(ctx, &working); err != nil {
			return err
		}
		if err := i.sessions.Save(ctx, working); err != nil {
			return err
		}
		session = working
		return nil
	})
	return session, err
}

func (i *Interactor) lock(ctx context.Context, key string) (func(), error) {
	if i.locker == nil {
		return func() {}, nil
	}
	unlock, err := i.locker.Lock(ctx, key)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodePersistenceFailure, "acquire session lock", err)
	}
	return unlock, nil
}

func (i *Interactor) sections(ctx context.Context, session domain.Session) (domain.Catalog, error) {
	if i.catalog == nil {
		return domain.Catalog{}, nil
	}
	return i.catalog.Sections(ctx, session.OrganizationID, session.TeamID, session.Kind)
}

// persistence passes coded errors through and wraps the rest as
// PERSISTENCE_FAILURE, reporting them to the alerter.
func (i *Interactor) persistence(ctx context.Context, err error, alert sessionout.Alert) error {
	if apperrors.IsCoded(err) {
		return err
	}
	wrapped := apperrors.Wrap(apperrors.CodePersistenceFailure, "session store failed", err)
	if alert.ErrorType == "" {
		alert.ErrorType = "persistence_failed"
	}
	alert.Severity = sessionout.SeverityError
	alert.Message = wrapped.Error()
	i.logger.WithError(err).WithFields(logrus.Fields{
		"session_id": alert.SessionID,
		"team_id":    alert.TeamID,
		"error_type": alert.ErrorType,
	}).Error("session persistence failed")
	i.report(ctx, alert)
	return wrapped
}

func (i *Interactor) report(ctx context.Context, alert sessionout.Alert) {
	if i.alerter == nil {
		return
	}
	i.alerter.Report(context.WithoutCancel(ctx), alert)
}

func (i *Interactor) startSpan(ctx context.Context, name, sessionID string) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("session.id", sessionID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !rejected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// rejected reports caller-facing domain rejections as opposed to infrastructure failures.
func rejected(err error) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidInput, apperrors.CodeInvalidTransition, apperrors.CodeUnknownSection,
		apperrors.CodeSectionNotStarted, apperrors.CodeSessionNotFound, apperrors.CodeNoActiveSession,
		apperrors.CodeNotFound:
		return true
	}
	return false
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func teamKey(teamID, kind string) string {
	return "team:" + teamID + ":" + kind
}
