package usecase_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionadapter "meetingd/internal/modules/session/adapter/out"
	"meetingd/internal/modules/session/domain"
	"meetingd/internal/modules/session/dto"
	sessionin "meetingd/internal/modules/session/port/in"
	sessionout "meetingd/internal/modules/session/port/out"
	"meetingd/internal/modules/session/service"
	"meetingd/internal/modules/session/usecase"
	"meetingd/internal/platform/clock"
	apperrors "meetingd/internal/platform/errors"
	"meetingd/internal/platform/id"
	"meetingd/internal/platform/logging"
	"meetingd/internal/platform/sqlite"
	"meetingd/internal/platform/tx"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type staticCatalog struct{}

func (staticCatalog) Sections(context.Context, string, string, string) (domain.Catalog, error) {
	return domain.Catalog{
		{ID: "segue", Name: "Segue", DurationMinutes: 5},
		{ID: "scorecard", Name: "Scorecard", DurationMinutes: 5},
		{ID: "rock_review", Name: "Rock Review", DurationMinutes: 5},
		{ID: "ids", Name: "IDS", DurationMinutes: 60},
	}, nil
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []sessionout.Alert
}

func (a *recordingAlerter) Report(_ context.Context, alert sessionout.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, alert)
}

func (a *recordingAlerter) types() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []string{}
	for _, alert := range a.alerts {
		out = append(out, alert.ErrorType)
	}
	return out
}

type failingSnapshots struct{}

func (failingSnapshots) Save(context.Context, domain.Snapshot) (string, error) {
	return "", errors.New("disk full")
}

type failingLedger struct {
	sessionout.PauseLedger
}

func (failingLedger) Append(context.Context, domain.PauseEvent) error {
	return errors.New("database is locked")
}

// staleFinder misses the first active-session lookups, as a reader would that
// raced another process's insert.
type staleFinder struct {
	sessionout.SessionStore
	misses atomic.Int32
}

func (s *staleFinder) FindActive(ctx context.Context, teamID, kind string) (domain.Session, error) {
	if s.misses.Add(-1) >= 0 {
		return domain.Session{}, apperrors.ErrNoActiveSession
	}
	return s.SessionStore.FindActive(ctx, teamID, kind)
}

type heldLocker struct {
	inner sessionout.Locker
	held  atomic.Int32
}

func (l *heldLocker) Lock(ctx context.Context, key string) (func(), error) {
	unlock, err := l.inner.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	l.held.Add(1)
	return func() {
		l.held.Add(-1)
		unlock()
	}, nil
}

// lockAwareAlerter records how many locks were held when each alert arrived.
type lockAwareAlerter struct {
	locker *heldLocker
	mu     sync.Mutex
	held   []int32
}

func (a *lockAwareAlerter) Report(context.Context, sessionout.Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.held = append(a.held, a.locker.held.Load())
}

type scopeKey struct{}

// scopedTx marks contexts that run inside a transaction.
type scopedTx struct {
	inner tx.Manager
}

func (m scopedTx) Within(ctx context.Context, fn func(context.Context) error) error {
	return m.inner.Within(ctx, func(ctx context.Context) error {
		return fn(context.WithValue(ctx, scopeKey{}, true))
	})
}

func inScope(ctx context.Context) bool {
	scoped, _ := ctx.Value(scopeKey{}).(bool)
	return scoped
}

type scopeRecorder struct {
	mu    sync.Mutex
	reads map[string]bool
}

func (r *scopeRecorder) record(ctx context.Context, read string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads[read] = inScope(ctx)
}

type scopedStore struct {
	sessionout.SessionStore
	rec *scopeRecorder
}

func (s scopedStore) Get(ctx context.Context, sessionID string) (domain.Session, error) {
	s.rec.record(ctx, "session")
	return s.SessionStore.Get(ctx, sessionID)
}

type scopedLedger struct {
	sessionout.PauseLedger
	rec *scopeRecorder
}

func (l scopedLedger) List(ctx context.Context, sessionID string) ([]domain.PauseEvent, error) {
	l.rec.record(ctx, "pauses")
	return l.PauseLedger.List(ctx, sessionID)
}

type harness struct {
	db      *sql.DB
	clock   *clock.Manual
	alerter *recordingAlerter
	uc      sessionin.Usecase
}

type option func(*usecase.Dependencies)

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "meetingd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &harness{db: db, clock: clock.NewManual(t0), alerter: &recordingAlerter{}}
	logger := logging.Discard()
	deps := usecase.Dependencies{
		Service:   service.NewSessionService(h.clock, id.UUID{}, domain.DefaultPacePolicy(), time.UTC),
		Sessions:  sessionadapter.NewSQLiteSessionStore(db, logger),
		Pauses:    sessionadapter.NewSQLitePauseLedger(db),
		Snapshots: sessionadapter.NewSQLiteSnapshotStore(db),
		Catalog:   staticCatalog{},
		Locker:    sessionadapter.NewMemoryLocker(),
		Tx:        tx.NewSQLManager(db),
		Alerter:   h.alerter,
		Logger:    logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	h.uc = usecase.NewInteractor(deps)
	return h
}

func (h *harness) at(seconds int) {
	h.clock.Set(t0.Add(time.Duration(seconds) * time.Second))
}

func (h *harness) start(t *testing.T) dto.SessionView {
	t.Helper()
	out, err := h.uc.Start(context.Background(), dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-1"})
	require.NoError(t, err)
	return out.Session
}

func TestStartIsIdempotentPerTeamAndKind(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.uc.Start(ctx, dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-1"})
	require.NoError(t, err)
	assert.False(t, first.Resumed)

	h.at(30)
	again, err := h.uc.Start(ctx, dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-2"})
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, first.Session.ID, again.Session.ID)
	assert.Equal(t, "user-1", again.Session.FacilitatorID)

	other, err := h.uc.Start(ctx, dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "quarterly", FacilitatorID: "user-1"})
	require.NoError(t, err)
	assert.False(t, other.Resumed)
	assert.NotEqual(t, first.Session.ID, other.Session.ID)
}

func TestConcurrentStartsShareOneSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.uc.Start(context.Background(), dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-1"})
			ids[i], errs[i] = out.Session.ID, err
		}(i)
	}
	wg.Wait()
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	var active int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM meeting_sessions WHERE is_active = 1`).Scan(&active))
	assert.Equal(t, 1, active)
}

func TestStartTrimsIdentifiersBeforeLookup(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	first := h.start(t)

	again, err := h.uc.Start(ctx, dto.StartInput{OrganizationID: " org-1", TeamID: "team-1 ", MeetingType: "\tweekly ", FacilitatorID: "user-1"})
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, first.ID, again.Session.ID)
	assert.Empty(t, h.alerter.types())
}

func TestStartResumesSessionCommittedByAnotherWriter(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	stale := &staleFinder{SessionStore: sessionadapter.NewSQLiteSessionStore(h.db, logging.Discard())}
	stale.misses.Store(1)
	other := newHarness(t, func(d *usecase.Dependencies) {
		d.Sessions = stale
		d.Pauses = sessionadapter.NewSQLitePauseLedger(h.db)
		d.Tx = tx.NewSQLManager(h.db)
	})
	first := h.start(t)

	out, err := other.uc.Start(context.Background(), dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-2"})
	require.NoError(t, err)
	assert.True(t, out.Resumed)
	assert.Equal(t, first.ID, out.Session.ID)
	assert.Empty(t, other.alerter.types())

	var active int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM meeting_sessions WHERE is_active = 1`).Scan(&active))
	assert.Equal(t, 1, active)
}

func TestSectionAcrossMeetingPause(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	session := h.start(t)

	started, err := h.uc.StartSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "segue"})
	require.NoError(t, err)
	assert.Equal(t, int64(300), started.AllocatedSeconds)

	h.at(60)
	paused, err := h.uc.Pause(ctx, dto.PauseInput{SessionID: session.ID, ActorID: "user-1", Reason: "fire drill"})
	require.NoError(t, err)
	assert.True(t, paused.Session.IsPaused)
	assert.NotEmpty(t, paused.PauseEventID)

	h.at(660)
	resumed, err := h.uc.Resume(ctx, dto.ResumeInput{SessionID: session.ID, ActorID: "user-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(600), resumed.PauseDurationSeconds)
	assert.Equal(t, paused.PauseEventID, resumed.PauseEventID)

	h.at(900)
	ended, err := h.uc.EndSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "segue"})
	require.NoError(t, err)
	assert.Equal(t, int64(300), ended.ActualSeconds)
	assert.Zero(t, ended.OverrunSeconds)

	status, err := h.uc.GetStatus(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), status.Session.TotalPausedSeconds)
	assert.Equal(t, int64(300), status.Session.ActiveSeconds)
	assert.Equal(t, 1, status.PauseCount)
	require.NotNil(t, status.PauseHistory[0].DurationSeconds)
	assert.Equal(t, status.Session.TotalPausedSeconds, *status.PauseHistory[0].DurationSeconds)
	assert.Equal(t, "fire drill", status.PauseHistory[0].Reason)
	assert.Equal(t, "user-2", status.PauseHistory[0].ResumedBy)
	assert.Equal(t, string(domain.PaceOnTrack), status.Pace)
}

func TestRejectedTransitionsAreTyped(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	session := h.start(t)

	_, err := h.uc.Resume(ctx, dto.ResumeInput{SessionID: session.ID, ActorID: "user-1"})
	assert.Equal(t, apperrors.CodeInvalidTransition, apperrors.CodeOf(err))

	_, err = h.uc.Pause(ctx, dto.PauseInput{SessionID: session.ID, ActorID: "user-1"})
	require.NoError(t, err)
	_, err = h.uc.Pause(ctx, dto.PauseInput{SessionID: session.ID, ActorID: "user-1"})
	assert.Equal(t, apperrors.CodeInvalidTransition, apperrors.CodeOf(err))

	_, err = h.uc.StartSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "lunch"})
	assert.Equal(t, apperrors.CodeUnknownSection, apperrors.CodeOf(err))
	assert.Equal(t, []string{"ids", "rock_review", "scorecard", "segue"}, apperrors.Accepted(err))

	_, err = h.uc.EndSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "rocks"})
	assert.Equal(t, apperrors.CodeSectionNotStarted, apperrors.CodeOf(err))

	_, err = h.uc.Pause(ctx, dto.PauseInput{SessionID: "missing", ActorID: "user-1"})
	assert.Equal(t, apperrors.CodeSessionNotFound, apperrors.CodeOf(err))

	assert.Empty(t, h.alerter.types())
}

func TestAliasesResolveToOneTiming(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	session := h.start(t)

	first, err := h.uc.StartSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "rocks"})
	require.NoError(t, err)
	h.at(120)
	second, err := h.uc.StartSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "Priorities"})
	require.NoError(t, err)
	assert.Equal(t, "rock_review", first.SectionID)
	assert.Equal(t, first.SectionID, second.SectionID)
	assert.Len(t, second.Session.SectionTimings, 1)
	assert.Equal(t, []string{"rock_review", "rock_review"}, second.Session.SectionsCompleted)
}

func TestEndWritesSnapshotOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	session := h.start(t)

	_, err := h.uc.StartSection(ctx, dto.SectionInput{SessionID: session.ID, SectionID: "segue"})
	require.NoError(t, err)
	h.at(600)
	_, err = h.uc.Pause(ctx, dto.PauseInput{SessionID: session.ID, ActorID: "user-1"})
	require.NoError(t, err)
	h.at(900)

	seven := 7.0
	out, err := h.uc.End(ctx, dto.EndInput{
		SessionID: session.ID,
		ActorID:   "user-1",
		Conclusion: &dto.ConclusionInput{
			Ratings: []dto.RatingInput{{ParticipantID: "user-1", Value: &seven}},
			Todos:   []dto.TodoInput{{ID: "todo-1", Title: "ship", CreatedAt: t0.Add(time.Minute)}},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, out.ConclusionError)
	assert.NotEmpty(t, out.SnapshotID)
	assert.Equal(t, int64(600), out.FinalDurationSeconds)
	assert.Equal(t, "ended", out.Session.Status)
	assert.False(t, out.Session.IsPaused)
	assert.Equal(t, int64(300), out.Session.TotalPausedSeconds)

	var snapshots int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM meeting_snapshots WHERE session_id = ?`, session.ID).Scan(&snapshots))
	assert.Equal(t, 1, snapshots)
	var open int
	require.NoError(t, h.db.QueryRow(`SELECT COUNT(*) FROM meeting_pause_events WHERE resume_time IS NULL`).Scan(&open))
	assert.Zero(t, open)

	_, err = h.uc.End(ctx, dto.EndInput{SessionID: session.ID, ActorID: "user-1"})
	assert.Equal(t, apperrors.CodeInvalidTransition, apperrors.CodeOf(err))

	_, err = h.uc.GetActive(ctx, dto.ActiveInput{TeamID: "team-1", MeetingType: "weekly"})
	assert.Equal(t, apperrors.CodeNoActiveSession, apperrors.CodeOf(err))
}

func TestSnapshotFailureDoesNotFailEnd(t *testing.T) {
	t.Parallel()
	h := newHarness(t, func(d *usecase.Dependencies) { d.Snapshots = failingSnapshots{} })
	ctx := context.Background()
	session := h.start(t)
	h.at(1800)

	out, err := h.uc.End(ctx, dto.EndInput{SessionID: session.ID, ActorID: "user-1", Conclusion: &dto.ConclusionInput{}})
	require.NoError(t, err)
	assert.Contains(t, out.ConclusionError, "disk full")
	assert.Empty(t, out.SnapshotID)
	assert.Equal(t, "ended", out.Session.Status)
	assert.Equal(t, []string{"conclude_failed"}, h.alerter.types())
	assert.Equal(t, sessionout.SeverityCritical, h.alerter.alerts[0].Severity)

	status, err := h.uc.GetStatus(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, status.Session.IsActive)
}

func TestPersistenceFailureRollsBack(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	failing := newHarness(t, func(d *usecase.Dependencies) {
		d.Pauses = failingLedger{PauseLedger: sessionadapter.NewSQLitePauseLedger(h.db)}
		d.Sessions = sessionadapter.NewSQLiteSessionStore(h.db, logging.Discard())
		d.Tx = tx.NewSQLManager(h.db)
	})
	ctx := context.Background()
	session := h.start(t)

	_, err := failing.uc.Pause(ctx, dto.PauseInput{SessionID: session.ID, ActorID: "user-1"})
	assert.Equal(t, apperrors.CodePersistenceFailure, apperrors.CodeOf(err))
	assert.Equal(t, []string{"persistence_failed"}, failing.alerter.types())

	status, err := h.uc.GetStatus(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, status.Session.IsPaused)
	assert.Zero(t, status.PauseCount)
}

func TestPersistenceAlertsAreSentAfterUnlock(t *testing.T) {
	t.Parallel()
	locker := &heldLocker{inner: sessionadapter.NewMemoryLocker()}
	alerter := &lockAwareAlerter{locker: locker}
	h := newHarness(t)
	failing := newHarness(t, func(d *usecase.Dependencies) {
		d.Pauses = failingLedger{PauseLedger: sessionadapter.NewSQLitePauseLedger(h.db)}
		d.Sessions = sessionadapter.NewSQLiteSessionStore(h.db, logging.Discard())
		d.Tx = tx.NewSQLManager(h.db)
		d.Locker = locker
		d.Alerter = alerter
	})
	session := h.start(t)

	_, err := failing.uc.Pause(context.Background(), dto.PauseInput{SessionID: session.ID, ActorID: "user-1"})
	assert.Equal(t, apperrors.CodePersistenceFailure, apperrors.CodeOf(err))
	assert.Equal(t, []int32{0}, alerter.held)
}

func TestStatusReadsOneTransaction(t *testing.T) {
	t.Parallel()
	rec := &scopeRecorder{reads: map[string]bool{}}
	h := newHarness(t)
	scoped := newHarness(t, func(d *usecase.Dependencies) {
		d.Sessions = scopedStore{SessionStore: sessionadapter.NewSQLiteSessionStore(h.db, logging.Discard()), rec: rec}
		d.Pauses = scopedLedger{PauseLedger: sessionadapter.NewSQLitePauseLedger(h.db), rec: rec}
		d.Tx = scopedTx{inner: tx.NewSQLManager(h.db)}
	})
	ctx := context.Background()
	session := h.start(t)
	_, err := h.uc.Pause(ctx, dto.PauseInput{SessionID: session.ID, ActorID: "user-1"})
	require.NoError(t, err)

	status, err := scoped.uc.GetStatus(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, status.Session.IsPaused)
	assert.Equal(t, 1, status.PauseCount)
	assert.Equal(t, map[string]bool{"session": true, "pauses": true}, rec.reads)
}

func TestCleanupAbandonsStaleSessions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	stale := h.start(t)

	h.at(int((7 * time.Hour).Seconds()))
	fresh, err := h.uc.Start(ctx, dto.StartInput{OrganizationID: "org-1", TeamID: "team-2", MeetingType: "weekly", FacilitatorID: "user-1"})
	require.NoError(t, err)

	h.at(int((9 * time.Hour).Seconds()))
	out, err := h.uc.CleanupStale(ctx, dto.CleanupInput{StaleAfter: 8 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, []string{stale.ID}, out.Abandoned)
	assert.Empty(t, out.Failed)
	assert.Equal(t, []string{"session_orphaned"}, h.alerter.types())

	status, err := h.uc.GetStatus(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.EndReasonAbandoned), status.Session.EndReason)

	active, err := h.uc.GetActive(ctx, dto.ActiveInput{TeamID: "team-2", MeetingType: "weekly"})
	require.NoError(t, err)
	assert.Equal(t, fresh.Session.ID, active.ID)

	restarted, err := h.uc.Start(ctx, dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-1"})
	require.NoError(t, err)
	assert.False(t, restarted.Resumed)
	assert.NotEqual(t, stale.ID, restarted.Session.ID)
}
