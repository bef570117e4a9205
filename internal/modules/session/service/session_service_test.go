package service_test

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingd/internal/modules/session/domain"
	"meetingd/internal/modules/session/dto"
	"meetingd/internal/modules/session/service"
	"meetingd/internal/platform/clock"
	apperrors "meetingd/internal/platform/errors"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type seqIDs struct {
	n int
}

func (s *seqIDs) New() string {
	s.n++
	return "id-" + strconv.Itoa(s.n)
}

func catalog() domain.Catalog {
	return domain.Catalog{
		{ID: "segue", Name: "Segue", DurationMinutes: 5},
		{ID: "scorecard", Name: "Scorecard", DurationMinutes: 5},
		{ID: "ids", Name: "IDS", DurationMinutes: 60},
	}
}

func newService(c clock.Clock) *service.SessionService {
	return service.NewSessionService(c, &seqIDs{}, domain.DefaultPacePolicy(), time.UTC)
}

func startInput() dto.StartInput {
	return dto.StartInput{OrganizationID: "org-1", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-1"}
}

func TestStartValidatesAndTrims(t *testing.T) {
	t.Parallel()
	svc := newService(clock.Fixed{At: t0})

	session, err := svc.Start(dto.StartInput{OrganizationID: " org-1 ", TeamID: "team-1", MeetingType: "weekly", FacilitatorID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", session.ID)
	assert.Equal(t, "org-1", session.OrganizationID)
	assert.Equal(t, t0, session.StartTime)

	_, err = svc.Start(dto.StartInput{OrganizationID: "org-1", MeetingType: "weekly", FacilitatorID: "user-1"})
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}

func TestPauseResumeProducesLedgerEntries(t *testing.T) {
	t.Parallel()
	c := clock.NewManual(t0)
	svc := newService(c)
	session, err := svc.Start(startInput())
	require.NoError(t, err)

	c.Advance(time.Minute)
	opened, err := svc.Pause(&session, "user-2", " coffee ")
	require.NoError(t, err)
	assert.True(t, opened.Open())
	assert.Equal(t, session.ID, opened.SessionID)
	assert.Equal(t, "coffee", opened.Reason)
	assert.Equal(t, t0.Add(time.Minute), opened.PausedAt)

	c.Advance(90 * time.Second)
	closed, paused, err := svc.Resume(&session, opened, true, "user-3")
	require.NoError(t, err)
	assert.Equal(t, int64(90), paused)
	require.NotNil(t, closed.DurationSeconds)
	assert.Equal(t, int64(90), *closed.DurationSeconds)
	assert.Equal(t, "user-3", closed.ResumedBy)
	assert.Equal(t, session.TotalPausedSeconds, *closed.DurationSeconds)

	_, _, err = svc.Resume(&session, domain.PauseEvent{}, false, "user-3")
	assert.Equal(t, apperrors.CodeInvalidTransition, apperrors.CodeOf(err))
}

func TestResumeWithoutLedgerEntry(t *testing.T) {
	t.Parallel()
	c := clock.NewManual(t0)
	svc := newService(c)
	session, err := svc.Start(startInput())
	require.NoError(t, err)
	_, err = svc.Pause(&session, "user-1", "")
	require.NoError(t, err)

	c.Advance(30 * time.Second)
	closed, paused, err := svc.Resume(&session, domain.PauseEvent{}, false, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), paused)
	assert.Empty(t, closed.ID)
	assert.False(t, session.IsPaused)
}

func TestEndWhilePausedClosesLedgerEntry(t *testing.T) {
	t.Parallel()
	c := clock.NewManual(t0)
	svc := newService(c)
	session, err := svc.Start(startInput())
	require.NoError(t, err)
	_, err = svc.StartSection(&session, "segue", catalog())
	require.NoError(t, err)

	c.Advance(2 * time.Minute)
	opened, err := svc.Pause(&session, "user-1", "")
	require.NoError(t, err)
	c.Advance(time.Minute)

	closed, wasPaused, err := svc.End(&session, opened, true, "user-1", domain.EndReasonCompleted)
	require.NoError(t, err)
	assert.True(t, wasPaused)
	require.NotNil(t, closed.DurationSeconds)
	assert.Equal(t, int64(60), *closed.DurationSeconds)
	assert.Equal(t, int64(120), session.ActiveSeconds(c.Now().Add(time.Hour)))
	assert.Equal(t, domain.StatusEnded, session.Status())

	timing := session.SectionTimings["segue"]
	require.NotNil(t, timing.ActualSeconds)
	assert.Equal(t, int64(120), *timing.ActualSeconds)
}

func TestViewOrdersTimingsAndComputesLiveFields(t *testing.T) {
	t.Parallel()
	c := clock.NewManual(t0)
	svc := newService(c)
	session, err := svc.Start(startInput())
	require.NoError(t, err)

	_, err = svc.StartSection(&session, "good-news", catalog())
	require.NoError(t, err)
	c.Advance(5 * time.Minute)
	_, err = svc.StartSection(&session, "scorecard", catalog())
	require.NoError(t, err)
	c.Advance(70 * time.Second)

	view := svc.View(session, c.Now())
	assert.Equal(t, "active", view.Status)
	assert.Equal(t, int64(370), view.ActiveSeconds)
	assert.Equal(t, "scorecard", view.CurrentSectionID)
	assert.Equal(t, int64(70), view.CurrentSectionSeconds)
	require.Len(t, view.SectionTimings, 2)
	assert.Equal(t, "segue", view.SectionTimings[0].SectionID)
	assert.False(t, view.SectionTimings[0].InProgress)
	assert.True(t, view.SectionTimings[1].InProgress)
	assert.Equal(t, []string{"segue", "scorecard"}, view.SectionsCompleted)
}

func TestStatusSectionsPaceAndHistory(t *testing.T) {
	t.Parallel()
	c := clock.NewManual(t0)
	svc := newService(c)
	session, err := svc.Start(startInput())
	require.NoError(t, err)

	_, err = svc.StartSection(&session, "segue", catalog())
	require.NoError(t, err)
	c.Advance(7 * time.Minute)
	_, err = svc.StartSection(&session, "scorecard", catalog())
	require.NoError(t, err)
	c.Advance(time.Minute)

	closedAt := t0.Add(2 * time.Minute)
	duration := int64(10)
	events := []domain.PauseEvent{
		{ID: "p1", PausedAt: t0.Add(time.Minute), ResumedAt: &closedAt, DurationSeconds: &duration},
		{ID: "p2", PausedAt: t0.Add(3 * time.Minute)},
	}
	status := svc.Status(session, catalog(), events, c.Now())

	require.Len(t, status.Sections, 3)
	assert.Equal(t, service.SectionCompleted, status.Sections[0].Status)
	assert.Equal(t, int64(420), status.Sections[0].ElapsedSeconds)
	assert.Equal(t, service.SectionInProgress, status.Sections[1].Status)
	assert.Equal(t, int64(60), status.Sections[1].ElapsedSeconds)
	assert.Equal(t, service.SectionPending, status.Sections[2].Status)
	assert.Equal(t, int64(3600), status.Sections[2].AllocatedSeconds)

	assert.Equal(t, int64(600), status.TotalAllocatedSeconds)
	assert.Equal(t, int64(480), status.TotalActualSeconds)
	assert.Equal(t, string(domain.PaceAhead), status.Pace)
	assert.InDelta(t, -20.0, status.DeviationPct, 0.001)

	assert.Equal(t, 2, status.PauseCount)
	assert.Equal(t, "p2", status.PauseHistory[0].ID)
	assert.Equal(t, "p1", status.PauseHistory[1].ID)
}

func TestSnapshotUsesEndTimeAndConclusion(t *testing.T) {
	t.Parallel()
	c := clock.NewManual(t0)
	svc := newService(c)
	session, err := svc.Start(startInput())
	require.NoError(t, err)
	c.Advance(45 * time.Minute)
	_, _, err = svc.End(&session, domain.PauseEvent{}, false, "user-1", domain.EndReasonCompleted)
	require.NoError(t, err)

	nine, seven := 9.0, 7.0
	yesterday := t0.Add(-10 * time.Hour)
	input := dto.ConclusionInput{
		Ratings: []dto.RatingInput{{ParticipantID: "u1", Value: &nine}, {ParticipantID: "u2", Value: &seven}, {ParticipantID: "u3"}},
		Todos: []dto.TodoInput{
			{ID: "t1", Title: "old", CreatedAt: yesterday},
			{ID: "t2", Title: "new", CreatedAt: t0.Add(10 * time.Minute)},
		},
		Headlines: []dto.HeadlineInput{{ID: "h1", Text: "customer win"}},
	}

	c.Advance(3 * time.Hour)
	snapshot := svc.Snapshot(session, service.Conclusion(input), catalog())
	assert.Equal(t, session.ID, snapshot.SessionID)
	assert.Equal(t, 45, snapshot.DurationMinutes)
	require.NotNil(t, snapshot.AverageRating)
	assert.InDelta(t, 8.0, *snapshot.AverageRating, 0.0001)
	require.Len(t, snapshot.TodosAdded, 1)
	assert.Equal(t, "t2", snapshot.TodosAdded[0].ID)
	assert.Equal(t, t0.Add(45*time.Minute), snapshot.CreatedAt)
	assert.Len(t, snapshot.Headlines, 1)
}
