package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetingd/internal/modules/session/domain"
)

func TestClassifyBoundaries(t *testing.T) {
	t.Parallel()
	policy := domain.DefaultPacePolicy()
	cases := []struct {
		actual    int64
		pace      domain.Pace
		deviation float64
	}{
		{1210, domain.PaceCritical, 21},
		{1200, domain.PaceBehind, 20},
		{1105, domain.PaceBehind, 10.5},
		{1100, domain.PaceOnTrack, 10},
		{1000, domain.PaceOnTrack, 0},
		{950, domain.PaceOnTrack, -5},
		{940, domain.PaceAhead, -6},
	}
	for _, tc := range cases {
		pace, deviation := policy.Classify(1000, tc.actual)
		assert.Equal(t, tc.pace, pace, "actual=%d", tc.actual)
		assert.InDelta(t, tc.deviation, deviation, 0.0001, "actual=%d", tc.actual)
	}
}

func TestClassifyWithoutAllocationIsOnTrack(t *testing.T) {
	t.Parallel()
	pace, deviation := domain.DefaultPacePolicy().Classify(0, 900)
	assert.Equal(t, domain.PaceOnTrack, pace)
	assert.Zero(t, deviation)
}

func TestCustomPolicy(t *testing.T) {
	t.Parallel()
	policy := domain.PacePolicy{CriticalAbovePct: 50, BehindAbovePct: 25, AheadBelowPct: -20}
	pace, _ := policy.Classify(1000, 1300)
	assert.Equal(t, domain.PaceBehind, pace)
}

func TestMeetingPaceUsesLiveDurationForCurrentSection(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	catalog := levelTen()

	_, err := s.StartSection("segue", catalog, at(0))
	require.NoError(t, err)
	_, err = s.StartSection("scorecard", catalog, at(300))
	require.NoError(t, err)

	report := s.MeetingPace(catalog, at(660), domain.DefaultPacePolicy())
	assert.Equal(t, int64(600), report.AllocatedSeconds)
	assert.Equal(t, int64(660), report.ActualSeconds)
	assert.Equal(t, domain.PaceOnTrack, report.Pace)

	report = s.MeetingPace(catalog, at(780), domain.DefaultPacePolicy())
	assert.Equal(t, int64(780), report.ActualSeconds)
	assert.Equal(t, domain.PaceCritical, report.Pace)
}

func TestMeetingPaceIgnoresSectionsOutsideCatalog(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	_, err := s.StartSection("ids", levelTen(), at(0))
	require.NoError(t, err)

	report := s.MeetingPace(levelTen()[:2], at(100), domain.DefaultPacePolicy())
	assert.Zero(t, report.AllocatedSeconds)
	assert.Equal(t, domain.PaceOnTrack, report.Pace)
}
