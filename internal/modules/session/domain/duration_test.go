package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveSecondsMonotonicWhileRunning(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	assert.Equal(t, int64(0), s.ActiveSeconds(at(0)))
	assert.Equal(t, int64(125), s.ActiveSeconds(at(125)))
	assert.Equal(t, int64(400), s.ActiveSeconds(at(400)))
}

func TestActiveSecondsFrozenWhilePaused(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	require.NoError(t, s.Pause(at(100)))

	before := s.ActiveSeconds(at(100))
	assert.Equal(t, int64(100), before)
	for _, ts := range []time.Time{at(101), at(101).Add(600 * time.Millisecond), at(700)} {
		assert.Equal(t, before, s.ActiveSeconds(ts))
	}

	_, err := s.Resume(at(700))
	require.NoError(t, err)
	assert.Equal(t, before, s.ActiveSeconds(at(700)))
	assert.Equal(t, before+50, s.ActiveSeconds(at(750)))
}

func TestActiveSecondsNeverNegative(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	assert.Equal(t, int64(0), s.ActiveSeconds(at(-30)))
}

func TestCurrentSectionSecondsExcludesOngoingPause(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	assert.Equal(t, int64(0), s.CurrentSectionSeconds(at(10)))

	_, err := s.StartSection("scorecard", levelTen(), at(10))
	require.NoError(t, err)
	assert.Equal(t, int64(90), s.CurrentSectionSeconds(at(100)))

	require.NoError(t, s.Pause(at(100)))
	assert.Equal(t, int64(90), s.CurrentSectionSeconds(at(400)))

	_, err = s.Resume(at(400))
	require.NoError(t, err)
	assert.Equal(t, int64(100), s.CurrentSectionSeconds(at(410)))
}

func TestSectionSecondsForUnknownSection(t *testing.T) {
	t.Parallel()
	s := newSession(t)
	seconds, ok := s.SectionSeconds("ids", at(10))
	assert.False(t, ok)
	assert.Zero(t, seconds)
}
