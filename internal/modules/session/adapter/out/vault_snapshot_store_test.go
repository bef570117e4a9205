package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionadapter "meetingd/internal/modules/session/adapter/out"
	"meetingd/internal/modules/session/domain"
	"meetingd/internal/platform/markdown"
)

func TestVaultSnapshotStoreWritesMeetingNote(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := sessionadapter.NewVaultSnapshotStore(vault)

	actual, overrun := int64(420), int64(120)
	snapshot := domain.Snapshot{
		ID: "snap-1", SessionID: "s1", OrganizationID: "org-1", TeamID: "Team One", FacilitatorID: "user-1",
		Kind: "weekly", MeetingDate: t0, DurationMinutes: 45,
		Headlines:  []domain.Headline{{ID: "h1", Text: "customer renewed"}},
		TodosAdded: []domain.Todo{{ID: "t1", Title: "send recap", CreatedAt: t0}},
		Summary:    "good meeting",
		SectionTimings: map[string]domain.SectionTiming{
			"segue": {AllocatedSeconds: 300, StartedAt: t0, ActualSeconds: &actual, OverrunSeconds: &overrun},
		},
		Pace: domain.PaceReport{Pace: domain.PaceBehind, DeviationPct: 40},
	}

	location, err := store.Save(context.Background(), snapshot)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(vault, "meetings", "2026", "03", "02", "090000-team-one-weekly-s1.md"), location)

	content, err := os.ReadFile(location)
	require.NoError(t, err)
	meta, body, err := markdown.SplitFrontmatter(string(content))
	require.NoError(t, err)
	assert.Equal(t, "s1", meta["session_id"])
	assert.Equal(t, "behind", meta["pace"])
	assert.Contains(t, body, "- customer renewed")
	assert.Contains(t, body, "- send recap")

	timings, ok := (markdown.ManagedBlock{Name: "timings"}).Extract(body)
	require.True(t, ok)
	assert.Contains(t, timings, "| segue | 300s | 420s | 120s |")

	_, err = store.Save(context.Background(), snapshot)
	assert.ErrorContains(t, err, "already has a snapshot")
}

func TestVaultSnapshotStoreRefusesForeignNote(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := sessionadapter.NewVaultSnapshotStore(vault)
	snapshot := domain.Snapshot{ID: "snap-1", SessionID: "s1", TeamID: "team-1", Kind: "weekly", MeetingDate: t0.Add(time.Hour)}

	dir := filepath.Join(vault, "meetings", "2026", "03", "02")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	foreign := "---\nsession_id: someone-else\n---\nhand written\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "100000-team-1-weekly-s1.md"), []byte(foreign), 0o644))

	_, err := store.Save(context.Background(), snapshot)
	assert.ErrorContains(t, err, "meeting note already exists")
}

func TestVaultSnapshotStoreSeparatesSessionsStartedInSameSecond(t *testing.T) {
	t.Parallel()
	vault := t.TempDir()
	store := sessionadapter.NewVaultSnapshotStore(vault)
	first := domain.Snapshot{ID: "snap-1", SessionID: "6f1c2a9e-0000-4000-8000-000000000001", TeamID: "team-1", Kind: "weekly", MeetingDate: t0}
	second := domain.Snapshot{ID: "snap-2", SessionID: "b83d77c4-0000-4000-8000-000000000002", TeamID: "team-1", Kind: "weekly", MeetingDate: t0}

	firstPath, err := store.Save(context.Background(), first)
	require.NoError(t, err)
	secondPath, err := store.Save(context.Background(), second)
	require.NoError(t, err)

	assert.NotEqual(t, firstPath, secondPath)
	assert.Equal(t, "090000-team-1-weekly-6f1c2a9e.md", filepath.Base(firstPath))
	assert.Equal(t, "090000-team-1-weekly-b83d77c4.md", filepath.Base(secondPath))
}
