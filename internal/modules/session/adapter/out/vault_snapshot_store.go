package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"meetingd/internal/modules/session/domain"
	sessionout "meetingd/internal/modules/session/port/out"
	"meetingd/internal/platform/markdown"
	"meetingd/internal/platform/slug"
)

var timingsBlock = markdown.ManagedBlock{Name: "timings"}

// VaultSnapshotStore writes each concluded meeting as a markdown note with
// YAML frontmatter under <vault>/meetings/YYYY/MM/DD.
type VaultSnapshotStore struct {
	vaultPath string
}

func NewVaultSnapshotStore(vaultPath string) sessionout.SnapshotStore {
	return &VaultSnapshotStore{vaultPath: vaultPath}
}

func (s *VaultSnapshotStore) Save(_ context.Context, snapshot domain.Snapshot) (string, error) {
	date := snapshot.MeetingDate.UTC()
	dir := filepath.Join(s.vaultPath, "meetings", date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create meeting dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s-%s.md", date.Format("150405"), slug.Make(snapshot.TeamID), slug.Make(snapshot.Kind), shortID(snapshot.SessionID))
	path := filepath.Join(dir, name)

	if existing, err := os.ReadFile(path); err == nil {
		meta, _, err := markdown.SplitFrontmatter(string(existing))
		if err == nil && meta["session_id"] == snapshot.SessionID {
			return "", fmt.Errorf("session %s already has a snapshot", snapshot.SessionID)
		}
		return "", fmt.Errorf("meeting note already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat meeting note: %w", err)
	}

	meta := map[string]any{
		"schema_version":   domain.SchemaVersion,
		"id":               snapshot.ID,
		"session_id":       snapshot.SessionID,
		"organization_id":  snapshot.OrganizationID,
		"team_id":          snapshot.TeamID,
		"facilitator_id":   snapshot.FacilitatorID,
		"meeting_type":     snapshot.Kind,
		"meeting_date":     snapshot.MeetingDate.Format(time.RFC3339),
		"duration_minutes": snapshot.DurationMinutes,
		"pace":             string(snapshot.Pace.Pace),
		"todos_added":      len(snapshot.TodosAdded),
		"todos_completed":  len(snapshot.TodosCompleted),
		"issues_new":       len(snapshot.IssuesNew),
		"issues_solved":    len(snapshot.IssuesSolved),
	}
	if snapshot.AverageRating != nil {
		meta["average_rating"] = *snapshot.AverageRating
	}

	rendered, err := markdown.RenderFrontmatter(meta, renderSnapshotBody(snapshot))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write meeting note: %w", err)
	}
	return path, nil
}

// shortID keeps note names distinct for sessions started in the same second.
func shortID(sessionID string) string {
	short := slug.Make(sessionID)
	if len(short) > 8 {
		short = short[:8]
	}
	return short
}

func renderSnapshotBody(snapshot domain.Snapshot) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "# %s meeting %s\n\n", snapshot.Kind, snapshot.MeetingDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Team: %s\n- Duration: %d minutes\n- Pace: %s (%+.1f%%)\n", snapshot.TeamID, snapshot.DurationMinutes, snapshot.Pace.Pace, snapshot.Pace.DeviationPct)
	if snapshot.AverageRating != nil {
		fmt.Fprintf(&b, "- Rating: %.1f\n", *snapshot.AverageRating)
	}
	writeList(&b, "Headlines", len(snapshot.Headlines), func(i int) string { return snapshot.Headlines[i].Text })
	writeList(&b, "To-dos added", len(snapshot.TodosAdded), func(i int) string { return snapshot.TodosAdded[i].Title })
	writeList(&b, "To-dos completed", len(snapshot.TodosCompleted), func(i int) string { return snapshot.TodosCompleted[i].Title })
	writeList(&b, "Issues raised", len(snapshot.IssuesNew), func(i int) string { return snapshot.IssuesNew[i].Title })
	writeList(&b, "Issues solved", len(snapshot.IssuesSolved), func(i int) string { return snapshot.IssuesSolved[i].Title })
	if snapshot.Summary != "" {
		fmt.Fprintf(&b, "\n## Summary\n\n%s\n", snapshot.Summary)
	}
	if snapshot.Notes != "" {
		fmt.Fprintf(&b, "\n## Notes\n\n%s\n", snapshot.Notes)
	}
	b.WriteString("\n## Section timings\n\n")
	return timingsBlock.Replace(b.String(), renderTimings(snapshot.SectionTimings))
}

func writeList(b *strings.Builder, title string, n int, item func(int) string) {
	if n == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for i := 0; i < n; i++ {
		fmt.Fprintf(b, "- %s\n", item(i))
	}
}

func renderTimings(timings map[string]domain.SectionTiming) string {
	ids := make([]string, 0, len(timings))
	for id := range timings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return timings[ids[i]].StartedAt.Before(timings[ids[j]].StartedAt) })
	b := strings.Builder{}
	b.WriteString("| section | allocated | actual | overrun |\n|---|---|---|---|\n")
	for _, id := range ids {
		t := timings[id]
		actual, overrun := "-", "-"
		if t.ActualSeconds != nil {
			actual = fmt.Sprintf("%ds", *t.ActualSeconds)
		}
		if t.OverrunSeconds != nil {
			overrun = fmt.Sprintf("%ds", *t.OverrunSeconds)
		}
		fmt.Fprintf(&b, "| %s | %ds | %s | %s |\n", id, t.AllocatedSeconds, actual, overrun)
	}
	return b.String()
}
