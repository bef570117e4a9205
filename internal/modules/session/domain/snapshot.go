package domain

import (
	"math"
	"time"
)

type Rating struct {
	ParticipantID string   `json:"participant_id"`
	Name          string   `json:"name"`
	Value         *float64 `json:"value,omitempty"`
}

type Todo struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	AssigneeID   string     `json:"assignee_id,omitempty"`
	AssigneeName string     `json:"assignee_name,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type Issue struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	SolvedAt  *time.Time `json:"solved_at,omitempty"`
	Solution  string     `json:"solution,omitempty"`
}

type Headline struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
}

// Conclusion is what the facilitator hands over when closing a meeting.
type Conclusion struct {
	DurationSeconds int64
	Ratings         []Rating
	Todos           []Todo
	Issues          []Issue
	Headlines       []Headline
	Notes           string
	Summary         string
}

// Snapshot is the immutable historical record of a concluded meeting.
type Snapshot struct {
	ID              string                   `json:"id"`
	SessionID       string                   `json:"session_id"`
	OrganizationID  string                   `json:"organization_id"`
	TeamID          string                   `json:"team_id"`
	FacilitatorID   string                   `json:"facilitator_id"`
	Kind            string                   `json:"meeting_type"`
	MeetingDate     time.Time                `json:"meeting_date"`
	DurationMinutes int                      `json:"duration_minutes"`
	AverageRating   *float64                 `json:"average_rating,omitempty"`
	Ratings         []Rating                 `json:"attendees"`
	TodosAdded      []Todo                   `json:"todos_added"`
	TodosCompleted  []Todo                   `json:"todos_completed"`
	IssuesNew       []Issue                  `json:"issues_new"`
	IssuesSolved    []Issue                  `json:"issues_solved"`
	Headlines       []Headline               `json:"headlines"`
	Notes           string                   `json:"notes"`
	Summary         string                   `json:"summary"`
	SectionTimings  map[string]SectionTiming `json:"section_timings"`
	Pace            PaceReport               `json:"pace"`
	CreatedAt       time.Time                `json:"created_at"`
}

// TodayWindow spans local midnight of now's day in loc through now.
func TodayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, now
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// BuildSnapshot filters the conclusion to what happened today and freezes the
// session's timings and pace.
func BuildSnapshot(id string, s Session, c Conclusion, catalog Catalog, policy PacePolicy, now time.Time, loc *time.Location) Snapshot {
	start, end := TodayWindow(now, loc)

	snap := Snapshot{
		ID:             id,
		SessionID:      s.ID,
		OrganizationID: s.OrganizationID,
		TeamID:         s.TeamID,
		FacilitatorID:  s.FacilitatorID,
		Kind:           s.Kind,
		MeetingDate:    s.StartTime,
		Ratings:        append([]Rating{}, c.Ratings...),
		TodosAdded:     []Todo{},
		TodosCompleted: []Todo{},
		IssuesNew:      []Issue{},
		IssuesSolved:   []Issue{},
		Headlines:      append([]Headline{}, c.Headlines...),
		Notes:          c.Notes,
		Summary:        c.Summary,
		SectionTimings: s.Clone().SectionTimings,
		Pace:           s.MeetingPace(catalog, now, policy),
		CreatedAt:      now,
	}

	seconds := c.DurationSeconds
	if seconds <= 0 {
		seconds = s.ActiveSeconds(now)
	}
	snap.DurationMinutes = int(math.Round(float64(seconds) / 60))

	var sum float64
	var rated int
	for _, rating := range c.Ratings {
		if rating.Value != nil {
			sum += *rating.Value
			rated++
		}
	}
	if rated > 0 {
		avg := sum / float64(rated)
		snap.AverageRating = &avg
	}

	for _, todo := range c.Todos {
		if todo.CompletedAt != nil && within(*todo.CompletedAt, start, end) {
			snap.TodosCompleted = append(snap.TodosCompleted, todo)
		}
		if within(todo.CreatedAt, start, end) {
			snap.TodosAdded = append(snap.TodosAdded, todo)
		}
	}
	for _, issue := range c.Issues {
		if issue.SolvedAt != nil && within(*issue.SolvedAt, start, end) {
			snap.IssuesSolved = append(snap.IssuesSolved, issue)
		}
		if within(issue.CreatedAt, start, end) {
			snap.IssuesNew = append(snap.IssuesNew, issue)
		}
	}
	return snap
}
