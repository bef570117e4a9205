package dto

import "time"

type StartInput struct {
	OrganizationID string `json:"organization_id"`
	TeamID         string `json:"team_id"`
	MeetingType    string `json:"meeting_type"`
	FacilitatorID  string `json:"facilitator_id"`
}

type StartOutput struct {
	Session SessionView `json:"session"`
	Resumed bool        `json:"resumed"`
}

type PauseInput struct {
	SessionID string `json:"-"`
	ActorID   string `json:"actor_id"`
	Reason    string `json:"reason"`
}

type ResumeInput struct {
	SessionID string `json:"-"`
	ActorID   string `json:"actor_id"`
}

type PauseOutput struct {
	Session              SessionView `json:"session"`
	PauseEventID         string      `json:"pause_event_id"`
	PauseDurationSeconds int64       `json:"pause_duration_seconds,omitempty"`
}

type SectionInput struct {
	SessionID string `json:"-"`
	SectionID string `json:"section_id"`
}

type StartSectionOutput struct {
	Session          SessionView `json:"session"`
	SectionID        string      `json:"section_id"`
	SectionName      string      `json:"section_name"`
	AllocatedSeconds int64       `json:"allocated_seconds"`
}

type EndSectionOutput struct {
	Session        SessionView `json:"session"`
	SectionID      string      `json:"section_id"`
	ActualSeconds  int64       `json:"actual_seconds"`
	OverrunSeconds int64       `json:"overrun_seconds"`
}

type EndInput struct {
	SessionID  string           `json:"-"`
	ActorID    string           `json:"actor_id"`
	Conclusion *ConclusionInput `json:"conclusion,omitempty"`
}

type ConclusionInput struct {
	DurationSeconds int64           `json:"duration_seconds"`
	Ratings         []RatingInput   `json:"ratings"`
	Todos           []TodoInput     `json:"todos"`
	Issues          []IssueInput    `json:"issues"`
	Headlines       []HeadlineInput `json:"headlines"`
	Notes           string          `json:"notes"`
	Summary         string          `json:"summary"`
}

type RatingInput struct {
	ParticipantID string   `json:"participant_id"`
	Name          string   `json:"name"`
	Value         *float64 `json:"value"`
}

type TodoInput struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	AssigneeID   string     `json:"assignee_id"`
	AssigneeName string     `json:"assignee_name"`
	DueDate      *time.Time `json:"due_date"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

type IssueInput struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	SolvedAt  *time.Time `json:"solved_at"`
	Solution  string     `json:"solution"`
}

type HeadlineInput struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

type EndOutput struct {
	Session              SessionView `json:"session"`
	FinalDurationSeconds int64       `json:"final_duration_seconds"`
	SnapshotID           string      `json:"snapshot_id,omitempty"`
	SnapshotLocation     string      `json:"snapshot_location,omitempty"`
	ConclusionError      string      `json:"conclusion_error,omitempty"`
}

type ActiveInput struct {
	TeamID      string
	MeetingType string
}

type CleanupInput struct {
	StaleAfter time.Duration
}

type CleanupOutput struct {
	Abandoned []string `json:"abandoned"`
	Failed    []string `json:"failed,omitempty"`
}

type SectionTimingView struct {
	SectionID        string     `json:"section_id"`
	AllocatedSeconds int64      `json:"allocated_seconds"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	PausedSeconds    int64      `json:"paused_seconds"`
	ActualSeconds    *int64     `json:"actual_seconds,omitempty"`
	OverrunSeconds   *int64     `json:"overrun_seconds,omitempty"`
	InProgress       bool       `json:"in_progress"`
}

type SessionView struct {
	ID                    string              `json:"id"`
	OrganizationID        string              `json:"organization_id"`
	TeamID                string              `json:"team_id"`
	MeetingType           string              `json:"meeting_type"`
	FacilitatorID         string              `json:"facilitator_id"`
	Status                string              `json:"status"`
	IsActive              bool                `json:"is_active"`
	IsPaused              bool                `json:"is_paused"`
	StartTime             time.Time           `json:"start_time"`
	LastPauseTime         *time.Time          `json:"last_pause_time,omitempty"`
	LastResumeTime        *time.Time          `json:"last_resume_time,omitempty"`
	TotalPausedSeconds    int64               `json:"total_paused_seconds"`
	ActiveSeconds         int64               `json:"active_seconds"`
	CurrentSectionID      string              `json:"current_section,omitempty"`
	CurrentSectionStart   *time.Time          `json:"current_section_start,omitempty"`
	CurrentSectionSeconds int64               `json:"current_section_seconds"`
	SectionTimings        []SectionTimingView `json:"section_timings"`
	SectionsCompleted     []string            `json:"sections_completed"`
	EndedAt               *time.Time          `json:"ended_at,omitempty"`
	EndReason             string              `json:"end_reason,omitempty"`
}

type SectionView struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	AllocatedSeconds int64  `json:"allocated_seconds"`
	Status           string `json:"status"`
	ElapsedSeconds   int64  `json:"elapsed_seconds"`
}

type PauseEventView struct {
	ID              string     `json:"id"`
	PausedAt        time.Time  `json:"paused_at"`
	ResumedAt       *time.Time `json:"resumed_at,omitempty"`
	PausedBy        string     `json:"paused_by"`
	ResumedBy       string     `json:"resumed_by,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

type StatusOutput struct {
	Session               SessionView      `json:"session"`
	Sections              []SectionView    `json:"sections"`
	Pace                  string           `json:"pace"`
	DeviationPct          float64          `json:"deviation_pct"`
	TotalAllocatedSeconds int64            `json:"total_allocated_seconds"`
	TotalActualSeconds    int64            `json:"total_actual_seconds"`
	PauseCount            int              `json:"pause_count"`
	PauseHistory          []PauseEventView `json:"pause_history"`
}
