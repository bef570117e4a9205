package dto

type Section struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
}

type GetSectionsInput struct {
	OrganizationID string
	TeamID         string
	MeetingType    string
}

type SectionsOutput struct {
	OrganizationID string    `json:"organization_id"`
	TeamID         string    `json:"team_id,omitempty"`
	MeetingType    string    `json:"meeting_type"`
	Source         string    `json:"source"`
	Sections       []Section `json:"sections"`
}

type SaveSectionsInput struct {
	OrganizationID string    `json:"organization_id"`
	TeamID         string    `json:"team_id"`
	MeetingType    string    `json:"meeting_type"`
	Sections       []Section `json:"sections"`
}

type SaveSectionsOutput struct {
	Path     string    `json:"path"`
	Sections []Section `json:"sections"`
}
