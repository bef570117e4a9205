package domain

import (
	"fmt"
	"strings"
)

const SchemaVersion = 1

type Source string

const (
	SourceTeam         Source = "team"
	SourceOrganization Source = "organization"
	SourceDefault      Source = "default"
)

type Section struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

// Config is the agenda stored for an organization, optionally narrowed to one team.
type Config struct {
	OrganizationID string
	TeamID         string
	Kind           string
	Sections       []Section
}

// DefaultSections is the built-in Level 10 agenda.
func DefaultSections() []Section {
	return []Section{
		{ID: "segue", Name: "Segue", DurationMinutes: 5},
		{ID: "scorecard", Name: "Scorecard", DurationMinutes: 5},
		{ID: "rock_review", Name: "Rock Review", DurationMinutes: 5},
		{ID: "headlines", Name: "Headlines", DurationMinutes: 5},
		{ID: "todos", Name: "To-Do Review", DurationMinutes: 5},
		{ID: "ids", Name: "IDS", DurationMinutes: 60},
		{ID: "conclude", Name: "Conclude", DurationMinutes: 5},
	}
}

// Normalize lower-cases section IDs and validates the agenda.
func (c Config) Normalize() (Config, error) {
	if strings.TrimSpace(c.OrganizationID) == "" {
		return Config{}, fmt.Errorf("organization id is required")
	}
	if strings.TrimSpace(c.Kind) == "" {
		return Config{}, fmt.Errorf("meeting type is required")
	}
	if len(c.Sections) == 0 {
		return Config{}, fmt.Errorf("at least one section is required")
	}
	out := c
	out.Sections = make([]Section, 0, len(c.Sections))
	seen := map[string]struct{}{}
	for _, section := range c.Sections {
		section.ID = strings.ToLower(strings.TrimSpace(section.ID))
		section.Name = strings.TrimSpace(section.Name)
		if section.ID == "" {
			return Config{}, fmt.Errorf("section id is required")
		}
		if section.Name == "" {
			return Config{}, fmt.Errorf("section %s: name is required", section.ID)
		}
		if section.DurationMinutes <= 0 {
			return Config{}, fmt.Errorf("section %s: duration must be positive", section.ID)
		}
		if _, ok := seen[section.ID]; ok {
			return Config{}, fmt.Errorf("duplicate section id: %s", section.ID)
		}
		seen[section.ID] = struct{}{}
		out.Sections = append(out.Sections, section)
	}
	return out, nil
}
