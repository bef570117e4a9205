package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

func (s Severity) Validate() error {
	if _, ok := severityRank[s]; !ok {
		return fmt.Errorf("unknown severity: %s", s)
	}
	return nil
}

// AtLeast reports whether s is as severe as min.
func (s Severity) AtLeast(min Severity) bool {
	return severityRank[s] >= severityRank[min]
}

type ErrorType string

const (
	ErrorStartFailed       ErrorType = "start_failed"
	ErrorConcludeFailed    ErrorType = "conclude_failed"
	ErrorSnapshotFailed    ErrorType = "snapshot_failed"
	ErrorPersistenceFailed ErrorType = "persistence_failed"
	ErrorSessionOrphaned   ErrorType = "session_orphaned"
	ErrorUnexpected        ErrorType = "unexpected_error"
)

var defaultSeverity = map[ErrorType]Severity{
	ErrorStartFailed:       SeverityError,
	ErrorConcludeFailed:    SeverityCritical,
	ErrorSnapshotFailed:    SeverityError,
	ErrorPersistenceFailed: SeverityError,
	ErrorSessionOrphaned:   SeverityWarning,
	ErrorUnexpected:        SeverityError,
}

// SeverityFor returns the default severity of an error type; unknown types are errors.
func SeverityFor(t ErrorType) Severity {
	if s, ok := defaultSeverity[t]; ok {
		return s
	}
	return SeverityError
}

type Alert struct {
	ID             string
	OrganizationID string
	TeamID         string
	SessionID      string
	UserID         string
	Type           ErrorType
	Severity       Severity
	Message        string
	Phase          string
	Context        map[string]string
	OccurredAt     time.Time
}

func (a Alert) Validate() error {
	if strings.TrimSpace(string(a.Type)) == "" {
		return fmt.Errorf("error type is required")
	}
	if strings.TrimSpace(a.Message) == "" {
		return fmt.Errorf("alert message is required")
	}
	return a.Severity.Validate()
}

// Notifiable alerts are pushed to sinks; the rest are only logged.
func (a Alert) Notifiable() bool {
	return a.Severity.AtLeast(SeverityError)
}

type Delivery struct {
	Sink  string
	Error string
}

func (d Delivery) Delivered() bool {
	return d.Error == ""
}

type Outcome struct {
	Throttled  bool
	Deliveries []Delivery
}

func (o Outcome) DeliveredCount() int {
	n := 0
	for _, d := range o.Deliveries {
		if d.Delivered() {
			n++
		}
	}
	return n
}

var (
	ErrSinkDisabled     = errors.New("alert sink is disabled")
	ErrChecksumMismatch = errors.New("alert sink checksum mismatch")
	ErrSinkTimeout      = errors.New("alert sink timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// SinkManifest declares an external alert sink binary.
type SinkManifest struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Binary      string   `yaml:"binary"`
	SHA256      string   `yaml:"sha256"`
	Enabled     bool     `yaml:"enabled"`
	MinSeverity Severity `yaml:"min_severity"`
}

func (m SinkManifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("sink name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("sink version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("sink binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("sink sha256 must be lowercase 64-char hex")
	}
	if m.MinSeverity != "" {
		return m.MinSeverity.Validate()
	}
	return nil
}

// Accepts reports whether the sink wants alerts of severity s.
func (m SinkManifest) Accepts(s Severity) bool {
	min := m.MinSeverity
	if min == "" {
		min = SeverityError
	}
	return s.AtLeast(min)
}

type SinkMetadata struct {
	Name    string
	Version string
}
