package out

import (
	"context"
	"errors"
	"time"

	"meetingd/internal/modules/session/domain"
)

// ErrActiveSessionExists is returned by Create when the team already has an
// active session of that kind.
var ErrActiveSessionExists = errors.New("active session already exists")

// SessionStore persists the session aggregate. Get returns
// apperrors.ErrSessionNotFound and FindActive apperrors.ErrNoActiveSession
// when nothing matches.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, sessionID string) (domain.Session, error)
	FindActive(ctx context.Context, teamID, kind string) (domain.Session, error)
	ListActiveStartedBefore(ctx context.Context, cutoff time.Time) ([]domain.Session, error)
}

// PauseLedger is append-only apart from closing the open event.
type PauseLedger interface {
	Append(ctx context.Context, event domain.PauseEvent) error
	CloseOpen(ctx context.Context, event domain.PauseEvent) error
	FindOpen(ctx context.Context, sessionID string) (domain.PauseEvent, bool, error)
	List(ctx context.Context, sessionID string) ([]domain.PauseEvent, error)
}

// SnapshotStore keeps at most one snapshot per session and returns where it was written.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot domain.Snapshot) (string, error)
}

// SectionCatalog resolves the agenda for a team's meeting kind.
type SectionCatalog interface {
	Sections(ctx context.Context, organizationID, teamID, kind string) (domain.Catalog, error)
}

// Locker grants exclusive access per key; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Alert is a failure report handed to the alerting collaborator.
type Alert struct {
	OrganizationID string
	TeamID         string
	SessionID      string
	UserID         string
	ErrorType      string
	Severity       Severity
	Message        string
	Phase          string
	Context        map[string]string
}

// Alerter reports failures. Implementations must not block the caller on
// delivery problems and never return them.
type Alerter interface {
	Report(ctx context.Context, alert Alert)
}
