package out

import (
	"context"

	"meetingd/internal/modules/alert/domain"
)

// AlertLog keeps every reported alert with what happened to it.
type AlertLog interface {
	Record(ctx context.Context, alert domain.Alert, outcome domain.Outcome) error
	Recent(ctx context.Context, organizationID string, limit int) ([]Record, error)
}

type Record struct {
	Alert     domain.Alert
	Delivered int
	Throttled bool
}

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.SinkManifest, error)
}

type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.SinkManifest) error
	GetMetadata(ctx context.Context, manifest domain.SinkManifest) (domain.SinkMetadata, error)
	Deliver(ctx context.Context, manifest domain.SinkManifest, alert domain.Alert) error
}
