package out

import (
	"context"

	"meetingd/internal/modules/catalog/domain"
)

// ConfigStore holds agenda configs. An empty teamID addresses the
// organization default. Find returns apperrors.ErrNotFound when absent.
type ConfigStore interface {
	Find(ctx context.Context, organizationID, teamID, kind string) (domain.Config, error)
	Save(ctx context.Context, cfg domain.Config) (string, error)
}
