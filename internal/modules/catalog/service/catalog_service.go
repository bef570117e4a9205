package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meetingd/internal/modules/catalog/domain"
	catalogout "meetingd/internal/modules/catalog/port/out"
	apperrors "meetingd/internal/platform/errors"
)

type CatalogService struct {
	store catalogout.ConfigStore
}

func NewCatalogService(store catalogout.ConfigStore) *CatalogService {
	return &CatalogService{store: store}
}

// Resolve looks up the team config, then the organization default, then
// falls back to the built-in agenda.
func (s *CatalogService) Resolve(ctx context.Context, organizationID, teamID, kind string) ([]domain.Section, domain.Source, error) {
	if strings.TrimSpace(organizationID) == "" {
		return nil, "", apperrors.New(apperrors.CodeInvalidInput, "organization id is required")
	}
	if strings.TrimSpace(kind) == "" {
		return nil, "", apperrors.New(apperrors.CodeInvalidInput, "meeting type is required")
	}
	if s.store == nil {
		return domain.DefaultSections(), domain.SourceDefault, nil
	}
	if strings.TrimSpace(teamID) != "" {
		cfg, err := s.store.Find(ctx, organizationID, teamID, kind)
		switch {
		case err == nil:
			return cfg.Sections, domain.SourceTeam, nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, "", fmt.Errorf("load team sections: %w", err)
		}
	}
	cfg, err := s.store.Find(ctx, organizationID, "", kind)
	switch {
	case err == nil:
		return cfg.Sections, domain.SourceOrganization, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, "", fmt.Errorf("load organization sections: %w", err)
	}
	return domain.DefaultSections(), domain.SourceDefault, nil
}

func (s *CatalogService) Save(ctx context.Context, cfg domain.Config) (domain.Config, string, error) {
	normalized, err := cfg.Normalize()
	if err != nil {
		return domain.Config{}, "", apperrors.Wrap(apperrors.CodeInvalidInput, "invalid section config", err)
	}
	if s.store == nil {
		return domain.Config{}, "", fmt.Errorf("section config store is not configured")
	}
	path, err := s.store.Save(ctx, normalized)
	if err != nil {
		return domain.Config{}, "", err
	}
	return normalized, path, nil
}
