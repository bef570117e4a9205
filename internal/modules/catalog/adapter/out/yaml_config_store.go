package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"meetingd/internal/modules/catalog/domain"
	catalogout "meetingd/internal/modules/catalog/port/out"
	apperrors "meetingd/internal/platform/errors"
	"meetingd/internal/platform/slug"
)

const organizationDir = "_organization"

type configFile struct {
	SchemaVersion  int              `yaml:"schema_version"`
	OrganizationID string           `yaml:"organization_id"`
	TeamID         string           `yaml:"team_id,omitempty"`
	MeetingType    string           `yaml:"meeting_type"`
	Sections       []domain.Section `yaml:"sections"`
}

// YAMLConfigStore keeps one YAML file per organization, team and meeting type
// under <base>/catalog.
type YAMLConfigStore struct {
	root string
	mu   sync.RWMutex
}

func NewYAMLConfigStore(basePath string) catalogout.ConfigStore {
	return &YAMLConfigStore{root: filepath.Join(basePath, "catalog")}
}

func (s *YAMLConfigStore) path(organizationID, teamID, kind string) string {
	team := organizationDir
	if teamID != "" {
		team = slug.Make(teamID)
	}
	return filepath.Join(s.root, slug.Make(organizationID), team, slug.Make(kind)+".yaml")
}

func (s *YAMLConfigStore) Find(ctx context.Context, organizationID, teamID, kind string) (domain.Config, error) {
	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path(organizationID, teamID, kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Config{}, apperrors.ErrNotFound
		}
		return domain.Config{}, fmt.Errorf("read section config: %w", err)
	}
	file := configFile{}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return domain.Config{}, fmt.Errorf("decode section config: %w", err)
	}
	cfg, err := domain.Config{
		OrganizationID: file.OrganizationID,
		TeamID:         file.TeamID,
		Kind:           file.MeetingType,
		Sections:       file.Sections,
	}.Normalize()
	if err != nil {
		return domain.Config{}, fmt.Errorf("invalid section config: %w", err)
	}
	return cfg, nil
}

func (s *YAMLConfigStore) Save(ctx context.Context, cfg domain.Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(cfg.OrganizationID, cfg.TeamID, cfg.Kind)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create section config dir: %w", err)
	}
	raw, err := yaml.Marshal(configFile{
		SchemaVersion:  domain.SchemaVersion,
		OrganizationID: cfg.OrganizationID,
		TeamID:         cfg.TeamID,
		MeetingType:    cfg.Kind,
		Sections:       cfg.Sections,
	})
	if err != nil {
		return "", fmt.Errorf("marshal section config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("write section config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("replace section config: %w", err)
	}
	return path, nil
}
