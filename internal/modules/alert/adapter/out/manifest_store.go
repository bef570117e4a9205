package out

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"meetingd/internal/modules/alert/domain"
	alertout "meetingd/internal/modules/alert/port/out"
)

type manifestFile struct {
	Sinks []domain.SinkManifest `yaml:"sinks"`
}

// FileManifestStore reads sink manifests from a YAML file. Relative binaries
// resolve against the file's directory.
type FileManifestStore struct {
	path string
}

func NewFileManifestStore(path string) alertout.ManifestStore {
	return &FileManifestStore{path: path}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.SinkManifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.SinkManifest{}, nil
		}
		return nil, fmt.Errorf("read sink manifest: %w", err)
	}
	var file manifestFile
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode sink manifest: %w", err)
	}
	baseDir := filepath.Dir(s.path)
	for i := range file.Sinks {
		if file.Sinks[i].Binary != "" && !filepath.IsAbs(file.Sinks[i].Binary) {
			file.Sinks[i].Binary = filepath.Clean(filepath.Join(baseDir, file.Sinks[i].Binary))
		}
	}
	if file.Sinks == nil {
		return []domain.SinkManifest{}, nil
	}
	return file.Sinks, nil
}
