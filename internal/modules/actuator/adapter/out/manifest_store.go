package out

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"calmvibe/internal/modules/actuator/domain"
	actuatorout "calmvibe/internal/modules/actuator/port/out"
)

const ManifestFile = "actuators.json"

// FileManifestStore reads manifests from a JSON array. Relative binary paths
// resolve against the directory holding the file.
type FileManifestStore struct {
	path string
}

func NewFileManifestStore(path string) actuatorout.ManifestStore {
	return &FileManifestStore{path: path}
}

func (s *FileManifestStore) Load(_ context.Context) ([]domain.Manifest, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Manifest{}, nil
		}
		return nil, fmt.Errorf("read actuator manifests: %w", err)
	}
	var manifests []domain.Manifest
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifests); err != nil {
		return nil, fmt.Errorf("decode actuator manifests: %w", err)
	}
	base := filepath.Dir(s.path)
	for i := range manifests {
		if manifests[i].Binary != "" && !filepath.IsAbs(manifests[i].Binary) {
			manifests[i].Binary = filepath.Clean(filepath.Join(base, manifests[i].Binary))
		}
	}
	return manifests, nil
}
