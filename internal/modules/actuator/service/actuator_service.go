package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"calmvibe/internal/modules/actuator/domain"
	"calmvibe/internal/modules/actuator/dto"
	actuatorout "calmvibe/internal/modules/actuator/port/out"
	apperrors "calmvibe/internal/platform/errors"

	"github.com/hashicorp/go-hclog"
)

type ActuatorService struct {
	store  actuatorout.ManifestStore
	host   actuatorout.Host
	logger hclog.Logger
}

func NewActuatorService(store actuatorout.ManifestStore, host actuatorout.Host, logger hclog.Logger) *ActuatorService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ActuatorService{store: store, host: host, logger: logger}
}

func (s *ActuatorService) List(ctx context.Context) ([]dto.ActuatorInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActuatorInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, toInfo(m))
	}
	return out, nil
}

// Doctor checks every manifest independently; one broken entry does not hide
// the others.
func (s *ActuatorService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		results = append(results, s.diagnose(ctx, m))
	}
	return results, nil
}

func (s *ActuatorService) diagnose(ctx context.Context, m domain.Manifest) dto.DoctorResult {
	result := dto.DoctorResult{Name: m.Name}
	if err := m.Validate(); err != nil {
		result.Error = err.Error()
		return result
	}
	if !fileExists(m.Binary) {
		result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		return result
	}
	result.BinaryReachable = true
	if err := checksumMatches(m.Binary, m.SHA256); err != nil {
		result.Error = "checksum mismatch"
		return result
	}
	result.ChecksumValid = true
	if !m.Enabled || s.host == nil {
		return result
	}
	meta, err := s.host.GetMetadata(ctx, m)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if meta.Name != m.Name {
		result.Error = fmt.Sprintf("actuator reports name %q", meta.Name)
		return result
	}
	result.LifecycleOK = true
	return result
}

func (s *ActuatorService) Resolve(ctx context.Context, name string) (dto.ActuatorInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return dto.ActuatorInfo{}, err
	}
	var manifest domain.Manifest
	found := false
	for _, m := range manifests {
		if m.Name == name {
			manifest, found = m, true
			break
		}
	}
	if !found {
		return dto.ActuatorInfo{}, fmt.Errorf("actuator %q: %w", name, apperrors.ErrNotFound)
	}
	if !manifest.Enabled {
		return dto.ActuatorInfo{}, fmt.Errorf("%w: %s", domain.ErrActuatorDisabled, name)
	}
	if !manifest.HasCapability(domain.CapabilityVibrate) {
		return dto.ActuatorInfo{}, fmt.Errorf("%w: %s", domain.ErrCapabilityMissing, domain.CapabilityVibrate)
	}
	if err := checksumMatches(manifest.Binary, manifest.SHA256); err != nil {
		return dto.ActuatorInfo{}, err
	}
	if s.host != nil {
		if err := s.host.CheckLifecycle(ctx, manifest); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return dto.ActuatorInfo{}, fmt.Errorf("%w: %s", domain.ErrActuatorTimeout, name)
			}
			return dto.ActuatorInfo{}, err
		}
	}
	s.logger.Debug("actuator resolved", "name", name, "version", manifest.Version)
	return toInfo(manifest), nil
}

func (s *ActuatorService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, m := range manifests {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[m.Name]; dup {
			return nil, fmt.Errorf("duplicate actuator name: %s", m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return manifests, nil
}

func toInfo(m domain.Manifest) dto.ActuatorInfo {
	caps := make([]string, 0, len(m.Capabilities))
	for _, c := range m.Capabilities {
		caps = append(caps, string(c))
	}
	return dto.ActuatorInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary, Capabilities: caps}
}

func checksumMatches(path, expected string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open actuator binary: %w", err)
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return fmt.Errorf("hash actuator binary: %w", err)
	}
	if hex.EncodeToString(hash.Sum(nil)) != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
