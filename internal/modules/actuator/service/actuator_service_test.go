package service_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"calmvibe/internal/modules/actuator/domain"
	"calmvibe/internal/modules/actuator/service"
	apperrors "calmvibe/internal/platform/errors"
)

type fakeStore struct {
	manifests []domain.Manifest
}

func (s fakeStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeHost struct {
	name      string
	lifecycle error
	checked   int
}

func (h *fakeHost) CheckLifecycle(context.Context, domain.Manifest) error {
	h.checked++
	return h.lifecycle
}

func (h *fakeHost) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	if h.lifecycle != nil {
		return domain.Metadata{}, h.lifecycle
	}
	return domain.Metadata{Name: h.name, Version: "1.0.0"}, nil
}

func writeBinary(t *testing.T, content string) (string, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "actuator")
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256([]byte(content))
	return path, hex.EncodeToString(sum[:])
}

func manifest(name, binary, sum string, caps ...domain.Capability) domain.Manifest {
	if len(caps) == 0 {
		caps = []domain.Capability{domain.CapabilityVibrate}
	}
	return domain.Manifest{Name: name, Version: "1.0.0", Binary: binary, SHA256: sum, Enabled: true, Capabilities: caps}
}

func TestDoctorReportsEachManifest(t *testing.T) {
	t.Parallel()
	good, goodSum := writeBinary(t, "good")
	bad, _ := writeBinary(t, "tampered")
	store := fakeStore{manifests: []domain.Manifest{
		manifest("bell", good, goodSum),
		manifest("tampered", bad, strings.Repeat("0", 64)),
		manifest("missing", filepath.Join(t.TempDir(), "gone"), goodSum),
		{Name: "broken"},
	}}

	results, err := service.NewActuatorService(store, &fakeHost{name: "bell"}, nil).Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected four results, got %d", len(results))
	}
	if r := results[0]; !r.BinaryReachable || !r.ChecksumValid || !r.LifecycleOK || r.Error != "" {
		t.Fatalf("unexpected healthy result %+v", r)
	}
	if r := results[1]; !r.BinaryReachable || r.ChecksumValid || r.Error != "checksum mismatch" {
		t.Fatalf("unexpected tampered result %+v", r)
	}
	if r := results[2]; r.BinaryReachable || r.Error == "" {
		t.Fatalf("unexpected missing result %+v", r)
	}
	if r := results[3]; r.Error == "" {
		t.Fatalf("expected validation error, got %+v", r)
	}
}

func TestDoctorFlagsNameMismatch(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t, "bell")
	svc := service.NewActuatorService(fakeStore{manifests: []domain.Manifest{manifest("bell", bin, sum)}}, &fakeHost{name: "buzzer"}, nil)
	results, err := svc.Doctor(context.Background())
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if results[0].LifecycleOK || !strings.Contains(results[0].Error, "buzzer") {
		t.Fatalf("expected name mismatch, got %+v", results[0])
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t, "bell")
	disabled := manifest("off", bin, sum)
	disabled.Enabled = false
	store := fakeStore{manifests: []domain.Manifest{
		manifest("bell", bin, sum),
		disabled,
		manifest("dimmer", bin, sum, domain.CapabilityAmplitude),
		manifest("stale", bin, strings.Repeat("f", 64)),
	}}
	host := &fakeHost{name: "bell"}
	svc := service.NewActuatorService(store, host, nil)
	ctx := context.Background()

	info, err := svc.Resolve(ctx, "bell")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Binary != bin || host.checked != 1 {
		t.Fatalf("unexpected resolve %+v (checked=%d)", info, host.checked)
	}

	cases := map[string]error{
		"nope":   apperrors.ErrNotFound,
		"off":    domain.ErrActuatorDisabled,
		"dimmer": domain.ErrCapabilityMissing,
		"stale":  domain.ErrChecksumMismatch,
	}
	for name, want := range cases {
		if _, err := svc.Resolve(ctx, name); !errors.Is(err, want) {
			t.Fatalf("resolve %s: expected %v, got %v", name, want, err)
		}
	}
}

func TestResolveMapsLifecycleTimeout(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t, "bell")
	host := &fakeHost{lifecycle: context.DeadlineExceeded}
	svc := service.NewActuatorService(fakeStore{manifests: []domain.Manifest{manifest("bell", bin, sum)}}, host, nil)
	if _, err := svc.Resolve(context.Background(), "bell"); !errors.Is(err, domain.ErrActuatorTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestListRejectsDuplicateNames(t *testing.T) {
	t.Parallel()
	bin, sum := writeBinary(t, "bell")
	svc := service.NewActuatorService(fakeStore{manifests: []domain.Manifest{manifest("bell", bin, sum), manifest("bell", bin, sum)}}, nil, nil)
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}
