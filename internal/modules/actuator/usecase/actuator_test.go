package usecase_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"calmvibe/internal/modules/actuator/domain"
	"calmvibe/internal/modules/actuator/service"
	"calmvibe/internal/modules/actuator/usecase"
)

type fakeManifestStore struct {
	manifests []domain.Manifest
}

func (s fakeManifestStore) Load(context.Context) ([]domain.Manifest, error) {
	return s.manifests, nil
}

type fakeHost struct{}

func (fakeHost) CheckLifecycle(context.Context, domain.Manifest) error { return nil }
func (fakeHost) GetMetadata(context.Context, domain.Manifest) (domain.Metadata, error) {
	return domain.Metadata{Name: "bell", Version: "1.0.0", Capabilities: []domain.Capability{domain.CapabilityVibrate}}, nil
}

func TestUsecaseListDoctorResolve(t *testing.T) {
	t.Parallel()
	bin := filepath.Join(t.TempDir(), "bell")
	if err := os.WriteFile(bin, []byte("bell-binary"), 0o755); err != nil {
		t.Fatalf("write binary: %v", err)
	}
	sum := sha256.Sum256([]byte("bell-binary"))
	manifest := domain.Manifest{
		Name:         "bell",
		Version:      "1.0.0",
		Binary:       bin,
		SHA256:       hex.EncodeToString(sum[:]),
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilityVibrate, domain.CapabilityAmplitude},
	}
	uc := usecase.NewInteractor(service.NewActuatorService(fakeManifestStore{manifests: []domain.Manifest{manifest}}, fakeHost{}, nil))
	ctx := context.Background()

	list, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Name != "bell" || len(list[0].Capabilities) != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}

	docs, err := uc.Doctor(ctx)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if len(docs) != 1 || !docs[0].LifecycleOK {
		t.Fatalf("unexpected doctor result: %+v", docs)
	}

	info, err := uc.Resolve(ctx, "bell")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if info.Binary != bin {
		t.Fatalf("unexpected binary: %s", info.Binary)
	}
}
