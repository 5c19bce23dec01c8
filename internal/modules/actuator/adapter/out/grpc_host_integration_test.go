package out_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	actuatorout "calmvibe/internal/modules/actuator/adapter/out"
	"calmvibe/internal/modules/actuator/domain"
)

func TestGRPCHostIntegrationBellPlugin(t *testing.T) {
	binPath, checksum := buildBellPlugin(t)
	manifest := domain.Manifest{
		Name:         "bell",
		Version:      "1.0.0",
		Binary:       binPath,
		SHA256:       checksum,
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilityVibrate},
	}

	host := actuatorout.NewGRPCHost(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := host.CheckLifecycle(ctx, manifest); err != nil {
		t.Fatalf("check lifecycle: %v", err)
	}
	metadata, err := host.GetMetadata(ctx, manifest)
	if err != nil {
		t.Fatalf("get metadata: %v", err)
	}
	if metadata.Name != "bell" || len(metadata.Capabilities) == 0 {
		t.Fatalf("unexpected metadata: %+v", metadata)
	}
}

func TestPluginActuatorPlaysThroughBellPlugin(t *testing.T) {
	binPath, _ := buildBellPlugin(t)
	out := filepath.Join(t.TempDir(), "bell.out")
	t.Setenv("CALMVIBE_BELL_OUTPUT", out)

	actuator := actuatorout.NewPluginActuator("bell", binPath, nil)
	defer actuator.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := actuator.Stop(ctx); err != nil {
		t.Fatalf("stop before start: %v", err)
	}
	if err := actuator.Play(ctx, []int{150}); err != nil {
		t.Fatalf("play: %v", err)
	}
	if err := actuator.Play(ctx, []int{150}); err != nil {
		t.Fatalf("second play: %v", err)
	}
	if err := actuator.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read bell output: %v", err)
	}
	if bytes.Count(raw, []byte("\a")) != 2 {
		t.Fatalf("expected two bells, got %q", raw)
	}
}

func buildBellPlugin(t *testing.T) (string, string) {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "calmvibe-bell")
	cmd := exec.Command("go", "build", "-o", binPath, "./plugins/bell")
	cmd.Dir = repositoryRoot(t)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build bell plugin: %v\n%s", err, string(out))
	}
	payload, err := os.ReadFile(binPath)
	if err != nil {
		t.Fatalf("read built plugin: %v", err)
	}
	hash := sha256.Sum256(payload)
	return binPath, hex.EncodeToString(hash[:])
}

func repositoryRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "../../../../../"))
}
