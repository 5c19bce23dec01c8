package domain_test

import (
	"strings"
	"testing"

	"calmvibe/internal/modules/actuator/domain"
)

func validManifest() domain.Manifest {
	return domain.Manifest{
		Name:         "bell",
		Version:      "1.0.0",
		Binary:       "/opt/calmvibe/bell",
		SHA256:       strings.Repeat("a", 64),
		Enabled:      true,
		Capabilities: []domain.Capability{domain.CapabilityVibrate},
	}
}

func TestManifestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		mutate    func(*domain.Manifest)
		shouldErr bool
	}{
		{name: "valid", mutate: func(*domain.Manifest) {}},
		{name: "missing name", mutate: func(m *domain.Manifest) { m.Name = "" }, shouldErr: true},
		{name: "missing version", mutate: func(m *domain.Manifest) { m.Version = "" }, shouldErr: true},
		{name: "missing binary", mutate: func(m *domain.Manifest) { m.Binary = "" }, shouldErr: true},
		{name: "uppercase sha", mutate: func(m *domain.Manifest) { m.SHA256 = strings.Repeat("A", 64) }, shouldErr: true},
		{name: "no capabilities", mutate: func(m *domain.Manifest) { m.Capabilities = nil }, shouldErr: true},
		{name: "unknown capability", mutate: func(m *domain.Manifest) { m.Capabilities = []domain.Capability{"sing"} }, shouldErr: true},
		{name: "duplicate capability", mutate: func(m *domain.Manifest) {
			m.Capabilities = []domain.Capability{domain.CapabilityVibrate, domain.CapabilityVibrate}
		}, shouldErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := validManifest()
			tc.mutate(&m)
			err := m.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestManifestHasCapability(t *testing.T) {
	t.Parallel()
	m := validManifest()
	if !m.HasCapability(domain.CapabilityVibrate) {
		t.Fatalf("expected vibrate capability")
	}
	if m.HasCapability(domain.CapabilityAmplitude) {
		t.Fatalf("did not expect amplitude capability")
	}
}
