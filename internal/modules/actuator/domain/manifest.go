package domain

import (
	"errors"
	"fmt"
	"regexp"
)

type Capability string

const (
	CapabilityVibrate   Capability = "vibrate"
	CapabilityAmplitude Capability = "amplitude"
)

var (
	ErrActuatorDisabled  = errors.New("actuator is disabled")
	ErrChecksumMismatch  = errors.New("actuator checksum mismatch")
	ErrCapabilityMissing = errors.New("actuator capability missing")
	ErrActuatorTimeout   = errors.New("actuator timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest pins an out-of-process actuator binary by checksum.
type Manifest struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Binary       string       `json:"binary"`
	SHA256       string       `json:"sha256"`
	Enabled      bool         `json:"enabled"`
	Capabilities []Capability `json:"capabilities"`
}

func (m Manifest) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("actuator name is required")
	case m.Version == "":
		return fmt.Errorf("actuator %s: version is required", m.Name)
	case m.Binary == "":
		return fmt.Errorf("actuator %s: binary path is required", m.Name)
	case !sha256Pattern.MatchString(m.SHA256):
		return fmt.Errorf("actuator %s: sha256 must be lowercase 64-char hex", m.Name)
	case len(m.Capabilities) == 0:
		return fmt.Errorf("actuator %s: capabilities are required", m.Name)
	}
	seen := make(map[Capability]struct{}, len(m.Capabilities))
	for _, c := range m.Capabilities {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("actuator %s: duplicate capability %s", m.Name, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

func (c Capability) Validate() error {
	switch c {
	case CapabilityVibrate, CapabilityAmplitude:
		return nil
	default:
		return fmt.Errorf("unknown capability: %s", c)
	}
}

func (m Manifest) HasCapability(capability Capability) bool {
	for _, c := range m.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Metadata is what a running actuator reports about itself.
type Metadata struct {
	Name         string
	Version      string
	Capabilities []Capability
}
