package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	FileName = "calmvibe.yaml"

	ActuatorBell   = "bell"
	ActuatorPlugin = "plugin"
	ActuatorNone   = "none"

	defaultMaxDurationSec = 3600
)

type Config struct {
	DataDir      string         `yaml:"-"`
	DBPath       string         `yaml:"-"`
	LogPath      string         `yaml:"-"`
	ManifestPath string         `yaml:"-"`
	Log          LogConfig      `yaml:"log"`
	Actuator     ActuatorConfig `yaml:"actuator"`
	Pulse        PulseConfig    `yaml:"pulse"`
	Session      SessionConfig  `yaml:"session"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ActuatorConfig struct {
	Kind   string `yaml:"kind"`
	Plugin string `yaml:"plugin"`
}

// PulseConfig maps settings intensity to a vibration pulse width.
type PulseConfig struct {
	LowMS    int `yaml:"low_ms"`
	MediumMS int `yaml:"medium_ms"`
	StrongMS int `yaml:"strong_ms"`
}

type SessionConfig struct {
	// MaxDurationSec bounds sessions whose configured duration is unbounded.
	MaxDurationSec int `yaml:"max_duration_sec"`
}

func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, "calmvibe.db"),
		LogPath:      filepath.Join(dataDir, "calmvibe.log"),
		ManifestPath: filepath.Join(dataDir, "actuators.json"),
		Log:          LogConfig{Level: "info"},
		Actuator:     ActuatorConfig{Kind: ActuatorBell},
		Pulse:        PulseConfig{LowMS: 80, MediumMS: 150, StrongMS: 250},
		Session:      SessionConfig{MaxDurationSec: defaultMaxDurationSec},
	}, nil
}

// Load layers a .env file, calmvibe.yaml from the data dir and CALMVIBE_*
// environment variables over the defaults.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(filepath.Join(dataDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	raw, err := os.ReadFile(filepath.Join(dataDir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", FileName, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read %s: %w", FileName, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Actuator.Kind {
	case ActuatorBell, ActuatorNone:
	case ActuatorPlugin:
		if strings.TrimSpace(c.Actuator.Plugin) == "" {
			return fmt.Errorf("actuator.plugin is required when actuator.kind is %q", ActuatorPlugin)
		}
	default:
		return fmt.Errorf("unknown actuator.kind %q", c.Actuator.Kind)
	}
	if c.Pulse.LowMS <= 0 || c.Pulse.MediumMS <= 0 || c.Pulse.StrongMS <= 0 {
		return fmt.Errorf("pulse widths must be positive")
	}
	if c.Session.MaxDurationSec <= 0 {
		return fmt.Errorf("session.max_duration_sec must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("CALMVIBE_LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv("CALMVIBE_LOG_JSON"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CALMVIBE_LOG_JSON: %w", err)
		}
		cfg.Log.JSON = b
	}
	if v, ok := os.LookupEnv("CALMVIBE_ACTUATOR"); ok {
		cfg.Actuator.Kind = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := os.LookupEnv("CALMVIBE_ACTUATOR_PLUGIN"); ok {
		cfg.Actuator.Plugin = v
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"CALMVIBE_PULSE_LOW_MS", &cfg.Pulse.LowMS},
		{"CALMVIBE_PULSE_MEDIUM_MS", &cfg.Pulse.MediumMS},
		{"CALMVIBE_PULSE_STRONG_MS", &cfg.Pulse.StrongMS},
		{"CALMVIBE_MAX_DURATION_SEC", &cfg.Session.MaxDurationSec},
	}
	for _, item := range ints {
		v, ok := os.LookupEnv(item.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", item.key, err)
		}
		*item.dst = n
	}
	return nil
}
