package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ugaemi/safezone-server/internal/game"
	"github.com/ugaemi/safezone-server/internal/zone"
)

// ErrInvalidConfig is returned when a tuning file fails validation.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed defaults/tuning.yaml
var defaultTuningYAML []byte

// Tuning holds the gameplay knobs loaded from YAML.
type Tuning struct {
	Zone  ZoneTuning    `yaml:"zone"`
	Round game.Settings `yaml:"round"`
}

type ZoneTuning struct {
	Bounds           zone.Bounds   `yaml:"bounds"`
	StartDelay       time.Duration `yaml:"start_delay"`
	TickInterval     time.Duration `yaml:"tick_interval"`
	RelocateInterval time.Duration `yaml:"relocate_interval"`
	TeardownDuration time.Duration `yaml:"teardown_duration"`
	RespawnDelay     time.Duration `yaml:"respawn_delay"`
	FinalCheckOnly   bool          `yaml:"final_check_only"`
}

// ZoneConfig converts the tuning into a scheduler config.
func (t ZoneTuning) ZoneConfig() zone.Config {
	return zone.Config{
		Bounds:           t.Bounds,
		StartDelay:       t.StartDelay,
		TickInterval:     t.TickInterval,
		RelocateInterval: t.RelocateInterval,
		TeardownDuration: t.TeardownDuration,
		RespawnDelay:     t.RespawnDelay,
		FinalCheckOnly:   t.FinalCheckOnly,
	}
}

// DefaultTuning returns the embedded defaults.
func DefaultTuning() Tuning {
	t, err := ParseTuning(defaultTuningYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded tuning: %v", err))
	}
	return t
}

// LoadTuning reads the tuning file at path. Keys missing from the file keep
// their default values. An empty path returns the defaults.
func LoadTuning(path string) (Tuning, error) {
	if path == "" {
		return DefaultTuning(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	t, err := ParseTuning(data)
	if err != nil {
		return Tuning{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return t, nil
}

// ParseTuning decodes YAML on top of the embedded defaults and validates it.
func ParseTuning(data []byte) (Tuning, error) {
	var t Tuning
	if err := yaml.Unmarshal(defaultTuningYAML, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse defaults: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return Tuning{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

// Validate checks the tuning for values the scheduler cannot run with.
func (t Tuning) Validate() error {
	b := t.Zone.Bounds
	if b.MinX >= b.MaxX || b.MinZ >= b.MaxZ {
		return fmt.Errorf("%w: empty zone bounds %+v", ErrInvalidConfig, b)
	}
	if b.MinX > 0 || b.MaxX < 0 || b.MinZ > 0 || b.MaxZ < 0 {
		// relocation splits each axis at zero
		return fmt.Errorf("%w: zone bounds must contain the origin", ErrInvalidConfig)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"tick_interval", t.Zone.TickInterval},
		{"relocate_interval", t.Zone.RelocateInterval},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: zone.%s must be positive", ErrInvalidConfig, d.name)
		}
	}
	if t.Zone.StartDelay < 0 || t.Zone.TeardownDuration < 0 || t.Zone.RespawnDelay < 0 {
		return fmt.Errorf("%w: zone delays must not be negative", ErrInvalidConfig)
	}

	if err := t.Round.Validate(); err != nil {
		return fmt.Errorf("%w: round: %v", ErrInvalidConfig, err)
	}
	return nil
}
