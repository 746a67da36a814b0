package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSettings is returned when round settings are out of range.
var ErrInvalidSettings = errors.New("invalid settings")

type Mode int

const (
	ModeFFA Mode = iota
	ModeTeams
)

func (m Mode) String() string {
	switch m {
	case ModeTeams:
		return "teams"
	default:
		return "ffa"
	}
}

// ParseMode parses "ffa" or "teams".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "ffa", "":
		return ModeFFA, nil
	case "teams":
		return ModeTeams, nil
	default:
		return ModeFFA, fmt.Errorf("%w: unknown mode %q", ErrInvalidSettings, s)
	}
}

// MarshalJSON serializes Mode as a string.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON deserializes Mode from a string.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// UnmarshalYAML deserializes Mode from a YAML scalar.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := ParseMode(value.Value)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// AllowedTimeLimits are the selectable round time limits. Zero means no limit.
var AllowedTimeLimits = []time.Duration{
	0,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	20 * time.Minute,
}

// Settings configures a round.
type Settings struct {
	Mode              Mode          `json:"mode" yaml:"mode"`
	LivesPerPlayer    int           `json:"lives_per_player" yaml:"lives_per_player"`
	TimeLimit         time.Duration `json:"time_limit" yaml:"time_limit"`
	RespawnTime       time.Duration `json:"respawn_time" yaml:"respawn_time"`
	BalanceTotalLives bool          `json:"balance_total_lives" yaml:"balance_total_lives"`

	// SoloMode fields one player per team at a time, in turn. Teams mode only.
	SoloMode bool `json:"solo_mode" yaml:"solo_mode"`

	// EpicMode runs the round clock at EpicTimeScale.
	EpicMode bool `json:"epic_mode" yaml:"epic_mode"`
}

// DefaultSettings returns the stock round settings.
func DefaultSettings() Settings {
	return Settings{
		Mode:           ModeFFA,
		LivesPerPlayer: DefaultLivesPerPlayer,
		RespawnTime:    RespawnNormal,
	}
}

// Validate checks the settings against the selectable ranges.
func (s Settings) Validate() error {
	if s.LivesPerPlayer < MinLivesPerPlayer || s.LivesPerPlayer > MaxLivesPerPlayer {
		return fmt.Errorf("%w: lives per player %d not in [%d,%d]",
			ErrInvalidSettings, s.LivesPerPlayer, MinLivesPerPlayer, MaxLivesPerPlayer)
	}
	if s.SoloMode && s.Mode != ModeTeams {
		return fmt.Errorf("%w: solo mode needs teams mode", ErrInvalidSettings)
	}
	if s.RespawnTime <= 0 {
		return fmt.Errorf("%w: respawn time must be positive", ErrInvalidSettings)
	}
	for _, d := range AllowedTimeLimits {
		if s.TimeLimit == d {
			return nil
		}
	}
	return fmt.Errorf("%w: time limit %s not selectable", ErrInvalidSettings, s.TimeLimit)
}
