package store

import (
	"fmt"
	"time"

	"github.com/takeshy/ddsbatch/internal/rules"
)

// Toggle names accepted by SetToggle
const (
	ToggleExportDDS    = "export_dds"
	ToggleOverwriteDDS = "overwrite_dds"
	ToggleShowLog      = "show_log"
)

// Toggles are the on/off switches a host UI exposes
type Toggles struct {
	// ExportDDS enables conversion when an export finishes
	ExportDDS bool `json:"export_dds" yaml:"export_dds"`
	// OverwriteDDS converts even when the existing output is up to date
	OverwriteDDS bool `json:"overwrite_dds" yaml:"overwrite_dds"`
	// ShowLog is display state only; the engine never reads it
	ShowLog bool `json:"show_log" yaml:"show_log"`
}

// Settings represents process-wide converter configuration
type Settings struct {
	ConverterPath string        `json:"converter_path" yaml:"converter_path"`
	Concurrency   int           `json:"concurrency" yaml:"concurrency"` // 0 = available parallelism
	Timeout       time.Duration `json:"timeout" yaml:"timeout"`         // per job
	Toggles       Toggles       `json:"toggles" yaml:"toggles"`
}

// Config is everything persisted in the settings file
type Config struct {
	Settings Settings
	Rules    *rules.RuleSet
}

// document is the on-disk layout. Profiles are a list so rule order survives a round trip.
type document struct {
	ConverterPath string          `yaml:"converter_path"`
	Concurrency   int             `yaml:"concurrency"`
	Timeout       time.Duration   `yaml:"timeout"`
	Toggles       Toggles         `yaml:"toggles"`
	ActiveProfile string          `yaml:"active_profile"`
	Profiles      []rules.Profile `yaml:"profiles"`
}

const (
	defaultConverter = "texconv"
	defaultTimeout   = 5 * time.Minute
)

// DefaultSettings returns baseline settings for first launch
func DefaultSettings() Settings {
	return Settings{
		ConverterPath: defaultConverter,
		Concurrency:   0,
		Timeout:       defaultTimeout,
		Toggles: Toggles{
			ExportDDS:    true,
			OverwriteDDS: false,
			ShowLog:      true,
		},
	}
}

// DefaultConfig returns the built-in configuration used on first run and after corruption
func DefaultConfig() *Config {
	return &Config{
		Settings: DefaultSettings(),
		Rules:    rules.NewRuleSet(),
	}
}

// Clone returns a deep copy of the config
func (c *Config) Clone() *Config {
	return &Config{
		Settings: c.Settings,
		Rules:    c.Rules.Clone(),
	}
}

// SetToggle sets one toggle by name
func (s *Settings) SetToggle(name string, value bool) error {
	switch name {
	case ToggleExportDDS:
		s.Toggles.ExportDDS = value
	case ToggleOverwriteDDS:
		s.Toggles.OverwriteDDS = value
	case ToggleShowLog:
		s.Toggles.ShowLog = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownToggle, name)
	}
	return nil
}

// Toggle returns one toggle by name
func (s Settings) Toggle(name string) (bool, error) {
	switch name {
	case ToggleExportDDS:
		return s.Toggles.ExportDDS, nil
	case ToggleOverwriteDDS:
		return s.Toggles.OverwriteDDS, nil
	case ToggleShowLog:
		return s.Toggles.ShowLog, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownToggle, name)
	}
}

// ToggleNames lists the toggles SetToggle accepts
func ToggleNames() []string {
	return []string{ToggleExportDDS, ToggleOverwriteDDS, ToggleShowLog}
}
