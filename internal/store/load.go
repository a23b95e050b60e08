package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/flanksource/commons/logger"
	"gopkg.in/yaml.v3"

	"github.com/takeshy/ddsbatch/internal/rules"
)

var (
	// ErrConfigCorrupt indicates the settings file exists but cannot be parsed.
	// Load still returns the built-in defaults alongside it.
	ErrConfigCorrupt = errors.New("config corrupt")
	// ErrUnknownToggle indicates an unsupported toggle name.
	ErrUnknownToggle = errors.New("unknown toggle")
)

// Load reads the settings file. A missing file yields defaults. An unparseable
// file yields defaults and an error wrapping ErrConfigCorrupt.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Decode(data)
}

// Decode parses a settings document. Unknown keys are ignored and missing keys keep defaults.
func Decode(data []byte) (*Config, error) {
	defaults := DefaultSettings()
	doc := document{
		ConverterPath: defaults.ConverterPath,
		Concurrency:   defaults.Concurrency,
		Timeout:       defaults.Timeout,
		Toggles:       defaults.Toggles,
		ActiveProfile: rules.DefaultProfileName,
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return DefaultConfig(), fmt.Errorf("%w: %v", ErrConfigCorrupt, err)
	}

	return fromDocument(doc), nil
}

// Encode renders the config as a settings document
func Encode(cfg *Config) ([]byte, error) {
	doc := document{
		ConverterPath: cfg.Settings.ConverterPath,
		Concurrency:   cfg.Settings.Concurrency,
		Timeout:       cfg.Settings.Timeout,
		Toggles:       cfg.Settings.Toggles,
		ActiveProfile: cfg.Rules.Active,
	}
	for _, name := range cfg.Rules.ProfileNames() {
		doc.Profiles = append(doc.Profiles, *cfg.Rules.Profiles[name])
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func fromDocument(doc document) *Config {
	settings := Settings{
		ConverterPath: strings.TrimSpace(doc.ConverterPath),
		Concurrency:   doc.Concurrency,
		Timeout:       doc.Timeout,
		Toggles:       doc.Toggles,
	}
	if settings.ConverterPath == "" {
		settings.ConverterPath = defaultConverter
	}
	if settings.Concurrency < 0 {
		settings.Concurrency = 0
	}
	if settings.Timeout <= 0 {
		settings.Timeout = defaultTimeout
	}

	rs := &rules.RuleSet{
		Profiles: make(map[string]*rules.Profile, len(doc.Profiles)),
		Active:   strings.TrimSpace(doc.ActiveProfile),
	}
	for _, p := range doc.Profiles {
		addDecodedProfile(rs, p)
	}
	rs.EnsureDefault()

	return &Config{Settings: settings, Rules: rs}
}

// addDecodedProfile re-applies rule set validation to a decoded profile, dropping
// entries that would break its invariants instead of failing the whole load.
func addDecodedProfile(rs *rules.RuleSet, p rules.Profile) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		logger.Warnf("config: skipping profile with empty name")
		return
	}

	defaultFormat := rules.DefaultFormat
	if p.DefaultFormat != "" {
		f, err := rules.ParseFormat(string(p.DefaultFormat))
		if err != nil {
			logger.Warnf("config: profile %q: %v, using %s", name, err, rules.DefaultFormat)
		} else {
			defaultFormat = f
		}
	}

	if err := rs.CreateProfile(name, defaultFormat); err != nil {
		logger.Warnf("config: skipping profile: %v", err)
		return
	}

	for _, r := range p.Rules {
		format, err := rules.ParseFormat(string(r.Format))
		if err == nil {
			err = rs.AddRule(name, r.Suffix, format, r.Options)
		}
		if err != nil {
			logger.Warnf("config: profile %q: skipping rule %q: %v", name, r.Suffix, err)
		}
	}
}
