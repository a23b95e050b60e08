package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flanksource/commons/logger"

	"github.com/takeshy/ddsbatch/internal/fileutil"
	"github.com/takeshy/ddsbatch/internal/rules"
)

const defaultDataFile = ".ddsbatch.yaml"

// Manager owns the live configuration and persists every mutation
type Manager struct {
	dataPath string
	cfg      *Config
	loadErr  error
	// preserved is set once a corrupt file has been copied aside
	preserved bool
	mu        sync.RWMutex
}

// CorruptCopyPath is where an unparseable settings file is kept before it is overwritten
func CorruptCopyPath(dataPath string) string {
	return dataPath + ".corrupt"
}

// DefaultPath returns ~/.ddsbatch.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, defaultDataFile), nil
}

// NewManager loads the config at dataPath (default ~/.ddsbatch.yaml).
// A corrupt file is not fatal: the manager starts from defaults and LoadErr reports why.
func NewManager(dataPath string) (*Manager, error) {
	if dataPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		dataPath = p
	}

	cfg, err := Load(dataPath)
	if err != nil && !errors.Is(err, ErrConfigCorrupt) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err != nil {
		logger.Warnf("%s: %v; using built-in defaults", dataPath, err)
	}

	return &Manager{
		dataPath: dataPath,
		cfg:      cfg,
		loadErr:  err,
	}, nil
}

// Path returns the settings file location
func (m *Manager) Path() string {
	return m.dataPath
}

// LoadErr returns the ErrConfigCorrupt error when startup fell back to defaults
func (m *Manager) LoadErr() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// Save writes the current config atomically
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(m.cfg)
}

// Snapshot returns independent copies of the rule set and settings.
// Batches plan from a snapshot so later edits never reach an in-flight batch.
func (m *Manager) Snapshot() (*rules.RuleSet, Settings) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Rules.Clone(), m.cfg.Settings
}

// Settings returns a copy of the current settings
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Settings
}

// Rules returns a copy of the current rule set
func (m *Manager) Rules() *rules.RuleSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Rules.Clone()
}

// Update applies fn to a copy of the config and persists it. The live config
// only changes when both fn and the save succeed.
func (m *Manager) Update(fn func(cfg *Config) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cfg.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := m.write(next); err != nil {
		return err
	}

	m.cfg = next
	m.loadErr = nil
	return nil
}

// UpdateRules applies fn to a copy of the rule set and persists it
func (m *Manager) UpdateRules(fn func(rs *rules.RuleSet) error) error {
	return m.Update(func(cfg *Config) error { return fn(cfg.Rules) })
}

// UpdateSettings applies fn to a copy of the settings and persists it
func (m *Manager) UpdateSettings(fn func(s *Settings) error) error {
	return m.Update(func(cfg *Config) error { return fn(&cfg.Settings) })
}

// AddRule appends a rule to profile
func (m *Manager) AddRule(profile, suffix string, format rules.Format, options map[string]string) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.AddRule(profile, suffix, format, options)
	})
}

// RemoveLastRule removes the last rule of profile
func (m *Manager) RemoveLastRule(profile string) (rules.Rule, error) {
	var removed rules.Rule
	err := m.UpdateRules(func(rs *rules.RuleSet) error {
		var err error
		removed, err = rs.RemoveLastRule(profile)
		return err
	})
	return removed, err
}

// RemoveRule removes the rule for suffix from profile
func (m *Manager) RemoveRule(profile, suffix string) (rules.Rule, error) {
	var removed rules.Rule
	err := m.UpdateRules(func(rs *rules.RuleSet) error {
		var err error
		removed, err = rs.RemoveRule(profile, suffix)
		return err
	})
	return removed, err
}

// SetRuleFormat changes the format of one rule
func (m *Manager) SetRuleFormat(profile, suffix string, format rules.Format) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.SetRuleFormat(profile, suffix, format)
	})
}

// MoveRule reorders one rule
func (m *Manager) MoveRule(profile, suffix string, index int) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.MoveRule(profile, suffix, index)
	})
}

// CreateProfile adds an empty profile
func (m *Manager) CreateProfile(name string, defaultFormat rules.Format) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.CreateProfile(name, defaultFormat)
	})
}

// DeleteProfile removes a profile other than Default
func (m *Manager) DeleteProfile(name string) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.DeleteProfile(name)
	})
}

// SetActiveProfile switches the active profile
func (m *Manager) SetActiveProfile(name string) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.SetActive(name)
	})
}

// SetDefaultFormat changes the fallback format of a profile
func (m *Manager) SetDefaultFormat(profile string, format rules.Format) error {
	return m.UpdateRules(func(rs *rules.RuleSet) error {
		return rs.SetDefaultFormat(profile, format)
	})
}

// SetConverterPath stores the texconv location
func (m *Manager) SetConverterPath(path string) error {
	return m.UpdateSettings(func(s *Settings) error {
		s.ConverterPath = path
		return nil
	})
}

// SetToggle flips one named toggle
func (m *Manager) SetToggle(name string, value bool) error {
	return m.UpdateSettings(func(s *Settings) error {
		return s.SetToggle(name, value)
	})
}

// SetConcurrency sets the worker count, 0 meaning available parallelism
func (m *Manager) SetConcurrency(n int) error {
	return m.UpdateSettings(func(s *Settings) error {
		if n < 0 {
			return fmt.Errorf("concurrency must be >= 0, got %d", n)
		}
		s.Concurrency = n
		return nil
	})
}

// SetTimeout sets the per-job converter timeout
func (m *Manager) SetTimeout(d time.Duration) error {
	return m.UpdateSettings(func(s *Settings) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", d)
		}
		s.Timeout = d
		return nil
	})
}

func (m *Manager) write(cfg *Config) error {
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := m.preserveCorrupt(); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(m.dataPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	logger.Debugf("saved config to %s", m.dataPath)
	return nil
}

// preserveCorrupt copies a settings file that failed to parse to CorruptCopyPath
// before the first save replaces it with the current config.
func (m *Manager) preserveCorrupt() error {
	if m.preserved || !errors.Is(m.loadErr, ErrConfigCorrupt) {
		return nil
	}
	data, err := os.ReadFile(m.dataPath)
	if errors.Is(err, os.ErrNotExist) {
		m.preserved = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read corrupt config: %w", err)
	}
	backup := CorruptCopyPath(m.dataPath)
	if err := fileutil.WriteFileAtomic(backup, data, 0o644); err != nil {
		return fmt.Errorf("failed to keep a copy of the corrupt config: %w", err)
	}
	m.preserved = true
	logger.Warnf("%s could not be parsed; the original was copied to %s", m.dataPath, backup)
	return nil
}
