package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Profile returns the named profile
func (rs *RuleSet) Profile(name string) (*Profile, error) {
	p, ok := rs.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// ActiveProfile returns the active profile, falling back to Default
func (rs *RuleSet) ActiveProfile() *Profile {
	if p, ok := rs.Profiles[rs.Active]; ok {
		return p
	}
	return rs.Profiles[DefaultProfileName]
}

// ProfileNames returns profile names sorted, with Default first
func (rs *RuleSet) ProfileNames() []string {
	names := make([]string, 0, len(rs.Profiles))
	for name := range rs.Profiles {
		if name != DefaultProfileName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := rs.Profiles[DefaultProfileName]; ok {
		names = append([]string{DefaultProfileName}, names...)
	}
	return names
}

// AddRule appends a rule to the profile
func (rs *RuleSet) AddRule(profile, suffix string, format Format, options map[string]string) error {
	p, err := rs.Profile(profile)
	if err != nil {
		return err
	}
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return ErrEmptySuffix
	}
	if !format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if p.HasSuffix(suffix) {
		return fmt.Errorf("%w: %q in profile %q", ErrDuplicateSuffix, suffix, profile)
	}

	p.Rules = append(p.Rules, Rule{
		Suffix:  suffix,
		Format:  format,
		Options: cloneOptions(options),
	})
	return nil
}

// RemoveLastRule removes and returns the most recently added rule.
// The implicit default rule is never removed.
func (rs *RuleSet) RemoveLastRule(profile string) (Rule, error) {
	p, err := rs.Profile(profile)
	if err != nil {
		return Rule{}, err
	}
	if len(p.Rules) == 0 {
		return Rule{}, fmt.Errorf("%w: %q", ErrEmptyProfile, profile)
	}

	last := p.Rules[len(p.Rules)-1]
	p.Rules = p.Rules[:len(p.Rules)-1]
	return last, nil
}

// RemoveRule removes the rule for suffix
func (rs *RuleSet) RemoveRule(profile, suffix string) (Rule, error) {
	p, idx, err := rs.lookupRule(profile, suffix)
	if err != nil {
		return Rule{}, err
	}

	removed := p.Rules[idx]
	p.Rules = append(p.Rules[:idx], p.Rules[idx+1:]...)
	return removed, nil
}

// SetRuleFormat changes the format of an existing rule
func (rs *RuleSet) SetRuleFormat(profile, suffix string, format Format) error {
	if !format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	p, idx, err := rs.lookupRule(profile, suffix)
	if err != nil {
		return err
	}
	p.Rules[idx].Format = format
	return nil
}

// SetRuleOptions replaces the converter options of an existing rule
func (rs *RuleSet) SetRuleOptions(profile, suffix string, options map[string]string) error {
	p, idx, err := rs.lookupRule(profile, suffix)
	if err != nil {
		return err
	}
	p.Rules[idx].Options = cloneOptions(options)
	return nil
}

// MoveRule moves the rule for suffix to position index, clamped to the rule range.
// Order decides tie-breaks between suffixes of equal length.
func (rs *RuleSet) MoveRule(profile, suffix string, index int) error {
	p, idx, err := rs.lookupRule(profile, suffix)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index >= len(p.Rules) {
		index = len(p.Rules) - 1
	}
	if index == idx {
		return nil
	}

	r := p.Rules[idx]
	rest := append(append([]Rule{}, p.Rules[:idx]...), p.Rules[idx+1:]...)
	p.Rules = append(rest[:index], append([]Rule{r}, rest[index:]...)...)
	return nil
}

// CreateProfile adds an empty profile
func (rs *RuleSet) CreateProfile(name string, defaultFormat Format) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownProfile)
	}
	if _, exists := rs.Profiles[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProfile, name)
	}
	if defaultFormat != "" && !defaultFormat.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, defaultFormat)
	}

	rs.Profiles[name] = NewProfile(name, defaultFormat)
	return nil
}

// DeleteProfile removes a profile. Deleting the active profile activates Default.
func (rs *RuleSet) DeleteProfile(name string) error {
	if name == DefaultProfileName {
		return fmt.Errorf("%w: %q", ErrProtectedProfile, name)
	}
	if _, err := rs.Profile(name); err != nil {
		return err
	}

	delete(rs.Profiles, name)
	if rs.Active == name {
		rs.Active = DefaultProfileName
	}
	return nil
}

// SetActive switches the active profile
func (rs *RuleSet) SetActive(name string) error {
	if _, err := rs.Profile(name); err != nil {
		return err
	}
	rs.Active = name
	return nil
}

// SetDefaultFormat changes the fallback format of a profile
func (rs *RuleSet) SetDefaultFormat(profile string, format Format) error {
	if !format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	p, err := rs.Profile(profile)
	if err != nil {
		return err
	}
	p.DefaultFormat = format
	return nil
}

// EnsureDefault restores invariants after decoding: Default exists and Active is valid
func (rs *RuleSet) EnsureDefault() {
	if rs.Profiles == nil {
		rs.Profiles = make(map[string]*Profile)
	}
	if _, ok := rs.Profiles[DefaultProfileName]; !ok {
		rs.Profiles[DefaultProfileName] = NewProfile(DefaultProfileName, DefaultFormat)
	}
	if _, ok := rs.Profiles[rs.Active]; !ok {
		rs.Active = DefaultProfileName
	}
}

func (rs *RuleSet) lookupRule(profile, suffix string) (*Profile, int, error) {
	p, err := rs.Profile(profile)
	if err != nil {
		return nil, -1, err
	}
	idx := p.indexOf(strings.TrimSpace(suffix))
	if idx < 0 {
		return nil, -1, fmt.Errorf("%w: %q in profile %q", ErrUnknownRule, suffix, profile)
	}
	return p, idx, nil
}
