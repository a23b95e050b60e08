package rules

import (
	"strings"

	"github.com/samber/lo"
)

// DefaultProfileName is the built-in profile that always exists
const DefaultProfileName = "Default"

// Rule maps a filename suffix to an output format
type Rule struct {
	Suffix  string            `json:"suffix" yaml:"suffix"`
	Format  Format            `json:"format" yaml:"format"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Profile is a named, ordered list of rules plus a fallback format
type Profile struct {
	Name          string `json:"name" yaml:"name"`
	Rules         []Rule `json:"rules" yaml:"rules"`
	DefaultFormat Format `json:"default_format" yaml:"default_format"`
}

// RuleSet holds all profiles and the active profile name
type RuleSet struct {
	Profiles map[string]*Profile `json:"profiles"`
	Active   string              `json:"active_profile"`
}

// NewRuleSet returns the built-in rule set: a Default profile with no rules
func NewRuleSet() *RuleSet {
	return &RuleSet{
		Profiles: map[string]*Profile{
			DefaultProfileName: NewProfile(DefaultProfileName, DefaultFormat),
		},
		Active: DefaultProfileName,
	}
}

// NewProfile creates an empty profile
func NewProfile(name string, defaultFormat Format) *Profile {
	if defaultFormat == "" {
		defaultFormat = DefaultFormat
	}
	return &Profile{
		Name:          name,
		Rules:         []Rule{},
		DefaultFormat: defaultFormat,
	}
}

// Clone returns a deep copy of the rule
func (r Rule) Clone() Rule {
	r.Options = cloneOptions(r.Options)
	return r
}

// Clone returns a deep copy of the profile
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		Name:          p.Name,
		Rules:         lo.Map(p.Rules, func(r Rule, _ int) Rule { return r.Clone() }),
		DefaultFormat: p.DefaultFormat,
	}
}

// Clone returns a deep copy of the rule set, safe to read while the original is edited
func (rs *RuleSet) Clone() *RuleSet {
	out := &RuleSet{
		Profiles: make(map[string]*Profile, len(rs.Profiles)),
		Active:   rs.Active,
	}
	for name, p := range rs.Profiles {
		out.Profiles[name] = p.Clone()
	}
	return out
}

// indexOf returns the position of a rule by case-insensitive suffix, -1 when absent
func (p *Profile) indexOf(suffix string) int {
	for i, r := range p.Rules {
		if strings.EqualFold(r.Suffix, suffix) {
			return i
		}
	}
	return -1
}

// HasSuffix reports whether the profile already defines suffix
func (p *Profile) HasSuffix(suffix string) bool {
	return p.indexOf(suffix) >= 0
}

func cloneOptions(opts map[string]string) map[string]string {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	return out
}
