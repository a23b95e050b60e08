package rules

import "strings"

// Match is the outcome of resolving one file stem against a profile
type Match struct {
	Format  Format            `json:"format"`
	Options map[string]string `json:"options,omitempty"`
	// Suffix is the winning rule suffix, empty when the default format applied.
	Suffix string `json:"suffix,omitempty"`
	// RuleIndex is the winning rule position in the profile, -1 when no rule matched.
	RuleIndex int `json:"rule_index"`
}

// Matched reports whether a user rule (not the default) decided the format
func (m Match) Matched() bool {
	return m.RuleIndex >= 0
}

// Resolve returns the format and converter options for a file stem.
// It never fails: a nil profile resolves to DefaultFormat.
func Resolve(stem string, profile *Profile) (Format, map[string]string) {
	m := MatchStem(stem, profile)
	return m.Format, m.Options
}

// MatchStem resolves a file stem against the profile rules.
//
// Decision policy:
//   - a rule matches when its suffix is a case-insensitive suffix of stem
//   - the longest matching suffix wins
//   - equal lengths resolve to the rule defined first
//   - no match yields the profile default format with no options
func MatchStem(stem string, profile *Profile) Match {
	if profile == nil {
		return Match{Format: DefaultFormat, RuleIndex: -1}
	}

	res := Match{
		Format:    profile.DefaultFormat,
		RuleIndex: -1,
	}
	if res.Format == "" {
		res.Format = DefaultFormat
	}

	candidate := strings.ToLower(stem)
	best := -1
	for i, r := range profile.Rules {
		suffix := strings.ToLower(r.Suffix)
		if suffix == "" || !strings.HasSuffix(candidate, suffix) {
			continue
		}
		// strictly longer only, so the earliest rule keeps a tie
		if len(suffix) > best {
			best = len(suffix)
			res.RuleIndex = i
		}
	}

	if res.RuleIndex >= 0 {
		winner := profile.Rules[res.RuleIndex]
		res.Format = winner.Format
		res.Options = cloneOptions(winner.Options)
		res.Suffix = winner.Suffix
	}
	return res
}
