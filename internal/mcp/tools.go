package mcp

import (
	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/store"
)

// ListProfilesInput represents input for the list_profiles tool
type ListProfilesInput struct{}

// ListProfilesOutput represents output from the list_profiles tool
type ListProfilesOutput struct {
	Active   string        `json:"active_profile"`
	Profiles []ProfileInfo `json:"profiles"`
}

// ProfileInfo is one profile with its ordered rules
type ProfileInfo struct {
	Name          string       `json:"name"`
	DefaultFormat rules.Format `json:"default_format"`
	Rules         []rules.Rule `json:"rules"`
}

// AddRuleInput represents input for the add_rule tool
type AddRuleInput struct {
	Profile string            `json:"profile,omitempty" jsonschema:"profile to edit (default: the active profile)"`
	Suffix  string            `json:"suffix" jsonschema:"filename suffix to match, e.g. _N or _Normal (case-insensitive)"`
	Format  string            `json:"format" jsonschema:"DXGI output format, e.g. BC7_UNORM; see list_formats"`
	Options map[string]string `json:"options,omitempty" jsonschema:"extra texconv flags keyed by flag name, e.g. -m with value 1"`
}

// RuleOutput reports a rule edit
type RuleOutput struct {
	Success bool         `json:"success"`
	Profile string       `json:"profile"`
	Rule    *rules.Rule  `json:"rule,omitempty"`
	Rules   []rules.Rule `json:"rules"`
	Error   string       `json:"error,omitempty"`
}

// RemoveLastRuleInput represents input for the remove_last_rule tool
type RemoveLastRuleInput struct {
	Profile string `json:"profile,omitempty" jsonschema:"profile to edit (default: the active profile)"`
}

// SetActiveProfileInput represents input for the set_active_profile tool
type SetActiveProfileInput struct {
	Profile string `json:"profile" jsonschema:"name of the profile to activate"`
}

// SetActiveProfileOutput represents output from the set_active_profile tool
type SetActiveProfileOutput struct {
	Success bool   `json:"success"`
	Active  string `json:"active_profile"`
	Error   string `json:"error,omitempty"`
}

// ResolveInput represents input for the resolve tool
type ResolveInput struct {
	Names   []string `json:"names" jsonschema:"file names or stems to resolve, e.g. rock_N.png"`
	Profile string   `json:"profile,omitempty" jsonschema:"profile to resolve against (default: the active profile)"`
}

// ResolveOutput represents output from the resolve tool
type ResolveOutput struct {
	Profile string          `json:"profile"`
	Results []ResolveResult `json:"results"`
}

// ResolveResult is the format chosen for one name
type ResolveResult struct {
	Name    string            `json:"name"`
	Format  rules.Format      `json:"format"`
	Options map[string]string `json:"options,omitempty"`
	Suffix  string            `json:"matched_suffix,omitempty"`
}

// PlanInput represents input for the plan tool
type PlanInput struct {
	SourceDir string   `json:"source_dir" jsonschema:"folder containing exported textures"`
	Profile   string   `json:"profile,omitempty" jsonschema:"profile to plan with (default: the active profile)"`
	Overwrite bool     `json:"overwrite,omitempty" jsonschema:"treat up-to-date outputs as stale"`
	Exclude   []string `json:"exclude,omitempty" jsonschema:"regex patterns of source paths to ignore"`
}

// PlanOutput represents output from the plan tool
type PlanOutput struct {
	Profile string     `json:"profile"`
	Total   int        `json:"total"`
	Pending int        `json:"pending"`
	Jobs    []PlanItem `json:"jobs"`
}

// PlanItem is one planned job
type PlanItem struct {
	Source string       `json:"source"`
	Dest   string       `json:"dest"`
	Format rules.Format `json:"format"`
	Status batch.Status `json:"status"`
	Note   string       `json:"note,omitempty"`
}

// RunBatchInput represents input for the run_batch tool
type RunBatchInput struct {
	SourceDir   string   `json:"source_dir,omitempty" jsonschema:"folder containing exported textures"`
	Files       []string `json:"files,omitempty" jsonschema:"explicit exported files; used instead of source_dir when set"`
	Profile     string   `json:"profile,omitempty" jsonschema:"profile to convert with (default: the active profile)"`
	Overwrite   bool     `json:"overwrite,omitempty" jsonschema:"convert even when outputs are up to date"`
	Concurrency int      `json:"concurrency,omitempty" jsonschema:"worker count (default: stored setting)"`
}

// GetSettingsInput represents input for the get_settings tool
type GetSettingsInput struct{}

// SetToggleInput represents input for the set_toggle tool
type SetToggleInput struct {
	Name  string `json:"name" jsonschema:"toggle name: export_dds, overwrite_dds or show_log"`
	Value bool   `json:"value" jsonschema:"new toggle value"`
}

// SettingsOutput reports the stored settings
type SettingsOutput struct {
	Settings   store.Settings `json:"settings"`
	ConfigPath string         `json:"config_path"`
}

// ListFormatsInput represents input for the list_formats tool
type ListFormatsInput struct{}

// ListFormatsOutput represents output from the list_formats tool
type ListFormatsOutput struct {
	Formats []rules.Format `json:"formats"`
	Default rules.Format   `json:"default"`
}

// RunBatchOutput summarises a finished batch
type RunBatchOutput struct {
	BatchID   string          `json:"batch_id"`
	Profile   string          `json:"profile,omitempty"`
	SourceDir string          `json:"source_dir,omitempty"`
	Disabled  bool            `json:"disabled,omitempty"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Skipped   int             `json:"skipped"`
	Failed    int             `json:"failed"`
	Duration  string          `json:"duration"`
	Failures  []batch.Failure `json:"failures,omitempty"`
}
