package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/samber/lo"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/fileutil"
	"github.com/takeshy/ddsbatch/internal/rules"
)

func textResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	res := textResult("%v", err)
	res.IsError = true
	return res
}

// handleListProfiles handles the list_profiles tool
func (s *Server) handleListProfiles(ctx context.Context, req *mcp.CallToolRequest, input ListProfilesInput) (*mcp.CallToolResult, ListProfilesOutput, error) {
	rs, _ := s.store.Snapshot()
	output := ListProfilesOutput{Active: rs.ActiveProfile().Name}
	for _, name := range rs.ProfileNames() {
		p := rs.Profiles[name]
		output.Profiles = append(output.Profiles, ProfileInfo{
			Name:          p.Name,
			DefaultFormat: p.DefaultFormat,
			Rules:         p.Rules,
		})
	}
	return nil, output, nil
}

// handleAddRule handles the add_rule tool
func (s *Server) handleAddRule(ctx context.Context, req *mcp.CallToolRequest, input AddRuleInput) (*mcp.CallToolResult, RuleOutput, error) {
	profile := s.profileName(input.Profile)
	output := RuleOutput{Profile: profile}

	if strings.TrimSpace(input.Suffix) == "" {
		return nil, output, fmt.Errorf("suffix is required")
	}
	format, err := rules.ParseFormat(input.Format)
	if err != nil {
		return nil, output, err
	}

	if err := s.store.AddRule(profile, input.Suffix, format, input.Options); err != nil {
		output.Error = err.Error()
		return errorResult(err), output, nil
	}

	output.Success = true
	output.Rules = s.rulesOf(profile)
	output.Rule = &output.Rules[len(output.Rules)-1]
	return textResult("Added %s -> %s to profile '%s'", output.Rule.Suffix, format, profile), output, nil
}

// handleRemoveLastRule handles the remove_last_rule tool
func (s *Server) handleRemoveLastRule(ctx context.Context, req *mcp.CallToolRequest, input RemoveLastRuleInput) (*mcp.CallToolResult, RuleOutput, error) {
	profile := s.profileName(input.Profile)
	output := RuleOutput{Profile: profile}

	removed, err := s.store.RemoveLastRule(profile)
	if err != nil {
		output.Error = err.Error()
		output.Rules = s.rulesOf(profile)
		return errorResult(err), output, nil
	}

	output.Success = true
	output.Rule = &removed
	output.Rules = s.rulesOf(profile)
	return textResult("Removed %s -> %s from profile '%s'", removed.Suffix, removed.Format, profile), output, nil
}

// handleSetActiveProfile handles the set_active_profile tool
func (s *Server) handleSetActiveProfile(ctx context.Context, req *mcp.CallToolRequest, input SetActiveProfileInput) (*mcp.CallToolResult, SetActiveProfileOutput, error) {
	output := SetActiveProfileOutput{}
	if input.Profile == "" {
		return nil, output, fmt.Errorf("profile is required")
	}

	if err := s.store.SetActiveProfile(input.Profile); err != nil {
		output.Error = err.Error()
		output.Active = s.profileName("")
		return errorResult(err), output, nil
	}

	output.Success = true
	output.Active = input.Profile
	return nil, output, nil
}

// handleResolve handles the resolve tool
func (s *Server) handleResolve(ctx context.Context, req *mcp.CallToolRequest, input ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
	output := ResolveOutput{}
	if len(input.Names) == 0 {
		return nil, output, fmt.Errorf("names is required")
	}

	rs, _ := s.store.Snapshot()
	profile := rs.ActiveProfile()
	if input.Profile != "" {
		p, err := rs.Profile(input.Profile)
		if err != nil {
			return nil, output, err
		}
		profile = p
	}
	output.Profile = profile.Name

	for _, name := range input.Names {
		stem := name
		if fileutil.IsSupportedImage(name) {
			stem = fileutil.Stem(name)
		}
		m := batch.ResolveStem(filepath.Base(stem), profile)
		output.Results = append(output.Results, ResolveResult{
			Name:    name,
			Format:  m.Format,
			Options: m.Options,
			Suffix:  m.Suffix,
		})
	}
	return nil, output, nil
}

// handlePlan handles the plan tool
func (s *Server) handlePlan(ctx context.Context, req *mcp.CallToolRequest, input PlanInput) (*mcp.CallToolResult, PlanOutput, error) {
	output := PlanOutput{}
	if input.SourceDir == "" {
		return nil, output, fmt.Errorf("source_dir is required")
	}

	b, err := s.exporter.Preview(input.SourceDir, batch.ExportOptions{
		Profile:   input.Profile,
		Overwrite: input.Overwrite,
		Exclude:   input.Exclude,
	})
	if err != nil {
		return nil, output, err
	}

	output.Profile = b.Profile
	output.Total = len(b.Jobs)
	output.Pending = b.Pending()
	output.Jobs = lo.Map(b.Jobs, func(j *batch.Job, _ int) PlanItem {
		item := PlanItem{Source: j.Source, Dest: j.Dest, Format: j.Format, Status: j.Status}
		switch {
		case j.Skipped:
			item.Note = "up to date"
		case j.Failure != nil:
			item.Note = j.Failure.Error()
		}
		return item
	})
	return nil, output, nil
}

// handleRunBatch handles the run_batch tool
func (s *Server) handleRunBatch(ctx context.Context, req *mcp.CallToolRequest, input RunBatchInput) (*mcp.CallToolResult, RunBatchOutput, error) {
	output := RunBatchOutput{}
	if input.SourceDir == "" && len(input.Files) == 0 {
		return nil, output, fmt.Errorf("source_dir or files is required")
	}

	opts := batch.ExportOptions{
		Profile:     input.Profile,
		Overwrite:   input.Overwrite,
		Concurrency: input.Concurrency,
	}

	var (
		report *batch.Report
		err    error
	)
	if len(input.Files) > 0 {
		report, err = s.exporter.ExportFinishedFiles(ctx, input.Files, opts)
	} else {
		report, err = s.exporter.ExportFinished(ctx, input.SourceDir, opts)
	}
	if err != nil {
		return errorResult(err), output, nil
	}

	output = RunBatchOutput{
		BatchID:   report.BatchID,
		Profile:   report.Profile,
		SourceDir: report.SourceDir,
		Disabled:  report.Disabled,
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Skipped:   report.Skipped,
		Failed:    report.Failed,
		Duration:  report.Duration().Round(time.Millisecond).String(),
		Failures:  report.Failures,
	}
	if report.Disabled {
		return textResult("DDS export is disabled; enable it with set_toggle export_dds=true"), output, nil
	}
	return textResult("Converted %d, up to date %d, failed %d (batch %s)",
		report.Succeeded, report.Skipped, report.Failed, report.BatchID), output, nil
}

// handleGetSettings handles the get_settings tool
func (s *Server) handleGetSettings(ctx context.Context, req *mcp.CallToolRequest, input GetSettingsInput) (*mcp.CallToolResult, SettingsOutput, error) {
	return nil, SettingsOutput{Settings: s.store.Settings(), ConfigPath: s.store.Path()}, nil
}

// handleSetToggle handles the set_toggle tool
func (s *Server) handleSetToggle(ctx context.Context, req *mcp.CallToolRequest, input SetToggleInput) (*mcp.CallToolResult, SettingsOutput, error) {
	if input.Name == "" {
		return nil, SettingsOutput{}, fmt.Errorf("name is required")
	}
	if err := s.store.SetToggle(input.Name, input.Value); err != nil {
		return nil, SettingsOutput{}, err
	}
	return nil, SettingsOutput{Settings: s.store.Settings(), ConfigPath: s.store.Path()}, nil
}

// handleListFormats handles the list_formats tool
func (s *Server) handleListFormats(ctx context.Context, req *mcp.CallToolRequest, input ListFormatsInput) (*mcp.CallToolResult, ListFormatsOutput, error) {
	return nil, ListFormatsOutput{Formats: rules.Formats(), Default: rules.DefaultFormat}, nil
}

func (s *Server) rulesOf(profile string) []rules.Rule {
	rs, _ := s.store.Snapshot()
	p, err := rs.Profile(profile)
	if err != nil {
		return nil
	}
	return p.Rules
}
