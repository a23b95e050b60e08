package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/store"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

// ExportOptions adjusts one export on top of the stored settings
type ExportOptions struct {
	// Profile overrides the active profile
	Profile string
	// Overwrite forces conversion of up-to-date files
	Overwrite bool
	// Concurrency and Timeout override the stored values when positive
	Concurrency int
	Timeout     time.Duration
	Exclude     []string
	// Force runs even when the export_dds toggle is off
	Force bool
}

// Exporter reacts to finished exports: it snapshots the configuration, plans
// the batch and runs it.
type Exporter struct {
	store        *store.Manager
	observer     Observer
	newConverter func(binaryPath string, timeout time.Duration) (Converter, error)
}

// NewExporter creates an exporter backed by the configuration store
func NewExporter(m *store.Manager) *Exporter {
	return &Exporter{
		store: m,
		newConverter: func(binaryPath string, timeout time.Duration) (Converter, error) {
			return texconv.NewInvoker(binaryPath, timeout)
		},
	}
}

// SetObserver registers a progress observer for subsequent batches
func (e *Exporter) SetObserver(obs Observer) {
	e.observer = obs
}

// Preview plans sourceDir without converting anything
func (e *Exporter) Preview(sourceDir string, opts ExportOptions) (Batch, error) {
	rs, settings := e.store.Snapshot()
	profile, err := pickProfile(rs, opts.Profile)
	if err != nil {
		return Batch{}, err
	}
	jobs, err := e.planner(settings, opts).Plan(sourceDir, profile)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Profile: profile.Name, SourceDir: sourceDir, Jobs: jobs}, nil
}

// PreviewFiles plans an explicit file list without converting anything
func (e *Exporter) PreviewFiles(files []string, opts ExportOptions) (Batch, error) {
	rs, settings := e.store.Snapshot()
	profile, err := pickProfile(rs, opts.Profile)
	if err != nil {
		return Batch{}, err
	}
	jobs, err := e.planner(settings, opts).PlanFiles(files, profile)
	if err != nil {
		return Batch{}, err
	}
	return Batch{Profile: profile.Name, SourceDir: commonDir(files), Jobs: jobs}, nil
}

// ExportFinished converts every supported image directly inside sourceDir
func (e *Exporter) ExportFinished(ctx context.Context, sourceDir string, opts ExportOptions) (*Report, error) {
	return e.export(ctx, sourceDir, opts, func(p *Planner, profile *rules.Profile) ([]*Job, error) {
		return p.Plan(sourceDir, profile)
	})
}

// ExportFinishedFiles converts the listed files, each into the DDS directory next to it
func (e *Exporter) ExportFinishedFiles(ctx context.Context, files []string, opts ExportOptions) (*Report, error) {
	return e.export(ctx, commonDir(files), opts, func(p *Planner, profile *rules.Profile) ([]*Job, error) {
		return p.PlanFiles(files, profile)
	})
}

func (e *Exporter) export(ctx context.Context, sourceDir string, opts ExportOptions, plan func(*Planner, *rules.Profile) ([]*Job, error)) (*Report, error) {
	// one snapshot per batch: edits made while it runs apply to the next export
	rs, settings := e.store.Snapshot()

	if !settings.Toggles.ExportDDS && !opts.Force {
		logger.Infof("DDS export is disabled, no files will be processed")
		now := time.Now()
		return &Report{
			BatchID:    uuid.NewString(),
			SourceDir:  sourceDir,
			StartedAt:  now,
			FinishedAt: now,
			Disabled:   true,
		}, nil
	}

	profile, err := pickProfile(rs, opts.Profile)
	if err != nil {
		return nil, err
	}

	timeout := settings.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	conv, err := e.newConverter(settings.ConverterPath, timeout)
	if err != nil {
		return nil, err
	}

	jobs, err := plan(e.planner(settings, opts), profile)
	if err != nil {
		return nil, err
	}

	concurrency := settings.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	orch := NewOrchestratorWith(conv, concurrency)
	orch.SetObserver(e.observer)

	report, err := orch.RunBatch(ctx, Batch{Profile: profile.Name, SourceDir: sourceDir, Jobs: jobs})
	if err != nil {
		return nil, err
	}
	logger.Infof("batch %s (%s): %d converted, %d up to date, %d failed in %s",
		report.BatchID, profile.Name, report.Succeeded, report.Skipped, report.Failed, report.Duration().Round(time.Millisecond))
	return report, nil
}

func (e *Exporter) planner(settings store.Settings, opts ExportOptions) *Planner {
	p := NewPlanner()
	p.Overwrite = settings.Toggles.OverwriteDDS || opts.Overwrite
	p.Exclude = opts.Exclude
	return p
}

func pickProfile(rs *rules.RuleSet, name string) (*rules.Profile, error) {
	if name == "" {
		return rs.ActiveProfile(), nil
	}
	p, err := rs.Profile(name)
	if err != nil {
		return nil, fmt.Errorf("cannot export: %w", err)
	}
	return p, nil
}

// commonDir returns the shared parent of files, or "" when they span directories
func commonDir(files []string) string {
	dirs := lo.Uniq(lo.Map(files, func(f string, _ int) string {
		abs, err := filepath.Abs(f)
		if err != nil {
			return filepath.Dir(f)
		}
		return filepath.Dir(abs)
	}))
	if len(dirs) != 1 {
		return ""
	}
	return dirs[0]
}
