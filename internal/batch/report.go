package batch

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

// Failure describes one failed job in a report
type Failure struct {
	Source   string              `json:"source" yaml:"source"`
	Dest     string              `json:"dest" yaml:"dest"`
	Format   rules.Format        `json:"format" yaml:"format"`
	Reason   texconv.FailureKind `json:"reason" yaml:"reason"`
	Message  string              `json:"message,omitempty" yaml:"message,omitempty"`
	ExitCode int                 `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Output   string              `json:"output,omitempty" yaml:"output,omitempty"`
}

// Report summarises one batch
type Report struct {
	BatchID    string    `json:"batch_id" yaml:"batch_id"`
	Profile    string    `json:"profile,omitempty" yaml:"profile,omitempty"`
	SourceDir  string    `json:"source_dir,omitempty" yaml:"source_dir,omitempty"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Total int `json:"total" yaml:"total"`
	// Succeeded counts converted files, Skipped the ones already up to date
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Failed    int `json:"failed" yaml:"failed"`

	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Jobs     []*Job    `json:"jobs,omitempty" yaml:"jobs,omitempty"`

	// Disabled is set when DDS export is switched off and nothing was planned
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

func newReport(jobs []*Job) *Report {
	return &Report{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now(),
		Total:     len(jobs),
		Jobs:      jobs,
	}
}

// Duration is the wall time of the batch
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OK reports whether no job failed
func (r *Report) OK() bool {
	return r.Failed == 0
}

// record counts a terminal job. Callers hold the orchestrator lock.
func (r *Report) record(job *Job) {
	switch {
	case job.Status == StatusSucceeded && job.Skipped:
		r.Skipped++
	case job.Status == StatusSucceeded:
		r.Succeeded++
	default:
		r.Failed++
		r.Failures = append(r.Failures, newFailure(job))
	}
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Source < r.Failures[j].Source })
}

func newFailure(job *Job) Failure {
	f := Failure{
		Source: job.Source,
		Dest:   job.Dest,
		Format: job.Format,
	}
	if job.Failure != nil {
		f.Reason = job.Failure.Kind
		f.Message = job.Failure.Message
		f.ExitCode = job.Failure.ExitCode
	}
	if job.Result != nil {
		f.Output = job.Result.Output
	}
	return f
}
