package batch

import (
	"time"

	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

// OutputDirName is the subdirectory of the source folder that receives .dds files
const OutputDirName = "DDS"

// Status tracks one job through a batch
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one source image to convert. Jobs live for a single batch and are never persisted.
type Job struct {
	ID            int               `json:"id" yaml:"id"`
	Source        string            `json:"source" yaml:"source"`
	Dest          string            `json:"dest" yaml:"dest"`
	Format        rules.Format      `json:"format" yaml:"format"`
	Options       map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
	RuleSuffix    string            `json:"rule_suffix,omitempty" yaml:"rule_suffix,omitempty"` // empty when the default format applied
	SourceModTime time.Time         `json:"source_mod_time" yaml:"source_mod_time"`
	Status        Status            `json:"status" yaml:"status"`

	// Skipped marks jobs that succeeded without running because the output is up to date
	Skipped bool              `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Failure *texconv.JobError `json:"failure,omitempty" yaml:"failure,omitempty"`
	Result  *texconv.Result   `json:"result,omitempty" yaml:"result,omitempty"`
}

// Batch is a set of planned jobs and where they came from
type Batch struct {
	Profile   string `json:"profile" yaml:"profile"`
	SourceDir string `json:"source_dir,omitempty" yaml:"source_dir,omitempty"`
	Jobs      []*Job `json:"jobs" yaml:"jobs"`
}

// Pending counts jobs that still need a conversion
func (b Batch) Pending() int {
	n := 0
	for _, j := range b.Jobs {
		if !j.Terminal() {
			n++
		}
	}
	return n
}

// Request returns the converter request for this job
func (j *Job) Request() texconv.Request {
	return texconv.Request{
		Source:  j.Source,
		Dest:    j.Dest,
		Format:  j.Format,
		Options: j.Options,
	}
}

// Terminal reports whether the job reached succeeded or failed
func (j *Job) Terminal() bool {
	return j.Status == StatusSucceeded || j.Status == StatusFailed
}

func (j *Job) fail(err *texconv.JobError) {
	j.Status = StatusFailed
	j.Failure = err
}

func (j *Job) finish(res texconv.Result) {
	j.Result = &res
	if res.OK() {
		j.Status = StatusSucceeded
		return
	}
	j.fail(res.Err)
}
