package texconv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/takeshy/ddsbatch/internal/rules"
)

// DefaultTimeout bounds one conversion when the caller sets none
const DefaultTimeout = 5 * time.Minute

// maxOutput caps the converter output kept per job
const maxOutput = 64 * 1024

// Request is one source image to convert
type Request struct {
	Source  string
	Dest    string
	Format  rules.Format
	Options map[string]string
}

// Result captures one converter invocation
type Result struct {
	Command  string        `json:"command" yaml:"command"`
	Args     []string      `json:"args" yaml:"args"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Output   string        `json:"output,omitempty" yaml:"output,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Err      *JobError     `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the conversion succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// commandResult is an internal process execution response
type commandResult struct {
	Output   string
	ExitCode int
}

// commandRunner abstracts process execution for testability
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec with stdin on the null device
type execRunner struct{}

// Run executes one command and captures combined output and exit code
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	result := commandResult{
		Output:   out.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}
	return result, nil
}

// Invoker runs texconv for single jobs
type Invoker struct {
	binary   string
	timeout  time.Duration
	runner   commandRunner
	stat     func(name string) (os.FileInfo, error)
	mkdirAll func(path string, perm os.FileMode) error
	log      logger.Logger
}

// NewInvoker validates the converter binary and returns an invoker.
// It fails with ErrConverterNotFound before any process is spawned.
func NewInvoker(binaryPath string, timeout time.Duration) (*Invoker, error) {
	binary, err := ResolveBinary(binaryPath)
	if err != nil {
		return nil, err
	}
	return newInvoker(binary, timeout, &execRunner{}), nil
}

func newInvoker(binary string, timeout time.Duration, runner commandRunner) *Invoker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Invoker{
		binary:   binary,
		timeout:  timeout,
		runner:   runner,
		stat:     os.Stat,
		mkdirAll: os.MkdirAll,
		log:      logger.GetLogger("texconv"),
	}
}

// Binary returns the resolved converter path
func (inv *Invoker) Binary() string {
	return inv.binary
}

// Run converts one image. The per-job timeout is applied on top of ctx; callers
// that must not interrupt running conversions pass a context without cancellation.
func (inv *Invoker) Run(ctx context.Context, req Request) Result {
	outDir := filepath.Dir(req.Dest)
	args := BuildArgs(req)
	result := Result{Command: inv.binary, Args: args}

	if err := inv.mkdirAll(outDir, 0o755); err != nil {
		result.ExitCode = -1
		result.Err = NewJobError(FailureProcess, req.Source, fmt.Sprintf("cannot create output directory %s", outDir), err)
		result.Err.ExitCode = -1
		return result
	}

	before, _ := inv.stat(req.Dest)

	jobCtx, cancel := context.WithTimeout(ctx, inv.timeout)
	defer cancel()

	inv.log.Debugf("%s %s", inv.binary, strings.Join(args, " "))
	start := time.Now()
	cmdResult, runErr := inv.runner.Run(jobCtx, inv.binary, args...)
	result.Duration = time.Since(start)
	result.ExitCode = cmdResult.ExitCode
	result.Output = truncateOutput(cmdResult.Output)

	// a clean exit counts even when the deadline passed after it
	switch {
	case runErr != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded):
		result.Err = NewJobError(FailureTimeout, req.Source, fmt.Sprintf("no result after %s", inv.timeout), jobCtx.Err())
	case runErr != nil && ctx.Err() != nil:
		result.Err = NewJobError(FailureCancelled, req.Source, "interrupted", ctx.Err())
	case runErr != nil:
		result.Err = NewJobError(FailureProcess, req.Source, lastLine(result.Output), runErr)
		result.Err.ExitCode = cmdResult.ExitCode
	default:
		after, err := inv.stat(req.Dest)
		if err != nil || !outputWritten(before, after) {
			result.Err = NewJobError(FailureOutputMissing, req.Source, fmt.Sprintf("exit 0 but %s was not written", filepath.Base(req.Dest)), err)
		}
	}

	if result.Err != nil {
		inv.log.Debugf("%v", result.Err)
	}
	return result
}

// BuildArgs returns the texconv argument list for a request:
//
//	-nologo -y -o <dest dir> -f <FORMAT> [options sorted by key] <source>
//
// -y is always set: the planner only enqueues files whose output is absent or stale.
func BuildArgs(req Request) []string {
	args := []string{
		"-nologo",
		"-y",
		"-o", filepath.Dir(req.Dest),
		"-f", string(req.Format),
	}
	args = append(args, OptionArgs(req.Options)...)
	return append(args, req.Source)
}

// OptionArgs renders per-rule options as flags. Keys gain a leading "-" when missing
// and an empty value emits the bare flag.
func OptionArgs(options map[string]string) []string {
	keys := lo.Keys(options)
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		flag := strings.TrimSpace(k)
		if flag == "" {
			continue
		}
		if !strings.HasPrefix(flag, "-") {
			flag = "-" + flag
		}
		args = append(args, flag)
		if v := strings.TrimSpace(options[k]); v != "" {
			args = append(args, v)
		}
	}
	return args
}

// outputWritten reports whether after is a fresh output. A pre-existing file only
// counts when the converter replaced it.
func outputWritten(before, after os.FileInfo) bool {
	if after == nil || after.IsDir() {
		return false
	}
	if before == nil {
		return true
	}
	return !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size()
}

func truncateOutput(out string) string {
	if len(out) <= maxOutput {
		return out
	}
	return "...\n" + out[len(out)-maxOutput:]
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return "converter exited with an error"
}
