package texconv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeshy/ddsbatch/internal/rules"
)

// fakeRunner simulates converter runs
type fakeRunner struct {
	run func(ctx context.Context, name string, args ...string) (commandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	if f.run == nil {
		return commandResult{}, nil
	}
	return f.run(ctx, name, args...)
}

func writeDest(t *testing.T, args []string) {
	t.Helper()
	outDir := argValue(args, "-o")
	source := args[len(args)-1]
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, stem+".dds"), []byte("DDS "), 0o644))
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newRequest(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "rock_N.png")
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))
	return Request{
		Source: src,
		Dest:   filepath.Join(dir, "DDS", "rock_N.dds"),
		Format: rules.BC5Unorm,
	}
}

func TestBuildArgs(t *testing.T) {
	req := Request{
		Source:  "/tex/rock_N.png",
		Dest:    "/tex/DDS/rock_N.dds",
		Format:  rules.BC5Unorm,
		Options: map[string]string{"m": "1", "-srgb": "", "-sepalpha": " "},
	}

	args := BuildArgs(req)
	assert.Equal(t, []string{
		"-nologo", "-y",
		"-o", "/tex/DDS",
		"-f", "BC5_UNORM",
		"-sepalpha",
		"-srgb",
		"-m", "1",
		"/tex/rock_N.png",
	}, args)
}

func TestRunSuccess(t *testing.T) {
	req := newRequest(t)
	var gotName string
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		gotName = name
		writeDest(t, args)
		return commandResult{Output: "writing rock_N.dds"}, nil
	}}

	inv := newInvoker("/opt/texconv", time.Second, runner)
	res := inv.Run(context.Background(), req)

	require.True(t, res.OK(), "%v", res.Err)
	assert.Equal(t, "/opt/texconv", gotName)
	assert.Equal(t, "writing rock_N.dds", res.Output)
	assert.FileExists(t, req.Dest)
}

func TestRunProcessError(t *testing.T) {
	req := newRequest(t)
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		return commandResult{Output: "reading rock_N.png\nFAILED (80070057)\n", ExitCode: 3}, errors.New("exit status 3")
	}}

	res := newInvoker("texconv", time.Second, runner).Run(context.Background(), req)

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrProcess)
	assert.Equal(t, 3, res.Err.ExitCode)
	assert.Equal(t, "FAILED (80070057)", res.Err.Message)
	assert.Contains(t, res.Err.Error(), "process_error(exit 3)")
}

func TestRunExitZeroWithoutOutputIsFailure(t *testing.T) {
	req := newRequest(t)
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		return commandResult{Output: "skipping"}, nil
	}}

	res := newInvoker("texconv", time.Second, runner).Run(context.Background(), req)

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrOutputMissing)
}

func TestRunStaleOutputNotReplacedIsFailure(t *testing.T) {
	req := newRequest(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(req.Dest), 0o755))
	require.NoError(t, os.WriteFile(req.Dest, []byte("old"), 0o644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(req.Dest, old, old))

	runner := &fakeRunner{}
	res := newInvoker("texconv", time.Second, runner).Run(context.Background(), req)
	assert.ErrorIs(t, res.Err, ErrOutputMissing)

	runner.run = func(ctx context.Context, name string, args ...string) (commandResult, error) {
		writeDest(t, args)
		return commandResult{}, nil
	}
	res = newInvoker("texconv", time.Second, runner).Run(context.Background(), req)
	assert.True(t, res.OK())
}

func TestRunTimeout(t *testing.T) {
	req := newRequest(t)
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		<-ctx.Done()
		return commandResult{ExitCode: -1}, errors.New("signal: killed")
	}}

	res := newInvoker("texconv", 20*time.Millisecond, runner).Run(context.Background(), req)

	require.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrTimeout)
	assert.Equal(t, FailureTimeout, res.Err.Kind)
}

func TestRunCleanExitAfterDeadlineIsSuccess(t *testing.T) {
	req := newRequest(t)
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		writeDest(t, args)
		<-ctx.Done()
		return commandResult{Output: "writing rock_N.dds"}, nil
	}}

	res := newInvoker("texconv", 20*time.Millisecond, runner).Run(context.Background(), req)

	require.True(t, res.OK(), "%v", res.Err)
	assert.FileExists(t, req.Dest)
}

func TestRunCreatesOutputDirectory(t *testing.T) {
	req := newRequest(t)
	runner := &fakeRunner{run: func(ctx context.Context, name string, args ...string) (commandResult, error) {
		info, err := os.Stat(argValue(args, "-o"))
		require.NoError(t, err)
		require.True(t, info.IsDir())
		writeDest(t, args)
		return commandResult{}, nil
	}}

	res := newInvoker("texconv", time.Second, runner).Run(context.Background(), req)
	assert.True(t, res.OK())
}

func TestResolveBinary(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "texconv" {
			return "/usr/local/bin/texconv", nil
		}
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}

	got, err := resolveBinary("", lookPath)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/texconv", got)

	_, err = resolveBinary("/nowhere/texconv.exe", lookPath)
	assert.ErrorIs(t, err, ErrConverterNotFound)
}

func TestResolveBinaryRealFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bit check is unix only")
	}
	dir := t.TempDir()

	plain := filepath.Join(dir, "texconv-plain")
	require.NoError(t, os.WriteFile(plain, []byte("#!/bin/sh\n"), 0o644))
	_, err := ResolveBinary(plain)
	assert.ErrorIs(t, err, ErrConverterNotFound)

	_, err = ResolveBinary(dir)
	assert.ErrorIs(t, err, ErrConverterNotFound)

	exe := filepath.Join(dir, "texconv")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
	got, err := ResolveBinary(exe)
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	_, err = NewInvoker(filepath.Join(dir, "missing"), time.Second)
	assert.ErrorIs(t, err, ErrConverterNotFound)
}

// TestHelperProcess is not a real test; execRunner tests re-exec the test binary into it.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) < 2 {
		os.Exit(2)
	}
	switch args[1] {
	case "ok":
		fmt.Fprintln(os.Stdout, "to stdout")
		fmt.Fprintln(os.Stderr, "to stderr")
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "bad input")
		os.Exit(3)
	case "stdin":
		buf := make([]byte, 1)
		n, _ := os.Stdin.Read(buf)
		fmt.Fprintf(os.Stdout, "read %d", n)
		os.Exit(0)
	}
	os.Exit(2)
}

func TestExecRunner(t *testing.T) {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	r := &execRunner{}
	ctx := context.Background()

	res, err := r.Run(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", "ok")
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Output, "to stdout")
	assert.Contains(t, res.Output, "to stderr")

	res, err = r.Run(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", "fail")
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Output, "bad input")

	res, err = r.Run(ctx, os.Args[0], "-test.run=TestHelperProcess", "--", "stdin")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "read 0")
}

func TestJobErrorIs(t *testing.T) {
	err := error(NewJobError(FailureCancelled, "/a/b_N.png", "", nil))

	assert.ErrorIs(t, err, ErrCancelled)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "b_N.png: cancelled", err.Error())
}
