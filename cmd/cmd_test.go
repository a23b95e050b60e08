package cmd

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/store"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions(nil)
	require.NoError(t, err)
	assert.Nil(t, opts)

	opts, err = parseOptions([]string{"srgb", "m=1", " f = BC7 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"srgb": "", "m": "1", "f": "BC7"}, opts)

	_, err = parseOptions([]string{"=1"})
	assert.Error(t, err)
}

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "on", want: true},
		{in: "OFF", want: false},
		{in: "enabled", want: true},
		{in: "true", want: true},
		{in: "0", want: false},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOnOff(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	abs := filepath.Join(dir, "other", "wall_D.png")
	got := resolveFiles(dir, []string{"rock_N.png", abs})
	assert.Equal(t, []string{filepath.Join(dir, "rock_N.png"), abs}, got)
}

func TestRelDest(t *testing.T) {
	dir := t.TempDir()
	j := &batch.Job{
		Source: filepath.Join(dir, "rock_N.png"),
		Dest:   filepath.Join(dir, batch.OutputDirName, "rock_N.dds"),
	}
	assert.Equal(t, filepath.Join("DDS", "rock_N.dds"), relDest(j))
}

func TestWorkerCount(t *testing.T) {
	saved := parallelism
	t.Cleanup(func() { parallelism = saved })

	parallelism = 0
	assert.Equal(t, runtime.GOMAXPROCS(0), workerCount(store.Settings{}))
	assert.Equal(t, 3, workerCount(store.Settings{Concurrency: 3}))

	parallelism = 8
	assert.Equal(t, 8, workerCount(store.Settings{Concurrency: 3}))
}

func TestScanSourceDirFlagsUnalignedBlockFormats(t *testing.T) {
	dir := t.TempDir()
	for name, size := range map[string]int{"rock_N.png": 30, "rock_D.png": 30, "wall_N.png": 64} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, size, size))))
		require.NoError(t, f.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sky_D.tga"), []byte{0, 0, 2}, 0o644))

	profile := rules.NewProfile("Props", rules.R8G8B8A8Unorm)
	profile.Rules = []rules.Rule{{Suffix: "_N", Format: rules.BC5Unorm}}

	scan, err := scanSourceDir(dir, profile)
	require.NoError(t, err)
	assert.Equal(t, 4, scan.Images)
	assert.Equal(t, 1, scan.Unknown)
	assert.Empty(t, scan.Errors)
	require.Len(t, scan.Warnings, 1, "only the BC5 file with a 30x30 size is flagged")
	assert.Contains(t, scan.Warnings[0], "rock_N.png is 30x30")

	_, err = scanSourceDir(filepath.Join(dir, "missing"), profile)
	assert.Error(t, err)
}
