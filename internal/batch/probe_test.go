package batch

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeshy/ddsbatch/internal/rules"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestCheckSize(t *testing.T) {
	dir := t.TempDir()
	odd := filepath.Join(dir, "rock_N.png")
	even := filepath.Join(dir, "wall_N.png")
	writePNG(t, odd, 30, 30)
	writePNG(t, even, 32, 64)

	c, err := CheckSize(odd, rules.BC5Unorm)
	require.NoError(t, err)
	assert.True(t, c.Known)
	assert.Equal(t, "30x30", c.Size())
	assert.Contains(t, c.Warning, "rock_N.png is 30x30")
	assert.Contains(t, c.Warning, "BC5_UNORM")

	c, err = CheckSize(odd, rules.R8G8B8A8Unorm)
	require.NoError(t, err)
	assert.Empty(t, c.Warning, "uncompressed formats have no block size")

	c, err = CheckSize(even, rules.BC7Unorm)
	require.NoError(t, err)
	assert.Equal(t, "32x64", c.Size())
	assert.Empty(t, c.Warning)
}

func TestCheckSizeUndecodableHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rock_N.tga")
	require.NoError(t, os.WriteFile(path, []byte{0, 0, 2, 0, 0}, 0o644))

	c, err := CheckSize(path, rules.BC5Unorm)
	require.NoError(t, err)
	assert.False(t, c.Known)
	assert.Equal(t, "?", c.Size())
	assert.Empty(t, c.Warning)

	_, err = CheckSize(filepath.Join(t.TempDir(), "missing.png"), rules.BC5Unorm)
	assert.Error(t, err)
}
