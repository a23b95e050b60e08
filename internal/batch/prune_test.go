package batch

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrphans(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "rock_N.png"), now)
	touch(t, filepath.Join(dir, "Wall_D.tga"), now)
	touch(t, filepath.Join(dir, "DDS", "rock_N.dds"), now)
	touch(t, filepath.Join(dir, "DDS", "wall_d.DDS"), now)
	touch(t, filepath.Join(dir, "DDS", "old_N.dds"), now)
	touch(t, filepath.Join(dir, "DDS", "notes.txt"), now)

	orphans, err := FindOrphans(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "DDS", "old_N.dds")}, orphans)

	n, err := RemoveOrphans(orphans)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, orphans[0])
	assert.FileExists(t, filepath.Join(dir, "DDS", "rock_N.dds"))
}

func TestFindOrphansWithoutOutputDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "rock_N.png"), time.Now())

	orphans, err := FindOrphans(dir)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	_, err = FindOrphans(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
