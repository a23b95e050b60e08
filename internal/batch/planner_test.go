package batch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func testProfile(t *testing.T) *rules.Profile {
	t.Helper()
	rs := rules.NewRuleSet()
	require.NoError(t, rs.SetDefaultFormat(rules.DefaultProfileName, rules.BC1Unorm))
	require.NoError(t, rs.AddRule(rules.DefaultProfileName, "_N", rules.BC5Unorm, nil))
	require.NoError(t, rs.AddRule(rules.DefaultProfileName, "_Normal", rules.BC7Unorm, map[string]string{"-m": "1"}))
	return rs.ActiveProfile()
}

func byBase(jobs []*Job) map[string]*Job {
	out := make(map[string]*Job, len(jobs))
	for _, j := range jobs {
		out[filepath.Base(j.Source)] = j
	}
	return out
}

func TestPlanResolvesFormats(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().Add(-time.Hour)
	for _, name := range []string{"rock_N.png", "rock_Normal.TGA", "wall.png", "_N.png", "notes.txt", "sub/deep_N.png"} {
		touch(t, filepath.Join(dir, name), past)
	}

	jobs, err := NewPlanner().Plan(dir, testProfile(t))
	require.NoError(t, err)
	require.Len(t, jobs, 4)

	got := byBase(jobs)
	assert.Equal(t, rules.BC5Unorm, got["rock_N.png"].Format)
	assert.Equal(t, "_N", got["rock_N.png"].RuleSuffix)
	assert.Equal(t, rules.BC7Unorm, got["rock_Normal.TGA"].Format)
	assert.Equal(t, map[string]string{"-m": "1"}, got["rock_Normal.TGA"].Options)
	assert.Equal(t, rules.BC1Unorm, got["wall.png"].Format)
	assert.Equal(t, rules.BC1Unorm, got["_N.png"].Format, "stem without a name part takes the default")
	assert.Empty(t, got["_N.png"].RuleSuffix)

	assert.Equal(t, filepath.Join(dir, "DDS", "rock_N.dds"), got["rock_N.png"].Dest)
	for _, j := range jobs {
		assert.Equal(t, StatusPending, j.Status)
	}
	assert.NoDirExists(t, filepath.Join(dir, "DDS"), "planning must not write")
}

func TestPlanSkipsUpToDateOutputs(t *testing.T) {
	dir := t.TempDir()
	srcTime := time.Now().Add(-2 * time.Hour)
	touch(t, filepath.Join(dir, "fresh_N.png"), srcTime)
	touch(t, filepath.Join(dir, "stale_N.png"), srcTime)
	touch(t, filepath.Join(dir, "DDS", "fresh_N.dds"), srcTime.Add(time.Hour))
	touch(t, filepath.Join(dir, "DDS", "stale_N.dds"), srcTime.Add(-time.Hour))

	jobs, err := NewPlanner().Plan(dir, testProfile(t))
	require.NoError(t, err)
	got := byBase(jobs)
	assert.Equal(t, StatusSucceeded, got["fresh_N.png"].Status)
	assert.True(t, got["fresh_N.png"].Skipped)
	assert.Equal(t, StatusPending, got["stale_N.png"].Status)

	p := NewPlanner()
	p.Overwrite = true
	jobs, err = p.Plan(dir, testProfile(t))
	require.NoError(t, err)
	for _, j := range jobs {
		assert.Equal(t, StatusPending, j.Status, j.Source)
		assert.False(t, j.Skipped)
	}
}

func TestPlanCollisionNewestWins(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "a_N.png"), now.Add(-time.Hour))
	touch(t, filepath.Join(dir, "a_N.tga"), now.Add(-time.Minute))

	jobs, err := NewPlanner().Plan(dir, testProfile(t))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	got := byBase(jobs)
	assert.Equal(t, StatusPending, got["a_N.tga"].Status)

	loser := got["a_N.png"]
	assert.Equal(t, StatusFailed, loser.Status)
	require.NotNil(t, loser.Failure)
	assert.ErrorIs(t, loser.Failure, texconv.ErrOutputCollision)
	assert.Contains(t, loser.Failure.Message, "a_N.tga")
}

func TestPlanUnreadableDirectory(t *testing.T) {
	_, err := NewPlanner().Plan(filepath.Join(t.TempDir(), "missing"), testProfile(t))
	require.Error(t, err)
}

func TestPlanFiles(t *testing.T) {
	root := t.TempDir()
	past := time.Now().Add(-time.Hour)
	a := filepath.Join(root, "one", "metal_N.png")
	b := filepath.Join(root, "two", "metal_N.png")
	c := filepath.Join(root, "two", "skip_me.png")
	txt := filepath.Join(root, "two", "readme.txt")
	for _, f := range []string{a, b, c, txt} {
		touch(t, f, past)
	}

	p := NewPlanner()
	p.Exclude = []string{`skip_me`}
	jobs, err := p.PlanFiles([]string{b, a, a, c, txt}, testProfile(t))
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, a, jobs[0].Source)
	assert.Equal(t, filepath.Join(root, "one", "DDS", "metal_N.dds"), jobs[0].Dest)
	assert.Equal(t, filepath.Join(root, "two", "DDS", "metal_N.dds"), jobs[1].Dest)
	assert.Equal(t, StatusPending, jobs[1].Status, "same stem in different folders does not collide")
}

func TestPlanNilProfileUsesDefault(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "rock_N.png"), time.Now())

	jobs, err := NewPlanner().Plan(dir, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, rules.DefaultFormat, jobs[0].Format)
}
