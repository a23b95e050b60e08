package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/takeshy/ddsbatch/internal/fileutil"
	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

// Planner turns exported images into conversion jobs. It only lists and stats files.
type Planner struct {
	// Overwrite enqueues every file, even when its output is up to date
	Overwrite bool
	// Exclude holds regular expressions matched against absolute source paths
	Exclude []string

	stat func(name string) (os.FileInfo, error)
}

// NewPlanner creates a planner using the real filesystem
func NewPlanner() *Planner {
	return &Planner{stat: os.Stat}
}

// Plan scans sourceDir (non-recursively) and builds one job per supported image
func (p *Planner) Plan(sourceDir string, profile *rules.Profile) ([]*Job, error) {
	files, err := fileutil.DiscoverImages(sourceDir, p.Exclude)
	if err != nil {
		return nil, fmt.Errorf("cannot scan source directory: %w", err)
	}
	return p.build(files, profile), nil
}

// PlanFiles builds jobs for an explicit file list, as reported by a finished export.
// Each output goes to the DDS directory next to its source.
func (p *Planner) PlanFiles(paths []string, profile *rules.Profile) ([]*Job, error) {
	files, err := fileutil.StatImages(paths)
	if err != nil {
		return nil, err
	}
	files, err = fileutil.ExcludeImages(files, p.Exclude)
	if err != nil {
		return nil, err
	}
	files = lo.UniqBy(files, func(f fileutil.FileInfo) string { return f.Path })
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return p.build(files, profile), nil
}

// DestPath returns <dir of source>/DDS/<stem>.dds
func DestPath(source string) string {
	return filepath.Join(filepath.Dir(source), OutputDirName, fileutil.Stem(source)+".dds")
}

func (p *Planner) build(files []fileutil.FileInfo, profile *rules.Profile) []*Job {
	jobs := make([]*Job, 0, len(files))
	for i, f := range files {
		job := &Job{
			ID:            i + 1,
			Source:        f.Path,
			Dest:          DestPath(f.Path),
			SourceModTime: f.ModTime,
			Status:        StatusPending,
		}

		m := ResolveStem(f.Stem(), profile)
		job.Format, job.Options, job.RuleSuffix = m.Format, m.Options, m.Suffix
		jobs = append(jobs, job)
	}

	p.resolveCollisions(jobs)

	for _, job := range jobs {
		if job.Status == StatusPending && !p.Overwrite && p.upToDate(job) {
			job.Status = StatusSucceeded
			job.Skipped = true
		}
	}
	return jobs
}

// resolveCollisions fails every job whose output another source also maps to,
// keeping the most recently modified source. Outputs are compared
// case-insensitively because texconv targets case-insensitive filesystems.
func (p *Planner) resolveCollisions(jobs []*Job) {
	groups := lo.GroupBy(jobs, func(j *Job) string { return strings.ToLower(j.Dest) })
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		winner := lo.MaxBy(group, func(a, b *Job) bool { return a.SourceModTime.After(b.SourceModTime) })
		for _, j := range group {
			if j == winner {
				continue
			}
			j.fail(texconv.NewJobError(texconv.FailureOutputCollision, j.Source,
				fmt.Sprintf("%s is converted to the same output instead", filepath.Base(winner.Source)), nil))
		}
	}
}

// upToDate reports whether the output exists and is not older than the source
func (p *Planner) upToDate(job *Job) bool {
	stat := p.stat
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(job.Dest)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return !info.ModTime().Before(job.SourceModTime)
}

// ResolveStem picks the format for an exported stem. Stems without the
// <name>_<suffix> form take the profile default.
func ResolveStem(stem string, profile *rules.Profile) rules.Match {
	if _, _, ok := fileutil.ParseStem(stem); ok {
		return rules.MatchStem(stem, profile)
	}
	return rules.Match{Format: defaultFormat(profile), RuleIndex: -1}
}

func defaultFormat(profile *rules.Profile) rules.Format {
	if profile != nil && profile.DefaultFormat != "" {
		return profile.DefaultFormat
	}
	return rules.DefaultFormat
}
