package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/store"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

var (
	excludePatterns []string
	dryRun          bool
	overwrite       bool
	force           bool
	jobTimeout      time.Duration
)

var convertCmd = &cobra.Command{
	Use:   "convert <directory> [files...]",
	Short: "Convert exported textures in a directory to DDS",
	Long: `Convert every supported image directly inside <directory> (no recursion)
to DDS, writing <directory>/DDS/<name>.dds. When files are given, only those
are converted; relative names are resolved against <directory>.

Files whose DDS output is newer than the source are skipped unless
--overwrite is set or the overwrite_dds toggle is on. Press Ctrl+C to stop
dispatching: running conversions finish, the rest are reported as cancelled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringArrayVarP(&excludePatterns, "exclude", "e", nil, "Regex patterns to exclude files (can be specified multiple times)")
	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be converted without running texconv")
	convertCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Convert even when the DDS output is up to date")
	convertCmd.Flags().BoolVar(&force, "force", false, "Convert even when the export_dds toggle is off")
	convertCmd.Flags().DurationVar(&jobTimeout, "timeout", 0, "Per-file converter timeout (default: stored setting)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}

	sourceDir := args[0]
	files := resolveFiles(sourceDir, args[1:])
	opts := batch.ExportOptions{
		Profile:     profileName,
		Overwrite:   overwrite,
		Concurrency: parallelism,
		Timeout:     jobTimeout,
		Exclude:     excludePatterns,
		Force:       force,
	}
	exporter := batch.NewExporter(m)

	if dryRun {
		var b batch.Batch
		if len(files) > 0 {
			b, err = exporter.PreviewFiles(files, opts)
		} else {
			b, err = exporter.Preview(sourceDir, opts)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Dry run with profile '%s': %d files, %d to convert\n\n", b.Profile, len(b.Jobs), b.Pending())
		printPlan(b.Jobs, false)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter.SetObserver(newProgressPrinter(workerCount(m.Settings())))

	var report *batch.Report
	if len(files) > 0 {
		report, err = exporter.ExportFinishedFiles(ctx, files, opts)
	} else {
		report, err = exporter.ExportFinished(ctx, sourceDir, opts)
	}
	if err != nil {
		return err
	}
	if report.Disabled {
		fmt.Println("DDS export is disabled. No files were processed (use --force or 'ddsbatch settings toggle export_dds on').")
		return nil
	}

	printSummary(report, m.Settings().Toggles.ShowLog || logFlags.LevelCount > 0)
	if !report.OK() {
		return fmt.Errorf("%d of %d conversions failed", report.Failed, report.Total)
	}
	return nil
}

// resolveFiles makes file arguments absolute relative to dir
func resolveFiles(dir string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(dir, f)
		}
		out = append(out, f)
	}
	return out
}

// progressPrinter prints one line per finished job. The orchestrator serialises calls.
type progressPrinter struct {
	workers int
	total   int
	done    int
}

func newProgressPrinter(workers int) *progressPrinter {
	return &progressPrinter{workers: workers}
}

func (p *progressPrinter) OnBatchStart(jobCount int) {
	p.total = jobCount
	fmt.Printf("Converting %d files (parallelism: %d)...\n\n", jobCount, p.workers)
}

func (p *progressPrinter) OnJobComplete(job *batch.Job, result *texconv.Result) {
	p.done++
	prefix := fmt.Sprintf("[%d/%d]", p.done, p.total)
	switch {
	case job.Skipped:
		fmt.Printf("%s %s %s: up to date\n", prefix, skipStyle.Render("⊘"), job.Source)
	case job.Status == batch.StatusSucceeded:
		took := ""
		if result != nil {
			took = " (" + result.Duration.Round(time.Millisecond).String() + ")"
		}
		fmt.Printf("%s %s %s -> %s%s\n", prefix, okStyle.Render("✓"), job.Source, job.Format, took)
	default:
		fmt.Fprintf(os.Stderr, "%s %s %s: %v\n", prefix, failStyle.Render("✗"), job.Source, job.Failure)
	}
}

func (p *progressPrinter) OnBatchComplete(report *batch.Report) {}

// workerCount is the parallelism a batch runs with: --parallelism, then the
// stored concurrency, then GOMAXPROCS when that is 0
func workerCount(s store.Settings) int {
	if parallelism > 0 {
		return parallelism
	}
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// printSummary prints totals and failures; showLog adds the converter output of failed jobs
func printSummary(report *batch.Report, showLog bool) {
	fmt.Printf("\n%s\n", headerStyle.Render("Conversion complete:"))
	fmt.Printf("  Profile:    %s\n", report.Profile)
	fmt.Printf("  Converted:  %d\n", report.Succeeded)
	fmt.Printf("  Up to date: %d\n", report.Skipped)
	fmt.Printf("  Failed:     %d\n", report.Failed)
	fmt.Printf("  Duration:   %s\n", report.Duration().Round(time.Millisecond))

	if len(report.Failures) == 0 {
		return
	}
	fmt.Printf("\n%s\n", failStyle.Render("Failures:"))
	for _, f := range report.Failures {
		line := fmt.Sprintf("  %s [%s]", f.Source, f.Reason)
		if f.Message != "" {
			line += ": " + f.Message
		}
		fmt.Println(line)
		if f.Output != "" && showLog {
			for _, l := range strings.Split(strings.TrimSpace(f.Output), "\n") {
				fmt.Println("      " + skipStyle.Render(l))
			}
		}
	}
}
