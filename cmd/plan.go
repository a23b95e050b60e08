package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/batch"
)

var planProbe bool

var planCmd = &cobra.Command{
	Use:   "plan <directory>",
	Short: "Show how each texture in a directory would be converted",
	Long: `List the supported images directly inside <directory> with the format
their suffix resolves to, the DDS destination and whether the output is
already up to date. Nothing is converted.

Use --probe to read image headers and flag block-compressed targets whose
dimensions are not multiples of 4.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planProbe, "probe", false, "Read image dimensions and warn about sizes BC formats cannot encode cleanly")
	planCmd.Flags().StringArrayVarP(&excludePatterns, "exclude", "e", nil, "Regex patterns to exclude files (can be specified multiple times)")
	planCmd.Flags().BoolVar(&overwrite, "overwrite", false, "Treat up-to-date outputs as stale")
	addOutputFlag(planCmd)
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}

	b, err := batch.NewExporter(m).Preview(args[0], batch.ExportOptions{
		Profile:   profileName,
		Overwrite: overwrite,
		Exclude:   excludePatterns,
	})
	if err != nil {
		return err
	}

	if ok, err := writeStructured(os.Stdout, b); ok {
		return err
	}

	if len(b.Jobs) == 0 {
		fmt.Printf("No supported images in %s\n", args[0])
		return nil
	}
	fmt.Printf("Profile '%s': %d files, %d to convert\n\n", b.Profile, len(b.Jobs), b.Pending())
	printPlan(b.Jobs, planProbe)
	return nil
}

func printPlan(jobs []*batch.Job, probe bool) {
	w := newTable()
	header, rule := "FILE\tFORMAT\tRULE\tSTATUS\tDEST", "----\t------\t----\t------\t----"
	if probe {
		header, rule = header+"\tSIZE", rule+"\t----"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, rule)

	var warnings []string
	for _, j := range jobs {
		matched := j.RuleSuffix
		if matched == "" {
			matched = "(default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s", filepath.Base(j.Source), j.Format, matched, planStatus(j), relDest(j))
		if probe {
			size, warning := probeSize(j)
			fmt.Fprintf(w, "\t%s", size)
			if warning != "" {
				warnings = append(warnings, warning)
			}
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	if len(warnings) > 0 {
		fmt.Println()
		for _, msg := range warnings {
			fmt.Println(warnStyle.Render("! " + msg))
		}
	}
}

func planStatus(j *batch.Job) string {
	switch {
	case j.Skipped:
		return "up to date"
	case j.Failure != nil:
		return string(j.Failure.Kind)
	default:
		return "convert"
	}
}

func relDest(j *batch.Job) string {
	rel, err := filepath.Rel(filepath.Dir(j.Source), j.Dest)
	if err != nil {
		return j.Dest
	}
	return rel
}

func probeSize(j *batch.Job) (string, string) {
	c, err := batch.CheckSize(j.Source, j.Format)
	if err != nil {
		return "error", fmt.Sprintf("%s: %v", filepath.Base(j.Source), err)
	}
	return c.Size(), c.Warning
}
