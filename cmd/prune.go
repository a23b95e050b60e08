package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/batch"
)

var pruneYes bool

var pruneCmd = &cobra.Command{
	Use:   "prune <directory>",
	Short: "Remove DDS outputs whose source texture is gone",
	Long: `List .dds files in <directory>/DDS that no longer have a source image in
<directory>, for example after a texture was renamed. Nothing is deleted
unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().BoolVarP(&pruneYes, "yes", "y", false, "Delete the orphaned outputs")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	orphans, err := batch.FindOrphans(args[0])
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		fmt.Println("No orphaned DDS files")
		return nil
	}

	for _, p := range orphans {
		fmt.Printf("  %s %s\n", warnStyle.Render("orphan"), p)
	}
	if !pruneYes {
		fmt.Printf("\n%d orphaned files. Run again with --yes to delete them.\n", len(orphans))
		return nil
	}

	removed, err := batch.RemoveOrphans(orphans)
	fmt.Printf("\nRemoved %d of %d orphaned files\n", removed, len(orphans))
	return err
}
