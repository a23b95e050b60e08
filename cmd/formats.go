package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/rules"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the DXGI formats accepted in rules",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := newTable()
		fmt.Fprintln(w, "FORMAT\tKIND")
		for _, f := range rules.Formats() {
			kind := "uncompressed"
			if f.Compressed() {
				kind = "block compressed"
			}
			if f == rules.DefaultFormat {
				kind += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\n", f, kind)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
