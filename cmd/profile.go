package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/rules"
)

var profileDefaultFormat string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage rule profiles",
	Long: `A profile is a named list of suffix rules plus a default format for files
no rule matches. The "Default" profile always exists and cannot be deleted.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Make a profile active",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "set-default <format>",
	Short: "Set the format used when no rule matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSetDefault,
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileDefaultFormat, "default-format", string(rules.DefaultFormat), "Format for files no rule matches")
	addOutputFlag(profileListCmd)
	profileCmd.AddCommand(profileListCmd, profileCreateCmd, profileDeleteCmd, profileUseCmd, profileSetDefaultCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	rs, _ := m.Snapshot()
	active := rs.ActiveProfile().Name

	if ok, err := writeStructured(os.Stdout, rs); ok {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "\tNAME\tDEFAULT FORMAT\tRULES")
	fmt.Fprintln(w, "\t----\t--------------\t-----")
	for _, name := range rs.ProfileNames() {
		p := rs.Profiles[name]
		marker := ""
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", marker, p.Name, p.DefaultFormat, len(p.Rules))
	}
	return w.Flush()
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	format, err := rules.ParseFormat(profileDefaultFormat)
	if err != nil {
		return err
	}
	m, err := openStore()
	if err != nil {
		return err
	}
	if err := m.CreateProfile(args[0], format); err != nil {
		return err
	}
	fmt.Printf("%s Created profile '%s' (default format %s)\n", okStyle.Render("✓"), args[0], format)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	if err := m.DeleteProfile(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Deleted profile '%s'\n", okStyle.Render("✓"), args[0])
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	if err := m.SetActiveProfile(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Active profile is now '%s'\n", okStyle.Render("✓"), args[0])
	return nil
}

func runProfileSetDefault(cmd *cobra.Command, args []string) error {
	format, err := rules.ParseFormat(args[0])
	if err != nil {
		return err
	}
	m, err := openStore()
	if err != nil {
		return err
	}
	profile := targetProfile(m)
	if err := m.SetDefaultFormat(profile, format); err != nil {
		return err
	}
	fmt.Printf("%s Profile '%s' now defaults to %s\n", okStyle.Render("✓"), profile, format)
	return nil
}
