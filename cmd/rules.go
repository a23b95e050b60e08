package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/fileutil"
	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

var ruleOptions []string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage suffix rules of a profile",
	Long: `Suffix rules map the end of a texture's file name to a DDS format.
Matching is case-insensitive and the longest matching suffix wins, so
"_Normal" beats "_N" for rock_Normal.png. Rules edit the active profile
unless --profile is given.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the rules of a profile",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <suffix> <format>",
	Short: "Append a rule",
	Example: `  ddsbatch rules add _N BC5_UNORM
  ddsbatch rules add _Normal BC7_UNORM --opt m=1
  ddsbatch rules add _Albedo BC7_UNORM_SRGB --opt srgbi`,
	Args: cobra.ExactArgs(2),
	RunE: runRulesAdd,
}

var rulesRemoveLastCmd = &cobra.Command{
	Use:   "remove-last",
	Short: "Remove the most recently added rule",
	Args:  cobra.NoArgs,
	RunE:  runRulesRemoveLast,
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <suffix>",
	Short: "Remove the rule for a suffix",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRemove,
}

var rulesSetFormatCmd = &cobra.Command{
	Use:   "set-format <suffix> <format>",
	Short: "Change the format of an existing rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesSetFormat,
}

var rulesMoveCmd = &cobra.Command{
	Use:   "move <suffix> <position>",
	Short: "Move a rule to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesMove,
}

var rulesResolveCmd = &cobra.Command{
	Use:   "resolve <file>...",
	Short: "Show which format each file name resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRulesResolve,
}

func init() {
	rulesAddCmd.Flags().StringArrayVar(&ruleOptions, "opt", nil, "Extra texconv flag as key[=value] (can be specified multiple times)")
	addOutputFlag(rulesListCmd)
	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesRemoveLastCmd, rulesRemoveCmd, rulesSetFormatCmd, rulesMoveCmd, rulesResolveCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	rs, _ := m.Snapshot()
	p, err := rs.Profile(targetProfile(m))
	if err != nil {
		return err
	}

	if ok, err := writeStructured(os.Stdout, p); ok {
		return err
	}

	fmt.Printf("Profile '%s' (default format %s)\n\n", p.Name, p.DefaultFormat)
	if len(p.Rules) == 0 {
		fmt.Println("No rules; every file uses the default format")
		return nil
	}
	w := newTable()
	fmt.Fprintln(w, "#\tSUFFIX\tFORMAT\tOPTIONS")
	fmt.Fprintln(w, "-\t------\t------\t-------")
	for i, r := range p.Rules {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, r.Suffix, r.Format, formatOptions(r.Options))
	}
	return w.Flush()
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	format, err := rules.ParseFormat(args[1])
	if err != nil {
		return err
	}
	opts, err := parseOptions(ruleOptions)
	if err != nil {
		return err
	}
	m, err := openStore()
	if err != nil {
		return err
	}
	profile := targetProfile(m)
	if err := m.AddRule(profile, args[0], format, opts); err != nil {
		return err
	}
	fmt.Printf("%s Added %s -> %s to profile '%s'\n", okStyle.Render("✓"), strings.TrimSpace(args[0]), format, profile)
	return nil
}

func runRulesRemoveLast(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	profile := targetProfile(m)
	removed, err := m.RemoveLastRule(profile)
	if err != nil {
		return err
	}
	fmt.Printf("%s Removed %s -> %s from profile '%s'\n", okStyle.Render("✓"), removed.Suffix, removed.Format, profile)
	return nil
}

func runRulesRemove(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	profile := targetProfile(m)
	removed, err := m.RemoveRule(profile, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s Removed %s -> %s from profile '%s'\n", okStyle.Render("✓"), removed.Suffix, removed.Format, profile)
	return nil
}

func runRulesSetFormat(cmd *cobra.Command, args []string) error {
	format, err := rules.ParseFormat(args[1])
	if err != nil {
		return err
	}
	m, err := openStore()
	if err != nil {
		return err
	}
	profile := targetProfile(m)
	if err := m.SetRuleFormat(profile, args[0], format); err != nil {
		return err
	}
	fmt.Printf("%s %s now converts to %s in profile '%s'\n", okStyle.Render("✓"), args[0], format, profile)
	return nil
}

func runRulesMove(cmd *cobra.Command, args []string) error {
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("position must be a number >= 1, got %q", args[1])
	}
	m, err := openStore()
	if err != nil {
		return err
	}
	profile := targetProfile(m)
	if err := m.MoveRule(profile, args[0], pos-1); err != nil {
		return err
	}
	fmt.Printf("%s Moved %s in profile '%s'\n", okStyle.Render("✓"), args[0], profile)
	return nil
}

func runRulesResolve(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	rs, _ := m.Snapshot()
	p, err := rs.Profile(targetProfile(m))
	if err != nil {
		return err
	}

	w := newTable()
	fmt.Fprintln(w, "FILE\tFORMAT\tRULE\tOPTIONS")
	for _, name := range args {
		stem := name
		if fileutil.IsSupportedImage(name) {
			stem = fileutil.Stem(name)
		}
		match := batch.ResolveStem(stem, p)
		suffix := match.Suffix
		if suffix == "" {
			suffix = "(default)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, match.Format, suffix, formatOptions(match.Options))
	}
	return w.Flush()
}

// parseOptions turns key[=value] pairs into a rule option map
func parseOptions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	opts := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" || key == "-" {
			return nil, fmt.Errorf("invalid option %q: expected key[=value]", pair)
		}
		opts[key] = strings.TrimSpace(value)
	}
	return opts, nil
}

func formatOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return "-"
	}
	return strings.Join(texconv.OptionArgs(opts), " ")
}
