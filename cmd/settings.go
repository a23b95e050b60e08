package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change converter settings and toggles",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetConverterCmd = &cobra.Command{
	Use:   "set-converter <path>",
	Short: "Set the texconv executable (a bare name is looked up on PATH)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetConverter,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set concurrency or timeout",
	Example: `  ddsbatch settings set concurrency 4
  ddsbatch settings set timeout 2m`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsToggleCmd = &cobra.Command{
	Use:   "toggle <name> [on|off]",
	Short: "Flip a toggle, or set it explicitly",
	Long: `Toggles:
  export_dds     convert when an export finishes
  overwrite_dds  convert even when the DDS output is up to date
  show_log       print converter output of failed files`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsToggle,
}

func init() {
	addOutputFlag(settingsShowCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetConverterCmd, settingsSetCmd, settingsToggleCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	s := m.Settings()

	if ok, err := writeStructured(os.Stdout, s); ok {
		return err
	}

	concurrency := strconv.Itoa(s.Concurrency)
	if s.Concurrency == 0 {
		concurrency = "0 (CPU count)"
	}
	fmt.Printf("Settings file: %s\n\n", m.Path())
	w := newTable()
	fmt.Fprintf(w, "converter\t%s\n", s.ConverterPath)
	fmt.Fprintf(w, "concurrency\t%s\n", concurrency)
	fmt.Fprintf(w, "timeout\t%s\n", s.Timeout)
	fmt.Fprintf(w, "%s\t%s\n", store.ToggleExportDDS, onOff(s.Toggles.ExportDDS))
	fmt.Fprintf(w, "%s\t%s\n", store.ToggleOverwriteDDS, onOff(s.Toggles.OverwriteDDS))
	fmt.Fprintf(w, "%s\t%s\n", store.ToggleShowLog, onOff(s.Toggles.ShowLog))
	return w.Flush()
}

func runSettingsSetConverter(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	if err := m.SetConverterPath(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s Converter set to %s (run 'ddsbatch doctor' to check it)\n", okStyle.Render("✓"), args[0])
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	key, value := strings.ToLower(args[0]), args[1]
	switch key {
	case "concurrency", "parallelism":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("concurrency must be a number: %w", err)
		}
		err = m.SetConcurrency(n)
		if err != nil {
			return err
		}
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("timeout must be a duration like 90s or 5m: %w", err)
		}
		if err := m.SetTimeout(d); err != nil {
			return err
		}
	case "converter", "converter_path":
		if err := m.SetConverterPath(value); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown setting %q (must be concurrency, timeout or converter)", args[0])
	}
	fmt.Printf("%s %s = %s\n", okStyle.Render("✓"), key, value)
	return nil
}

func runSettingsToggle(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	name := args[0]
	current, err := m.Settings().Toggle(name)
	if err != nil {
		return err
	}

	value := !current
	if len(args) == 2 {
		value, err = parseOnOff(args[1])
		if err != nil {
			return err
		}
	}
	if err := m.SetToggle(name, value); err != nil {
		return err
	}
	fmt.Printf("%s %s is %s\n", okStyle.Render("✓"), name, onOff(value))
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes", "enable", "enabled":
		return true, nil
	case "off", "no", "disable", "disabled":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}
