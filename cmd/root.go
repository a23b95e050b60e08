package cmd

import (
	"fmt"
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/takeshy/ddsbatch/internal/store"
)

var (
	Version     = "dev"
	configFile  string
	profileName string
	parallelism int

	logFlags = logger.Flags{
		Level:       "info",
		LogToStderr: true,
	}
)

var rootCmd = &cobra.Command{
	Use:     "ddsbatch",
	Short:   "Batch convert exported textures to DDS with texconv",
	Version: Version,
	Long: `ddsbatch converts exported texture images to DDS with Microsoft texconv.

The output format of each file is chosen by suffix rules: rock_N.png with a
rule "_N -> BC5_UNORM" becomes DDS/rock_N.dds in BC5. Rules are grouped in
profiles; files without a matching rule use the profile default format.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Configure(logFlags)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to settings file (default: ~/.ddsbatch.yaml, or DDSBATCH_CONFIG env var)")
	flags.StringVarP(&profileName, "profile", "P", "", "Rule profile to use (default: the active profile)")
	flags.IntVarP(&parallelism, "parallelism", "p", 0, "Number of parallel conversions (default: stored setting, 0 = CPU count)")
	bindLogFlags(flags)
}

// bindLogFlags adds the logger flags to a flag set
func bindLogFlags(flags *pflag.FlagSet) {
	flags.CountVarP(&logFlags.LevelCount, "loglevel", "v", "Increase logging level")
	flags.StringVar(&logFlags.Level, "log-level", "info", "Set the default log level")
	flags.BoolVar(&logFlags.JsonLogs, "json-logs", false, "Print logs in json format to stderr")
}

// openStore loads the settings file named by --config or DDSBATCH_CONFIG
func openStore() (*store.Manager, error) {
	path := configFile
	if path == "" {
		path = os.Getenv("DDSBATCH_CONFIG")
	}
	m, err := store.NewManager(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return m, nil
}

// targetProfile returns --profile or the active profile name
func targetProfile(m *store.Manager) string {
	if profileName != "" {
		return profileName
	}
	rs, _ := m.Snapshot()
	return rs.ActiveProfile().Name
}
