package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/takeshy/ddsbatch/internal/batch"
	"github.com/takeshy/ddsbatch/internal/fileutil"
	"github.com/takeshy/ddsbatch/internal/rules"
	"github.com/takeshy/ddsbatch/internal/store"
	"github.com/takeshy/ddsbatch/internal/texconv"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor [directory]",
	Short: "Check the converter, settings file and optionally a source directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	m, err := openStore()
	if err != nil {
		return err
	}
	var problems int
	pass := func(format string, a ...any) { fmt.Printf("%s %s\n", okStyle.Render("✓"), fmt.Sprintf(format, a...)) }
	fail := func(format string, a ...any) {
		problems++
		fmt.Printf("%s %s\n", failStyle.Render("✗"), fmt.Sprintf(format, a...))
	}
	warn := func(format string, a ...any) { fmt.Printf("%s %s\n", warnStyle.Render("!"), fmt.Sprintf(format, a...)) }

	if err := m.LoadErr(); err != nil {
		warn("settings %s could not be read (%v); built-in defaults are in use and the next change keeps the original as %s",
			m.Path(), err, store.CorruptCopyPath(m.Path()))
	} else {
		pass("settings %s", m.Path())
	}

	s := m.Settings()
	if bin, err := texconv.ResolveBinary(s.ConverterPath); err != nil {
		fail("converter: %v", err)
	} else {
		pass("converter %s", bin)
	}

	pass("%d parallel conversions, %s timeout each", workerCount(s), s.Timeout)

	rs, _ := m.Snapshot()
	active, err := rs.Profile(targetProfile(m))
	if err != nil {
		fail("%v", err)
		active = rs.ActiveProfile()
	}
	pass("profile '%s': %d rules, default %s", active.Name, len(active.Rules), active.DefaultFormat)
	if !s.Toggles.ExportDDS {
		warn("export_dds is off: exports are not converted")
	}

	if len(args) == 1 {
		scan, err := scanSourceDir(args[0], active)
		if err != nil {
			fail("source directory: %v", err)
		} else {
			for _, msg := range scan.Errors {
				fail("%s", msg)
			}
			for _, msg := range scan.Warnings {
				warn("%s", msg)
			}
			pass("%d supported images in %s, %d with headers that cannot be read (?)", scan.Images, args[0], scan.Unknown)
		}
	}

	if problems > 0 {
		return errors.New("doctor found problems")
	}
	return nil
}

// sourceScan summarises the image headers of a source directory
type sourceScan struct {
	Images   int
	Unknown  int
	Warnings []string
	Errors   []string
}

// scanSourceDir probes every supported image against the format its stem resolves to
func scanSourceDir(dir string, profile *rules.Profile) (sourceScan, error) {
	files, err := fileutil.DiscoverImages(dir, nil)
	if err != nil {
		return sourceScan{}, err
	}
	scan := sourceScan{Images: len(files)}
	for _, f := range files {
		match := batch.ResolveStem(f.Stem(), profile)
		c, err := batch.CheckSize(f.Path, match.Format)
		if err != nil {
			scan.Errors = append(scan.Errors, fmt.Sprintf("%s: %v", f.Name(), err))
			continue
		}
		if !c.Known {
			scan.Unknown++
		}
		if c.Warning != "" {
			scan.Warnings = append(scan.Warnings, c.Warning)
		}
	}
	return scan, nil
}
