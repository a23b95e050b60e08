package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flanksource/commons/logger"

	"github.com/takeshy/ddsbatch/internal/fileutil"
)

// FindOrphans lists .dds files in sourceDir/DDS whose source image no longer exists.
// A missing DDS directory yields no orphans.
func FindOrphans(sourceDir string) ([]string, error) {
	sources, err := fileutil.DiscoverImages(sourceDir, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot scan source directory: %w", err)
	}
	stems := make(map[string]bool, len(sources))
	for _, f := range sources {
		stems[strings.ToLower(f.Stem())] = true
	}

	outDir := filepath.Join(sourceDir, OutputDirName)
	entries, err := os.ReadDir(outDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", outDir, err)
	}

	var orphans []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".dds") {
			continue
		}
		if !stems[strings.ToLower(fileutil.Stem(name))] {
			orphans = append(orphans, filepath.Join(outDir, name))
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

// RemoveOrphans deletes the given outputs and returns how many were removed.
// It keeps going after a failure and returns the joined errors.
func RemoveOrphans(paths []string) (int, error) {
	var removed int
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		logger.Debugf("removed %s", p)
		removed++
	}
	return removed, errors.Join(errs...)
}
