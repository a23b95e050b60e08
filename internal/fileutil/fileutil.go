package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a source image
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Name returns the base file name
func (f FileInfo) Name() string {
	return filepath.Base(f.Path)
}

// Stem returns the file name without extension
func (f FileInfo) Stem() string {
	return Stem(f.Path)
}

// supportedExtensions are the input image types texconv reads
var supportedExtensions = map[string]bool{
	".png":  true,
	".tga":  true,
	".tif":  true,
	".tiff": true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".hdr":  true,
	".exr":  true,
	".ppm":  true,
	".pfm":  true,
	".webp": true,
}

// SupportedExtensions returns the accepted input extensions, sorted
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedImage reports whether path has a supported input extension (case-insensitive)
func IsSupportedImage(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Stem returns the base name of path without its extension
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseStem splits an exported texture stem of the form <name>_<suffix>.
// ok is false when the stem has no underscore with text on both sides.
func ParseStem(stem string) (name, suffix string, ok bool) {
	idx := strings.LastIndex(stem, "_")
	if idx <= 0 || idx == len(stem)-1 {
		return stem, "", false
	}
	return stem[:idx], stem[idx+1:], true
}

// DiscoverImages lists supported images directly inside dir (no recursion),
// skipping files matching any exclude pattern. Results are sorted by path.
func DiscoverImages(dir string, excludePatterns []string) ([]FileInfo, error) {
	excludeRegexps, err := compilePatterns(excludePatterns)
	if err != nil {
		return nil, err
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %q: %w", dir, err)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsSupportedImage(entry.Name()) {
			continue
		}

		path := filepath.Join(absDir, entry.Name())
		if matchesAny(excludeRegexps, path) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// removed between listing and stat
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, FileInfo{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// StatImages stats an explicit list of files, keeping only supported images
func StatImages(paths []string) ([]FileInfo, error) {
	files := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		if !IsSupportedImage(p) {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for %q: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", p, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{Path: abs, Size: info.Size(), ModTime: info.ModTime()})
	}
	return files, nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into place,
// so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()
	defer func() {
		if f != nil {
			_ = f.Close()
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		f = nil
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	f = nil

	if err := os.Chmod(tempPath, perm); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func matchesAny(res []*regexp.Regexp, path string) bool {
	for _, re := range res {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// ExcludeImages drops files whose absolute path matches any exclude pattern
func ExcludeImages(files []FileInfo, excludePatterns []string) ([]FileInfo, error) {
	res, err := compilePatterns(excludePatterns)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return files, nil
	}
	kept := files[:0:0]
	for _, f := range files {
		if !matchesAny(res, f.Path) {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
