package texconv

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is looked up on PATH when no converter path is configured
const DefaultBinary = "texconv"

// ResolveBinary validates the converter location: bare names are searched on PATH,
// paths must exist, must not be a directory and must be executable.
func ResolveBinary(path string) (string, error) {
	return resolveBinary(path, exec.LookPath)
}

func resolveBinary(path string, lookPath func(string) (string, error)) (string, error) {
	name := strings.TrimSpace(path)
	if name == "" {
		name = DefaultBinary
	}

	resolved, err := lookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrConverterNotFound, name, err)
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return resolved, nil
	}
	return abs, nil
}
