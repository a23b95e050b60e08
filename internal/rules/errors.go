package rules

import "errors"

// Sentinel errors for rule set operations.
var (
	// ErrDuplicateSuffix indicates the suffix already exists in the profile (case-insensitive).
	ErrDuplicateSuffix = errors.New("duplicate suffix")
	// ErrEmptySuffix indicates an empty suffix, which is reserved for the implicit default rule.
	ErrEmptySuffix = errors.New("suffix must not be empty")
	// ErrEmptyProfile indicates the profile has no user rules to remove.
	ErrEmptyProfile = errors.New("profile has no rules")
	// ErrUnknownProfile indicates a profile name that does not exist.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrDuplicateProfile indicates a profile name that already exists.
	ErrDuplicateProfile = errors.New("profile already exists")
	// ErrProtectedProfile indicates an attempt to delete the built-in Default profile.
	ErrProtectedProfile = errors.New("profile cannot be deleted")
	// ErrUnknownFormat indicates an unsupported output format name.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUnknownRule indicates a suffix with no rule in the profile.
	ErrUnknownRule = errors.New("unknown rule")
)
