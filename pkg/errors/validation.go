package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateObjectName validates an object name for safety and correctness.
// Object names become name-table entries and file diagnostics, so the rules
// are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No reference separator (:)
//   - Maximum length of 256 characters
func ValidateObjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "object name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "object name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "object name contains control characters")
		}
	}

	if strings.ContainsAny(name, ":\x00") {
		return New(ErrCodeInvalidName, "object name contains reserved characters: %q", name)
	}

	return nil
}

// containerNameRegex matches valid container names: slash-separated path
// segments of word characters, dots, and dashes.
var containerNameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*$`)

// ValidateContainerName validates a container name. Container names are
// path-like ("game/props") but must stay relative and traversal-free since
// loaders map them onto mount points.
func ValidateContainerName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "container name cannot be empty")
	}

	if len(name) > 500 {
		return New(ErrCodeInvalidName, "container name too long (max 500 characters)")
	}

	if strings.HasPrefix(name, "/") {
		return New(ErrCodeInvalidName, "container name must be relative: %q", name)
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "container name cannot contain traversal sequences: %q", name)
	}

	if !containerNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid container name: %q", name)
	}

	return nil
}

// ValidateManifestPath validates a manifest file path for the CLI.
// It ensures the path has a .toml extension and no null bytes.
func ValidateManifestPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidManifest, "manifest path cannot be empty")
	}

	if strings.Contains(path, "\x00") {
		return New(ErrCodeInvalidManifest, "manifest path contains invalid characters")
	}

	if !strings.HasSuffix(path, ".toml") {
		return New(ErrCodeInvalidManifest, "manifest must be a .toml file: %q", path)
	}

	return nil
}
