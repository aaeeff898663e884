// Package security guards the one filesystem input this service trusts a
// caller with: the path to a tuning configuration file passed via
// cmd/screener's -config flag.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks if a file path is within a safe directory.
// It prevents path traversal attacks by ensuring the resolved path doesn't escape
// the specified safe directory.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	// Clean the path to resolve . and .. components
	cleanPath := filepath.Clean(filePath)

	// Get absolute paths for proper validation
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absSafeDir, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve safe directory path: %w", err)
	}

	if r, err := filepath.EvalSymlinks(absSafeDir); err == nil {
		absSafeDir = r
	}
	// Resolve symlinks in the longest existing prefix of the path, so a
	// link inside safeDir cannot lead outside it.
	for prefix, rest := absPath, ""; filepath.Dir(prefix) != prefix; prefix, rest = filepath.Dir(prefix), filepath.Join(filepath.Base(prefix), rest) {
		if r, err := filepath.EvalSymlinks(prefix); err == nil {
			absPath = filepath.Join(r, rest)
			break
		}
	}

	// Check if path is within safe directory
	relPath, err := filepath.Rel(absSafeDir, absPath)
	if err != nil {
		return fmt.Errorf("path is outside safe directory: %w", err)
	}

	// Reject paths that escape the safe directory
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, safeDir)
	}

	return nil
}

// ValidatePathWithinAllowedDirs checks if a file path is within any of the
// allowed directories. config.Load calls this with the working directory
// and the OS temp directory (the latter so test fixtures under t.TempDir()
// validate cleanly).
func ValidatePathWithinAllowedDirs(filePath string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}

	for _, dir := range allowedDirs {
		if err := ValidatePathWithinDirectory(filePath, dir); err == nil {
			return nil // Path is valid within this directory
		}
	}

	// Path is not within any allowed directory
	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}
