package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDirectory checks that a file path stays inside the given
// directory once cleaned and resolved. It rejects traversal via .. components
// and symlinked parents, so a user-supplied file name cannot escape the
// directory it is joined onto.
func ValidatePathWithinDirectory(filePath, dir string) error {
	cleanPath := filepath.Clean(filePath)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory path: %w", err)
	}

	// Resolve symlinks to canonical paths. EvalSymlinks fails for paths that
	// do not exist yet, so for a not-yet-created file we canonicalize the
	// nearest existing parent and rejoin the remainder.
	canonicalPath := absPath
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		canonicalPath = resolved
	} else {
		checkPath := absPath
		for {
			parent := filepath.Dir(checkPath)
			if parent == checkPath {
				break
			}
			if resolved, err := filepath.EvalSymlinks(parent); err == nil {
				relToParent, _ := filepath.Rel(parent, absPath)
				canonicalPath = filepath.Join(resolved, relToParent)
				break
			}
			checkPath = parent
		}
	}

	canonicalDir, err := filepath.EvalSymlinks(absDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}

	relPath, err := filepath.Rel(canonicalDir, canonicalPath)
	if err != nil {
		return fmt.Errorf("path is outside target directory: %w", err)
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || filepath.IsAbs(relPath) {
		return fmt.Errorf("path traversal detected: %s attempts to escape %s", filePath, dir)
	}

	return nil
}
