package review

import (
	"strings"

	"github.com/patchlens/patchlens/internal/domain"
)

// FilterOptions controls which changed files are analyzed.
type FilterOptions struct {
	// MaxPatchSize drops files whose raw patch exceeds this many bytes.
	// Zero disables the check.
	MaxPatchSize int

	// MaxFiles caps how many files survive filtering. Zero disables the cap.
	MaxFiles int

	// IncludeExtensions keeps only files whose path ends with one of these
	// suffixes. Empty keeps every extension.
	IncludeExtensions []string

	// ExcludeDirectories drops files whose path contains one of these
	// segments anywhere.
	ExcludeDirectories []string

	// ExcludePaths drops files whose path matches one of these prefixes.
	// Sourced from the repository's review rules file.
	ExcludePaths []string
}

// FilterFiles applies the analysis filters in order: excluded directories,
// excluded path prefixes, extension allowlist, patch size, then the file
// cap. Input order is preserved.
func FilterFiles(files []domain.FileChange, opts FilterOptions) []domain.FileChange {
	filtered := make([]domain.FileChange, 0, len(files))

	for _, file := range files {
		if inExcludedDirectory(file.Path, opts.ExcludeDirectories) {
			continue
		}
		if matchesExcludedPath(file.Path, opts.ExcludePaths) {
			continue
		}
		if !hasIncludedExtension(file.Path, opts.IncludeExtensions) {
			continue
		}
		if opts.MaxPatchSize > 0 && len(file.Patch) > opts.MaxPatchSize {
			continue
		}

		filtered = append(filtered, file)

		if opts.MaxFiles > 0 && len(filtered) >= opts.MaxFiles {
			break
		}
	}

	return filtered
}

func inExcludedDirectory(path string, dirs []string) bool {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if strings.Contains(path, dir) {
			return true
		}
	}
	return false
}

func matchesExcludedPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func hasIncludedExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	for _, ext := range extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
