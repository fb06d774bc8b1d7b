// Package discovery finds Markdown files to lint from a mix of explicit
// file paths, directories, and glob patterns, honoring .gitignore-style
// exclude files and explicit --exclude patterns.
package discovery

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

// DiscoveredFile represents a Markdown file discovered during file
// discovery.
type DiscoveredFile struct {
	// Path is the path to the file. For explicit file inputs, this
	// preserves the original path (relative or absolute). For discovered
	// files (from directories/globs), this is an absolute path.
	Path string

	// ConfigRoot is the directory to use for config file discovery,
	// typically the directory containing the file.
	ConfigRoot string
}

// Options configures file discovery behavior.
type Options struct {
	// Patterns are the glob patterns to match (default: DefaultPatterns()).
	// Supports doublestar patterns like "**/*.md".
	Patterns []string

	// ExcludePatterns are glob patterns to exclude from results, in
	// addition to whatever .gitignore-style files RespectGitignore loads.
	ExcludePatterns []string

	// RespectGitignore loads exclude patterns from .gitignore and
	// .rumdlignore files found between the filesystem root and each
	// discovered file, the way a VCS-aware tool does.
	RespectGitignore bool
}

// DefaultPatterns returns the default Markdown file patterns.
func DefaultPatterns() []string {
	return []string{
		"*.md",
		"*.markdown",
		"*.mdx",
	}
}

// ignoreFileNames are the possible names for Markdown-aware ignore files,
// checked in priority order alongside the VCS-standard .gitignore.
var ignoreFileNames = []string{".rumdlignore", ".gitignore"}

// Discover finds Markdown files matching the given inputs. Each input can
// be a specific file path, a directory (searched recursively with default
// patterns), or a glob pattern (expanded with doublestar).
//
// Results are deduplicated by absolute path and sorted.
func Discover(inputs []string, opts Options) ([]DiscoveredFile, error) {
	if len(opts.Patterns) == 0 {
		opts.Patterns = DefaultPatterns()
	}

	seen := make(map[string]bool)
	var results []DiscoveredFile

	for _, input := range inputs {
		discovered, err := discoverInput(input, opts, seen)
		if err != nil {
			return nil, err
		}
		results = append(results, discovered...)
	}

	slices.SortFunc(results, func(a, b DiscoveredFile) int {
		return cmp.Compare(a.Path, b.Path)
	})

	return results, nil
}

func discoverInput(input string, opts Options, seen map[string]bool) ([]DiscoveredFile, error) {
	if containsGlobChars(input) {
		return discoverGlob(input, opts, seen)
	}

	info, err := os.Stat(input)
	if err == nil {
		if info.IsDir() {
			return discoverDirectory(input, opts, seen)
		}
		return discoverFile(input, opts, seen)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	return discoverGlob(input, opts, seen)
}

func containsGlobChars(path string) bool {
	for _, c := range path {
		switch c {
		case '*', '?', '[', ']':
			return true
		}
	}
	return false
}

func discoverFile(path string, opts Options, seen map[string]bool) ([]DiscoveredFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	excluded, err := isExcluded(absPath, opts)
	if err != nil {
		return nil, err
	}
	if excluded || seen[absPath] {
		return nil, nil
	}
	seen[absPath] = true

	return []DiscoveredFile{{
		Path:       path,
		ConfigRoot: filepath.Dir(absPath),
	}}, nil
}

func discoverDirectory(dir string, opts Options, seen map[string]bool) ([]DiscoveredFile, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	var results []DiscoveredFile
	var patterns []string
	for _, pattern := range opts.Patterns {
		patterns = append(patterns,
			filepath.Join(absDir, "**", pattern),
			filepath.Join(absDir, pattern),
		)
	}

	for _, pattern := range patterns {
		discovered, err := globMatches(pattern, opts, seen)
		if err != nil {
			return nil, err
		}
		results = append(results, discovered...)
	}

	return results, nil
}

func globMatches(pattern string, opts Options, seen map[string]bool) ([]DiscoveredFile, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var results []DiscoveredFile
	for _, match := range matches {
		absPath, err := filepath.Abs(match)
		if err != nil {
			return nil, err
		}

		excluded, err := isExcluded(absPath, opts)
		if err != nil {
			return nil, err
		}
		if excluded || seen[absPath] {
			continue
		}
		seen[absPath] = true

		results = append(results, DiscoveredFile{
			Path:       absPath,
			ConfigRoot: filepath.Dir(absPath),
		})
	}

	return results, nil
}

func discoverGlob(pattern string, opts Options, seen map[string]bool) ([]DiscoveredFile, error) {
	return globMatches(pattern, opts, seen)
}

// isExcluded checks a path against opts.ExcludePatterns and, if requested,
// against every .gitignore/.rumdlignore file found between the filesystem
// root and the path's directory.
func isExcluded(absPath string, opts Options) (bool, error) {
	pathSlash := filepath.ToSlash(absPath)

	for _, pattern := range opts.ExcludePatterns {
		pattern = filepath.ToSlash(pattern)
		if !strings.HasPrefix(pattern, "/") && !strings.HasPrefix(pattern, "**/") {
			pattern = "**/" + pattern
		}
		if matched, err := doublestar.Match(pattern, pathSlash); err == nil && matched {
			return true, nil
		}
	}

	if !opts.RespectGitignore {
		return false, nil
	}

	patterns, err := loadIgnorePatterns(filepath.Dir(absPath))
	if err != nil {
		return false, err
	}
	if len(patterns) == 0 {
		return false, nil
	}

	pm, err := patternmatcher.New(patterns)
	if err != nil {
		return false, nil //nolint:nilerr // malformed ignore file disables exclusion, not discovery
	}
	matched, err := pm.MatchesOrParentMatches(filepath.Base(absPath))
	if err != nil {
		return false, nil //nolint:nilerr
	}
	return matched, nil
}

// loadIgnorePatterns walks up from dir collecting patterns from every
// .rumdlignore/.gitignore found, closest directory first.
func loadIgnorePatterns(dir string) ([]string, error) {
	var all []string
	for {
		for _, name := range ignoreFileNames {
			patterns, err := loadIgnoreFile(filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			all = append(all, patterns...)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return all, nil
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ignorefile.ReadAll(f)
}
