package vfs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled file name glob such as "*.aex" or "Adobe After Effects*".
//
// Matching is case-insensitive and applies to a single path element, the way
// Windows directory enumeration treats search patterns.
type Pattern struct {
	source string
	g      glob.Glob
}

// CompilePattern compiles a name glob. An empty pattern matches everything.
func CompilePattern(pattern string) (*Pattern, error) {
	if pattern == "" {
		pattern = "*"
	}
	g, err := glob.Compile(strings.ToLower(pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Pattern{source: pattern, g: g}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(pattern string) *Pattern {
	p, err := CompilePattern(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches the pattern. A nil pattern matches everything.
func (p *Pattern) Match(name string) bool {
	if p == nil {
		return true
	}
	return p.g.Match(strings.ToLower(name))
}

// String returns the source pattern.
func (p *Pattern) String() string {
	if p == nil {
		return "*"
	}
	return p.source
}

// Dirs returns the immediate subdirectories of dir whose name matches pattern,
// in the order ReadDir yields them.
func Dirs(fsys VFS, dir string, pattern *Pattern) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && pattern.Match(e.Name()) {
			dirs = append(dirs, e.Path())
		}
	}
	return dirs, nil
}

// Files returns the regular files under dir whose name matches pattern.
//
// When recursive is false only the immediate children of dir are considered.
// A recursive search is best effort: an unreadable subdirectory is skipped and
// its error is included in the returned error while the remaining matches are
// still returned.
func Files(fsys VFS, dir string, pattern *Pattern, recursive bool) ([]string, error) {
	if !recursive {
		entries, err := fsys.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() && pattern.Match(e.Name()) {
				files = append(files, e.Path())
			}
		}
		return files, nil
	}

	var (
		files []string
		errs  []error
	)
	err := fsys.WalkDir(dir, func(p string, info FileInfo, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			errs = append(errs, err)
			return nil
		}
		if !info.IsDir() && pattern.Match(info.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, errors.Join(errs...)
}
