package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitgitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// DefaultExtensions are the component source files rewritten by default.
var DefaultExtensions = []string{".tsx", ".jsx"}

// Options controls how the source tree is walked.
type Options struct {
	Extensions     []string
	Gitignore      bool
	FollowSymlinks bool
}

// Error is a non-fatal problem met while walking a subdirectory.
type Error struct {
	Locator string
	Err     error
}

func (e Error) Error() string { return fmt.Sprintf("%s: %v", e.Locator, e.Err) }

func (e Error) Unwrap() error { return e.Err }

func extensions(opts Options) []string {
	if len(opts.Extensions) == 0 {
		return DefaultExtensions
	}
	out := make([]string, 0, len(opts.Extensions))
	for _, e := range opts.Extensions {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// hasExtension reports whether name ends with one of exts.
func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// dirsForRel returns the list of directories from "." to the directory of rel.
func dirsForRel(rel string) []string {
	dir := filepath.Dir(rel)
	parts := []string{}
	if dir != "." {
		parts = strings.Split(dir, string(os.PathSeparator))
	}
	cur := "."
	dirs := []string{"."}
	for _, part := range parts {
		if cur == "." {
			cur = part
		} else {
			cur = filepath.Join(cur, part)
		}
		dirs = append(dirs, cur)
	}
	return dirs
}

var readFile = os.ReadFile

// gitignoreCache holds the parsed .gitignore patterns of each directory,
// keyed by root-relative path, so every file is read at most once per walk.
type gitignoreCache struct {
	absRoot string
	byDir   map[string][]gitgitignore.Pattern
}

func newGitignoreCache(absRoot string) *gitignoreCache {
	return &gitignoreCache{absRoot: absRoot, byDir: map[string][]gitgitignore.Pattern{}}
}

func (c *gitignoreCache) patterns(dir string) []gitgitignore.Pattern {
	if ps, ok := c.byDir[dir]; ok {
		return ps
	}
	var ps []gitgitignore.Pattern
	b, err := readFile(filepath.Join(c.absRoot, dir, ".gitignore"))
	if err == nil {
		base := []string{}
		if dir != "." && dir != "" {
			base = strings.Split(filepath.ToSlash(dir), "/")
		}
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			ps = append(ps, gitgitignore.ParsePattern(line, base))
		}
	}
	c.byDir[dir] = ps
	return ps
}

// ignored reports whether rel matches the .gitignore files of its ancestors.
// A nil cache means gitignore support is off.
func (c *gitignoreCache) ignored(rel string, isDir bool) bool {
	if c == nil || rel == "." || rel == "" {
		return false
	}
	var patterns []gitgitignore.Pattern
	for _, d := range dirsForRel(rel) {
		patterns = append(patterns, c.patterns(d)...)
	}
	if len(patterns) == 0 {
		return false
	}
	return gitgitignore.NewMatcher(patterns).Match(strings.Split(rel, string(os.PathSeparator)), isDir)
}

func locator(absRoot, p string) string {
	rel, err := filepath.Rel(absRoot, p)
	if err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(p)
}

// Find walks root and returns sorted slash-separated paths, relative to root,
// of every regular file with a matching extension. Problems below the root
// are collected and the walk goes on; a root that cannot be read is fatal.
func Find(root string, opts Options) ([]string, []error, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%s: not a directory", root)
	}

	exts := extensions(opts)
	var softErrs []error
	found := map[string]struct{}{}
	visited := map[string]struct{}{}
	var gi *gitignoreCache
	if opts.Gitignore {
		gi = newGitignoreCache(absRoot)
	}

	var walkDir func(string) error
	walkDir = func(dirPath string) error {
		canon, err := filepath.EvalSymlinks(dirPath)
		if err != nil {
			return err
		}
		if _, ok := visited[canon]; ok {
			return nil
		}
		visited[canon] = struct{}{}

		entries, err := os.ReadDir(dirPath)
		if err != nil {
			return err
		}
		for _, ent := range entries {
			child := filepath.Join(dirPath, ent.Name())
			rel, err := filepath.Rel(absRoot, child)
			if err != nil {
				softErrs = append(softErrs, Error{Locator: locator(absRoot, child), Err: err})
				continue
			}
			info, err := os.Lstat(child)
			if err != nil {
				softErrs = append(softErrs, Error{Locator: locator(absRoot, child), Err: err})
				continue
			}
			isDir := info.IsDir()
			if info.Mode()&os.ModeSymlink != 0 {
				target, err := os.Stat(child)
				if err != nil {
					softErrs = append(softErrs, Error{Locator: locator(absRoot, child), Err: err})
					continue
				}
				if target.IsDir() {
					if !opts.FollowSymlinks {
						continue
					}
					isDir = true
				} else if !target.Mode().IsRegular() {
					continue
				}
			} else if !isDir && !info.Mode().IsRegular() {
				continue
			}

			if gi.ignored(rel, isDir) {
				continue
			}
			if isDir {
				if err := walkDir(child); err != nil {
					softErrs = append(softErrs, Error{Locator: locator(absRoot, child), Err: err})
				}
				continue
			}
			if hasExtension(ent.Name(), exts) {
				found[filepath.ToSlash(rel)] = struct{}{}
			}
		}
		return nil
	}

	if err := walkDir(absRoot); err != nil {
		return nil, nil, err
	}

	files := make([]string, 0, len(found))
	for f := range found {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, softErrs, nil
}
