package analysis

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semlint/source"
)

// ResolveOptions controls file discovery.
type ResolveOptions struct {
	// Registry decides which extensions are analyzable. Nil uses
	// source.DefaultRegistry.
	Registry *source.Registry

	// Include restricts discovery to paths matching any of these glob
	// patterns. Empty includes every supported file.
	Include []string

	// Exclude drops paths matching any of these glob patterns.
	Exclude []string
}

// ResolveFiles expands the arguments into a sorted, deduplicated list
// of analyzable files. Each argument may be a file, a directory walked
// recursively, or a glob pattern with * and ** wildcards.
func ResolveFiles(args []string, opts ResolveOptions) ([]string, error) {
	registry := opts.Registry
	if registry == nil {
		registry = source.DefaultRegistry
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, arg := range args {
		matches, err := resolveArg(arg, registry, opts)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", arg, err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// resolveArg expands one argument to matching files.
func resolveArg(arg string, registry *source.Registry, opts ResolveOptions) ([]string, error) {
	if strings.ContainsAny(arg, "*?[") {
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if info.IsDir() {
				walked, err := walkDir(match, registry, opts)
				if err != nil {
					return nil, err
				}
				files = append(files, walked...)
				continue
			}
			if analyzable(match, registry, opts) {
				files = append(files, match)
			}
		}
		return files, nil
	}

	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return walkDir(arg, registry, opts)
	}

	// An explicitly named file skips the include and exclude filters
	// but still needs a registered frontend.
	ext := strings.ToLower(filepath.Ext(arg))
	if _, ok := registry.LanguageForExtension(ext); !ok {
		return nil, fmt.Errorf("no frontend registered for extension %q", ext)
	}
	return []string{arg}, nil
}

// walkDir collects analyzable files below root, skipping generated and
// third-party directories.
func walkDir(root string, registry *source.Registry, opts ResolveOptions) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if source.SkipDirName(entry.Name()) && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if analyzable(path, registry, opts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// analyzable applies the extension, include, and exclude filters.
func analyzable(path string, registry *source.Registry, opts ResolveOptions) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := registry.LanguageForExtension(ext); !ok {
		return false
	}

	slashed := filepath.ToSlash(path)
	if len(opts.Include) > 0 && !matchAnyPattern(opts.Include, slashed) {
		return false
	}
	if matchAnyPattern(opts.Exclude, slashed) {
		return false
	}
	return true
}

// matchAnyPattern matches a slash-separated path against glob
// patterns. A pattern without a separator is matched against the base
// name so "*_test.go" excludes test files at any depth.
func matchAnyPattern(patterns []string, slashed string) bool {
	base := filepath.Base(slashed)
	for _, pattern := range patterns {
		target := slashed
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
