// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package walk enumerates diagram documents below a set of root folders.
package walk

import (
	"errors"
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Options controls which files a Walker yields.
type Options struct {
	// Extension is matched as a case-sensitive suffix of the file name.
	Extension string
	// ExcludeFiles holds bare file names that are never yielded.
	ExcludeFiles []string
	// ExcludeFolders holds folder paths whose subtrees are skipped. Relative
	// entries are resolved against the working directory.
	ExcludeFolders []string
}

// Walker lists matching files on an afero filesystem.
type Walker struct {
	fs             afero.Fs
	ext            string
	excludeFiles   map[string]struct{}
	excludeFolders map[string]struct{}
}

// New returns a Walker over fsys configured by opts.
func New(fsys afero.Fs, opts Options) *Walker {
	w := &Walker{
		fs:             fsys,
		ext:            opts.Extension,
		excludeFiles:   make(map[string]struct{}, len(opts.ExcludeFiles)),
		excludeFolders: make(map[string]struct{}, len(opts.ExcludeFolders)),
	}
	for _, name := range opts.ExcludeFiles {
		w.excludeFiles[name] = struct{}{}
	}
	for _, dir := range opts.ExcludeFolders {
		w.excludeFolders[absPath(dir)] = struct{}{}
	}
	return w
}

// Files returns a lazy sequence of absolute paths of matching files under
// each root, in walk order. A walk error is yielded as ("", err); the
// consumer decides whether to keep ranging.
func (w *Walker) Files(roots ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, root := range roots {
			abs, err := filepath.Abs(root)
			if err != nil {
				if !yield("", err) {
					return
				}
				continue
			}
			if !w.walkRoot(abs, yield) {
				return
			}
		}
	}
}

// walkRoot walks one root and reports whether the consumer wants more.
func (w *Walker) walkRoot(root string, yield func(string, error) bool) bool {
	stopped := false
	err := afero.Walk(w.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if !yield("", err) {
				stopped = true
				return filepath.SkipAll
			}
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if w.folderExcluded(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.Match(path) {
			return nil
		}
		if !yield(path, nil) {
			stopped = true
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !stopped && !errors.Is(err, filepath.SkipDir) {
		return yield("", err)
	}
	return !stopped
}

// Match reports whether the file at path would be yielded, ignoring the
// folder exclusions.
func (w *Walker) Match(path string) bool {
	name := filepath.Base(path)
	if _, skip := w.excludeFiles[name]; skip {
		return false
	}
	return strings.HasSuffix(name, w.ext)
}

// absPath resolves dir against the working directory, as Files does for
// roots, so relative exclusions match the absolute paths being walked.
func absPath(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}

func (w *Walker) folderExcluded(path string) bool {
	_, skip := w.excludeFolders[filepath.Clean(path)]
	return skip
}
