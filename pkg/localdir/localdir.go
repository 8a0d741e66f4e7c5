// Package localdir lists local directory contents with the attributes the
// mirroring engine needs to compare a local tree against a remote store.
package localdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Entry describes a single file or directory relative to the listed root.
type Entry struct {
	// Path is the slash-separated path relative to the listed directory.
	Path    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Options control directory listing behavior.
type Options struct {
	// Recursive descends into subdirectories.
	Recursive bool

	// ExcludeDirs lists only files, not directories.
	ExcludeDirs bool

	// IncludeHidden includes entries with any path segment starting with a
	// dot.
	IncludeHidden bool
}

// List returns the entries of dir on the given filesystem, sorted by path.
// The root itself is not included. A missing or non-directory root is an
// error.
func List(fsys afero.Fs, dir string, opts Options) ([]Entry, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var entries []Entry
	collect := func(relPath string, info os.FileInfo) {
		if info.IsDir() && opts.ExcludeDirs {
			return
		}
		if !opts.IncludeHidden && isHidden(relPath) {
			return
		}
		entries = append(entries, Entry{
			Path:    relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		})
	}

	if opts.Recursive {
		err = afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			collect(filepath.ToSlash(rel), info)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
		}
	} else {
		infos, err := afero.ReadDir(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", dir, err)
		}
		for _, info := range infos {
			collect(info.Name(), info)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// isHidden reports whether any segment of a relative slash path starts with
// a dot.
func isHidden(relPath string) bool {
	for _, segment := range strings.Split(relPath, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
