// Package archive moves previous output files aside before a new run
// overwrites them.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const stampLayout = "20060102T150405"

// Archiver moves files into a single directory, stamping each name with
// the file's modification time.
type Archiver struct {
	dir string
}

func New(dir string) *Archiver {
	return &Archiver{dir: dir}
}

// Archive moves every existing path to <dir>/<base>.<mtime><ext> and
// returns the new locations. Missing paths are skipped. A name that is
// already taken gets a numeric suffix.
func (a *Archiver) Archive(paths ...string) ([]string, error) {
	var moved []string
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return moved, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		if err := os.MkdirAll(a.dir, 0755); err != nil {
			return moved, fmt.Errorf("failed to create archive directory: %w", err)
		}

		dest, err := a.destination(path, info)
		if err != nil {
			return moved, err
		}
		if err := os.Rename(path, dest); err != nil {
			return moved, fmt.Errorf("failed to archive %s: %w", path, err)
		}
		moved = append(moved, dest)
	}
	return moved, nil
}

func (a *Archiver) destination(path string, info fs.FileInfo) (string, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := info.ModTime().Format(stampLayout)

	candidate := filepath.Join(a.dir, fmt.Sprintf("%s.%s%s", stem, stamp, ext))
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = filepath.Join(a.dir, fmt.Sprintf("%s.%s-%d%s", stem, stamp, n, ext))
	}
}
