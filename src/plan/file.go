package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"citriage/src/fsutil"
)

const filePattern = "plan-*.json"

// FileStore keeps each plan in its own JSON file under a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory plans are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes p to <dir>/<id>.json atomically, assigning an ID if p has none.
func (s *FileStore) Save(ctx context.Context, p *Plan) (Handle, error) {
	if p.ID == "" {
		p.ID = NewID(time.Now())
	}
	if p.Version == 0 {
		p.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode plan: %w", err)
	}

	path := filepath.Join(s.dir, p.ID+".json")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("plan %s already exists", path)
	}
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write plan: %w", err)
	}
	return Handle(path), nil
}

// Load reads a plan by file path or by ID.
func (s *FileStore) Load(ctx context.Context, h Handle) (*Plan, error) {
	return readPlanFile(s.pathFor(h))
}

func (s *FileStore) pathFor(h Handle) string {
	v := string(h)
	if strings.ContainsRune(v, filepath.Separator) || strings.HasSuffix(v, ".json") {
		return v
	}
	return filepath.Join(s.dir, v+".json")
}

// Latest returns the plan with the newest modification time.
func (s *FileStore) Latest(ctx context.Context) (*Plan, Handle, error) {
	files, err := s.files()
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("%w in %s (run 'citriage plan' first)", ErrNoPlan, s.dir)
	}

	p, err := readPlanFile(files[0].path)
	if err != nil {
		return nil, "", err
	}
	return p, Handle(files[0].path), nil
}

// List returns every readable plan, newest first. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		p, err := readPlanFile(f.path)
		if err != nil {
			continue
		}
		entries = append(entries, entryOf(Handle(f.path), p))
	}
	return entries, nil
}

func (s *FileStore) Close() error {
	return nil
}

type planFile struct {
	path    string
	modTime time.Time
}

// files lists plan files newest first. Equal mtimes fall back to name
// order, which follows creation time.
func (s *FileStore) files() ([]planFile, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, filePattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	files := make([]planFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, planFile{path: m, modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].path > files[j].path
	})
	return files, nil
}

func readPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoPlan, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plan %s: %w", path, err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptPlan, path, err)
	}
	return &p, nil
}
