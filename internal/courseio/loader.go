package courseio

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/academy-dev/academy/internal/curriculum"
)

// Loader imports every course file under a directory and keeps the results
// keyed by their path relative to the root.
type Loader struct {
	rootDir string
	courses map[string]curriculum.Course
	skipped map[string]error
	mu      sync.RWMutex
}

// NewLoader walks rootDir and imports all .json, .yaml and .yml files.
// Files that fail validation are skipped with a warning.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		courses: make(map[string]curriculum.Course),
		skipped: make(map[string]error),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading courses: %w", err)
	}

	slog.Info("course files loaded", "dir", rootDir, "courses", len(l.courses), "skipped", len(l.skipped))
	return l, nil
}

// Course returns the course imported from a relative path.
func (l *Loader) Course(rel string) (curriculum.Course, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.courses[filepath.ToSlash(rel)]
	return c, ok
}

// Paths returns the relative paths of all imported courses, sorted.
func (l *Loader) Paths() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	paths := make([]string, 0, len(l.courses))
	for p := range l.courses {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Skipped returns the files that could not be imported and why.
func (l *Loader) Skipped() map[string]error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]error, len(l.skipped))
	for k, v := range l.skipped {
		out[k] = v
	}
	return out
}

func (l *Loader) loadAll() error {
	return filepath.WalkDir(l.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != l.rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			l.loadCourse(path)
		}
		return nil
	})
}

func (l *Loader) loadCourse(path string) {
	rel, err := filepath.Rel(l.rootDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	c, err := ImportFile(path)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		slog.Warn("skipping invalid course file", "path", path, "error", err)
		l.skipped[rel] = err
		return
	}
	l.courses[rel] = c
}
