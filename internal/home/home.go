// Package home manages the stitch home directory and the lifecycle of
// per-run temporary files.
package home

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// DefaultDirName is the default name for the stitch home directory.
	DefaultDirName = ".stitch"

	// WorkDirName is the subdirectory holding per-run scratch files.
	WorkDirName = "work"

	// ConfigFileName is the default config file name.
	ConfigFileName = "stitch.yaml"
)

// Dir represents the stitch home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.stitch).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// WorkPath returns the path to the scratch directory.
func (d *Dir) WorkPath() string {
	return filepath.Join(d.path, WorkDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't
// exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.WorkPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}
	return nil
}

// Workspace tracks the temporary files of one compilation run. Every path
// it hands out is removed by Cleanup unless the workspace is kept.
type Workspace struct {
	dir   *Dir
	runID string
	keep  bool
	paths []string
}

// NewWorkspace creates a workspace for a single run. When keep is true,
// Cleanup leaves all files behind for debugging.
func NewWorkspace(dir *Dir, keep bool) (*Workspace, error) {
	if err := dir.EnsureExists(); err != nil {
		return nil, err
	}
	return &Workspace{dir: dir, runID: uuid.New().String(), keep: keep}, nil
}

// RunID returns the unique identifier of this run.
func (w *Workspace) RunID() string {
	return w.runID
}

// TempPath returns a fresh scratch path with the given label and extension.
// The file is not created; callers own creation and the workspace owns
// removal.
func (w *Workspace) TempPath(label, ext string) string {
	name := fmt.Sprintf("%s-%s-%s%s", w.runID[:8], label, uuid.New().String()[:8], ext)
	p := filepath.Join(w.dir.WorkPath(), name)
	w.paths = append(w.paths, p)
	return p
}

// Kept reports whether temp files survive Cleanup.
func (w *Workspace) Kept() bool {
	return w.keep
}

// Cleanup removes every temp path handed out, unless keep was set.
// Missing files are ignored; a path may never have been created.
func (w *Workspace) Cleanup() {
	if w.keep {
		return
	}
	for _, p := range w.paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			// Best effort; scratch files in the work dir are harmless.
			continue
		}
	}
	w.paths = nil
}
