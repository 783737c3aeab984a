// Package scratch provides a per-request working directory that is removed
// on every exit path.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"Slidecast/logger"

	"github.com/google/uuid"
)

// Workspace is a uniquely named directory under a base scratch directory.
type Workspace struct {
	dir       string
	closeOnce sync.Once
	closeErr  error
}

// New creates a fresh workspace. An empty baseDir uses os.TempDir().
func New(baseDir string) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create scratch base %s: %w", baseDir, err)
	}

	dir := filepath.Join(baseDir, "slidecast-"+uuid.NewString())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("resolve scratch dir: %w", err)
	}
	return &Workspace{dir: abs}, nil
}

// Dir is the absolute workspace path.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the absolute path of name inside the workspace. Only the base
// name is used, so callers cannot escape the directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// WriteFile stores data under name and returns its absolute path.
func (w *Workspace) WriteFile(name string, data []byte) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write scratch file %s: %w", name, err)
	}
	return path, nil
}

// ReadFile reads a file back out of the workspace.
func (w *Workspace) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(w.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read scratch file %s: %w", name, err)
	}
	return data, nil
}

// Close removes the workspace and everything in it. It is safe to call more
// than once.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = os.RemoveAll(w.dir)
		if w.closeErr != nil {
			logger.Warn("Failed to remove scratch dir", logger.String("dir", w.dir), logger.ErrorField(w.closeErr))
		} else {
			logger.Debug("Removed scratch dir", logger.String("dir", w.dir))
		}
	})
	return w.closeErr
}
