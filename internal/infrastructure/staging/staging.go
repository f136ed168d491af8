// Package staging manages ephemeral local working directories for the
// pipeline. Staged bytes never outlive the request that created them.
package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/medassure/claims-backoffice/internal/core/ports"
)

// Workspace allocates uniquely named directories under a common root.
type Workspace struct {
	root string
}

func NewWorkspace(root string) (*Workspace, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	return &Workspace{root: root}, nil
}

func (w *Workspace) Acquire() (ports.StagingDir, error) {
	path := filepath.Join(w.root, uuid.NewString())
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Dir is one staging directory. Release removes it recursively and is
// safe to call on every exit path, including after partial cleanup.
type Dir struct {
	path string
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) FilePath(name string) string {
	return filepath.Join(d.path, filepath.Base(name))
}

func (d *Dir) Remove(name string) error {
	err := os.Remove(d.FilePath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

func (d *Dir) Release() error {
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("release staging dir: %w", err)
	}
	return nil
}
