package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Workspace is a private scratch directory for one extraction request.
// Uploaded files, rasterized pages and preprocessed images all live in it,
// and Close removes the whole tree.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh directory under parent. An empty parent
// means os.TempDir().
func NewWorkspace(parent string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o700); err != nil {
			return nil, fmt.Errorf("create temp root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "cardiolens-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace, dropping any directory components
// so a client supplied filename cannot escape it.
func (w *Workspace) Path(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		base = "upload"
	}
	return filepath.Join(w.dir, base)
}

// Save copies r into the workspace under name and returns the file path.
func (w *Workspace) Save(name string, r io.Reader) (string, error) {
	path := w.Path(name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	return os.RemoveAll(w.dir)
}
