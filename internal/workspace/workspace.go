// Package workspace provides the flat scratch namespace the transcoding
// engine works in, with a directory-backed and an in-memory implementation.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Workspace is a flat namespace of named blobs.
type Workspace interface {
	// WriteFile creates or replaces name.
	WriteFile(name string, data []byte) error
	// ReadFile returns the contents of name.
	ReadFile(name string) ([]byte, error)
	// Remove deletes name. Removing a missing name returns an error
	// matching fs.ErrNotExist.
	Remove(name string) error
	// Exists reports whether name is present.
	Exists(name string) bool
	// Names lists every present name in lexical order.
	Names() ([]string, error)
}

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid workspace name %q", name)
	}
	return nil
}

// Dir is a Workspace rooted at a directory on disk.
type Dir struct {
	root string
}

// NewDir uses root as the workspace directory, creating it if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

// NewTempDir creates a fresh uniquely named workspace under parent.
func NewTempDir(parent string) (*Dir, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	return NewDir(filepath.Join(parent, "hoopreel-"+uuid.NewString()))
}

// Root returns the workspace directory.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the on-disk path of name.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, name)
}

// WriteFile writes data to name.
func (d *Dir) WriteFile(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	return os.WriteFile(d.Path(name), data, 0o644)
}

// ReadFile reads name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return os.ReadFile(d.Path(name))
}

// Remove deletes name.
func (d *Dir) Remove(name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	return os.Remove(d.Path(name))
}

// Exists reports whether name is present.
func (d *Dir) Exists(name string) bool {
	if checkName(name) != nil {
		return false
	}
	_, err := os.Stat(d.Path(name))
	return err == nil
}

// Names lists the regular files in the workspace.
func (d *Dir) Names() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close removes the workspace directory and everything in it.
func (d *Dir) Close() error {
	return os.RemoveAll(d.root)
}

// Memory is an in-memory Workspace for tests.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates an empty in-memory workspace.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// WriteFile stores a copy of data under name.
func (m *Memory) WriteFile(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = append([]byte(nil), data...)
	return nil
}

// ReadFile returns a copy of name.
func (m *Memory) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Remove deletes name.
func (m *Memory) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

// Exists reports whether name is present.
func (m *Memory) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok
}

// Names lists every stored name.
func (m *Memory) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.files))
	for name := range m.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// IsNotExist reports whether err means the name was already gone.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
