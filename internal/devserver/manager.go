package devserver

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultDatabase is created on first start when the data directory holds no
// database files.
const DefaultDatabase = "issues.db"

// activeMarker is the file in the data directory recording which database
// is active across restarts.
const activeMarker = "ACTIVE"

// Manager owns the data directory of SQLite database files and the single
// open store for the active database. All mutating operations are
// serialized; handler goroutines share the manager.
type Manager struct {
	dir string

	mu     sync.Mutex
	active string
	store  *Store
}

// withDBExt normalizes a database name to its on-disk ".db" form.
func withDBExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".db") {
		return name
	}
	return name + ".db"
}

// NewManager opens the data directory, creating it and a default database
// when empty, and activates the database named by the marker file (falling
// back to the first database found).
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	m := &Manager{dir: dir}

	names, err := m.databaseNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = []string{DefaultDatabase}
	}

	active := names[0]
	if data, err := os.ReadFile(filepath.Join(dir, activeMarker)); err == nil {
		marked := strings.TrimSpace(string(data))
		for _, name := range names {
			if name == marked {
				active = marked
				break
			}
		}
	}

	if err := m.activate(active); err != nil {
		return nil, err
	}
	return m, nil
}

// Store returns the store for the active database.
func (m *Manager) Store() *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store
}

// Active returns the active database name.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// List returns all database names with the active one marked, active first
// then alphabetical.
func (m *Manager) List() ([]Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.databaseNames()
	if err != nil {
		return nil, err
	}
	dbs := make([]Database, 0, len(names))
	for _, name := range names {
		dbs = append(dbs, Database{Name: name, Active: name == m.active})
	}
	sort.Slice(dbs, func(i, j int) bool {
		if dbs[i].Active != dbs[j].Active {
			return dbs[i].Active
		}
		return dbs[i].Name < dbs[j].Name
	})
	return dbs, nil
}

// Database is one managed database file.
type Database struct {
	Name   string
	Active bool
}

// Create makes a new empty database file. Creating does not switch to it.
func (m *Manager) Create(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = withDBExt(name)
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("database already exists: %s", name)
	}
	store, err := OpenStore(path)
	if err != nil {
		return fmt.Errorf("create database %s: %w", name, err)
	}
	return store.Close()
}

// Delete removes a database file. The active database cannot be deleted.
func (m *Manager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = withDBExt(name)
	if name == m.active {
		return fmt.Errorf("cannot delete the active database: %s", name)
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("database not found: %s", name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database %s: %w", name, err)
	}
	// WAL sidecars are advisory; ignore removal failures.
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	return nil
}

// Switch makes the named database active, closing the previous store.
func (m *Manager) Switch(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = withDBExt(name)
	if name == m.active {
		return nil
	}
	if _, err := os.Stat(filepath.Join(m.dir, name)); err != nil {
		return fmt.Errorf("database not found: %s", name)
	}
	return m.activate(name)
}

// Rename moves a database file. Renaming the active database keeps it
// active under its new name.
func (m *Manager) Rename(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldName = withDBExt(oldName)
	newName = withDBExt(newName)
	if oldName == newName {
		return nil
	}

	oldPath := filepath.Join(m.dir, oldName)
	newPath := filepath.Join(m.dir, newName)
	if _, err := os.Stat(oldPath); err != nil {
		return fmt.Errorf("database not found: %s", oldName)
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("database already exists: %s", newName)
	}

	wasActive := oldName == m.active
	if wasActive && m.store != nil {
		if err := m.store.Close(); err != nil {
			return fmt.Errorf("close active database: %w", err)
		}
		m.store = nil
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename database: %w", err)
	}

	if wasActive {
		return m.activate(newName)
	}
	return nil
}

// Close closes the active store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}

// activate opens the named database and records it in the marker file.
// Callers hold m.mu.
func (m *Manager) activate(name string) error {
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			return fmt.Errorf("close previous database: %w", err)
		}
		m.store = nil
	}

	store, err := OpenStore(filepath.Join(m.dir, name))
	if err != nil {
		return fmt.Errorf("open database %s: %w", name, err)
	}
	m.store = store
	m.active = name

	if err := os.WriteFile(filepath.Join(m.dir, activeMarker), []byte(name+"\n"), 0o644); err != nil {
		return fmt.Errorf("write active marker: %w", err)
	}
	return nil
}

// databaseNames lists *.db files in the data directory. Callers hold m.mu
// (or the manager is not yet shared).
func (m *Manager) databaseNames() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".db") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
