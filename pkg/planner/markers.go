package planner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Durable marker keys. These survive process restarts the way the web client's
// localStorage entries survive reloads. None of them is a security boundary.
const (
	// MarkerSignedIn gates UI-level redirects away from sign-in pages.
	MarkerSignedIn = "isSignedIn"
	// MarkerPersist controls whether silent session restoration runs at
	// startup.
	MarkerPersist = "persist"
	// MarkerLastProject remembers the last opened project; cleared on
	// sign-out and on refresh failing with an authorization error.
	MarkerLastProject = "last_project"
	// MarkerExpiryAlerted suppresses repeating the one-time session-expiry
	// notice.
	MarkerExpiryAlerted = "session_expiry_alerted"
)

// Markers is durable client-side key-value state.
type Markers interface {
	Get(key string) string
	Set(key string, value string) error
	Delete(key string) error
}

// FileMarkers stores markers as a JSON file, written on every mutation.
type FileMarkers struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

func NewFileMarkers(path string) (*FileMarkers, error) {
	m := &FileMarkers{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &m.values); err != nil {
			// A corrupt marker file means a fresh start, not a failure.
			m.values = map[string]string{}
		}
	}
	return m, nil
}

func (m *FileMarkers) Get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *FileMarkers) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return m.saveLocked()
}

func (m *FileMarkers) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return nil
	}
	delete(m.values, key)
	return m.saveLocked()
}

func (m *FileMarkers) saveLocked() error {
	data, err := json.Marshal(m.values)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(m.path, data, 0o600)
}

// MemoryMarkers is an in-memory Markers for tests and ephemeral sessions.
type MemoryMarkers struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryMarkers() *MemoryMarkers {
	return &MemoryMarkers{values: map[string]string{}}
}

func (m *MemoryMarkers) Get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key]
}

func (m *MemoryMarkers) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryMarkers) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// PersistEnabled reports whether silent restoration should run at startup.
func PersistEnabled(m Markers) bool {
	return m.Get(MarkerPersist) == "true"
}
