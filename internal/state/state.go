// Package state persists the uploader's phase/cycle counters across power-downs.
package state

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sweeney/range-sensor/internal/logic"
)

// Store loads and saves the persisted counters.
type Store interface {
	Load() (logic.PersistentState, error)
	Save(logic.PersistentState) error
}

// recordSize is the fixed on-disk layout: uint32 wake count, uint8 phase.
const recordSize = 5

// Encode returns the fixed little-endian layout of s.
func Encode(s logic.PersistentState) []byte {
	b := make([]byte, recordSize)
	binary.LittleEndian.PutUint32(b[0:4], s.WakeCount)
	b[4] = uint8(s.Phase)
	return b
}

// Decode parses the fixed layout.
func Decode(b []byte) (logic.PersistentState, error) {
	if len(b) != recordSize {
		return logic.PersistentState{}, fmt.Errorf("state record is %d bytes, want %d", len(b), recordSize)
	}
	p := logic.Phase(b[4])
	if p != logic.PhaseA && p != logic.PhaseB {
		return logic.PersistentState{}, fmt.Errorf("invalid phase %d", b[4])
	}
	return logic.PersistentState{
		Phase:     p,
		WakeCount: binary.LittleEndian.Uint32(b[0:4]),
	}, nil
}

// FileStore keeps the counters in a small file.
// A missing or corrupt file loads as the power-on state.
type FileStore struct {
	path string
}

// NewFileStore creates a store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the counters.
func (f *FileStore) Load() (logic.PersistentState, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return logic.PersistentState{}, nil
		}
		return logic.PersistentState{}, fmt.Errorf("read state: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		log.Printf("state: %s: %v, starting from power-on state", f.path, err)
		return logic.PersistentState{}, nil
	}
	return s, nil
}

// Save writes the counters through a temp file and rename; the last write wins.
func (f *FileStore) Save(s logic.PersistentState) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(Encode(s)); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

// MemStore keeps the counters in memory, like retained RAM.
type MemStore struct {
	mu    sync.Mutex
	state logic.PersistentState
	saves int

	// SaveError, if set, will be returned by Save.
	SaveError error
}

// NewMemStore creates a store holding s.
func NewMemStore(s logic.PersistentState) *MemStore {
	return &MemStore{state: s}
}

// Load returns the held state.
func (m *MemStore) Load() (logic.PersistentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

// Save replaces the held state.
func (m *MemStore) Save(s logic.PersistentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveError != nil {
		return m.SaveError
	}
	m.state = s
	m.saves++
	return nil
}

// Saves returns the number of successful saves.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
