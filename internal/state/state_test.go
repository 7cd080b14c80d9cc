package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweeney/range-sensor/internal/logic"
)

func TestEncodeLayout(t *testing.T) {
	b := Encode(logic.PersistentState{Phase: logic.PhaseB, WakeCount: 0x01020304})
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01, 0x01}, b)
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)

	_, err = Decode([]byte{1, 0, 0, 0, 7})
	assert.Error(t, err)
}

func TestFileStoreMissingFileIsPowerOn(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "state.bin"))
	s, err := fs.Load()
	require.NoError(t, err)
	assert.Equal(t, logic.PersistentState{}, s)
}

func TestFileStoreSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.bin")
	fs := NewFileStore(path)

	want := logic.PersistentState{Phase: logic.PhaseB, WakeCount: 2}
	require.NoError(t, fs.Save(want))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(recordSize), info.Size())

	// Last write wins.
	require.NoError(t, fs.Save(logic.PersistentState{Phase: logic.PhaseA, WakeCount: 3}))
	got, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, logic.PersistentState{Phase: logic.PhaseA, WakeCount: 3}, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreCorruptFileIsPowerOn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	require.NoError(t, os.WriteFile(path, []byte("garbage!"), 0o644))

	s, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, logic.PersistentState{}, s)
}

func TestMemStore(t *testing.T) {
	m := NewMemStore(logic.PersistentState{WakeCount: 1})
	s, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), s.WakeCount)

	require.NoError(t, m.Save(logic.PersistentState{Phase: logic.PhaseB, WakeCount: 1}))
	assert.Equal(t, 1, m.Saves())
	s, _ = m.Load()
	assert.Equal(t, logic.PhaseB, s.Phase)
}
