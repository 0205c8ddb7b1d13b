package tenant

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/evtrec/pkg/db/store"
	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/mwantia/evtrec/pkg/folder"
	"github.com/mwantia/evtrec/pkg/log"
	"github.com/mwantia/evtrec/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	root := t.TempDir()
	s, err := store.Open(t.Context(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    filepath.Join(root, "registry.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	reg, err := registry.New(t.Context(), s, filepath.Join(root, "folders"), log.Discard())
	require.NoError(t, err)

	m := NewManager(reg, folder.Config{
		BaseDir:        reg.BaseDir(),
		AppSubdir:      ".app",
		FilesSubdir:    "files",
		DBFilename:     "events.sqlite",
		MaxUploadBytes: 1 << 20,
		Location:       time.UTC,
	}, log.Discard())
	t.Cleanup(func() { m.Cleanup(t.Context()) })
	return m
}

func TestAcquire_memoized(t *testing.T) {
	m := newTestManager(t)

	f, err := m.CreateFolder(t.Context(), "Client A")
	require.NoError(t, err)

	first, release, err := m.Acquire(t.Context(), f.ID)
	require.NoError(t, err)
	release()
	second, release, err := m.Acquire(t.Context(), f.ID)
	require.NoError(t, err)
	defer release()
	assert.Same(t, first, second)
}

func TestAcquire_isolation(t *testing.T) {
	m := newTestManager(t)

	a, err := m.CreateFolder(t.Context(), "Client A")
	require.NoError(t, err)
	b, err := m.CreateFolder(t.Context(), "Client B")
	require.NoError(t, err)

	ea, releaseA, err := m.Acquire(t.Context(), a.ID)
	require.NoError(t, err)
	defer releaseA()
	eb, releaseB, err := m.Acquire(t.Context(), b.ID)
	require.NoError(t, err)
	defer releaseB()

	name := "Only in A"
	_, err = ea.CreateEvent(t.Context(), folder.EventInput{Name: &name})
	require.NoError(t, err)

	events, err := eb.ListEvents(t.Context(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, events)

	assert.NotEqual(t, ea.FilesDir(), eb.FilesDir())
}

func TestAcquire_unknownFolder(t *testing.T) {
	m := newTestManager(t)

	_, _, err := m.Acquire(t.Context(), 99)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestRemoveFolder(t *testing.T) {
	m := newTestManager(t)

	f, err := m.CreateFolder(t.Context(), "Client A")
	require.NoError(t, err)

	e, release, err := m.Acquire(t.Context(), f.ID)
	require.NoError(t, err)
	release()
	marker := filepath.Join(e.FilesDir(), "keep.txt")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0644))

	require.NoError(t, m.RemoveFolder(t.Context(), f.ID))

	_, _, err = m.Acquire(t.Context(), f.ID)
	assert.True(t, errs.Is(err, errs.NotFound))

	_, err = os.Stat(marker)
	assert.NoError(t, err, "files survive registry removal")
	_, err = os.Stat(filepath.Join(f.StoragePath, ".app", "events.sqlite"))
	assert.NoError(t, err, "database survives registry removal")

	folders, err := m.ListFolders(t.Context())
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestRemoveFolder_inFlightEngineStaysOpen(t *testing.T) {
	m := newTestManager(t)

	f, err := m.CreateFolder(t.Context(), "Client A")
	require.NoError(t, err)

	e, release, err := m.Acquire(t.Context(), f.ID)
	require.NoError(t, err)

	require.NoError(t, m.RemoveFolder(t.Context(), f.ID))

	// A request that acquired the engine before removal can finish.
	name := "Late write"
	_, err = e.CreateEvent(t.Context(), folder.EventInput{Name: &name})
	require.NoError(t, err)
	require.NoError(t, e.Health(t.Context()))

	release()
	release()
	assert.Error(t, e.Health(t.Context()), "engine is closed after the last release")

	_, _, err = m.Acquire(t.Context(), f.ID)
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestForget_unusedEngineClosed(t *testing.T) {
	m := newTestManager(t)

	f, err := m.CreateFolder(t.Context(), "Client A")
	require.NoError(t, err)

	e, release, err := m.Acquire(t.Context(), f.ID)
	require.NoError(t, err)
	release()

	m.Forget(f.ID)
	assert.Error(t, e.Health(t.Context()))

	reopened, release, err := m.Acquire(t.Context(), f.ID)
	require.NoError(t, err)
	defer release()
	assert.NotSame(t, e, reopened)
	assert.NoError(t, reopened.Health(t.Context()))
}
