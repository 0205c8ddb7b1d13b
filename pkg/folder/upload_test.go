package folder

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwantia/evtrec/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spool(t *testing.T, e *Engine, name, content string) IncomingFile {
	t.Helper()

	f, err := e.CreateTemp()
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	return IncomingFile{Name: name, TempPath: f.Name(), Size: int64(len(content))}
}

func TestSaveUploads(t *testing.T) {
	e := openTestEngine(t)

	saved, err := e.SaveUploads(t.Context(), []IncomingFile{
		spool(t, e, "report.pdf", "one"),
		spool(t, e, "report.pdf", "two"),
		spool(t, e, "report.pdf", "three"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)

	assert.Equal(t, "report.pdf", saved[0].DisplayName)
	assert.Equal(t, "report-1.pdf", saved[1].DisplayName)
	assert.Equal(t, "report-2.pdf", saved[2].DisplayName)
	assert.Equal(t, "files/report-1.pdf", saved[1].FileURL)
	assert.Equal(t, int64(3), saved[1].Bytes)

	data, err := os.ReadFile(filepath.Join(e.FilesDir(), "report-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestSaveUploads_sanitizesNames(t *testing.T) {
	e := openTestEngine(t)

	saved, err := e.SaveUploads(t.Context(), []IncomingFile{
		spool(t, e, "../../etc/passwd", "x"),
		spool(t, e, "", "y"),
		spool(t, e, "Über Bericht.pdf", "z"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 3)

	assert.Equal(t, ".._.._etc_passwd", saved[0].DisplayName)
	assert.Regexp(t, `^upload-[0-9a-f]{8}$`, saved[1].DisplayName)
	assert.Equal(t, "Über Bericht.pdf", saved[2].DisplayName)
	for _, file := range saved {
		assert.Equal(t, e.FilesDir(), filepath.Dir(file.LocalPath))
	}
}

func TestSaveUploads_skipsFailures(t *testing.T) {
	e := openTestEngine(t)

	oversized := spool(t, e, "big.bin", "x")
	oversized.Size = e.cfg.MaxUploadBytes + 1

	failed := spool(t, e, "broken.txt", "x")
	failed.Err = errors.New("partial upload")

	missing := IncomingFile{Name: "ghost.txt", TempPath: filepath.Join(t.TempDir(), "nope"), Size: 1}

	saved, err := e.SaveUploads(t.Context(), []IncomingFile{
		oversized,
		failed,
		missing,
		spool(t, e, "ok.txt", "fine"),
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "ok.txt", saved[0].DisplayName)

	files, err := e.ListInboxFiles(t.Context())
	require.NoError(t, err)
	require.Len(t, files, 1, "failed moves leave no placeholder behind")
}

func TestSaveUploads_canceled(t *testing.T) {
	e := openTestEngine(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	saved, err := e.SaveUploads(ctx, []IncomingFile{spool(t, e, "a.txt", "a")})
	assert.Error(t, err)
	assert.Empty(t, saved)
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0600))

	dst := filepath.Join(dir, "missing-dir", "dst")
	assert.Error(t, moveFile(src, dst))

	dst = filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(dst, nil, 0644))
	require.NoError(t, moveFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestListInboxFiles(t *testing.T) {
	e := openTestEngine(t)

	now := time.Now()
	write := func(name string, age time.Duration) {
		path := filepath.Join(e.FilesDir(), name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		require.NoError(t, os.Chtimes(path, now.Add(-age), now.Add(-age)))
	}
	write("old.txt", 2*time.Hour)
	write("new file.txt", time.Minute)
	write("mid.txt", time.Hour)
	require.NoError(t, os.Mkdir(filepath.Join(e.FilesDir(), "subdir"), 0755))

	files, err := e.ListInboxFiles(t.Context())
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "new file.txt", files[0].DisplayName)
	assert.Equal(t, "mid.txt", files[1].DisplayName)
	assert.Equal(t, "old.txt", files[2].DisplayName)
	assert.Equal(t, "files/new%20file.txt", files[0].FileURL)
	assert.Equal(t, int64(len("new file.txt")), files[0].Bytes)
	assert.Equal(t, now.Add(-time.Minute).Unix(), files[0].MTime)
}

func TestListInboxFiles_symlinks(t *testing.T) {
	e := openTestEngine(t)

	inside := filepath.Join(e.FilesDir(), "real.txt")
	require.NoError(t, os.WriteFile(inside, []byte("x"), 0644))

	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0644))

	if err := os.Symlink(inside, filepath.Join(e.FilesDir(), "alias.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(e.FilesDir(), "leak.txt")))
	require.NoError(t, os.Symlink(filepath.Join(e.FilesDir(), "nowhere"), filepath.Join(e.FilesDir(), "dangling.txt")))

	files, err := e.ListInboxFiles(t.Context())
	require.NoError(t, err)

	names := []string{}
	for _, f := range files {
		names = append(names, f.DisplayName)
	}
	assert.ElementsMatch(t, []string{"real.txt", "alias.txt"}, names)

	_, _, err = e.OpenInboxFile(t.Context(), "leak.txt")
	assert.True(t, errs.Is(err, errs.Safety))
}

func TestOpenInboxFile(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.FilesDir(), "notes.txt"), []byte("hello"), 0644))

	f, info, err := e.OpenInboxFile(t.Context(), "notes.txt")
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Bytes)

	// Only the base name is used
	f2, _, err := e.OpenInboxFile(t.Context(), "../../notes.txt")
	require.NoError(t, err)
	f2.Close()

	_, _, err = e.OpenInboxFile(t.Context(), "missing.txt")
	assert.True(t, errs.Is(err, errs.NotFound))

	_, _, err = e.OpenInboxFile(t.Context(), "")
	assert.True(t, errs.Is(err, errs.NotFound))

	require.NoError(t, os.Mkdir(filepath.Join(e.FilesDir(), "dir"), 0755))
	_, _, err = e.OpenInboxFile(t.Context(), "dir")
	assert.True(t, errs.Is(err, errs.NotFound))

	_, _, err = e.OpenInboxFile(t.Context(), "../.app/events.sqlite")
	assert.True(t, errs.Is(err, errs.NotFound))
}

func TestOpenInboxFile_unicodeName(t *testing.T) {
	e := openTestEngine(t)
	require.NoError(t, os.WriteFile(filepath.Join(e.FilesDir(), "résumé.pdf"), []byte("cv"), 0644))

	files, err := e.ListInboxFiles(t.Context())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "résumé.pdf", files[0].DisplayName)

	f, info, err := e.OpenInboxFile(t.Context(), files[0].DisplayName)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(2), info.Bytes)
}
