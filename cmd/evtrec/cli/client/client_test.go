package client

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfig(t *testing.T) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	base := t.TempDir()
	viper.Set("storage.base_dir", base)
	viper.Set("log.level", "ERROR")
	viper.Set("log.no_terminal", true)
	viper.Set("log.file", filepath.Join(t.TempDir(), "evtrec.log"))
	return base
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewFoldersCommand()
	root.AddCommand(NewInboxCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFoldersCommands(t *testing.T) {
	base := setupConfig(t)

	out, err := run(t, "create", "Summer", "Trip")
	require.NoError(t, err)
	assert.Contains(t, out, "Created folder 1 'summer-trip'")
	assert.DirExists(t, filepath.Join(base, "summer-trip"))

	out, err = run(t, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "summer-trip")
	assert.Contains(t, out, "Summer Trip")

	out, err = run(t, "rm", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed folder 1")
	assert.DirExists(t, filepath.Join(base, "summer-trip"))

	out, err = run(t, "ls", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestFoldersRemove_invalidID(t *testing.T) {
	setupConfig(t)

	_, err := run(t, "rm", "abc")
	assert.ErrorContains(t, err, "invalid folder id")

	_, err = run(t, "rm", "0")
	assert.ErrorContains(t, err, "invalid folder id")
}

func TestInboxList(t *testing.T) {
	base := setupConfig(t)

	_, err := run(t, "create", "Photos")
	require.NoError(t, err)

	// Opening the engine once creates the files directory.
	_, err = run(t, "inbox", "ls", "1")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(base, "photos", "files", "a b.txt"), []byte("hello"), 0644))

	out, err := run(t, "inbox", "ls", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "a b.txt")
	assert.Contains(t, out, "files/a%20b.txt")

	out, err = run(t, "inbox", "ls", "-H", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "5 B")
}

func TestInboxList_unknownFolder(t *testing.T) {
	setupConfig(t)

	_, err := run(t, "inbox", "ls", "7")
	assert.Error(t, err)
}
