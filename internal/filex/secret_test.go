package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOrCreateSecret_CreatesOnceAndRereads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "captain.db.key")

	first, err := ReadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Len(t, first, 2*secretBytes)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	again, err := ReadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestReadOrCreateSecret_DiffersPerInstall(t *testing.T) {
	a, err := ReadOrCreateSecret(filepath.Join(t.TempDir(), "a.key"))
	require.NoError(t, err)
	b, err := ReadOrCreateSecret(filepath.Join(t.TempDir(), "b.key"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestReadOrCreateSecret_TightensLoosePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "c.key")
	require.NoError(t, os.WriteFile(path, []byte("abc123\n"), 0o644))
	require.NoError(t, os.Chmod(path, 0o644))

	got, err := ReadOrCreateSecret(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123", got)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestReadOrCreateSecret_EmptyFileIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.key")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := ReadOrCreateSecret(path)
	assert.Error(t, err)
}
