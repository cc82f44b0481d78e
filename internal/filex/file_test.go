package filex

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	tmp := t.TempDir()

	got, err := EnsureDir(filepath.Join(tmp, "media", "photos"))
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "media")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	_, err := EnsureDir(p)
	require.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	require.NoError(t, os.WriteFile(src, []byte("image"), 0o600))

	n, err := CopyFile(src, dst)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "image", string(b))
	require.True(t, Exists(dst))
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := CopyFile(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"))
	require.Error(t, err)
	require.False(t, Exists(filepath.Join(dir, "dst")))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestWriteAtomic_NoPartialFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out")

	_, err := WriteAtomic(p, failingReader{})
	require.Error(t, err)
	require.False(t, Exists(p))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasPrefix(e.Name(), ".part-"), "temp file left: %s", e.Name())
	}
}

func TestExistsAndRemove(t *testing.T) {
	dir := t.TempDir()
	require.False(t, Exists(dir), "directory is not a regular file")

	p := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	require.True(t, Exists(p))

	require.NoError(t, RemoveIfExists(p))
	require.NoError(t, RemoveIfExists(p))
	require.False(t, Exists(p))
}
