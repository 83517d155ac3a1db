package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMkdirAllCreatesParents(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "site", "合并过的文件", "2024-01-01")

	require.NoError(t, MkdirAll(path, NoOwner))
	assert.DirExists(t, path)

	// Existing directories are fine.
	require.NoError(t, MkdirAll(path, NoOwner))
}

func TestMkdirAllWithCurrentOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	owner := Owner{UID: os.Getuid(), GID: os.Getgid()}

	require.NoError(t, MkdirAll(path, owner))
	assert.DirExists(t, path)
}

func TestChownNoOwnerIsNoop(t *testing.T) {
	assert.NoError(t, NoOwner.Chown(filepath.Join(t.TempDir(), "missing")))
}

func TestMove(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.docx")
	dst := filepath.Join(dir, "b.docx")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	require.NoError(t, Move(src, dst))
	assert.NoFileExists(t, src)

	ok, err := Exists(dst)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()

	ok, err := Exists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	// A path below a regular file is neither present nor free.
	_, err = Exists(filepath.Join(file, "child"))
	assert.Error(t, err)
}

func TestMoveMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Move(filepath.Join(dir, "missing"), filepath.Join(dir, "b"))
	assert.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dst := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0o640))

	require.NoError(t, copyFile(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
}

func TestOwnershipErrorIsMarked(t *testing.T) {
	if os.Getuid() == 0 || runtime.GOOS == "windows" {
		t.Skip("ownership always succeeds here")
	}

	path := filepath.Join(t.TempDir(), "a")
	err := MkdirAll(path, Owner{UID: 0, GID: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnership)
	assert.DirExists(t, path)
}
