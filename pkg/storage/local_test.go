package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errReader 在读取时返回错误，用于模拟写入中途失败。
type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, errors.New("read failed")
}

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)
	ctx := context.Background()

	content := []byte("log file content")
	require.NoError(t, store.Save(ctx, "other/abc.log", bytes.NewReader(content), int64(len(content)), "text/plain"))

	rc, err := store.Open(ctx, "other/abc.log")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, content, got)

	exists, err := store.Exists(ctx, "other/abc.log")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Delete(ctx, "other/abc.log"))
	exists, err = store.Exists(ctx, "other/abc.log")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorageNotExist(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Open(ctx, "other/missing.log")
	assert.ErrorIs(t, err, ErrNotExist)

	err = store.Delete(ctx, "other/missing.log")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorageFailedWriteLeavesNothing(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)

	err = store.Save(context.Background(), "image/bad.png", errReader{}, 10, "image/png")
	require.Error(t, err)

	// 失败的写入不能在最终路径上留下截断的文件，也不能留下临时文件
	entries, err := os.ReadDir(filepath.Join(root, "image"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStorageOverwrite(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStorage(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "other/same.log", strings.NewReader("old"), 3, "text/plain"))
	require.NoError(t, store.Save(ctx, "other/same.log", strings.NewReader("new"), 3, "text/plain"))

	rc, err := store.Open(ctx, "other/same.log")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "new", string(got))
}
