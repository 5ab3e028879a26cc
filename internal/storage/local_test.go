package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocal_StoreExistsDelete(t *testing.T) {
	dir := t.TempDir()
	l := NewLocal(dir, "/files")
	ctx := context.Background()

	key, err := l.Store(ctx, []byte("pdf-bytes"), "asset-docs", "invoice.pdf")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(key, "asset-docs/"))
	require.True(t, strings.HasSuffix(key, ".pdf"))

	ok, err := l.Exists(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	require.Equal(t, []byte("pdf-bytes"), data)

	require.NoError(t, l.Delete(ctx, key))
	ok, err = l.Exists(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocal_DeleteMissingIsNotAnError(t *testing.T) {
	l := NewLocal(t.TempDir(), "/files")
	require.NoError(t, l.Delete(context.Background(), "asset-docs/never-stored.pdf"))
}

func TestLocal_URLFor(t *testing.T) {
	l := NewLocal(t.TempDir(), "/files")
	url, err := l.URLFor(context.Background(), "asset-docs/2024/06/x.pdf")
	require.NoError(t, err)
	require.Equal(t, "/files/asset-docs/2024/06/x.pdf", url)
}

func TestLocal_UniqueKeysPerUpload(t *testing.T) {
	l := NewLocal(t.TempDir(), "/files")
	ctx := context.Background()

	k1, err := l.Store(ctx, []byte("a"), "asset-docs", "same.pdf")
	require.NoError(t, err)
	k2, err := l.Store(ctx, []byte("b"), "asset-docs", "same.pdf")
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}
