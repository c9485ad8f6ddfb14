package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLocalStore_PutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key := "proj-1/exports/a.pdf"
	require.NoError(t, s.Put(ctx, key, strings.NewReader("artifact-bytes")))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "artifact-bytes", string(got))
}

func TestLocalStore_GetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nope/exports/x.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_PutOverwritesAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	key := "proj-1/exports/a.pdf"

	require.NoError(t, s.Put(ctx, key, strings.NewReader("v1")))
	require.NoError(t, s.Put(ctx, key, strings.NewReader("v2")))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	assert.Equal(t, "v2", string(got))

	// No temp scraps left next to the published object.
	entries, err := os.ReadDir(filepath.Join(s.Root(), "proj-1", "exports"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.pdf", entries[0].Name())
}

func TestLocalStore_ConfinesTraversalKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, s.Put(ctx, "", strings.NewReader("x")))

	// Dot-dot segments collapse inside the root instead of escaping it.
	require.NoError(t, s.Put(ctx, "a/../../escape.txt", strings.NewReader("x")))
	_, err := os.Stat(filepath.Join(s.Root(), "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(s.Root()), "escape.txt"))
	assert.True(t, os.IsNotExist(err), "object must never land outside the root")
}

func TestLocalStore_ListSkipsTempFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "p/exports/a.pdf", strings.NewReader("a")))
	require.NoError(t, s.Put(ctx, "p/exports/b.pptx", strings.NewReader("b")))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "p", "exports", ".tmp-123"), []byte("partial"), 0o644))

	keys, err := s.List(ctx, "p")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p/exports/a.pdf", "p/exports/b.pptx"}, keys)
}

func TestLocalStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "p/pages/img.png", strings.NewReader("x")))
	require.NoError(t, s.Delete(ctx, "p/pages/img.png"))
	_, err := s.Get(ctx, "p/pages/img.png")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	assert.NoError(t, s.Delete(ctx, "p/pages/img.png"))
}
