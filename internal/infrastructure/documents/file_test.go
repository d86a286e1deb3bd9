package documents

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	storage "tradebook/internal/domain/entity/storage"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	return NewFileStore(filepath.Join(t.TempDir(), "data"), logger)
}

func TestFileStore_GetMissingDocument(t *testing.T) {
	store := newTestStore(t)

	res := store.Get(context.Background(), "tokens")

	assert.Equal(t, storage.StatusMissing, res.Status)
	assert.NotNil(t, res.Doc)
	assert.Empty(t, res.Doc)
	assert.DirExists(t, store.Root())
}

func TestFileStore_MutateCreatesFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := store.Mutate(ctx, "trades", func(doc storage.Document) error {
		doc["T1"] = json.RawMessage(`{"id":"T1"}`)
		return nil
	})
	require.Equal(t, storage.StatusOK, res.Status)

	raw, err := os.ReadFile(filepath.Join(store.Root(), "trades.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"T1":{"id":"T1"}}`, string(raw))

	got := store.Get(ctx, "trades")
	assert.Equal(t, storage.StatusOK, got.Status)
	assert.JSONEq(t, `{"id":"T1"}`, string(got.Doc["T1"]))
}

func TestFileStore_CorruptDocumentDegrades(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.Root(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "tokens.json"), []byte("{not json"), 0o644))

	res := store.Get(context.Background(), "tokens")

	assert.True(t, res.Degraded())
	assert.Error(t, res.Err)
	assert.Empty(t, res.Doc)
}

func TestFileStore_NonObjectDocumentDegrades(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.Root(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "trades.json"), []byte(`[1,2,3]`), 0o644))

	res := store.Get(context.Background(), "trades")

	assert.True(t, res.Degraded())
	assert.Empty(t, res.Doc)
}

func TestFileStore_EmptyFileIsEmptyDocument(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.Root(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "trades.json"), nil, 0o644))

	res := store.Get(context.Background(), "trades")

	assert.Equal(t, storage.StatusOK, res.Status)
	assert.Empty(t, res.Doc)
}

func TestFileStore_MutateOverwritesCorruptDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(store.Root(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "tokens.json"), []byte("garbage"), 0o644))

	res := store.Mutate(ctx, "tokens", func(doc storage.Document) error {
		doc["A"] = json.RawMessage(`{"token":"x"}`)
		return nil
	})

	assert.True(t, res.Degraded())
	got := store.Get(ctx, "tokens")
	assert.Equal(t, storage.StatusOK, got.Status)
	assert.Len(t, got.Doc, 1)
}

func TestFileStore_MutateAbortSkipsWrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	res := store.Mutate(ctx, "trades", func(doc storage.Document) error {
		doc["T1"] = json.RawMessage(`{}`)
		return boom
	})

	assert.ErrorIs(t, res.Err, boom)
	assert.NoFileExists(t, filepath.Join(store.Root(), "trades.json"))
}

func TestFileStore_WriteFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "blocked")
	// A regular file where the data directory should be makes every write fail.
	require.NoError(t, os.WriteFile(root, []byte("x"), 0o644))
	store := NewFileStore(root, logrus.New())

	res := store.Mutate(context.Background(), "trades", func(doc storage.Document) error {
		doc["T1"] = json.RawMessage(`{}`)
		return nil
	})

	assert.True(t, res.Failed())
	assert.Error(t, res.Err)
	assert.Contains(t, res.Doc, "T1")
}
