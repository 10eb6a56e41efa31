package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, path, slot string) *FingerprintStore {
	t.Helper()
	store, err := NewFingerprintStore(path, slot)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestFingerprintStore_EmptyDatabase(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "data", "dashboard.db"), "")

	digest, ok, err := store.ReadPrevious(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, digest)

	_, _, ok, err = store.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprintStore_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, filepath.Join(t.TempDir(), "dashboard.db"), "")

	require.NoError(t, store.Write(ctx, fingerprint.Digest("aaa")))
	require.NoError(t, store.Write(ctx, fingerprint.Digest("bbb")))

	digest, ok, err := store.ReadPrevious(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fingerprint.Digest("bbb"), digest)
}

func TestFingerprintStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dashboard.db")

	first, err := NewFingerprintStore(path, "")
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, fingerprint.Digest("persisted")))
	require.NoError(t, first.Close())

	second := newTestStore(t, path, "")
	digest, ok, err := second.ReadPrevious(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fingerprint.Digest("persisted"), digest)
}

func TestFingerprintStore_SlotsAreIndependent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dashboard.db")
	home := newTestStore(t, path, "home")
	work := newTestStore(t, path, "work")

	require.NoError(t, home.Write(ctx, fingerprint.Digest("h")))

	_, ok, err := work.ReadPrevious(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFingerprintStore_Touch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, filepath.Join(t.TempDir(), "dashboard.db"), "")

	// Before the first write there is nothing to mark.
	require.NoError(t, store.Touch(ctx, time.Now()))
	_, _, ok, err := store.Status(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write(ctx, fingerprint.Digest("aaa")))
	checked := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, checked))

	updatedAt, checkedAt, ok, err := store.Status(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, updatedAt.IsZero())
	assert.True(t, checked.Equal(checkedAt))

	digest, _, err := store.ReadPrevious(ctx)
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Digest("aaa"), digest)
}
