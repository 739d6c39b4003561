// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/motionmaster/internal/platform/storage"
)

func newStore(t *testing.T) (*storage.FileStore, string) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFileStore(root)
	require.NoError(t, err)
	return store, root
}

/*
TestFileStore_PutOpenDelete covers the full blob lifecycle.
*/
func TestFileStore_PutOpenDelete(t *testing.T) {
	store, root := newStore(t)
	payload := "not really an mp4"

	object, err := store.Put(context.Background(), "comparisons/c1/user/a.mp4", strings.NewReader(payload), 1024)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte(payload))
	assert.Equal(t, int64(len(payload)), object.Size)
	assert.Equal(t, hex.EncodeToString(digest[:]), object.SHA256)

	blob, err := store.Open("comparisons/c1/user/a.mp4")
	require.NoError(t, err)

	_, err = blob.Seek(4, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, payload[4:], string(rest))
	assert.Equal(t, int64(len(payload)), blob.Info().Size)
	require.NoError(t, blob.Close())

	require.NoError(t, store.Delete("comparisons/c1/user/a.mp4"))
	require.NoError(t, store.Delete("comparisons/c1/user/a.mp4"))

	_, err = store.Open("comparisons/c1/user/a.mp4")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := os.ReadDir(filepath.Join(root, "comparisons", "c1", "user"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

/*
TestFileStore_TooLarge leaves nothing behind when the limit is exceeded.
*/
func TestFileStore_TooLarge(t *testing.T) {
	store, root := newStore(t)

	_, err := store.Put(context.Background(), "big/blob.bin", strings.NewReader(strings.Repeat("x", 11)), 10)
	assert.ErrorIs(t, err, storage.ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "big"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = store.Put(context.Background(), "big/blob.bin", strings.NewReader(strings.Repeat("x", 10)), 10)
	assert.NoError(t, err)
}

/*
TestFileStore_Cancelled aborts a write whose context is done.
*/
func TestFileStore_Cancelled(t *testing.T) {
	store, _ := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "c/blob.bin", strings.NewReader("payload"), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

/*
TestFileStore_InvalidKeys rejects keys that could escape the root.
*/
func TestFileStore_InvalidKeys(t *testing.T) {
	store, _ := newStore(t)

	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../b", "a//b", "a\\b", "."} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Put(context.Background(), key, strings.NewReader("x"), 0)
			assert.ErrorIs(t, err, storage.ErrInvalidKey)
			assert.ErrorIs(t, store.Delete(key), storage.ErrInvalidKey)
		})
	}
}

/*
TestComparisonKey produces unique, readable keys.
*/
func TestComparisonKey(t *testing.T) {
	pattern := regexp.MustCompile(`^comparisons/c-1/reference/[0-9a-f-]{36}-pro-squat\.mp4$`)

	first := storage.ComparisonKey("c-1", "reference", "Pro Squat.MP4")
	second := storage.ComparisonKey("c-1", "reference", "Pro Squat.MP4")

	assert.Regexp(t, pattern, first)
	assert.NotEqual(t, first, second)
}

/*
TestFileStore_Ping succeeds on a writable root and leaves nothing behind.
*/
func TestFileStore_Ping(t *testing.T) {
	store, root := newStore(t)

	require.NoError(t, store.Ping())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
