// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package storage provides the content-addressed blob store for uploaded videos and
poster frames.

Blobs are immutable: a replacement is written under a fresh key and the old key
is deleted once the database no longer references it. Writes land in a temporary
file next to the destination and are renamed into place, so a reader never sees
a partial upload.
*/
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrTooLarge is returned by [FileStore.Put] when the body exceeds the limit.
	ErrTooLarge = errors.New("storage: blob exceeds size limit")

	// ErrNotFound is returned by [FileStore.Open] for unknown keys.
	ErrNotFound = errors.New("storage: blob not found")

	// ErrInvalidKey is returned for keys that are empty, absolute or escape the root.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	SHA256   string
	Modified time.Time
}

// Blob is an open, seekable stored object. Callers must Close it.
type Blob interface {
	io.ReadSeekCloser
	Info() Object
}

// FileStore keeps blobs under a root directory on the local filesystem.
type FileStore struct {
	root string
}

// NewFileStore creates the root directory when needed.
func NewFileStore(root string) (*FileStore, error) {
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}

	if err := os.MkdirAll(absolute, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}

	return &FileStore{root: absolute}, nil
}

// Put streams body into key. At most limit bytes are accepted; a non-positive
// limit disables the check.
func (store *FileStore) Put(ctx context.Context, key string, body io.Reader, limit int64) (Object, error) {
	destination, err := store.resolve(key)
	if err != nil {
		return Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o750); err != nil {
		return Object{}, fmt.Errorf("storage_mkdir_failed: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(destination), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("storage_create_temp_failed: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = temp.Close()
			_ = os.Remove(temp.Name())
		}
	}()

	reader := body
	if limit > 0 {
		reader = io.LimitReader(body, limit+1)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(temp, hasher), contextReader{ctx: ctx, reader: reader})
	if err != nil {
		return Object{}, fmt.Errorf("storage_write_failed: %w", err)
	}

	if limit > 0 && written > limit {
		return Object{}, ErrTooLarge
	}

	if err := temp.Sync(); err != nil {
		return Object{}, fmt.Errorf("storage_sync_failed: %w", err)
	}
	if err := temp.Close(); err != nil {
		return Object{}, fmt.Errorf("storage_close_failed: %w", err)
	}
	if err := os.Rename(temp.Name(), destination); err != nil {
		return Object{}, fmt.Errorf("storage_rename_failed: %w", err)
	}
	committed = true

	return Object{
		Key:      key,
		Size:     written,
		SHA256:   hex.EncodeToString(hasher.Sum(nil)),
		Modified: time.Now().UTC(),
	}, nil
}

// Open returns a seekable reader for key.
func (store *FileStore) Open(key string) (Blob, error) {
	location, err := store.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage_open_failed: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("storage_stat_failed: %w", err)
	}

	return &fileBlob{File: file, info: Object{Key: key, Size: stat.Size(), Modified: stat.ModTime()}}, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (store *FileStore) Delete(key string) error {
	location, err := store.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(location); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage_delete_failed: %w", err)
	}
	return nil
}

// Ping verifies the root is still a writable directory.
func (store *FileStore) Ping() error {
	probe, err := os.CreateTemp(store.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("storage_ping_failed: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// resolve maps a slash-separated key onto a path under the root.
func (store *FileStore) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}

	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}

	return filepath.Join(store.root, filepath.FromSlash(cleaned)), nil
}

type fileBlob struct {
	*os.File
	info Object
}

func (blob *fileBlob) Info() Object { return blob.info }

// contextReader stops a long copy when the request is cancelled.
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (r contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
