package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"github.com/pepperjack/objectstore/internal/objstore"
)

// Memory is an in-memory Store fake for coordinator/catalog tests, per the
// spec §9 guidance that C3 has "one production implementation ... and
// in-memory fakes for tests."
type Memory struct {
	mu    sync.Mutex
	blobs map[objstore.StorageClass]map[string][]byte
}

// NewMemory creates an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{
		blobs: map[objstore.StorageClass]map[string][]byte{
			objstore.StorageHot:  {},
			objstore.StorageCold: {},
		},
	}
}

func (m *Memory) Write(ctx context.Context, r io.Reader, class objstore.StorageClass) (WriteResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return WriteResult{}, objstore.NewStorageError("write: read", err)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.blobs[class]
	if !ok {
		return WriteResult{}, objstore.NewStorageError("write", errUnknownClass(class))
	}
	if _, exists := bucket[hash]; !exists {
		bucket[hash] = data
	}
	return WriteResult{SHA256Hex: hash, Size: int64(len(data))}, nil
}

func (m *Memory) Read(ctx context.Context, hash string, class objstore.StorageClass) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.blobs[class]
	if !ok {
		return nil, 0, objstore.NewStorageError("read", errUnknownClass(class))
	}
	data, ok := bucket[hash]
	if !ok {
		return nil, 0, objstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *Memory) Exists(ctx context.Context, hash string, class objstore.StorageClass) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.blobs[class]
	if !ok {
		return false, objstore.NewStorageError("exists", errUnknownClass(class))
	}
	_, exists := bucket[hash]
	return exists, nil
}

func (m *Memory) Delete(ctx context.Context, hash string, class objstore.StorageClass) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.blobs[class]
	if !ok {
		return objstore.NewStorageError("delete", errUnknownClass(class))
	}
	delete(bucket, hash)
	return nil
}

type unknownClassError struct{ class objstore.StorageClass }

func (e unknownClassError) Error() string { return "blobstore: unknown storage class" }

func errUnknownClass(class objstore.StorageClass) error { return unknownClassError{class: class} }
