package storage

import (
	"context"
	"sync"

	"lumisync/internal/domain/service"
)

// MemoryBlobStore keeps uploads in memory. It is used when the document store
// is in memory too, and in tests.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	baseURL string
	// FailWith, when set, makes every upload fail.
	FailWith error
}

var _ service.BlobStore = (*MemoryBlobStore)(nil)

func NewMemoryBlobStore(baseURL string) *MemoryBlobStore {
	return &MemoryBlobStore{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (s *MemoryBlobStore) Upload(ctx context.Context, path string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return "", s.FailWith
	}
	s.objects[path] = append([]byte(nil), data...)
	return s.baseURL + "/" + path, nil
}

func (s *MemoryBlobStore) Object(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	return data, ok
}

func (s *MemoryBlobStore) Close() error {
	return nil
}
