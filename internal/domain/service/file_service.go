package service

import "context"

// BlobStore uploads a single object and returns its public URL. Uploads are
// attempted once, failures go back to the caller.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Close() error
}
