package ports

import "context"

// BlobStore holds artifact payloads by key. Get returns
// domain.ErrArtifactNotFound for missing keys; Delete is idempotent.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
