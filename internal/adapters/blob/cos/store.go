package cos

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	cossdk "github.com/tencentyun/cos-go-sdk-v5"
)

// Store keeps blobs as objects in a Tencent COS bucket under an optional
// prefix.
type Store struct {
	client client
	prefix string
}

var _ ports.BlobStore = (*Store)(nil)

func NewStore(opts ClientOptions, prefix string) (*Store, error) {
	c, err := newClient(opts)
	if err != nil {
		return nil, err
	}
	return newStore(c, prefix), nil
}

func newStore(c client, prefix string) *Store {
	return &Store{client: c, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.client.PutObject(ctx, s.objectName(key), data, contentType); err != nil {
		return fmt.Errorf("cos put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, s.objectName(key))
	if err != nil {
		if cossdk.IsNotFoundError(err) {
			return nil, fmt.Errorf("blob %q: %w", key, domain.ErrArtifactNotFound)
		}
		return nil, fmt.Errorf("cos get %q: %w", key, err)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.DeleteObject(ctx, s.objectName(key))
	if err != nil && !cossdk.IsNotFoundError(err) {
		return fmt.Errorf("cos delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
