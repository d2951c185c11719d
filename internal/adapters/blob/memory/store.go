package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const DefaultCapacity = 512

type blob struct {
	data        []byte
	contentType string
	storedAt    time.Time
}

// Store keeps blobs in process memory, bounded by entry count and age.
// Evicted entries read as domain.ErrArtifactNotFound.
type Store struct {
	cache  *expirable.LRU[string, blob]
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	removing map[string]struct{}

	evictions atomic.Int64
}

var _ ports.BlobStore = (*Store)(nil)

func NewStore(capacity int, ttl time.Duration, logger *zap.Logger) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		ttl:      ttl,
		logger:   logger,
		removing: make(map[string]struct{}),
	}
	s.cache = expirable.NewLRU[string, blob](capacity, s.onEvict, ttl)
	return s
}

// MinCapacity is the entry count needed to hold the upload and every variant
// of each session that may be generating at once.
func MinCapacity(generatingSessions int) int {
	return generatingSessions * (1 + len(domain.VariantStyles))
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Add(key, blob{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		storedAt:    time.Now(),
	})
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := s.cache.Get(key)
	if !ok {
		return nil, fmt.Errorf("blob %q: %w", key, domain.ErrArtifactNotFound)
	}
	return append([]byte(nil), entry.data...), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.removing[key] = struct{}{}
	s.mu.Unlock()

	s.cache.Remove(key)

	s.mu.Lock()
	delete(s.removing, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Len() int {
	return s.cache.Len()
}

// Evictions reports how many live blobs were pushed out by the capacity
// bound. Explicit deletes and TTL expiry are not counted.
func (s *Store) Evictions() int64 {
	return s.evictions.Load()
}

// onEvict runs with the cache lock held.
func (s *Store) onEvict(key string, entry blob) {
	s.mu.Lock()
	_, deleting := s.removing[key]
	s.mu.Unlock()
	if deleting {
		return
	}

	age := time.Since(entry.storedAt)
	if s.ttl > 0 && age >= s.ttl {
		s.logger.Debug("blob expired", zap.String("key", key))
		return
	}

	s.evictions.Add(1)
	s.logger.Warn("blob evicted at capacity; raise artifacts.memory_capacity",
		zap.String("key", key),
		zap.Duration("age", age),
		zap.Int("size", len(entry.data)),
	)
}
