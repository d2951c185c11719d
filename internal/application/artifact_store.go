package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArtifactStore indexes artifact payloads held in a BlobStore and enforces
// their lifecycle. Put and Evict on the same session are serialized.
type ArtifactStore struct {
	blobs     ports.BlobStore
	clock     ports.Clock
	ttl       time.Duration
	tombstone time.Duration
	logger    *zap.Logger
	metrics   *Metrics

	mu        sync.Mutex
	index     map[domain.ArtifactRef]artifactEntry
	bySession map[domain.SessionID]map[domain.ArtifactRef]struct{}
	evicted   map[domain.SessionID]time.Time
	expired   map[domain.ArtifactRef]time.Time
	locks     map[domain.SessionID]*sync.Mutex
}

type artifactEntry struct {
	meta domain.Artifact
	key  string
}

func NewArtifactStore(blobs ports.BlobStore, cfg Config, clock ports.Clock, logger *zap.Logger, metrics *Metrics) *ArtifactStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tombstone := max(cfg.SessionRetention, cfg.ArtifactTTL, inFlightBound(cfg))

	return &ArtifactStore{
		blobs:     blobs,
		clock:     clock,
		ttl:       cfg.ArtifactTTL,
		tombstone: tombstone,
		logger:    logger,
		metrics:   metrics,
		index:     make(map[domain.ArtifactRef]artifactEntry),
		bySession: make(map[domain.SessionID]map[domain.ArtifactRef]struct{}),
		evicted:   make(map[domain.SessionID]time.Time),
		expired:   make(map[domain.ArtifactRef]time.Time),
		locks:     make(map[domain.SessionID]*sync.Mutex),
	}
}

func (s *ArtifactStore) Put(ctx context.Context, sessionID domain.SessionID, kind domain.ArtifactKind, data []byte, contentType string) (domain.ArtifactRef, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	if s.isEvicted(sessionID) {
		return "", domain.ErrSessionEvicted
	}

	ref := domain.ArtifactRef(uuid.NewString())
	key := blobKey(sessionID, kind, ref)
	if err := s.blobs.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("put artifact blob: %w", err)
	}

	now := s.clock.Now().UTC()
	meta := domain.Artifact{
		Ref:         ref,
		SessionID:   sessionID,
		Kind:        kind,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	s.mu.Lock()
	s.index[ref] = artifactEntry{meta: meta, key: key}
	refs, ok := s.bySession[sessionID]
	if !ok {
		refs = make(map[domain.ArtifactRef]struct{})
		s.bySession[sessionID] = refs
	}
	refs[ref] = struct{}{}
	s.mu.Unlock()

	return ref, nil
}

// Get returns the artifact with its payload. Unknown refs yield
// domain.ErrArtifactNotFound; refs that existed but were evicted or are past
// expiry yield domain.ErrArtifactExpired.
func (s *ArtifactStore) Get(ctx context.Context, ref domain.ArtifactRef) (domain.Artifact, error) {
	entry, err := s.lookup(ref)
	if err != nil {
		return domain.Artifact{}, err
	}

	unlock := s.lockSession(entry.meta.SessionID)
	defer unlock()

	entry, err = s.lookup(ref)
	if err != nil {
		return domain.Artifact{}, err
	}
	if entry.meta.Expired(s.clock.Now()) {
		return domain.Artifact{}, domain.ErrArtifactExpired
	}

	data, err := s.blobs.Get(ctx, entry.key)
	if err != nil {
		if errors.Is(err, domain.ErrArtifactNotFound) {
			return domain.Artifact{}, domain.ErrArtifactExpired
		}
		return domain.Artifact{}, fmt.Errorf("get artifact blob: %w", err)
	}

	artifact := entry.meta
	artifact.Data = data
	return artifact, nil
}

func (s *ArtifactStore) lookup(ref domain.ArtifactRef) (artifactEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.index[ref]
	if ok {
		return entry, nil
	}
	if _, gone := s.expired[ref]; gone {
		return artifactEntry{}, domain.ErrArtifactExpired
	}
	return artifactEntry{}, domain.ErrArtifactNotFound
}

// Evict removes every artifact of the session and refuses later writes for
// it. It returns the number of artifacts removed.
func (s *ArtifactStore) Evict(ctx context.Context, sessionID domain.SessionID) (int, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	now := s.clock.Now().UTC()
	s.mu.Lock()
	s.evicted[sessionID] = now
	refs := make([]domain.ArtifactRef, 0, len(s.bySession[sessionID]))
	for ref := range s.bySession[sessionID] {
		refs = append(refs, ref)
	}
	s.mu.Unlock()

	return s.remove(ctx, refs, now)
}

// EvictArtifacts removes the session's current artifacts but keeps accepting
// writes. Used when a download window closes on a live session.
func (s *ArtifactStore) EvictArtifacts(ctx context.Context, sessionID domain.SessionID) (int, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	s.mu.Lock()
	refs := make([]domain.ArtifactRef, 0, len(s.bySession[sessionID]))
	for ref := range s.bySession[sessionID] {
		refs = append(refs, ref)
	}
	s.mu.Unlock()

	return s.remove(ctx, refs, s.clock.Now().UTC())
}

// SweepExpired removes artifacts past their expiry regardless of session
// state, and drops tombstones older than the retention window.
func (s *ArtifactStore) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()

	s.mu.Lock()
	bySession := make(map[domain.SessionID][]domain.ArtifactRef)
	for ref, entry := range s.index {
		if entry.meta.Expired(now) {
			bySession[entry.meta.SessionID] = append(bySession[entry.meta.SessionID], ref)
		}
	}
	for ref, at := range s.expired {
		if now.Sub(at) > s.tombstone {
			delete(s.expired, ref)
		}
	}
	for sessionID, at := range s.evicted {
		if now.Sub(at) > s.tombstone && len(s.bySession[sessionID]) == 0 {
			delete(s.evicted, sessionID)
			delete(s.locks, sessionID)
		}
	}
	s.mu.Unlock()

	removed := 0
	var errs []error
	for sessionID, refs := range bySession {
		unlock := s.lockSession(sessionID)
		n, err := s.remove(ctx, refs, now)
		unlock()
		removed += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	s.metrics.AddEvicted("expired", removed)

	return removed, errors.Join(errs...)
}

// Forget is called when a session leaves the registry. Writes for it are
// refused from now on; the tombstone and session lock stay until
// SweepExpired ages them out, so late attempts still serialize on the same
// lock and cannot leave orphan artifacts.
func (s *ArtifactStore) Forget(sessionID domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.evicted[sessionID]; !ok {
		s.evicted[sessionID] = s.clock.Now().UTC()
	}
}

// inFlightBound is the longest a variant run can keep writing after its
// session ended.
func inFlightBound(cfg Config) time.Duration {
	return time.Duration(cfg.MaxAttempts) * (cfg.AttemptTimeout + cfg.MaxBackoff)
}

// remove must be called with the session lock held.
func (s *ArtifactStore) remove(ctx context.Context, refs []domain.ArtifactRef, now time.Time) (int, error) {
	removed := 0
	var errs []error
	for _, ref := range refs {
		s.mu.Lock()
		entry, ok := s.index[ref]
		s.mu.Unlock()
		if !ok {
			continue
		}

		if err := s.blobs.Delete(ctx, entry.key); err != nil {
			errs = append(errs, fmt.Errorf("delete artifact %s: %w", ref, err))
		}

		s.mu.Lock()
		delete(s.index, ref)
		if sessionRefs, ok := s.bySession[entry.meta.SessionID]; ok {
			delete(sessionRefs, ref)
			if len(sessionRefs) == 0 {
				delete(s.bySession, entry.meta.SessionID)
			}
		}
		s.expired[ref] = now
		s.mu.Unlock()
		removed++
	}

	if removed > 0 {
		s.logger.Debug("artifacts removed", zap.Int("count", removed))
	}
	return removed, errors.Join(errs...)
}

func (s *ArtifactStore) isEvicted(sessionID domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.evicted[sessionID]
	return ok
}

func (s *ArtifactStore) lockSession(sessionID domain.SessionID) func() {
	s.mu.Lock()
	lock, ok := s.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sessionID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func blobKey(sessionID domain.SessionID, kind domain.ArtifactKind, ref domain.ArtifactRef) string {
	return fmt.Sprintf("%s/%s/%s", sessionID, kind, ref)
}
