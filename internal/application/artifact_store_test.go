package application

import (
	"context"
	"testing"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestArtifactStore(t *testing.T) (*ArtifactStore, *memBlobs, *fakeClock) {
	t.Helper()
	blobs := newMemBlobs()
	clock := newFakeClock()
	return NewArtifactStore(blobs, testConfig(), clock, nil, nil), blobs, clock
}

func TestArtifactStorePutGet(t *testing.T) {
	store, _, clock := newTestArtifactStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("img"), "image/png")
	require.NoError(t, err)

	artifact, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), artifact.Data)
	assert.Equal(t, domain.SessionID("s-1"), artifact.SessionID)
	assert.Equal(t, "image/png", artifact.ContentType)
	assert.Equal(t, int64(3), artifact.Size)
	assert.Equal(t, clock.Now().Add(time.Hour), artifact.ExpiresAt)
}

func TestArtifactStoreDistinguishesUnknownFromExpired(t *testing.T) {
	store, _, clock := newTestArtifactStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "never-existed")
	require.ErrorIs(t, err, domain.ErrArtifactNotFound)
	assert.NotErrorIs(t, err, domain.ErrArtifactExpired)

	ref, err := store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("img"), "image/png")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = store.Get(ctx, ref)
	require.ErrorIs(t, err, domain.ErrArtifactExpired)

	removed, err := store.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)
}

func TestArtifactStoreEvictRefusesLaterWrites(t *testing.T) {
	store, blobs, _ := newTestArtifactStore(t)
	ctx := context.Background()

	input, err := store.Put(ctx, "s-1", domain.ArtifactInput, []byte("in"), "image/jpeg")
	require.NoError(t, err)
	other, err := store.Put(ctx, "s-2", domain.ArtifactInput, []byte("in"), "image/jpeg")
	require.NoError(t, err)

	removed, err := store.Evict(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, input)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)
	_, err = store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("late"), "image/png")
	assert.ErrorIs(t, err, domain.ErrSessionEvicted)
	assert.Equal(t, 0, blobs.countKind(domain.ArtifactGenerated))

	_, err = store.Get(ctx, other)
	assert.NoError(t, err)
}

func TestArtifactStoreForgottenSessionRefusesLateWritesUntilTombstoneAges(t *testing.T) {
	cfg := testConfig()
	cfg.SessionRetention = time.Millisecond
	cfg.ArtifactTTL = time.Millisecond
	cfg.AttemptTimeout = time.Minute
	cfg.MaxBackoff = time.Second
	blobs := newMemBlobs()
	clock := newFakeClock()
	store := NewArtifactStore(blobs, cfg, clock, nil, nil)
	ctx := context.Background()

	_, err := store.Evict(ctx, "s-1")
	require.NoError(t, err)
	store.Forget("s-1")

	// Still inside the window an in-flight attempt could be running.
	clock.Advance(time.Minute)
	_, err = store.SweepExpired(ctx)
	require.NoError(t, err)
	_, err = store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("late"), "image/png")
	assert.ErrorIs(t, err, domain.ErrSessionEvicted)
	assert.Equal(t, 0, blobs.countKind(domain.ArtifactGenerated))

	clock.Advance(inFlightBound(cfg))
	_, err = store.SweepExpired(ctx)
	require.NoError(t, err)

	store.mu.Lock()
	_, tombstoned := store.evicted["s-1"]
	_, locked := store.locks["s-1"]
	store.mu.Unlock()
	assert.False(t, tombstoned)
	assert.False(t, locked)
}

func TestArtifactStoreForgetTombstonesLiveSession(t *testing.T) {
	store, _, _ := newTestArtifactStore(t)

	store.Forget("s-ready")
	_, err := store.Put(context.Background(), "s-ready", domain.ArtifactGenerated, []byte("img"), "image/png")
	assert.ErrorIs(t, err, domain.ErrSessionEvicted)
}

func TestArtifactStoreEvictArtifactsKeepsSessionWritable(t *testing.T) {
	store, _, _ := newTestArtifactStore(t)
	ctx := context.Background()

	ref, err := store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("img"), "image/png")
	require.NoError(t, err)

	removed, err := store.EvictArtifacts(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)
	_, err = store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("img"), "image/png")
	assert.NoError(t, err)
}

func TestArtifactStoreBlobMissingReadsAsExpired(t *testing.T) {
	blobs := mocks.NewMockBlobStore(t)
	blobs.EXPECT().Put(mock.Anything, mock.Anything, []byte("img"), "image/png").Return(nil).Once()
	blobs.EXPECT().Get(mock.Anything, mock.Anything).Return(nil, domain.ErrArtifactNotFound).Once()

	store := NewArtifactStore(blobs, testConfig(), newFakeClock(), nil, nil)
	ctx := context.Background()

	ref, err := store.Put(ctx, "s-1", domain.ArtifactGenerated, []byte("img"), "image/png")
	require.NoError(t, err)

	_, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)
}
