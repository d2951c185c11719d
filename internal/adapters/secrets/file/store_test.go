package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/adforge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "absolute", key: "/etc/adforge", wantErr: "invalid secret key"},
		{name: "traversal", key: "../escape", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), ports.GeminiAPIKeyRef, "AIza-test"))
	require.NoError(t, store.Put(context.Background(), ports.GeminiAPIKeyRef, "AIza-rotated"))

	got, err := store.Get(context.Background(), ports.GeminiAPIKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "AIza-rotated", got)

	info, err := os.Stat(filepath.Join(root, ports.GeminiAPIKeyRef))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFileMod), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(filepath.Join(root, ports.GeminiAPIKeyRef)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreGetMissingIsNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	_, err := store.Get(context.Background(), ports.GeminiAPIKeyRef)
	assert.ErrorIs(t, err, ports.ErrSecretNotFound)
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), ports.GeminiAPIKeyRef, "AIza-test"))

	require.NoError(t, store.Delete(context.Background(), ports.GeminiAPIKeyRef))
	require.NoError(t, store.Delete(context.Background(), ports.GeminiAPIKeyRef))

	_, err := store.Get(context.Background(), ports.GeminiAPIKeyRef)
	assert.ErrorIs(t, err, ports.ErrSecretNotFound)
}
