package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/adforge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			called = true
			assert.Equal(t, []string{"insert", "-m", "-f", ports.GeminiAPIKeyRef}, args)
			assert.Equal(t, "AIza-test\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), ports.GeminiAPIKeyRef, "AIza-test"))
	assert.True(t, called)
}

func TestStoreGetReturnsFirstLine(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", ports.GeminiAPIKeyRef}, args)
			assert.Empty(t, input)
			return "AIza-test\r\nproject: demo\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), ports.GeminiAPIKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "AIza-test", value)
}

func TestStoreGetMissingEntryIsNotFound(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "Error: adforge/gemini/api_key is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), ports.GeminiAPIKeyRef)
	assert.ErrorIs(t, err, ports.ErrSecretNotFound)
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), ports.GeminiAPIKeyRef)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrSecretNotFound)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, "gpg: decryption failed")
}

func TestStoreDeleteUsesPassRemoveAndIgnoresMissing(t *testing.T) {
	t.Parallel()

	calls := 0
	store := &Store{
		run: func(ctx context.Context, input string, args ...string) (string, string, error) {
			calls++
			assert.Equal(t, []string{"rm", "-f", ports.GeminiAPIKeyRef}, args)
			if calls == 2 {
				return "", "Error: adforge/gemini/api_key is not in the password store.", errors.New("exit status 1")
			}
			return "", "", nil
		},
	}

	require.NoError(t, store.Delete(context.Background(), ports.GeminiAPIKeyRef))
	require.NoError(t, store.Delete(context.Background(), ports.GeminiAPIKeyRef))
	assert.Equal(t, 2, calls)
}
