package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/adforge/internal/adapters/secrets/file"
	passstore "github.com/bnema/adforge/internal/adapters/secrets/pass"
	"github.com/bnema/adforge/internal/ports"
	"go.uber.org/zap"
)

// Store reads and writes through a primary backend and falls back to a
// secondary one when the primary fails.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	logger   *zap.Logger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore, logger *zap.Logger) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{primary: primary, fallback: fallback, logger: logger}, nil
}

func NewPassFirstWithFileFallback(fileRoot string, logger *zap.Logger) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot), logger)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	s.logger.Debug("primary secret backend put failed", zap.String("key", key), zap.Error(err))
	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, _, err := s.Lookup(ctx, key)
	return value, err
}

// Lookup is Get that also reports which backend served the value.
func (s *Store) Lookup(ctx context.Context, key string) (string, string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, backendName(s.primary, "primary"), nil
	}
	if shouldSkipFallback(err) {
		return "", "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, backendName(s.fallback, "fallback"), nil
	}

	primaryMissing := errors.Is(err, ports.ErrSecretNotFound) || errors.Is(err, passstore.ErrUnavailable)
	if primaryMissing && errors.Is(fallbackErr, ports.ErrSecretNotFound) {
		return "", "", fmt.Errorf("secret %q: %w", key, ports.ErrSecretNotFound)
	}
	return "", "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete removes the key from both backends so a value written to the
// fallback earlier cannot resurface.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case err == nil || fallbackErr == nil:
		if err != nil {
			s.logger.Debug("primary secret backend delete failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	default:
		return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
	}
}

func backendName(store ports.SecretStore, fallback string) string {
	if named, ok := store.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fallback
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
