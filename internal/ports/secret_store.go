package ports

import (
	"context"
	"errors"
)

// GeminiAPIKeyRef is the secret-store key holding the Gemini API key.
const GeminiAPIKeyRef = "adforge/gemini/api_key"

var ErrSecretNotFound = errors.New("secret not found")

// SecretStore returns an error wrapping ErrSecretNotFound from Get when the
// key holds no value. Delete is idempotent.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
