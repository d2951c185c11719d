package ports

import (
	"context"
	"time"

	"github.com/bnema/adforge/internal/domain"
)

type ManifestRecord struct {
	SessionID     domain.SessionID
	Stage         domain.Stage
	FailureReason domain.FailureReason
	Category      domain.Category
	Entries       []domain.ManifestEntry
	CompletedAt   time.Time
}

type ManifestRepository interface {
	Append(ctx context.Context, record ManifestRecord) error
	List(ctx context.Context) ([]ManifestRecord, error)
}
