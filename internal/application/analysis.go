package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// AnalysisRunner stores the uploaded input and turns it into a product brief,
// applying the retry policy for the image-understanding service.
type AnalysisRunner struct {
	analyzer       ports.ImageAnalyzer
	artifacts      *ArtifactStore
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *zap.Logger
}

func NewAnalysisRunner(analyzer ports.ImageAnalyzer, artifacts *ArtifactStore, cfg Config, logger *zap.Logger) *AnalysisRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisRunner{
		analyzer:       analyzer,
		artifacts:      artifacts,
		maxAttempts:    max(cfg.AnalysisMaxAttempts, 1),
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger,
	}
}

// Run stores the input artifact before calling out, so the returned ref is
// valid even when analysis fails. Transport errors are retried up to the
// attempt budget, malformed responses once, and content rejections never.
func (r *AnalysisRunner) Run(ctx context.Context, sessionID domain.SessionID, image []byte, contentType string) (domain.ArtifactRef, domain.ProductBrief, error) {
	ref, err := r.artifacts.Put(ctx, sessionID, domain.ArtifactInput, image, contentType)
	if err != nil {
		return "", domain.ProductBrief{}, fmt.Errorf("store input artifact: %w", err)
	}

	logger := r.logger.With(zap.String("session_id", string(sessionID)))
	var (
		brief     domain.ProductBrief
		attempts  int
		malformed int
	)

	operation := func() error {
		attempts++
		result, err := r.analyzer.Analyze(ctx, image, contentType)
		if err == nil {
			brief = result
			return nil
		}

		switch {
		case errors.Is(err, domain.ErrContentRejected):
			return backoff.Permanent(err)
		case errors.Is(err, domain.ErrMalformedResponse):
			malformed++
			if malformed > 1 {
				return backoff.Permanent(err)
			}
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}

		logger.Warn("analysis attempt failed", zap.Int("attempt", attempts), zap.Error(err))
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialBackOff(r.initialBackoff, r.maxBackoff), uint64(r.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return ref, domain.ProductBrief{}, fmt.Errorf("%w after %d attempts: %w", domain.ErrAnalysisUnavailable, attempts, err)
	}

	brief = brief.Clone()
	if brief.Category == "" {
		brief.Category = domain.CategoryOther
	}
	brief.Confidence = min(max(brief.Confidence, 0), 1)

	return ref, brief, nil
}

func newExponentialBackOff(initial, maxInterval time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
