package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type RunInput struct {
	SessionID     domain.SessionID
	Brief         domain.ProductBrief
	Answers       []domain.QAPair
	Reference     []byte
	ReferenceType string
}

// GenerationOrchestrator fans one run out to the four variant styles and
// aggregates their outcomes once every variant has finished.
type GenerationOrchestrator struct {
	generator ports.ImageGenerator
	inspector ports.ImageInspector
	artifacts *ArtifactStore
	cfg       Config
	clock     ports.Clock
	logger    *zap.Logger
	metrics   *Metrics
}

func NewGenerationOrchestrator(
	generator ports.ImageGenerator,
	inspector ports.ImageInspector,
	artifacts *ArtifactStore,
	cfg Config,
	clock ports.Clock,
	logger *zap.Logger,
	metrics *Metrics,
) *GenerationOrchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationOrchestrator{
		generator: generator,
		inspector: inspector,
		artifacts: artifacts,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

type slotResult struct {
	slot   int
	result domain.VariantResult
}

// Run blocks until all four variants have succeeded or exhausted their
// attempts. Variants never share mutable state.
func (o *GenerationOrchestrator) Run(ctx context.Context, in RunInput) domain.GenerationResult {
	startedAt := o.clock.Now().UTC()
	brief := in.Brief.Clone()
	answers := append([]domain.QAPair(nil), in.Answers...)
	specs := ComposeVariantSpecs(brief, answers, o.cfg.TargetResolution)

	results := make(chan slotResult, len(specs))
	for i, spec := range specs {
		go func(slot int, spec domain.VariantSpec) {
			results <- slotResult{slot: slot, result: o.runVariant(ctx, in, spec)}
		}(i, spec)
	}

	var run domain.GenerationResult
	for range specs {
		r := <-results
		run.Variants[r.slot] = r.result
	}

	run.Status = domain.Aggregate(run.Variants)
	run.StartedAt = startedAt
	run.CompletedAt = o.clock.Now().UTC()
	o.metrics.ObserveRun(run.Status, run.CompletedAt.Sub(startedAt))

	o.logger.Info("generation run finished",
		zap.String("session_id", string(in.SessionID)),
		zap.String("status", string(run.Status)),
		zap.Int("succeeded", run.Succeeded()),
	)
	return run
}

func (o *GenerationOrchestrator) runVariant(ctx context.Context, in RunInput, spec domain.VariantSpec) domain.VariantResult {
	result := domain.VariantResult{Style: spec.Style, Status: domain.VariantPending}
	logger := o.logger.With(
		zap.String("session_id", string(in.SessionID)),
		zap.String("variant", string(spec.Style)),
	)

	req := ports.GenerationRequest{
		Prompt:        spec.Prompt,
		Resolution:    spec.Resolution,
		Reference:     in.Reference,
		ReferenceType: in.ReferenceType,
	}

	operation := func() error {
		result.Attempts++
		ref, err := o.attempt(ctx, in.SessionID, req)
		if err == nil {
			result.ArtifactRef = ref
			o.metrics.ObserveAttempt(spec.Style, "success")
			return nil
		}

		result.FailureReason = err.Error()
		o.metrics.ObserveAttempt(spec.Style, "failure")
		logger.Warn("generation attempt failed", zap.Int("attempt", result.Attempts), zap.Error(err))

		if errors.Is(err, domain.ErrContentRejected) || errors.Is(err, domain.ErrSessionEvicted) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newExponentialBackOff(o.cfg.InitialBackoff, o.cfg.MaxBackoff), uint64(max(o.cfg.MaxAttempts, 1)-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		result.Status = domain.VariantFailed
		if result.FailureReason == "" {
			result.FailureReason = err.Error()
		}
		return result
	}

	result.Status = domain.VariantSucceeded
	result.FailureReason = ""
	return result
}

func (o *GenerationOrchestrator) attempt(ctx context.Context, sessionID domain.SessionID, req ports.GenerationRequest) (domain.ArtifactRef, error) {
	attemptCtx := ctx
	if o.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, o.cfg.AttemptTimeout)
		defer cancel()
	}

	image, err := o.generator.Generate(attemptCtx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(image.Data) == 0 {
		return "", fmt.Errorf("generate: %w: empty image", domain.ErrMalformedResponse)
	}

	size, err := o.inspector.Dimensions(image.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidOutput, err)
	}
	if !size.Satisfies(o.cfg.TargetResolution, o.cfg.MinOutputResolution, o.cfg.AspectTolerance) {
		return "", fmt.Errorf("%w: got %s, want %s aspect at least %s", domain.ErrInvalidOutput, size, o.cfg.TargetResolution.AspectLabel(), o.cfg.MinOutputResolution)
	}

	contentType := image.ContentType
	if contentType == "" {
		contentType = o.inspector.DetectType(image.Data)
	}

	ref, err := o.artifacts.Put(ctx, sessionID, domain.ArtifactGenerated, image.Data, contentType)
	if err != nil {
		return "", fmt.Errorf("store output: %w", err)
	}
	return ref, nil
}
