package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bnema/adforge/internal/domain"
)

type Config struct {
	AllowedUploadTypes []string
	MaxUploadBytes     int64

	TargetResolution    domain.Resolution
	MinOutputResolution domain.Resolution
	AspectTolerance     float64

	MaxAttempts           int
	InitialBackoff        time.Duration
	MaxBackoff            time.Duration
	AttemptTimeout        time.Duration
	MaxGeneratingSessions int
	AdmissionWait         time.Duration

	AnalysisMaxAttempts int

	MinAnswerLength     int
	ConfidenceThreshold float64

	IdleTimeout      time.Duration
	SessionRetention time.Duration
	SweepInterval    time.Duration

	ArtifactTTL    time.Duration
	DownloadWindow time.Duration
}

func DefaultConfig() Config {
	return Config{
		AllowedUploadTypes:    []string{"image/jpeg", "image/png", "image/webp"},
		MaxUploadBytes:        10 << 20,
		TargetResolution:      domain.Resolution{Width: 1080, Height: 1920},
		MinOutputResolution:   domain.Resolution{Width: 720, Height: 1280},
		AspectTolerance:       0.05,
		MaxAttempts:           3,
		InitialBackoff:        500 * time.Millisecond,
		MaxBackoff:            8 * time.Second,
		AttemptTimeout:        90 * time.Second,
		MaxGeneratingSessions: 4,
		AnalysisMaxAttempts:   3,
		MinAnswerLength:       3,
		ConfidenceThreshold:   0.6,
		IdleTimeout:           30 * time.Minute,
		SessionRetention:      24 * time.Hour,
		SweepInterval:         time.Minute,
		ArtifactTTL:           time.Hour,
		DownloadWindow:        time.Hour,
	}
}

func (c Config) Validate() error {
	var errs []error
	if len(c.AllowedUploadTypes) == 0 {
		errs = append(errs, errors.New("allowed upload types are empty"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes))
	}
	if c.TargetResolution.Width <= 0 || c.TargetResolution.Height <= 0 {
		errs = append(errs, fmt.Errorf("invalid target resolution %s", c.TargetResolution))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.AnalysisMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("analysis max attempts must be at least 1, got %d", c.AnalysisMaxAttempts))
	}
	if c.MaxGeneratingSessions < 1 {
		errs = append(errs, fmt.Errorf("max generating sessions must be at least 1, got %d", c.MaxGeneratingSessions))
	}
	if c.ArtifactTTL <= 0 {
		errs = append(errs, errors.New("artifact ttl must be positive"))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, errors.New("idle timeout must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) uploadTypeAllowed(contentType string) bool {
	normalized := normalizeContentType(contentType)
	for _, allowed := range c.AllowedUploadTypes {
		if normalizeContentType(allowed) == normalized {
			return true
		}
	}
	return false
}

func normalizeContentType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "image/jpg" {
		return "image/jpeg"
	}
	return base
}
