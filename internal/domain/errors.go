package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidStage        = errors.New("action not allowed in current stage")
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
	ErrRunFailed           = errors.New("all variants failed")
	ErrBackpressure        = errors.New("generation capacity reached, try again shortly")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrArtifactExpired     = fmt.Errorf("%w: expired", ErrArtifactNotFound)
	ErrSessionEvicted      = errors.New("session artifacts evicted")
	ErrContentRejected     = errors.New("content rejected by service")
	ErrMalformedResponse   = errors.New("malformed service response")
	ErrInvalidOutput       = errors.New("generated image does not meet output requirements")
)

// ValidationError is a local, recoverable input problem. Reprompt carries the
// text the client should show again.
type ValidationError struct {
	Field    string
	Reason   string
	Reprompt string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
