package ports

import (
	"context"

	"github.com/bnema/adforge/internal/domain"
)

// ImageAnalyzer wraps the external image-understanding service. Implementations
// return domain.ErrContentRejected for safety refusals and
// domain.ErrMalformedResponse for empty or undecodable output; any other error
// is treated as a transport failure.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, image []byte, contentType string) (domain.ProductBrief, error)
}
