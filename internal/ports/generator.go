package ports

import (
	"context"

	"github.com/bnema/adforge/internal/domain"
)

type GenerationRequest struct {
	Prompt        string
	Resolution    domain.Resolution
	Reference     []byte
	ReferenceType string
}

type GeneratedImage struct {
	Data        []byte
	ContentType string
}

type ImageGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (GeneratedImage, error)
}

type ImageInspector interface {
	DetectType(data []byte) string
	Dimensions(data []byte) (domain.Resolution, error)
}
