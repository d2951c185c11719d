package gemini

import (
	"context"
	"fmt"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const referencePrefix = "Using the product shown in the uploaded image as the main subject, "

type Generator struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

var _ ports.ImageGenerator = (*Generator)(nil)

func NewGenerator(models contentGenerator, model string, logger *zap.Logger) *Generator {
	if model == "" {
		model = DefaultImageModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{models: models, model: model, logger: logger}
}

func (g *Generator) Generate(ctx context.Context, req ports.GenerationRequest) (ports.GeneratedImage, error) {
	prompt := req.Prompt
	parts := make([]*genai.Part, 0, 2)
	if len(req.Reference) > 0 {
		prompt = referencePrefix + prompt
		parts = append(parts, genai.NewPartFromText(prompt), genai.NewPartFromBytes(req.Reference, req.ReferenceType))
	} else {
		parts = append(parts, genai.NewPartFromText(prompt))
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	if req.Resolution.Width > 0 && req.Resolution.Height > 0 {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: req.Resolution.AspectLabel()}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, config)
	if err != nil {
		return ports.GeneratedImage{}, fmt.Errorf("gemini generate: %w", err)
	}
	if err := checkRejected(resp); err != nil {
		return ports.GeneratedImage{}, err
	}

	for _, part := range firstParts(resp) {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		return ports.GeneratedImage{Data: part.InlineData.Data, ContentType: part.InlineData.MIMEType}, nil
	}

	g.logger.Debug("generation returned no image", zap.String("text", responseText(resp)))
	return ports.GeneratedImage{}, fmt.Errorf("%w: no image in response", domain.ErrMalformedResponse)
}
