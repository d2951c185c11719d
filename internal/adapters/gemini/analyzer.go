package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const analysisInstruction = `You are a product photo analyst for social media advertising.
Describe the single product shown in the image and answer with JSON only:
{"label": "short product name", "category": "one of fashion, electronics, food_beverage, home_garden, beauty_personal_care, sports_outdoors, automotive, books_media, toys_games, services, other",
"colors": ["dominant colours, most prominent first"], "style": ["visual style descriptors"],
"features": ["notable product features"], "confidence": 0.0}
confidence is your certainty in the identification between 0 and 1.`

type briefPayload struct {
	Label      string   `json:"label"`
	Category   string   `json:"category"`
	Colors     []string `json:"colors"`
	Style      []string `json:"style"`
	Features   []string `json:"features"`
	Confidence float64  `json:"confidence"`
}

type Analyzer struct {
	models contentGenerator
	model  string
	logger *zap.Logger
}

var _ ports.ImageAnalyzer = (*Analyzer)(nil)

func NewAnalyzer(models contentGenerator, model string, logger *zap.Logger) *Analyzer {
	if model == "" {
		model = DefaultAnalysisModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{models: models, model: model, logger: logger}
}

func (a *Analyzer) Analyze(ctx context.Context, image []byte, contentType string) (domain.ProductBrief, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, contentType),
			genai.NewPartFromText("Analyze this product image."),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(analysisInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := a.models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return domain.ProductBrief{}, fmt.Errorf("gemini analyze: %w", err)
	}
	if err := checkRejected(resp); err != nil {
		return domain.ProductBrief{}, err
	}

	raw := responseText(resp)
	if raw == "" {
		return domain.ProductBrief{}, fmt.Errorf("%w: empty analysis", domain.ErrMalformedResponse)
	}

	var payload briefPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		a.logger.Debug("undecodable analysis", zap.String("raw", raw), zap.Error(err))
		return domain.ProductBrief{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(payload.Label) == "" {
		return domain.ProductBrief{}, fmt.Errorf("%w: missing product label", domain.ErrMalformedResponse)
	}

	return domain.ProductBrief{
		Label:            strings.TrimSpace(payload.Label),
		Category:         domain.Category(strings.TrimSpace(payload.Category)),
		Colors:           compact(payload.Colors),
		StyleDescriptors: compact(payload.Style),
		Features:         compact(payload.Features),
		Confidence:       payload.Confidence,
		Raw:              raw,
	}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, part := range firstParts(resp) {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

// stripCodeFence unwraps ```json fenced output.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(trimmed), "```"))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
