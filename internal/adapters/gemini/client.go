package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/adforge/internal/domain"
	"google.golang.org/genai"
)

const (
	DefaultAnalysisModel = "gemini-2.5-flash"
	DefaultImageModel    = "gemini-2.5-flash-image-preview"
)

// contentGenerator is the part of *genai.Models used by the adapters.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewModels builds a Gemini API client and returns its model service.
func NewModels(ctx context.Context, apiKey string) (*genai.Models, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client.Models, nil
}

// checkRejected reports a safety refusal either on the prompt or on the first
// candidate.
func checkRejected(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return fmt.Errorf("%w: prompt blocked (%s)", domain.ErrContentRejected, fb.BlockReason)
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		reason := string(candidate.FinishReason)
		if strings.Contains(reason, "SAFETY") || strings.Contains(reason, "PROHIBITED") ||
			candidate.FinishReason == genai.FinishReasonBlocklist || candidate.FinishReason == genai.FinishReasonSPII {
			return fmt.Errorf("%w: finish reason %s", domain.ErrContentRejected, reason)
		}
	}
	return nil
}

func firstParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			return candidate.Content.Parts
		}
	}
	return nil
}
