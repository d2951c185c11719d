package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/bnema/adforge/internal/ports/mocks"
	"github.com/stretchr/testify/mock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: make(map[string][]byte)}
}

func (b *memBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[key]
	if !ok {
		return nil, domain.ErrArtifactNotFound
	}
	return append([]byte(nil), data...), nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *memBlobs) countKind(kind domain.ArtifactKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for key := range b.data {
		if strings.Contains(key, "/"+string(kind)+"/") {
			count++
		}
	}
	return count
}

var _ ports.BlobStore = (*memBlobs)(nil)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAttempts = 2
	cfg.AnalysisMaxAttempts = 3
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	cfg.AttemptTimeout = time.Second
	return cfg
}

func shoeBrief() domain.ProductBrief {
	return domain.ProductBrief{
		Label:            "running shoe",
		Category:         "footwear",
		Colors:           []string{"#112233", "#ffffff", "#ff0000", "#00ff00"},
		StyleDescriptors: []string{"sporty", "modern"},
		Features:         []string{"breathable mesh running shoe"},
		Confidence:       0.9,
	}
}

// styleOf recovers the variant style from a composed prompt.
func styleOf(prompt string) domain.VariantStyle {
	switch {
	case strings.Contains(prompt, "real-world lifestyle context"):
		return domain.StyleLifestyle
	case strings.Contains(prompt, "as the hero element"):
		return domain.StyleProductHero
	case strings.Contains(prompt, "represents the benefits"):
		return domain.StyleBenefitFocused
	case strings.Contains(prompt, "testimonial or review aesthetic"):
		return domain.StyleSocialProof
	default:
		return ""
	}
}

func permissiveInspector(t *testing.T) *mocks.MockImageInspector {
	t.Helper()
	inspector := mocks.NewMockImageInspector(t)
	inspector.EXPECT().DetectType(mock.Anything).Return("image/jpeg").Maybe()
	inspector.EXPECT().Dimensions(mock.Anything).Return(domain.Resolution{Width: 1080, Height: 1920}, nil).Maybe()
	return inspector
}

func pngImage() ports.GeneratedImage {
	return ports.GeneratedImage{Data: []byte("generated-image"), ContentType: "image/png"}
}
