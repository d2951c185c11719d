package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Inspector identifies image bytes by content and reads their pixel size
// without decoding the full image.
type Inspector struct{}

var _ ports.ImageInspector = Inspector{}

func NewInspector() Inspector {
	return Inspector{}
}

// DetectType returns the sniffed MIME type without parameters.
func (Inspector) DetectType(data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mediaType)
}

func (Inspector) Dimensions(data []byte) (domain.Resolution, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("%w: decode image header: %v", domain.ErrInvalidOutput, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return domain.Resolution{}, fmt.Errorf("%w: %s image has no pixels", domain.ErrInvalidOutput, format)
	}
	return domain.Resolution{Width: cfg.Width, Height: cfg.Height}, nil
}
