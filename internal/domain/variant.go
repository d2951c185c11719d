package domain

import (
	"fmt"
	"math"
)

type VariantStyle string

const (
	StyleLifestyle      VariantStyle = "lifestyle"
	StyleProductHero    VariantStyle = "product_hero"
	StyleBenefitFocused VariantStyle = "benefit_focused"
	StyleSocialProof    VariantStyle = "social_proof"
)

// VariantStyles is the fixed fan-out, in manifest slot order.
var VariantStyles = [4]VariantStyle{
	StyleLifestyle,
	StyleProductHero,
	StyleBenefitFocused,
	StyleSocialProof,
}

type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

func (r Resolution) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// AspectLabel renders the reduced ratio, e.g. "9:16".
func (r Resolution) AspectLabel() string {
	g := gcd(r.Width, r.Height)
	if g == 0 {
		return "0:0"
	}
	return fmt.Sprintf("%d:%d", r.Width/g, r.Height/g)
}

// Satisfies reports whether r has the target's aspect ratio within tolerance
// and is at least min in both dimensions.
func (r Resolution) Satisfies(target, min Resolution, tolerance float64) bool {
	if r.Width < min.Width || r.Height < min.Height {
		return false
	}
	return math.Abs(r.AspectRatio()-target.AspectRatio()) <= tolerance
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

type VariantSpec struct {
	Style      VariantStyle
	Prompt     string
	Resolution Resolution
}
