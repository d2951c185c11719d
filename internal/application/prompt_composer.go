package application

import (
	"fmt"
	"strings"

	"github.com/bnema/adforge/internal/domain"
)

const (
	defaultAudience = "everyday consumers"
	defaultTone     = "professional"
)

var styleTemplates = map[domain.VariantStyle]string{
	domain.StyleLifestyle: `Create a vertical {aspect} social media advertisement showing {subject} in a real-world lifestyle context.
The image should feature the product being used by {audience} in a {setting}.
Style: {tone} tone with natural lighting and authentic scenario.
The scene should convey {message} through the lifestyle integration.
Include space for text overlay in the upper or lower third of the image.`,

	domain.StyleProductHero: `Create a vertical {aspect} social media advertisement featuring {subject} as the hero element.
Clean, minimal background with professional product photography lighting.
Style: {tone} aesthetic with focus on product details and quality.
The product should be prominently displayed with {message} clearly communicated to {audience}.
Include negative space for text overlay and call-to-action elements.`,

	domain.StyleBenefitFocused: `Create a vertical {aspect} social media advertisement that visually represents the benefits of {subject}.
Show the transformation, solution, or positive outcome the product provides to {audience}.
Style: {tone} tone with before/after concept or benefit visualization.
The image should clearly communicate {message} through visual storytelling.
Include areas for benefit-focused text and a compelling call-to-action.`,

	domain.StyleSocialProof: `Create a vertical {aspect} social media advertisement with a testimonial or review aesthetic featuring {subject}.
Include visual elements that suggest customer satisfaction, ratings, or social validation from {audience}.
Style: {tone} tone with trustworthy, authentic social proof indicators.
The design should reinforce {message} through credibility and customer success.
Include space for testimonial text, star ratings, or customer quote overlays.`,
}

// toneModifiers is ordered so keyword matching is deterministic.
var toneModifiers = []struct {
	tone     string
	modifier string
}{
	{"professional", "clean, sophisticated, business-like"},
	{"playful", "fun, colorful, energetic, whimsical"},
	{"luxury", "premium, elegant, high-end, exclusive"},
	{"minimalist", "simple, clean lines, lots of white space, understated"},
	{"bold", "vibrant colors, strong contrast, eye-catching, dramatic"},
	{"friendly", "warm, approachable, welcoming, casual"},
	{"sophisticated", "refined, cultured, tasteful, mature"},
}

var toneKeywords = map[string][]string{
	"professional":  {"professional", "corporate", "business", "formal"},
	"playful":       {"playful", "fun", "whimsical", "quirky", "energetic"},
	"luxury":        {"luxury", "luxurious", "premium", "high-end", "exclusive", "elegant"},
	"minimalist":    {"minimal", "simple", "clean", "understated"},
	"bold":          {"bold", "vibrant", "dramatic", "edgy", "loud"},
	"friendly":      {"friendly", "warm", "casual", "approachable", "welcoming"},
	"sophisticated": {"sophisticated", "refined", "classy", "tasteful", "mature"},
}

var lifestyleSettings = map[domain.Category]string{
	domain.CategoryFashion:            "trendy urban environment, stylish cafe, or fashion-forward setting",
	domain.CategoryElectronics:        "modern workspace, tech-savvy environment, or contemporary home",
	domain.CategoryFoodBeverage:       "inviting kitchen, cozy dining space, or social gathering",
	domain.CategoryBeautyPersonalCare: "elegant bathroom, vanity area, or spa-like setting",
	domain.CategoryHomeGarden:         "beautifully designed home interior or lush garden space",
	domain.CategorySportsOutdoors:     "active outdoor setting, gym environment, or athletic venue",
	domain.CategoryAutomotive:         "scenic road, modern city street, or premium garage",
	domain.CategoryServices:           "professional office, consultation space, or client meeting area",
}

const fallbackSetting = "appropriate real-world context for product usage"

// ToneFor maps a free-form brand-tone answer onto one of the supported tones.
func ToneFor(answer string) string {
	normalized := strings.ToLower(answer)
	for _, entry := range toneModifiers {
		for _, keyword := range toneKeywords[entry.tone] {
			if strings.Contains(normalized, keyword) {
				return entry.tone
			}
		}
	}
	return defaultTone
}

func toneModifier(tone string) string {
	for _, entry := range toneModifiers {
		if entry.tone == tone {
			return entry.modifier
		}
	}
	return toneModifiers[0].modifier
}

// ComposePrompt builds the generation instruction for one variant. The
// output depends only on its arguments.
func ComposePrompt(brief domain.ProductBrief, answers []domain.QAPair, style domain.VariantStyle, target domain.Resolution) string {
	template, ok := styleTemplates[style]
	if !ok {
		template = styleTemplates[domain.StyleProductHero]
	}

	audience := defaultAudience
	if answer, ok := domain.AnswerFor(answers, domain.QuestionTargetAudience); ok {
		audience = answer
	}
	toneAnswer, _ := domain.AnswerFor(answers, domain.QuestionBrandTone)
	message, ok := domain.AnswerFor(answers, domain.QuestionKeyMessage)
	if !ok {
		message = "the quality and appeal of the " + brief.Subject()
	}
	setting, ok := lifestyleSettings[domain.NormalizeCategory(string(brief.Category))]
	if !ok {
		setting = fallbackSetting
	}

	replacer := strings.NewReplacer(
		"{aspect}", target.AspectLabel(),
		"{subject}", brief.Subject(),
		"{audience}", audience,
		"{setting}", setting,
		"{tone}", toneModifier(ToneFor(toneAnswer)),
		"{message}", message,
	)

	var b strings.Builder
	b.WriteString(replacer.Replace(template))

	if len(brief.StyleDescriptors) > 0 {
		fmt.Fprintf(&b, "\nVisual cues from the product: %s.", strings.Join(brief.StyleDescriptors, ", "))
	}
	if len(brief.Colors) > 0 {
		colors := brief.Colors
		if len(colors) > 3 {
			colors = colors[:3]
		}
		fmt.Fprintf(&b, "\nColor palette: Incorporate or complement these dominant colors from the original product image: %s.", strings.Join(colors, ", "))
	}
	for _, pair := range answers {
		if pair.QuestionID == domain.QuestionFollowUp {
			fmt.Fprintf(&b, "\nAdditional context: %s %s", pair.Question, pair.Answer)
		}
	}

	b.WriteString("\n\nAdditional requirements:\n")
	fmt.Fprintf(&b, "- Aspect ratio: exactly %s (vertical)\n", target.AspectLabel())
	fmt.Fprintf(&b, "- Resolution: minimum %s pixels\n", target)
	b.WriteString("- Professional photography quality\n")
	b.WriteString("- Optimized for mobile viewing\n")
	b.WriteString("- Ensure text overlay areas are clear and readable\n")
	b.WriteString("- Use appropriate lighting for product visibility")

	return b.String()
}

// ComposeVariantSpecs composes all four variant specs in slot order.
func ComposeVariantSpecs(brief domain.ProductBrief, answers []domain.QAPair, target domain.Resolution) [4]domain.VariantSpec {
	var specs [4]domain.VariantSpec
	for i, style := range domain.VariantStyles {
		specs[i] = domain.VariantSpec{
			Style:      style,
			Prompt:     ComposePrompt(brief, answers, style, target),
			Resolution: target,
		}
	}
	return specs
}
