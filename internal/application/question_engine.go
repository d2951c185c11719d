package application

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bnema/adforge/internal/domain"
)

var baseQuestions = []domain.Question{
	{ID: domain.QuestionTargetAudience, Text: "Who is your target customer? (e.g., young professionals, parents, fitness enthusiasts, etc.)"},
	{ID: domain.QuestionBrandTone, Text: "What tone should your ad convey? (professional, playful, luxury, minimalist, bold, friendly, sophisticated)"},
	{ID: domain.QuestionKeyMessage, Text: "What's the main selling point or call-to-action for your product?"},
}

var followUpQuestions = map[domain.Category]string{
	domain.CategoryFashion:            "What's the primary age group and style aesthetic for this fashion item? (minimalist, streetwear, classic, trendy, etc.)",
	domain.CategoryElectronics:        "Are you targeting tech enthusiasts, general consumers, or professionals, and what problem does the product solve for them?",
	domain.CategoryFoodBeverage:       "What eating or drinking occasion is this for? (breakfast, snack, dinner, celebration, workout, etc.)",
	domain.CategoryBeautyPersonalCare: "What beauty concerns or goals does this product address? (anti-aging, hydration, acne, glow, etc.)",
	domain.CategoryHomeGarden:         "What area of the home or garden is this for? (living room, kitchen, bedroom, outdoor, etc.)",
	domain.CategorySportsOutdoors:     "What sport or outdoor activity is this designed for, and at what fitness level?",
	domain.CategoryServices:           "Who are your ideal clients? (individuals, small businesses, enterprises, specific industries)",
}

const genericFollowUp = "What age range are your customers, and what problem does your product solve for them?"

var vagueAnswers = map[string]struct{}{
	"any": {}, "anyone": {}, "anybody": {}, "everyone": {}, "everybody": {}, "all": {},
	"whatever": {}, "idk": {}, "n/a": {}, "none": {}, "nothing": {}, "dunno": {}, "unsure": {},
}

var vaguePhrases = []string{"not sure", "don't know", "dont know", "no idea", "doesn't matter", "no preference"}

// QuestionEngine decides the next clarifying question from the product brief
// and the answers so far. It has no state of its own.
type QuestionEngine struct {
	minAnswerLength     int
	confidenceThreshold float64
}

func NewQuestionEngine(cfg Config) *QuestionEngine {
	return &QuestionEngine{
		minAnswerLength:     cfg.MinAnswerLength,
		confidenceThreshold: cfg.ConfidenceThreshold,
	}
}

// ValidateAnswer trims text and rejects answers shorter than the minimum
// meaningful length with a ValidationError carrying the pending question.
func (e *QuestionEngine) ValidateAnswer(pending domain.Question, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < e.minAnswerLength {
		return "", &domain.ValidationError{
			Field:    "answer",
			Reason:   fmt.Sprintf("must be at least %d characters", e.minAnswerLength),
			Reprompt: pending.Text,
		}
	}
	return trimmed, nil
}

// Next returns the next question to ask, or sufficient=true once enough
// context exists. It never returns an identifier already answered and never
// goes past MaxQuestions.
func (e *QuestionEngine) Next(brief domain.ProductBrief, answers []domain.QAPair) (domain.Question, bool) {
	if len(answers) >= domain.MaxQuestions {
		return domain.Question{}, true
	}

	if len(answers) < domain.MinQuestions {
		if next, ok := nextBaseQuestion(answers); ok {
			return next, false
		}
		return e.followUp(brief), false
	}

	vague := hasVagueAnswer(answers)
	if brief.Confidence >= e.confidenceThreshold && !vague {
		return domain.Question{}, true
	}

	if _, asked := domain.AnswerFor(answers, domain.QuestionFollowUp); vague && !asked {
		return e.followUp(brief), false
	}
	if next, ok := nextBaseQuestion(answers); ok {
		return next, false
	}
	return domain.Question{}, true
}

func (e *QuestionEngine) followUp(brief domain.ProductBrief) domain.Question {
	text, ok := followUpQuestions[domain.NormalizeCategory(string(brief.Category))]
	if !ok {
		text = genericFollowUp
	}
	return domain.Question{ID: domain.QuestionFollowUp, Text: text}
}

func nextBaseQuestion(answers []domain.QAPair) (domain.Question, bool) {
	for _, question := range baseQuestions {
		if _, answered := domain.AnswerFor(answers, question.ID); !answered {
			return question, true
		}
	}
	return domain.Question{}, false
}

func hasVagueAnswer(answers []domain.QAPair) bool {
	for _, pair := range answers {
		if isVague(pair.Answer) {
			return true
		}
	}
	return false
}

func isVague(answer string) bool {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(answer), ".!?"))
	if _, ok := vagueAnswers[normalized]; ok {
		return true
	}
	for _, phrase := range vaguePhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}
