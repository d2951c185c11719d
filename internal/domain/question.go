package domain

type QuestionID string

const (
	QuestionTargetAudience QuestionID = "target_audience"
	QuestionBrandTone      QuestionID = "brand_tone"
	QuestionKeyMessage     QuestionID = "key_message"
	QuestionFollowUp       QuestionID = "follow_up"
)

const (
	MinQuestions = 2
	MaxQuestions = 3
)

type Question struct {
	ID   QuestionID
	Text string
}

type QAPair struct {
	QuestionID QuestionID
	Question   string
	Answer     string
}

// AnswerFor returns the answer recorded for id, if any.
func AnswerFor(answers []QAPair, id QuestionID) (string, bool) {
	for _, pair := range answers {
		if pair.QuestionID == id {
			return pair.Answer, true
		}
	}
	return "", false
}
