package httpapi

import (
	"time"

	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
)

type startResponse struct {
	SessionID string `json:"session_id"`
}

type uploadResponse struct {
	Accepted bool `json:"accepted"`
}

type answerRequest struct {
	Text string `json:"text"`
}

type questionJSON struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type answerResponse struct {
	NextQuestion *questionJSON `json:"next_question,omitempty"`
	Sufficient   bool          `json:"sufficient"`
}

type errorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Reprompt string `json:"reprompt,omitempty"`
}

type briefJSON struct {
	Label      string   `json:"label"`
	Category   string   `json:"category"`
	Colors     []string `json:"colors,omitempty"`
	Style      []string `json:"style,omitempty"`
	Features   []string `json:"features,omitempty"`
	Confidence float64  `json:"confidence"`
}

type answerJSON struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type transitionJSON struct {
	From string    `json:"from,omitempty"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
}

type manifestEntryJSON struct {
	Style         string `json:"style"`
	ArtifactRef   string `json:"artifact_ref,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	Attempts      int    `json:"attempts"`
}

type statusResponse struct {
	SessionID     string              `json:"session_id"`
	Stage         string              `json:"stage"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Brief         *briefJSON          `json:"brief,omitempty"`
	PendingQ      *questionJSON       `json:"pending_question,omitempty"`
	Answers       []answerJSON        `json:"answers,omitempty"`
	Manifest      []manifestEntryJSON `json:"manifest,omitempty"`
	History       []transitionJSON    `json:"history"`
	CreatedAt     time.Time           `json:"created_at"`
	LastActivity  time.Time           `json:"last_activity"`
}

func newQuestionJSON(q *domain.Question) *questionJSON {
	if q == nil {
		return nil
	}
	return &questionJSON{ID: string(q.ID), Text: q.Text}
}

func newAnswerResponse(result application.AnswerResult) answerResponse {
	return answerResponse{
		NextQuestion: newQuestionJSON(result.NextQuestion),
		Sufficient:   result.Sufficient,
	}
}

func newStatusResponse(status application.Status) statusResponse {
	resp := statusResponse{
		SessionID:     string(status.SessionID),
		Stage:         string(status.Stage),
		FailureReason: string(status.FailureReason),
		PendingQ:      newQuestionJSON(status.Pending),
		History:       make([]transitionJSON, 0, len(status.History)),
		CreatedAt:     status.CreatedAt,
		LastActivity:  status.LastActivity,
	}
	if b := status.Brief; b != nil {
		resp.Brief = &briefJSON{
			Label:      b.Label,
			Category:   string(b.Category),
			Colors:     b.Colors,
			Style:      b.StyleDescriptors,
			Features:   b.Features,
			Confidence: b.Confidence,
		}
	}
	for _, qa := range status.Answers {
		resp.Answers = append(resp.Answers, answerJSON{QuestionID: string(qa.QuestionID), Question: qa.Question, Answer: qa.Answer})
	}
	for _, t := range status.History {
		resp.History = append(resp.History, transitionJSON{From: string(t.From), To: string(t.To), At: t.At})
	}
	if status.Manifest != nil {
		for _, e := range status.Manifest.Entries {
			resp.Manifest = append(resp.Manifest, manifestEntryJSON{
				Style:         string(e.Style),
				ArtifactRef:   string(e.ArtifactRef),
				FailureReason: e.FailureReason,
				Attempts:      e.Attempts,
			})
		}
	}
	return resp
}
