package domain

import "time"

type SessionID string

type Stage string

const (
	StageAwaitingUpload Stage = "AWAITING_UPLOAD"
	StageAnalyzing      Stage = "ANALYZING"
	StageQuestioning    Stage = "QUESTIONING"
	StageGenerating     Stage = "GENERATING"
	StageReady          Stage = "READY"
	StageFailed         Stage = "FAILED"
	StageExpired        Stage = "EXPIRED"
)

type FailureReason string

const (
	FailureAnalysisUnavailable FailureReason = "ANALYSIS_UNAVAILABLE"
	FailureGenerationFailed    FailureReason = "GENERATION_FAILED"
	FailureCancelled           FailureReason = "CANCELLED"
	FailureInternal            FailureReason = "INTERNAL_FAULT"
)

func (s Stage) Terminal() bool {
	switch s {
	case StageFailed, StageExpired:
		return true
	default:
		return false
	}
}

// Idle reports whether the idle-timeout sweep applies to the stage.
func (s Stage) Idle() bool {
	switch s {
	case StageAwaitingUpload, StageAnalyzing, StageQuestioning:
		return true
	default:
		return false
	}
}

var forwardTransitions = map[Stage][]Stage{
	StageAwaitingUpload: {StageAnalyzing},
	StageAnalyzing:      {StageQuestioning},
	StageQuestioning:    {StageQuestioning, StageGenerating},
	StageGenerating:     {StageReady},
}

// CanTransition reports whether a session may move from one stage to another.
// FAILED is reachable from any non-terminal stage (READY included, for internal
// faults), EXPIRED only from the idle stages.
func CanTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case StageFailed:
		return true
	case StageExpired:
		return from.Idle()
	}
	for _, next := range forwardTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type StageTransition struct {
	From Stage
	To   Stage
	At   time.Time
}

type Session struct {
	ID            SessionID
	Stage         Stage
	FailureReason FailureReason
	Brief         *ProductBrief
	Answers       []QAPair
	Pending       *Question
	InputRef      ArtifactRef
	Result        *GenerationResult
	CreatedAt     time.Time
	LastActivity  time.Time
	ReadyAt       time.Time
	TerminalAt    time.Time
	History       []StageTransition
}
