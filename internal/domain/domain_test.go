package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransitionForwardPath(t *testing.T) {
	path := []Stage{StageAwaitingUpload, StageAnalyzing, StageQuestioning, StageQuestioning, StageGenerating, StageReady}
	for i := 1; i < len(path); i++ {
		assert.True(t, CanTransition(path[i-1], path[i]), "%s -> %s", path[i-1], path[i])
	}
}

func TestCanTransitionRejectsBackwardAndSkips(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
	}{
		{name: "skip analysis", from: StageAwaitingUpload, to: StageQuestioning},
		{name: "back to upload", from: StageQuestioning, to: StageAwaitingUpload},
		{name: "ready to generating", from: StageReady, to: StageGenerating},
		{name: "generating expires", from: StageGenerating, to: StageExpired},
		{name: "failed is terminal", from: StageFailed, to: StageFailed},
		{name: "expired is terminal", from: StageExpired, to: StageFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanTransitionFailedFromAnyNonTerminal(t *testing.T) {
	for _, stage := range []Stage{StageAwaitingUpload, StageAnalyzing, StageQuestioning, StageGenerating, StageReady} {
		assert.True(t, CanTransition(stage, StageFailed), string(stage))
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		raw  string
		want Category
	}{
		{raw: "footwear", want: CategoryFashion},
		{raw: "Electronics", want: CategoryElectronics},
		{raw: "beauty_personal_care", want: CategoryBeautyPersonalCare},
		{raw: "Coffee beans", want: CategoryFoodBeverage},
		{raw: "", want: CategoryOther},
		{raw: "spaceship", want: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.raw))
		})
	}
}

func TestProductBriefCloneDoesNotShareSlices(t *testing.T) {
	brief := ProductBrief{Colors: []string{"#000000"}, Features: []string{"leather"}}
	clone := brief.Clone()
	clone.Colors[0] = "#ffffff"
	clone.Features[0] = "canvas"

	assert.Equal(t, "#000000", brief.Colors[0])
	assert.Equal(t, "leather", brief.Features[0])
}

func TestResolutionSatisfies(t *testing.T) {
	target := Resolution{Width: 1080, Height: 1920}
	min := Resolution{Width: 720, Height: 1280}

	assert.True(t, Resolution{Width: 1080, Height: 1920}.Satisfies(target, min, 0.05))
	assert.True(t, Resolution{Width: 768, Height: 1344}.Satisfies(target, min, 0.05))
	assert.False(t, Resolution{Width: 1024, Height: 1024}.Satisfies(target, min, 0.05))
	assert.False(t, Resolution{Width: 540, Height: 960}.Satisfies(target, min, 0.05))
	assert.Equal(t, "9:16", target.AspectLabel())
}

func TestAggregateAndManifest(t *testing.T) {
	var variants [4]VariantResult
	for i, style := range VariantStyles {
		variants[i] = VariantResult{Style: style, Status: VariantFailed, FailureReason: "boom", Attempts: 2}
	}
	assert.Equal(t, RunFailed, Aggregate(variants))

	variants[2] = VariantResult{Style: StyleBenefitFocused, Status: VariantSucceeded, ArtifactRef: "ref-1", Attempts: 1}
	assert.Equal(t, RunSucceeded, Aggregate(variants))

	manifest := ManifestFromResult("s-1", GenerationResult{Variants: variants})
	require.Len(t, manifest.Entries, 4)
	assert.Equal(t, 1, manifest.Present())
	assert.Equal(t, ArtifactRef("ref-1"), manifest.Entries[2].ArtifactRef)
	assert.Empty(t, manifest.Entries[2].FailureReason)
	assert.Equal(t, "boom", manifest.Entries[0].FailureReason)
}

func TestArtifactExpired(t *testing.T) {
	now := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	a := Artifact{ExpiresAt: now}

	assert.True(t, a.Expired(now))
	assert.False(t, a.Expired(now.Add(-time.Second)))
	assert.False(t, Artifact{}.Expired(now))
}

func TestArtifactExpiredIsNotFound(t *testing.T) {
	assert.True(t, errors.Is(ErrArtifactExpired, ErrArtifactNotFound))
	assert.False(t, errors.Is(ErrArtifactNotFound, ErrArtifactExpired))
}

func TestValidationErrorDetection(t *testing.T) {
	err := error(&ValidationError{Field: "answer", Reason: "too short"})
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "invalid answer: too short")
	assert.False(t, IsValidation(errors.New("other")))
}
