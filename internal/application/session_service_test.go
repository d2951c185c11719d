package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/bnema/adforge/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type serviceFixture struct {
	svc       *SessionService
	analyzer  *mocks.MockImageAnalyzer
	generator *mocks.MockImageGenerator
	history   *mocks.MockManifestRepository
	blobs     *memBlobs
	clock     *fakeClock
}

func newServiceFixture(t *testing.T, cfg Config) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		analyzer:  mocks.NewMockImageAnalyzer(t),
		generator: mocks.NewMockImageGenerator(t),
		history:   mocks.NewMockManifestRepository(t),
		blobs:     newMemBlobs(),
		clock:     newFakeClock(),
	}

	svc, err := NewSessionService(cfg, Dependencies{
		Analyzer:  f.analyzer,
		Generator: f.generator,
		Inspector: permissiveInspector(t),
		Blobs:     f.blobs,
		History:   f.history,
		Clock:     f.clock,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	f.svc = svc
	return f
}

// questioningSession uploads a photo and waits until analysis finished.
func (f *serviceFixture) questioningSession(t *testing.T) domain.SessionID {
	t.Helper()
	ctx := context.Background()

	id, err := f.svc.StartSession(ctx)
	require.NoError(t, err)
	result, err := f.svc.UploadImage(ctx, id, make([]byte, 2<<20), "image/jpeg")
	require.NoError(t, err)
	require.True(t, result.Accepted)
	f.svc.Wait()

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StageQuestioning, status.Stage)
	return id
}

func stagesOf(history []domain.StageTransition) []domain.Stage {
	stages := make([]domain.Stage, 0, len(history))
	for _, transition := range history {
		stages = append(stages, transition.To)
	}
	return stages
}

func TestSessionServiceShoeScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, "image/jpeg").Return(shoeBrief(), nil).Once()
	f.generator.EXPECT().Generate(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req ports.GenerationRequest) (ports.GeneratedImage, error) {
			if styleOf(req.Prompt) == domain.StyleSocialProof {
				return ports.GeneratedImage{}, errors.New("upstream 500")
			}
			return pngImage(), nil
		})
	f.history.EXPECT().Append(mock.Anything, mock.MatchedBy(func(record ports.ManifestRecord) bool {
		return record.Stage == domain.StageReady && len(record.Entries) == 4
	})).Return(nil).Once()

	id := f.questioningSession(t)

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Pending)
	assert.Equal(t, domain.QuestionTargetAudience, status.Pending.ID)
	assert.Equal(t, domain.Category("footwear"), status.Brief.Category)

	next, err := f.svc.SubmitAnswer(ctx, id, "young urban runners")
	require.NoError(t, err)
	require.NotNil(t, next.NextQuestion)
	assert.Equal(t, domain.QuestionBrandTone, next.NextQuestion.ID)

	done, err := f.svc.SubmitAnswer(ctx, id, "bold")
	require.NoError(t, err)
	assert.True(t, done.Sufficient)
	assert.Nil(t, done.NextQuestion)

	f.svc.Wait()

	status, err = f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageReady, status.Stage)
	assert.Equal(t, []domain.Stage{
		domain.StageAwaitingUpload,
		domain.StageAnalyzing,
		domain.StageQuestioning,
		domain.StageQuestioning,
		domain.StageGenerating,
		domain.StageReady,
	}, stagesOf(status.History))

	require.NotNil(t, status.Manifest)
	assert.Equal(t, 3, status.Manifest.Present())
	failed := status.Manifest.Entries[3]
	assert.Equal(t, domain.StyleSocialProof, failed.Style)
	assert.Equal(t, 2, failed.Attempts)
	assert.Contains(t, failed.FailureReason, "upstream 500")

	artifact, err := f.svc.FetchArtifact(ctx, status.Manifest.Entries[0].ArtifactRef)
	require.NoError(t, err)
	assert.Equal(t, pngImage().Data, artifact.Data)
}

func TestSessionServiceRejectsOversizedUpload(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	id, err := f.svc.StartSession(ctx)
	require.NoError(t, err)

	result, err := f.svc.UploadImage(ctx, id, make([]byte, 15<<20), "image/jpeg")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.False(t, result.Accepted)

	result, err = f.svc.UploadImage(ctx, id, []byte("gif"), "image/gif")
	require.True(t, domain.IsValidation(err))
	assert.False(t, result.Accepted)

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageAwaitingUpload, status.Stage)
	assert.Len(t, status.History, 1)
}

func TestSessionServiceAnalysisFailure(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ProductBrief{}, domain.ErrContentRejected).Once()

	id, err := f.svc.StartSession(ctx)
	require.NoError(t, err)
	_, err = f.svc.UploadImage(ctx, id, []byte("photo"), "image/jpeg")
	require.NoError(t, err)
	f.svc.Wait()

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, status.Stage)
	assert.Equal(t, domain.FailureAnalysisUnavailable, status.FailureReason)
	assert.Equal(t, 0, f.blobs.countKind(domain.ArtifactInput))
}

func TestSessionServiceShortAnswerDoesNotAdvance(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()
	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, mock.Anything).Return(shoeBrief(), nil).Once()

	id := f.questioningSession(t)

	_, err := f.svc.SubmitAnswer(ctx, id, "  a ")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Reprompt, "target customer")

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, status.Answers)
	assert.Equal(t, domain.QuestionTargetAudience, status.Pending.ID)
}

func TestSessionServiceAllVariantsFail(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, mock.Anything).Return(shoeBrief(), nil).Once()
	f.generator.EXPECT().Generate(mock.Anything, mock.Anything).Return(ports.GeneratedImage{}, errors.New("down"))
	f.history.EXPECT().Append(mock.Anything, mock.MatchedBy(func(record ports.ManifestRecord) bool {
		return record.Stage == domain.StageFailed && record.FailureReason == domain.FailureGenerationFailed
	})).Return(nil).Once()

	id := f.questioningSession(t)
	_, err := f.svc.SubmitAnswer(ctx, id, "young urban runners")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, id, "bold")
	require.NoError(t, err)
	f.svc.Wait()

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, status.Stage)
	assert.Equal(t, domain.FailureGenerationFailed, status.FailureReason)
	assert.Nil(t, status.Manifest)
}

func TestSessionServiceCancelDiscardsStragglers(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	started := make(chan struct{}, 4)
	release := make(chan struct{})
	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, mock.Anything).Return(shoeBrief(), nil).Once()
	f.generator.EXPECT().Generate(mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, ports.GenerationRequest) (ports.GeneratedImage, error) {
			started <- struct{}{}
			<-release
			return pngImage(), nil
		})

	id := f.questioningSession(t)
	_, err := f.svc.SubmitAnswer(ctx, id, "young urban runners")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, id, "bold")
	require.NoError(t, err)

	for range 4 {
		<-started
	}
	require.NoError(t, f.svc.CancelSession(ctx, id))

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, status.Stage)
	assert.Equal(t, domain.FailureCancelled, status.FailureReason)

	close(release)
	f.svc.Wait()

	status, err = f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFailed, status.Stage)
	assert.Equal(t, domain.FailureCancelled, status.FailureReason)
	assert.Nil(t, status.Manifest)
	assert.Equal(t, 0, f.blobs.countKind(domain.ArtifactGenerated))

	assert.ErrorIs(t, f.svc.CancelSession(ctx, id), domain.ErrInvalidStage)
	f.svc.Close()
}

func TestSessionServiceBackpressure(t *testing.T) {
	cfg := testConfig()
	cfg.MaxGeneratingSessions = 1
	f := newServiceFixture(t, cfg)
	ctx := context.Background()

	release := make(chan struct{})
	var once sync.Once
	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, mock.Anything).Return(shoeBrief(), nil).Times(2)
	f.generator.EXPECT().Generate(mock.Anything, mock.Anything).
		RunAndReturn(func(context.Context, ports.GenerationRequest) (ports.GeneratedImage, error) {
			<-release
			return pngImage(), nil
		})
	f.history.EXPECT().Append(mock.Anything, mock.Anything).Return(nil).Times(2)

	first := f.questioningSession(t)
	second := f.questioningSession(t)
	for _, id := range []domain.SessionID{first, second} {
		_, err := f.svc.SubmitAnswer(ctx, id, "young urban runners")
		require.NoError(t, err)
	}

	_, err := f.svc.SubmitAnswer(ctx, first, "bold")
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, second, "bold")
	require.ErrorIs(t, err, domain.ErrBackpressure)

	status, err := f.svc.PollStatus(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, domain.StageQuestioning, status.Stage)
	assert.Len(t, status.Answers, 1)

	once.Do(func() { close(release) })
	f.svc.Wait()

	_, err = f.svc.SubmitAnswer(ctx, second, "bold")
	require.NoError(t, err)
	f.svc.Wait()

	status, err = f.svc.PollStatus(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, domain.StageReady, status.Stage)
}

func TestSessionServiceIdleSessionsExpire(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	id, err := f.svc.StartSession(ctx)
	require.NoError(t, err)

	f.clock.Advance(29 * time.Minute)
	assert.Equal(t, 0, f.svc.Sweep(ctx).Expired)

	f.clock.Advance(2 * time.Minute)
	report := f.svc.Sweep(ctx)
	assert.Equal(t, 1, report.Expired)

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageExpired, status.Stage)

	_, err = f.svc.UploadImage(ctx, id, []byte("photo"), "image/jpeg")
	assert.ErrorIs(t, err, domain.ErrInvalidStage)

	f.clock.Advance(25 * time.Hour)
	report = f.svc.Sweep(ctx)
	assert.Equal(t, 1, report.Forgotten)
	_, err = f.svc.PollStatus(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionServiceArtifactExpiresWhileReady(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	f.analyzer.EXPECT().Analyze(mock.Anything, mock.Anything, mock.Anything).Return(shoeBrief(), nil).Once()
	f.generator.EXPECT().Generate(mock.Anything, mock.Anything).Return(pngImage(), nil)
	f.history.EXPECT().Append(mock.Anything, mock.Anything).Return(nil).Once()

	id := f.questioningSession(t)
	_, err := f.svc.SubmitAnswer(ctx, id, "young urban runners")
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, id, "bold")
	require.NoError(t, err)
	f.svc.Wait()

	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.StageReady, status.Stage)
	ref := status.Manifest.Entries[0].ArtifactRef

	f.clock.Advance(time.Hour + time.Second)

	_, err = f.svc.FetchArtifact(ctx, ref)
	require.ErrorIs(t, err, domain.ErrArtifactNotFound)
	assert.ErrorIs(t, err, domain.ErrArtifactExpired)

	_, err = f.svc.FetchArtifact(ctx, "unknown-ref")
	assert.ErrorIs(t, err, domain.ErrArtifactNotFound)
	assert.NotErrorIs(t, err, domain.ErrArtifactExpired)

	report := f.svc.Sweep(ctx)
	assert.Equal(t, 1, report.WindowsClosed)

	status, err = f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StageReady, status.Stage)
}

func TestSessionServiceRejectsActionsInWrongStage(t *testing.T) {
	f := newServiceFixture(t, testConfig())
	ctx := context.Background()

	id, err := f.svc.StartSession(ctx)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, id, "young urban runners")
	assert.ErrorIs(t, err, domain.ErrInvalidStage)

	_, err = f.svc.PollStatus(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, f.svc.CancelSession(ctx, id))
	status, err := f.svc.PollStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.FailureCancelled, status.FailureReason)
}
