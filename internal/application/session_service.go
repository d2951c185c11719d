package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type Dependencies struct {
	Analyzer  ports.ImageAnalyzer
	Generator ports.ImageGenerator
	Inspector ports.ImageInspector
	Blobs     ports.BlobStore
	History   ports.ManifestRepository
	Clock     ports.Clock
	Logger    *zap.Logger
	Metrics   *Metrics
}

type UploadResult struct {
	Accepted bool
}

type AnswerResult struct {
	NextQuestion *domain.Question
	Sufficient   bool
}

type Status struct {
	SessionID     domain.SessionID
	Stage         domain.Stage
	FailureReason domain.FailureReason
	Brief         *domain.ProductBrief
	Pending       *domain.Question
	Answers       []domain.QAPair
	Manifest      *domain.Manifest
	History       []domain.StageTransition
	CreatedAt     time.Time
	LastActivity  time.Time
}

type SweepReport struct {
	Expired          int
	WindowsClosed    int
	ArtifactsExpired int
	Forgotten        int
}

// SessionService is the session state machine. It is the only writer of a
// session's stage; background analysis and generation report back through it
// and are discarded when the session moved on in the meantime.
type SessionService struct {
	cfg          Config
	questions    *QuestionEngine
	analysis     *AnalysisRunner
	orchestrator *GenerationOrchestrator
	artifacts    *ArtifactStore
	inspector    ports.ImageInspector
	history      ports.ManifestRepository
	clock        ports.Clock
	logger       *zap.Logger
	metrics      *Metrics
	admission    *semaphore.Weighted

	mu       sync.RWMutex
	sessions map[domain.SessionID]*sessionEntry

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

type sessionEntry struct {
	mu      sync.Mutex
	session domain.Session
	// epoch changes whenever background work for the session must be
	// discarded on arrival.
	epoch        uint64
	windowClosed bool
}

func NewSessionService(cfg Config, deps Dependencies) (*SessionService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if deps.Analyzer == nil || deps.Generator == nil || deps.Inspector == nil || deps.Blobs == nil {
		return nil, errors.New("analyzer, generator, inspector and blob store are required")
	}
	if deps.Clock == nil {
		deps.Clock = ports.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	artifacts := NewArtifactStore(deps.Blobs, cfg, deps.Clock, deps.Logger.Named("artifacts"), deps.Metrics)
	ctx, stop := context.WithCancel(context.Background())

	return &SessionService{
		cfg:          cfg,
		questions:    NewQuestionEngine(cfg),
		analysis:     NewAnalysisRunner(deps.Analyzer, artifacts, cfg, deps.Logger.Named("analysis")),
		orchestrator: NewGenerationOrchestrator(deps.Generator, deps.Inspector, artifacts, cfg, deps.Clock, deps.Logger.Named("generation"), deps.Metrics),
		artifacts:    artifacts,
		inspector:    deps.Inspector,
		history:      deps.History,
		clock:        deps.Clock,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		admission:    semaphore.NewWeighted(int64(cfg.MaxGeneratingSessions)),
		sessions:     make(map[domain.SessionID]*sessionEntry),
		baseCtx:      ctx,
		stop:         stop,
	}, nil
}

func (s *SessionService) StartSession(ctx context.Context) (domain.SessionID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := s.clock.Now().UTC()
	id := domain.SessionID(uuid.NewString())
	entry := &sessionEntry{session: domain.Session{
		ID:           id,
		Stage:        domain.StageAwaitingUpload,
		CreatedAt:    now,
		LastActivity: now,
		History:      []domain.StageTransition{{To: domain.StageAwaitingUpload, At: now}},
	}}

	s.mu.Lock()
	s.sessions[id] = entry
	s.mu.Unlock()

	s.logger.Info("session started", zap.String("session_id", string(id)))
	return id, nil
}

// UploadImage validates the upload and starts analysis in the background.
// A rejected upload leaves the session in AWAITING_UPLOAD.
func (s *SessionService) UploadImage(ctx context.Context, id domain.SessionID, data []byte, declaredType string) (UploadResult, error) {
	entry, err := s.entry(id)
	if err != nil {
		return UploadResult{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.Stage != domain.StageAwaitingUpload {
		return UploadResult{}, fmt.Errorf("%w: upload in %s", domain.ErrInvalidStage, entry.session.Stage)
	}

	contentType, err := s.validateUpload(data, declaredType)
	if err != nil {
		return UploadResult{Accepted: false}, err
	}

	now := s.clock.Now().UTC()
	if err := s.transition(entry, domain.StageAnalyzing, now); err != nil {
		return UploadResult{}, err
	}
	entry.session.LastActivity = now

	image := append([]byte(nil), data...)
	epoch := entry.epoch
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.analyze(entry, epoch, image, contentType)
	}()

	return UploadResult{Accepted: true}, nil
}

func (s *SessionService) validateUpload(data []byte, declaredType string) (string, error) {
	if !s.cfg.uploadTypeAllowed(declaredType) {
		return "", &domain.ValidationError{Field: "upload", Reason: fmt.Sprintf("type %q is not allowed", declaredType)}
	}
	if len(data) == 0 {
		return "", &domain.ValidationError{Field: "upload", Reason: "file is empty"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return "", &domain.ValidationError{
			Field:  "upload",
			Reason: fmt.Sprintf("size %d bytes exceeds limit of %d bytes", len(data), s.cfg.MaxUploadBytes),
		}
	}

	detected := s.inspector.DetectType(data)
	if !s.cfg.uploadTypeAllowed(detected) {
		return "", &domain.ValidationError{Field: "upload", Reason: fmt.Sprintf("content looks like %q, not an allowed image type", detected)}
	}
	return normalizeContentType(detected), nil
}

func (s *SessionService) analyze(entry *sessionEntry, epoch uint64, image []byte, contentType string) {
	id := entry.session.ID
	ref, brief, err := s.analysis.Run(s.baseCtx, id, image, contentType)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.epoch != epoch || entry.session.Stage != domain.StageAnalyzing {
		s.logger.Debug("discarding analysis result", zap.String("session_id", string(id)))
		return
	}

	now := s.clock.Now().UTC()
	entry.session.InputRef = ref
	if err != nil {
		s.logger.Warn("analysis failed", zap.String("session_id", string(id)), zap.Error(err))
		reason := domain.FailureAnalysisUnavailable
		if !errors.Is(err, domain.ErrAnalysisUnavailable) {
			reason = domain.FailureInternal
		}
		s.fail(entry, reason, now)
		return
	}

	question, _ := s.questions.Next(brief, nil)

	entry.session.Brief = &brief
	entry.session.Pending = &question
	if err := s.transition(entry, domain.StageQuestioning, now); err != nil {
		s.fail(entry, domain.FailureInternal, now)
		return
	}
	entry.session.LastActivity = now
}

// SubmitAnswer records an answer to the pending question. When the answer
// completes the context it takes a generation slot; if none is available the
// answer is not recorded and domain.ErrBackpressure is returned.
func (s *SessionService) SubmitAnswer(ctx context.Context, id domain.SessionID, text string) (AnswerResult, error) {
	entry, err := s.entry(id)
	if err != nil {
		return AnswerResult{}, err
	}

	entry.mu.Lock()
	pair, next, sufficient, err := s.prepareAnswer(entry, text)
	epoch, answered := entry.epoch, len(entry.session.Answers)
	entry.mu.Unlock()
	if err != nil {
		return AnswerResult{}, err
	}

	if !sufficient {
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if entry.epoch != epoch || len(entry.session.Answers) != answered || entry.session.Stage != domain.StageQuestioning {
			return AnswerResult{}, fmt.Errorf("%w: session changed while answering", domain.ErrInvalidStage)
		}

		now := s.clock.Now().UTC()
		if err := s.transition(entry, domain.StageQuestioning, now); err != nil {
			return AnswerResult{}, err
		}
		entry.session.Answers = append(entry.session.Answers, pair)
		entry.session.Pending = &next
		entry.session.LastActivity = now
		question := next
		return AnswerResult{NextQuestion: &question}, nil
	}

	if !s.admit(ctx) {
		s.metrics.IncAdmissionRejected()
		s.logger.Warn("generation admission rejected", zap.String("session_id", string(id)))
		return AnswerResult{}, domain.ErrBackpressure
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.epoch != epoch || len(entry.session.Answers) != answered || entry.session.Stage != domain.StageQuestioning {
		s.release()
		return AnswerResult{}, fmt.Errorf("%w: session changed while answering", domain.ErrInvalidStage)
	}

	now := s.clock.Now().UTC()
	if err := s.transition(entry, domain.StageGenerating, now); err != nil {
		s.release()
		return AnswerResult{}, err
	}
	entry.session.Answers = append(entry.session.Answers, pair)
	entry.session.Pending = nil
	entry.session.LastActivity = now

	input := RunInput{
		SessionID: entry.session.ID,
		Brief:     entry.session.Brief.Clone(),
		Answers:   append([]domain.QAPair(nil), entry.session.Answers...),
	}
	inputRef := entry.session.InputRef
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release()
		s.generate(entry, epoch, input, inputRef)
	}()

	return AnswerResult{Sufficient: true}, nil
}

// prepareAnswer must be called with the entry lock held.
func (s *SessionService) prepareAnswer(entry *sessionEntry, text string) (domain.QAPair, domain.Question, bool, error) {
	session := &entry.session
	if session.Stage != domain.StageQuestioning || session.Pending == nil || session.Brief == nil {
		return domain.QAPair{}, domain.Question{}, false, fmt.Errorf("%w: answer in %s", domain.ErrInvalidStage, session.Stage)
	}

	answer, err := s.questions.ValidateAnswer(*session.Pending, text)
	if err != nil {
		return domain.QAPair{}, domain.Question{}, false, err
	}

	pair := domain.QAPair{QuestionID: session.Pending.ID, Question: session.Pending.Text, Answer: answer}
	answers := append(append([]domain.QAPair(nil), session.Answers...), pair)
	next, sufficient := s.questions.Next(*session.Brief, answers)
	return pair, next, sufficient, nil
}

func (s *SessionService) admit(ctx context.Context) bool {
	if s.cfg.AdmissionWait <= 0 {
		if !s.admission.TryAcquire(1) {
			return false
		}
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, s.cfg.AdmissionWait)
		defer cancel()
		if err := s.admission.Acquire(waitCtx, 1); err != nil {
			return false
		}
	}
	s.metrics.IncGenerating()
	return true
}

func (s *SessionService) release() {
	s.admission.Release(1)
	s.metrics.DecGenerating()
}

func (s *SessionService) generate(entry *sessionEntry, epoch uint64, input RunInput, inputRef domain.ArtifactRef) {
	if inputRef != "" {
		reference, err := s.artifacts.Get(s.baseCtx, inputRef)
		if err != nil {
			s.logger.Warn("reference image unavailable", zap.String("session_id", string(input.SessionID)), zap.Error(err))
		} else {
			input.Reference = reference.Data
			input.ReferenceType = reference.ContentType
		}
	}

	result := s.orchestrator.Run(s.baseCtx, input)

	entry.mu.Lock()
	if entry.epoch != epoch || entry.session.Stage != domain.StageGenerating {
		entry.mu.Unlock()
		s.logger.Info("discarding generation result", zap.String("session_id", string(input.SessionID)))
		return
	}

	now := s.clock.Now().UTC()
	entry.session.Result = &result
	if result.Status == domain.RunSucceeded {
		if err := s.transition(entry, domain.StageReady, now); err != nil {
			s.fail(entry, domain.FailureInternal, now)
		} else {
			entry.session.ReadyAt = now
			entry.session.LastActivity = now
		}
	} else {
		s.fail(entry, domain.FailureGenerationFailed, now)
	}
	record := ports.ManifestRecord{
		SessionID:     entry.session.ID,
		Stage:         entry.session.Stage,
		FailureReason: entry.session.FailureReason,
		Category:      input.Brief.Category,
		Entries:       domain.ManifestFromResult(entry.session.ID, result).Entries,
		CompletedAt:   now,
	}
	entry.mu.Unlock()

	if s.history != nil {
		if err := s.history.Append(s.baseCtx, record); err != nil {
			s.logger.Warn("append manifest history", zap.String("session_id", string(record.SessionID)), zap.Error(err))
		}
	}
}

// PollStatus reports the session's stage. The manifest is only present once
// the session is READY.
func (s *SessionService) PollStatus(ctx context.Context, id domain.SessionID) (Status, error) {
	entry, err := s.entry(id)
	if err != nil {
		return Status{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.session
	status := Status{
		SessionID:     session.ID,
		Stage:         session.Stage,
		FailureReason: session.FailureReason,
		Answers:       append([]domain.QAPair(nil), session.Answers...),
		History:       append([]domain.StageTransition(nil), session.History...),
		CreatedAt:     session.CreatedAt,
		LastActivity:  session.LastActivity,
	}
	if session.Brief != nil {
		brief := session.Brief.Clone()
		status.Brief = &brief
	}
	if session.Pending != nil {
		pending := *session.Pending
		status.Pending = &pending
	}
	if session.Stage == domain.StageReady && session.Result != nil {
		manifest := domain.ManifestFromResult(session.ID, *session.Result)
		status.Manifest = &manifest
	}
	return status, nil
}

func (s *SessionService) FetchArtifact(ctx context.Context, ref domain.ArtifactRef) (domain.Artifact, error) {
	return s.artifacts.Get(ctx, ref)
}

// CancelSession moves a non-terminal session to FAILED/CANCELLED. In-flight
// work is left to finish and its results are dropped.
func (s *SessionService) CancelSession(ctx context.Context, id domain.SessionID) error {
	entry, err := s.entry(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.session.Stage.Terminal() {
		return fmt.Errorf("%w: cancel in %s", domain.ErrInvalidStage, entry.session.Stage)
	}
	s.fail(entry, domain.FailureCancelled, s.clock.Now().UTC())
	return nil
}

// fail must be called with the entry lock held. Last activity is left as is.
func (s *SessionService) fail(entry *sessionEntry, reason domain.FailureReason, now time.Time) {
	if err := s.transition(entry, domain.StageFailed, now); err != nil {
		s.logger.Error("fail session", zap.String("session_id", string(entry.session.ID)), zap.Error(err))
		return
	}
	entry.session.FailureReason = reason
	s.terminate(entry, now, "failed")
}

// terminate must be called with the entry lock held.
func (s *SessionService) terminate(entry *sessionEntry, now time.Time, cause string) {
	entry.epoch++
	entry.session.TerminalAt = now
	entry.session.Pending = nil

	n, err := s.artifacts.Evict(s.baseCtx, entry.session.ID)
	if err != nil {
		s.logger.Warn("evict session artifacts", zap.String("session_id", string(entry.session.ID)), zap.Error(err))
	}
	s.metrics.AddEvicted(cause, n)
}

// transition must be called with the entry lock held.
func (s *SessionService) transition(entry *sessionEntry, to domain.Stage, now time.Time) error {
	from := entry.session.Stage
	if !domain.CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStage, from, to)
	}

	entry.session.Stage = to
	entry.session.History = append(entry.session.History, domain.StageTransition{From: from, To: to, At: now})
	s.metrics.ObserveTransition(from, to)
	s.logger.Info("session transition",
		zap.String("session_id", string(entry.session.ID)),
		zap.String("from", string(from)),
		zap.String("stage", string(to)),
	)
	return nil
}

// Sweep expires idle sessions, closes elapsed download windows, removes
// expired artifacts and forgets sessions past retention.
func (s *SessionService) Sweep(ctx context.Context) SweepReport {
	var report SweepReport
	now := s.clock.Now().UTC()

	s.mu.RLock()
	entries := make([]*sessionEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	var forget []domain.SessionID
	for _, entry := range entries {
		entry.mu.Lock()
		session := &entry.session
		switch {
		case session.Stage.Idle() && now.Sub(session.LastActivity) > s.cfg.IdleTimeout:
			if err := s.transition(entry, domain.StageExpired, now); err == nil {
				s.terminate(entry, now, "expired")
				report.Expired++
			}
		case session.Stage == domain.StageReady && !entry.windowClosed && s.cfg.DownloadWindow > 0 && now.Sub(session.ReadyAt) >= s.cfg.DownloadWindow:
			n, err := s.artifacts.EvictArtifacts(ctx, session.ID)
			if err != nil {
				s.logger.Warn("close download window", zap.String("session_id", string(session.ID)), zap.Error(err))
			}
			s.metrics.AddEvicted("download_window", n)
			entry.windowClosed = true
			report.WindowsClosed++
		}

		if s.retentionElapsed(session, now) {
			forget = append(forget, session.ID)
		}
		entry.mu.Unlock()
	}

	if len(forget) > 0 {
		s.mu.Lock()
		for _, id := range forget {
			delete(s.sessions, id)
		}
		s.mu.Unlock()
		for _, id := range forget {
			s.artifacts.Forget(id)
		}
		report.Forgotten = len(forget)
	}

	n, err := s.artifacts.SweepExpired(ctx)
	if err != nil {
		s.logger.Warn("sweep expired artifacts", zap.Error(err))
	}
	report.ArtifactsExpired = n

	return report
}

func (s *SessionService) retentionElapsed(session *domain.Session, now time.Time) bool {
	if s.cfg.SessionRetention <= 0 {
		return false
	}
	switch {
	case session.Stage.Terminal():
		return now.Sub(session.TerminalAt) >= s.cfg.SessionRetention
	case session.Stage == domain.StageReady:
		return now.Sub(session.ReadyAt) >= s.cfg.DownloadWindow+s.cfg.SessionRetention
	default:
		return false
	}
}

// RunSweeper calls Sweep on every sweep interval until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := s.Sweep(ctx)
			if report != (SweepReport{}) {
				s.logger.Info("sweep finished",
					zap.Int("expired", report.Expired),
					zap.Int("windows_closed", report.WindowsClosed),
					zap.Int("artifacts_expired", report.ArtifactsExpired),
					zap.Int("forgotten", report.Forgotten),
				)
			}
		}
	}
}

// Wait blocks until background analysis and generation have finished.
func (s *SessionService) Wait() {
	s.wg.Wait()
}

// Close cancels background work and waits for it to return.
func (s *SessionService) Close() {
	s.stop()
	s.wg.Wait()
}

func (s *SessionService) entry(id domain.SessionID) (*sessionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return entry, nil
}
