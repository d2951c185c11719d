package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cosblob "github.com/bnema/adforge/internal/adapters/blob/cos"
	fileblob "github.com/bnema/adforge/internal/adapters/blob/file"
	memoryblob "github.com/bnema/adforge/internal/adapters/blob/memory"
	"github.com/bnema/adforge/internal/adapters/gemini"
	"github.com/bnema/adforge/internal/adapters/imaging"
	statusadapter "github.com/bnema/adforge/internal/adapters/render/status"
	tomlrepo "github.com/bnema/adforge/internal/adapters/repo/toml"
	chainstore "github.com/bnema/adforge/internal/adapters/secrets/chain"
	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envGeminiAPIKey = "GEMINI_API_KEY"

var errMissingAPIKey = errors.New("gemini api key not configured: run `adforge key set`, set gemini.api_key or export " + envGeminiAPIKey)

type app struct {
	settings        settings
	logger          *zap.Logger
	secretStore     *chainstore.Store
	history         *tomlrepo.HistoryRepository
	registry        *prometheus.Registry
	statusRenderer  func(application.Status, statusadapter.RenderOptions) (string, error)
	historyRenderer func([]ports.ManifestRecord, statusadapter.RenderOptions) (string, error)
	sessionService  func(context.Context) (*application.SessionService, error)
	now             func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg, err := loadSettings(viper.New(), homeDir)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(configDir(homeDir), "secrets"), logger.Named("secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	history, err := tomlrepo.NewHistoryRepository(cfg.History, tomlrepo.DefaultMaxEntries)
	if err != nil {
		return nil, fmt.Errorf("wire history repository: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a := &app{
		settings:        cfg,
		logger:          logger,
		secretStore:     secretStore,
		history:         history,
		registry:        registry,
		statusRenderer:  statusadapter.Render,
		historyRenderer: statusadapter.RenderHistory,
		now:             time.Now,
	}
	a.sessionService = a.newSessionService
	return a, nil
}

func newLogger(cfg logSettings) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	switch strings.ToLower(cfg.Format) {
	case "json":
		zcfg = zap.NewProductionConfig()
	case "console", "":
		zcfg = zap.NewDevelopmentConfig()
		zcfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// resolveAPIKey prefers the config value, then the secret store, then the
// GEMINI_API_KEY environment variable.
func (a *app) resolveAPIKey(ctx context.Context) (string, error) {
	if key := strings.TrimSpace(a.settings.Gemini.APIKey); key != "" {
		return key, nil
	}

	key, backend, err := a.secretStore.Lookup(ctx, ports.GeminiAPIKeyRef)
	switch {
	case err == nil:
		a.logger.Debug("gemini api key loaded", zap.String("backend", backend))
		return key, nil
	case errors.Is(err, ports.ErrSecretNotFound):
	default:
		a.logger.Warn("secret store lookup failed", zap.Error(err))
	}

	if key := strings.TrimSpace(os.Getenv(envGeminiAPIKey)); key != "" {
		return key, nil
	}
	return "", errMissingAPIKey
}

func (a *app) newBlobStore() (ports.BlobStore, error) {
	cfg := a.settings.Artifacts
	switch cfg.Backend {
	case "memory", "":
		ttl := a.settings.App.ArtifactTTL + a.settings.App.DownloadWindow
		capacity := max(cfg.MemoryCapacity, memoryblob.MinCapacity(a.settings.App.MaxGeneratingSessions))
		return memoryblob.NewStore(capacity, ttl, a.logger.Named("blobs")), nil
	case "file":
		return fileblob.NewStore(cfg.Dir), nil
	case "cos":
		return cosblob.NewStore(cosblob.ClientOptions{BucketURL: cfg.COSBucketURL}, cfg.COSPrefix)
	default:
		return nil, fmt.Errorf("unsupported artifacts backend %q", cfg.Backend)
	}
}

func (a *app) newSessionService(ctx context.Context) (*application.SessionService, error) {
	apiKey, err := a.resolveAPIKey(ctx)
	if err != nil {
		return nil, err
	}

	models, err := gemini.NewModels(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	blobs, err := a.newBlobStore()
	if err != nil {
		return nil, fmt.Errorf("wire blob store: %w", err)
	}

	return application.NewSessionService(a.settings.App, application.Dependencies{
		Analyzer:  gemini.NewAnalyzer(models, a.settings.Gemini.AnalysisModel, a.logger.Named("gemini")),
		Generator: gemini.NewGenerator(models, a.settings.Gemini.ImageModel, a.logger.Named("gemini")),
		Inspector: imaging.NewInspector(),
		Blobs:     blobs,
		History:   a.history,
		Clock:     ports.SystemClock{},
		Logger:    a.logger,
		Metrics:   application.MustNewMetrics(a.registry),
	})
}
