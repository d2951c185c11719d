package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	memoryblob "github.com/bnema/adforge/internal/adapters/blob/memory"
	"github.com/bnema/adforge/internal/adapters/gemini"
	"github.com/bnema/adforge/internal/adapters/imaging"
	tomlrepo "github.com/bnema/adforge/internal/adapters/repo/toml"
	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", stdout)
}

func TestVersionPrintsBuildAndModels(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "adforge dev "+runtime.GOOS+"/"+runtime.GOARCH+" "+runtime.Version()))
	assert.Equal(t, "analysis model: "+gemini.DefaultAnalysisModel, lines[1])
	assert.Equal(t, "image model:    "+gemini.DefaultImageModel, lines[2])
}

func TestKeySetShowRemoveUsesFileFallback(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "key", "set", "--value", "AIzaSyTestKey1234")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "key", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "AIza*********1234")
	assert.Contains(t, stdout, "(file)")
	assert.NotContains(t, stdout, "SyTestKey")

	_, _, err = executeCLI(t, home, "key", "remove")
	require.NoError(t, err)

	stdout, _, err = executeCLI(t, home, "key", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no api key stored")
}

func TestKeySetReadsStdin(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLIWithInput(t, home, "from-stdin-key-value\n", "key", "set")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "key", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, "from")
}

func TestHistoryEmpty(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "runs: 0")
	assert.Contains(t, stdout, "No runs recorded yet.")
}

func TestHistoryListsRecordedRunsAsJSON(t *testing.T) {
	home := t.TempDir()
	repo, err := tomlrepo.NewHistoryRepository(filepath.Join(home, ".config", "adforge", "history.toml"), 0)
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), ports.ManifestRecord{
		SessionID:   "s-1",
		Stage:       domain.StageReady,
		Category:    "footwear",
		CompletedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Entries: []domain.ManifestEntry{
			{Style: domain.StyleLifestyle, ArtifactRef: "ref-1", Attempts: 1},
		},
	}))

	stdout, _, err := executeCLI(t, home, "history", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"SessionID\": \"s-1\"")
}

func TestConfigFileAndEnvOverrides(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(configDir(home), 0o755))
	require.NoError(t, os.WriteFile(configPath(home), []byte(`
[generation]
max_attempts = 5
attempt_timeout = "30s"

[artifacts]
backend = "file"
`), 0o644))
	t.Setenv("ADFORGE_UPLOAD_ALLOWED_TYPES", "image/png,image/webp")

	app, err := newTestApp(t, home)
	require.NoError(t, err)

	assert.Equal(t, 5, app.settings.App.MaxAttempts)
	assert.Equal(t, 30*time.Second, app.settings.App.AttemptTimeout)
	assert.Equal(t, []string{"image/png", "image/webp"}, app.settings.App.AllowedUploadTypes)
	assert.Equal(t, "file", app.settings.Artifacts.Backend)
	assert.Equal(t, 1080, app.settings.App.TargetResolution.Width)
}

func TestInvalidConfigFailsEveryCommand(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(configDir(home), 0o755))
	require.NoError(t, os.WriteFile(configPath(home), []byte("[generation]\nmax_attempts = 0\n"), 0o644))

	_, _, err := executeCLI(t, home, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestResolveAPIKeyOrder(t *testing.T) {
	home := t.TempDir()
	app, err := newTestApp(t, home)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = app.resolveAPIKey(ctx)
	assert.ErrorIs(t, err, errMissingAPIKey)

	t.Setenv(envGeminiAPIKey, "env-key")
	key, err := app.resolveAPIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "env-key", key)

	require.NoError(t, app.secretStore.Put(ctx, ports.GeminiAPIKeyRef, "stored-key"))
	key, err = app.resolveAPIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stored-key", key)

	app.settings.Gemini.APIKey = "config-key"
	key, err = app.resolveAPIKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "config-key", key)
}

func TestGenerateWithoutAPIKeyFails(t *testing.T) {
	home := t.TempDir()
	imagePath := filepath.Join(home, "shoe.png")
	require.NoError(t, os.WriteFile(imagePath, encodePNG(t, 8, 8), 0o644))

	_, _, err := executeCLI(t, home, "generate", "--image", imagePath, "--quiet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini api key not configured")
}

func TestGenerateRunsFullConversation(t *testing.T) {
	home := t.TempDir()
	app, err := newTestApp(t, home)
	require.NoError(t, err)
	app.sessionService = fakeSessionService(t, app)

	imagePath := filepath.Join(home, "shoe.png")
	require.NoError(t, os.WriteFile(imagePath, encodePNG(t, 8, 8), 0o644))
	outDir := filepath.Join(home, "out")

	cmd := newGenerateCmd(app)
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("Bold and energetic\n"))
	cmd.SetArgs([]string{
		"--image", imagePath,
		"--answer", "Runners aged 20-35 who train daily",
		"--out", outDir,
		"--quiet",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "? Who is your target customer")
	assert.Contains(t, out, "4/4 ready")

	files, err := filepath.Glob(filepath.Join(outDir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, files, 4)

	records, err := app.history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StageReady, records[0].Stage)
}

func TestGenerateJSONOutput(t *testing.T) {
	home := t.TempDir()
	app, err := newTestApp(t, home)
	require.NoError(t, err)
	app.sessionService = fakeSessionService(t, app)

	imagePath := filepath.Join(home, "shoe.png")
	require.NoError(t, os.WriteFile(imagePath, encodePNG(t, 8, 8), 0o644))

	cmd := newGenerateCmd(app)
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetArgs([]string{
		"--image", imagePath,
		"--answer", "Runners aged 20-35 who train daily",
		"--answer", "Bold and energetic",
		"--out", filepath.Join(home, "out"),
		"--json",
	})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	raw := stdout.String()
	raw = raw[strings.Index(raw, "{"):]
	var result generateOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	assert.Equal(t, "READY", result.Stage)
	require.Len(t, result.Variants, 4)
	for _, v := range result.Variants {
		assert.NotEmpty(t, v.Path)
	}
}

func TestGenerateExitsWithRunFailedWhenEveryVariantFails(t *testing.T) {
	home := t.TempDir()
	app, err := newTestApp(t, home)
	require.NoError(t, err)
	app.sessionService = fakeSessionServiceWith(app, fakeGenerator{err: domain.ErrContentRejected})

	imagePath := filepath.Join(home, "shoe.png")
	require.NoError(t, os.WriteFile(imagePath, encodePNG(t, 8, 8), 0o644))

	cmd := newGenerateCmd(app)
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--image", imagePath,
		"--answer", "Runners aged 20-35 who train daily",
		"--answer", "Bold and energetic",
		"--out", filepath.Join(home, "out"),
		"--json",
	})
	err = cmd.ExecuteContext(context.Background())
	require.ErrorIs(t, err, domain.ErrRunFailed)

	raw := stdout.String()
	raw = raw[strings.Index(raw, "{"):]
	var result generateOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &result))
	assert.Equal(t, "FAILED", result.Stage)
	assert.Equal(t, "GENERATION_FAILED", result.FailureReason)

	files, err := filepath.Glob(filepath.Join(home, "out", "*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSessionErrorMapsFailureReason(t *testing.T) {
	tests := []struct {
		name   string
		status application.Status
		want   error
	}{
		{name: "generation failed", status: application.Status{Stage: domain.StageFailed, FailureReason: domain.FailureGenerationFailed}, want: domain.ErrRunFailed},
		{name: "analysis unavailable", status: application.Status{Stage: domain.StageFailed, FailureReason: domain.FailureAnalysisUnavailable}, want: domain.ErrAnalysisUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, sessionError(tt.status), tt.want)
		})
	}

	assert.NoError(t, sessionError(application.Status{Stage: domain.StageReady}))
	err := sessionError(application.Status{SessionID: "s-1", Stage: domain.StageFailed, FailureReason: domain.FailureInternal})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRunFailed)
	assert.Contains(t, err.Error(), "INTERNAL_FAULT")
}

func TestMemoryBlobStoreHoldsEveryGeneratingSession(t *testing.T) {
	app, err := newTestApp(t, t.TempDir())
	require.NoError(t, err)
	app.settings.Artifacts.Backend = "memory"
	app.settings.Artifacts.MemoryCapacity = 1
	app.settings.App.MaxGeneratingSessions = 2

	blobs, err := app.newBlobStore()
	require.NoError(t, err)
	store, ok := blobs.(*memoryblob.Store)
	require.True(t, ok)

	ctx := context.Background()
	for i := range memoryblob.MinCapacity(2) {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("s-%d/generated/v", i), []byte("img"), "image/png"))
	}
	assert.Zero(t, store.Evictions())
	assert.Equal(t, 10, store.Len())
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(context.Context, []byte, string) (domain.ProductBrief, error) {
	return domain.ProductBrief{
		Label:      "running shoe",
		Category:   "footwear",
		Colors:     []string{"white", "blue"},
		Features:   []string{"breathable mesh"},
		Confidence: 0.9,
	}, nil
}

type fakeGenerator struct {
	image []byte
	err   error
}

func (g fakeGenerator) Generate(context.Context, ports.GenerationRequest) (ports.GeneratedImage, error) {
	if g.err != nil {
		return ports.GeneratedImage{}, g.err
	}
	return ports.GeneratedImage{Data: g.image, ContentType: "image/png"}, nil
}

func fakeSessionService(t *testing.T, app *app) func(context.Context) (*application.SessionService, error) {
	t.Helper()
	return fakeSessionServiceWith(app, fakeGenerator{image: encodePNG(t, 720, 1280)})
}

func fakeSessionServiceWith(app *app, generator ports.ImageGenerator) func(context.Context) (*application.SessionService, error) {
	return func(context.Context) (*application.SessionService, error) {
		return application.NewSessionService(app.settings.App, application.Dependencies{
			Analyzer:  fakeAnalyzer{},
			Generator: generator,
			Inspector: imaging.NewInspector(),
			Blobs:     memoryblob.NewStore(16, time.Hour, nil),
			History:   app.history,
		})
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func isolateEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	// An empty PATH keeps the pass backend out so secrets land in files.
	t.Setenv("PATH", t.TempDir())
	t.Setenv(envGeminiAPIKey, "")
	t.Setenv("ADFORGE_GEMINI_API_KEY", "")
	t.Setenv("ADFORGE_LOG_LEVEL", "error")
}

func newTestApp(t *testing.T, home string) (*app, error) {
	t.Helper()
	isolateEnv(t, home)
	return wireApp()
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	return executeCLIWithInput(t, home, "", args...)
}

func executeCLIWithInput(t *testing.T, home, input string, args ...string) (string, string, error) {
	t.Helper()
	isolateEnv(t, home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}
