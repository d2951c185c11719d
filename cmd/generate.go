package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/adforge/internal/adapters/imaging"
	statusadapter "github.com/bnema/adforge/internal/adapters/render/status"
	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
	"github.com/spf13/cobra"
)

const defaultPollInterval = 250 * time.Millisecond

// conversation is the slice of the session service a local run drives.
type conversation interface {
	StartSession(ctx context.Context) (domain.SessionID, error)
	UploadImage(ctx context.Context, id domain.SessionID, data []byte, declaredType string) (application.UploadResult, error)
	SubmitAnswer(ctx context.Context, id domain.SessionID, text string) (application.AnswerResult, error)
	PollStatus(ctx context.Context, id domain.SessionID) (application.Status, error)
	FetchArtifact(ctx context.Context, ref domain.ArtifactRef) (domain.Artifact, error)
}

type conversationOptions struct {
	Image        []byte
	ContentType  string
	Answers      []string
	In           io.Reader
	Out          io.Writer
	PollInterval time.Duration
	Spinner      bool
}

type generateOutput struct {
	SessionID     string              `json:"session_id"`
	Stage         string              `json:"stage"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Variants      []generateVariantIO `json:"variants"`
}

type generateVariantIO struct {
	Style         string `json:"style"`
	Path          string `json:"path,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	Attempts      int    `json:"attempts"`
}

func newGenerateCmd(app *app) *cobra.Command {
	var imagePath string
	var contentType string
	var answers []string
	var outDir string
	var quiet bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one ad session locally and save the four variants",
		Long:  "Uploads a product photo, asks the session questions (answered from --answer flags in order, then stdin), waits for generation and writes the resulting images to --out.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if contentType == "" {
				contentType = imaging.NewInspector().DetectType(data)
			}

			svc, err := app.sessionService(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			status, err := runConversation(cmd.Context(), svc, conversationOptions{
				Image:        data,
				ContentType:  contentType,
				Answers:      answers,
				In:           cmd.InOrStdin(),
				Out:          cmd.OutOrStdout(),
				PollInterval: defaultPollInterval,
				Spinner:      !quiet && !asJSON,
			})
			if err != nil {
				return err
			}

			paths, err := saveVariants(cmd.Context(), svc, status, outDir)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeGenerateJSON(cmd.OutOrStdout(), status, paths); err != nil {
					return err
				}
			} else {
				rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{Now: app.now(), Paths: paths})
				if err != nil {
					return fmt.Errorf("render status: %w", err)
				}
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
					return err
				}
			}

			return sessionError(status)
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to the product photo (jpeg, png or webp)")
	cmd.Flags().StringVar(&contentType, "type", "", "Declared content type (sniffed from the file when empty)")
	cmd.Flags().StringArrayVar(&answers, "answer", nil, "Answer to the next question, repeatable")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory the generated images are written to")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not show progress spinners")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

// runConversation drives one session from upload to READY or FAILED.
func runConversation(ctx context.Context, svc conversation, opts conversationOptions) (application.Status, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.In == nil {
		opts.In = strings.NewReader("")
	}

	id, err := svc.StartSession(ctx)
	if err != nil {
		return application.Status{}, fmt.Errorf("start session: %w", err)
	}
	if _, err := svc.UploadImage(ctx, id, opts.Image, opts.ContentType); err != nil {
		return application.Status{}, fmt.Errorf("upload image: %w", err)
	}

	status, err := waitForStage(ctx, svc, id, opts, func(stage domain.Stage) bool {
		return stage != domain.StageAnalyzing
	})
	if err != nil {
		return status, err
	}

	answers := append([]string(nil), opts.Answers...)
	reader := bufio.NewReader(opts.In)
	pending := status.Pending

	for status.Stage == domain.StageQuestioning && pending != nil {
		if _, err := fmt.Fprintf(opts.Out, "? %s\n", pending.Text); err != nil {
			return status, err
		}

		var text string
		if len(answers) > 0 {
			text, answers = answers[0], answers[1:]
		} else {
			text, err = readAnswer(reader)
			if err != nil {
				return status, fmt.Errorf("no answer for %q: %w", pending.Text, err)
			}
		}

		result, err := svc.SubmitAnswer(ctx, id, text)
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			if _, err := fmt.Fprintf(opts.Out, "  %s\n", verr.Reason); err != nil {
				return status, err
			}
			continue
		case errors.Is(err, domain.ErrBackpressure):
			return status, fmt.Errorf("generation capacity reached, try again later: %w", err)
		case err != nil:
			return status, fmt.Errorf("submit answer: %w", err)
		}

		if result.Sufficient {
			break
		}
		pending = result.NextQuestion
	}

	return waitForStage(ctx, svc, id, opts, func(stage domain.Stage) bool {
		return stage == domain.StageReady || stage.Terminal()
	})
}

// sessionError is the error a finished run exits with, nil unless FAILED.
func sessionError(status application.Status) error {
	if status.Stage != domain.StageFailed {
		return nil
	}
	switch status.FailureReason {
	case domain.FailureGenerationFailed:
		return fmt.Errorf("session %s: %w", status.SessionID, domain.ErrRunFailed)
	case domain.FailureAnalysisUnavailable:
		return fmt.Errorf("session %s: %w", status.SessionID, domain.ErrAnalysisUnavailable)
	default:
		return fmt.Errorf("session %s failed: %s", status.SessionID, status.FailureReason)
	}
}

func readAnswer(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func waitForStage(ctx context.Context, svc conversation, id domain.SessionID, opts conversationOptions, done func(domain.Stage) bool) (application.Status, error) {
	var status application.Status
	poll := func(ctx context.Context, report func(application.Status)) error {
		ticker := time.NewTicker(opts.PollInterval)
		defer ticker.Stop()
		for {
			current, err := svc.PollStatus(ctx, id)
			if err != nil {
				return fmt.Errorf("poll session: %w", err)
			}
			status = current
			report(current)
			if done(current.Stage) {
				return nil
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}

	var err error
	if opts.Spinner {
		err = runStageSpinner(ctx, opts.Out, poll)
	} else {
		err = poll(ctx, func(application.Status) {})
	}
	return status, err
}

// saveVariants writes every generated variant into dir and returns where
// each artifact went.
func saveVariants(ctx context.Context, svc conversation, status application.Status, dir string) (map[domain.ArtifactRef]string, error) {
	paths := make(map[domain.ArtifactRef]string)
	if status.Manifest == nil {
		return paths, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	for i, entry := range status.Manifest.Entries {
		if !entry.Present() {
			continue
		}
		artifact, err := svc.FetchArtifact(ctx, entry.ArtifactRef)
		if err != nil {
			return nil, fmt.Errorf("fetch %s variant: %w", entry.Style, err)
		}
		name := fmt.Sprintf("%s-%d-%s%s", shortID(status.SessionID), i+1, entry.Style, extensionFor(artifact.ContentType))
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths[entry.ArtifactRef] = path
	}
	return paths, nil
}

func writeGenerateJSON(w io.Writer, status application.Status, paths map[domain.ArtifactRef]string) error {
	out := generateOutput{
		SessionID:     string(status.SessionID),
		Stage:         string(status.Stage),
		FailureReason: string(status.FailureReason),
		Variants:      []generateVariantIO{},
	}
	if status.Manifest != nil {
		for _, entry := range status.Manifest.Entries {
			out.Variants = append(out.Variants, generateVariantIO{
				Style:         string(entry.Style),
				Path:          paths[entry.ArtifactRef],
				FailureReason: entry.FailureReason,
				Attempts:      entry.Attempts,
			})
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func shortID(id domain.SessionID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".img"
	}
}
