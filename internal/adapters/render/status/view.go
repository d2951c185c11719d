package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
	"github.com/bnema/adforge/internal/ports"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// Paths maps artifact refs to where the CLI saved them, if anywhere.
	Paths map[domain.ArtifactRef]string
}

func renderSession(status application.Status, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Ad Session " + string(status.SessionID)),
		lipgloss.JoinHorizontal(lipgloss.Top, s.header.Render("stage: "), stageLabel(status, s)),
	}

	if path := stagePath(status.History); path != "" {
		lines = append(lines, s.header.Render("path: "+path))
	}

	if status.Brief != nil {
		lines = append(lines, s.section.Render(renderBrief(*status.Brief, s)))
	}

	if len(status.Answers) > 0 {
		answers := []string{s.title.Render("Answers")}
		for _, pair := range status.Answers {
			answers = append(answers, s.detail.Render(fmt.Sprintf("%s: %s", pair.QuestionID, pair.Answer)))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, answers...)))
	}

	if status.Pending != nil {
		lines = append(lines, s.section.Render(s.detail.Render("next question: "+status.Pending.Text)))
	}

	if status.Manifest != nil {
		lines = append(lines, s.section.Render(renderManifest(status.Manifest.Entries, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func stageLabel(status application.Status, s styles) string {
	switch status.Stage {
	case domain.StageFailed:
		reason := string(status.FailureReason)
		if reason == "" {
			reason = "unknown"
		}
		return s.warning.Render(fmt.Sprintf("%s (%s)", status.Stage, reason))
	case domain.StageExpired:
		return s.warning.Render(string(status.Stage))
	default:
		return s.stage.Render(string(status.Stage))
	}
}

func stagePath(history []domain.StageTransition) string {
	stages := make([]string, 0, len(history))
	for _, transition := range history {
		stages = append(stages, string(transition.To))
	}
	return strings.Join(stages, " -> ")
}

func renderBrief(brief domain.ProductBrief, s styles) string {
	lines := []string{
		s.title.Render("Product"),
		s.detail.Render(fmt.Sprintf("%s (%s, confidence %.0f%%)", brief.Subject(), brief.Category, brief.Confidence*100)),
	}
	if len(brief.Colors) > 0 {
		lines = append(lines, s.meta.Render("colors: "+strings.Join(brief.Colors, ", ")))
	}
	if len(brief.StyleDescriptors) > 0 {
		lines = append(lines, s.meta.Render("style: "+strings.Join(brief.StyleDescriptors, ", ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderManifest(entries []domain.ManifestEntry, opts RenderOptions, s styles) string {
	present := 0
	for _, entry := range entries {
		if entry.Present() {
			present++
		}
	}

	lines := []string{
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.title.Render("Variants "),
			renderProgressBar(present, len(entries), 12, s),
			s.meta.Render(fmt.Sprintf(" %d/%d ready", present, len(entries))),
		),
	}
	for _, entry := range entries {
		lines = append(lines, variantLine(entry, opts, s))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func variantLine(entry domain.ManifestEntry, opts RenderOptions, s styles) string {
	attempts := s.meta.Render(fmt.Sprintf(" (%s)", plural(entry.Attempts, "attempt")))
	if !entry.Present() {
		return lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.variant.Render(string(entry.Style)),
			s.missing.Render("failed: "+entry.FailureReason),
			attempts,
		)
	}

	target := string(entry.ArtifactRef)
	if path, ok := opts.Paths[entry.ArtifactRef]; ok {
		target = path
	}
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.variant.Render(string(entry.Style)),
		s.present.Render("ready: "+target),
		attempts,
	)
}

func renderHistory(records []ports.ManifestRecord, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Generation History"),
		s.header.Render(fmt.Sprintf("runs: %d", len(records))),
	}
	if len(records) == 0 {
		lines = append(lines, s.empty.Render("No runs recorded yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		heading := fmt.Sprintf("%s  %s  %s", record.SessionID, record.Category, formatAge(record.CompletedAt, opts.Now))
		status := s.stage.Render(string(record.Stage))
		if record.Stage != domain.StageReady {
			status = s.warning.Render(fmt.Sprintf("%s (%s)", record.Stage, record.FailureReason))
		}
		block := lipgloss.JoinVertical(
			lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, s.detail.Render(heading+"  "), status),
			renderManifest(record.Entries, opts, s),
		)
		lines = append(lines, s.section.Render(block))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(done, total, width int, s styles) string {
	if width <= 0 || total <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * float64(done) / float64(total)))
	filled = max(0, min(filled, width))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func formatAge(at, now time.Time) string {
	if at.IsZero() {
		return "unknown time"
	}
	if now.IsZero() || at.After(now) {
		return at.Format("2006-01-02 15:04")
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(math.Floor(elapsed.Hours()/24)), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
