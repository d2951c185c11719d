package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// stageMsg carries the latest polled status into the spinner.
type stageMsg struct {
	status application.Status
}

type pollDoneMsg struct {
	err error
}

// stageSpinnerModel follows a session while it is polled and labels the
// spinner with what the session is doing right now.
type stageSpinnerModel struct {
	spinner spinner.Model
	poll    tea.Cmd
	now     func() time.Time
	status  application.Status
	entered time.Time
	err     error
	done    bool
}

func newStageSpinnerModel(poll tea.Cmd, now func() time.Time) stageSpinnerModel {
	if now == nil {
		now = time.Now
	}
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)
	return stageSpinnerModel{
		spinner: s,
		poll:    poll,
		now:     now,
		entered: now(),
	}
}

func (m stageSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll)
}

func (m stageSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case stageMsg:
		if msg.status.Stage != m.status.Stage {
			m.entered = stageEnteredAt(msg.status, m.now())
		}
		m.status = msg.status
		return m, nil
	case pollDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m stageSpinnerModel) View() string {
	if m.done {
		return ""
	}
	elapsed := m.now().Sub(m.entered).Truncate(time.Second)
	return fmt.Sprintf("%s %s %s", m.spinner.View(), stageLabel(m.status), dimStyle.Render(elapsed.String()))
}

var dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

func stageLabel(status application.Status) string {
	switch status.Stage {
	case domain.StageAwaitingUpload, domain.StageAnalyzing:
		return "Analyzing product photo..."
	case domain.StageQuestioning:
		return "Preparing the next question..."
	case domain.StageGenerating:
		if status.Brief != nil && status.Brief.Label != "" {
			return fmt.Sprintf("Generating %d ad variants for %s...", len(domain.VariantStyles), status.Brief.Label)
		}
		return fmt.Sprintf("Generating %d ad variants...", len(domain.VariantStyles))
	default:
		return "Waiting for session..."
	}
}

// stageEnteredAt is when the session moved into its current stage, so the
// elapsed time survives across spinner runs.
func stageEnteredAt(status application.Status, fallback time.Time) time.Time {
	for i := len(status.History) - 1; i >= 0; i-- {
		if t := status.History[i]; t.To == status.Stage && !t.At.IsZero() {
			return t.At
		}
	}
	return fallback
}

// runStageSpinner runs poll behind a spinner. poll hands every status it sees
// to report, which relabels the spinner.
func runStageSpinner(ctx context.Context, output io.Writer, poll func(ctx context.Context, report func(application.Status)) error) error {
	var p *tea.Program
	pollCmd := func() tea.Msg {
		return pollDoneMsg{err: poll(ctx, func(status application.Status) {
			p.Send(stageMsg{status: status})
		})}
	}

	p = tea.NewProgram(
		newStageSpinnerModel(pollCmd, nil),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(stageSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
