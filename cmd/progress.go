package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	statusadapter "github.com/bnema/telegram-accounts-cli/internal/adapters/render/status"
	"github.com/bnema/telegram-accounts-cli/internal/application"
	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	eventQueueSize = 64
	drainInterval  = 100 * time.Millisecond
)

type drainTickMsg time.Time

// dispatchProgressModel drains the bounded event queue on a fixed tick and
// draws a progress bar. q, esc or ctrl+c raise the cancel flag; sends already
// in flight still finish and their events are still drained.
type dispatchProgressModel struct {
	title     string
	events    <-chan domain.DispatchEvent
	cancel    *domain.CancelFlag
	bar       progress.Model
	spinner   spinner.Model
	total     int
	done      int
	failed    int
	last      string
	cancelled bool
	finished  bool
}

func newDispatchProgressModel(title string, total int, events <-chan domain.DispatchEvent, cancel *domain.CancelFlag) dispatchProgressModel {
	return dispatchProgressModel{
		title:  title,
		events: events,
		cancel: cancel,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		total: total,
	}
}

func drainTick() tea.Cmd {
	return tea.Tick(drainInterval, func(t time.Time) tea.Msg {
		return drainTickMsg(t)
	})
}

func (m dispatchProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, drainTick())
}

func (m dispatchProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.cancel.Cancel()
			m.cancelled = true
		}
		return m, nil
	case drainTickMsg:
		for {
			select {
			case event, ok := <-m.events:
				if !ok {
					m.finished = true
					return m, tea.Quit
				}
				m.apply(event)
			default:
				return m, drainTick()
			}
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *dispatchProgressModel) apply(event domain.DispatchEvent) {
	m.done = event.Index + 1
	if event.Total > 0 {
		m.total = event.Total
	}
	if !event.Result.Outcome.OK {
		m.failed++
	}
	m.last = formatDispatchResult(event.Result)
}

func (m dispatchProgressModel) View() string {
	if m.finished {
		return ""
	}

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}
	lines := []string{
		fmt.Sprintf("%s %s", m.spinner.View(), m.title),
		fmt.Sprintf("%s %d/%d (failed %d)", m.bar.ViewAs(percent), m.done, m.total, m.failed),
	}
	if m.last != "" {
		lines = append(lines, m.last)
	}
	if m.cancelled {
		lines = append(lines, "stopping after the current send...")
	} else {
		lines = append(lines, "press q to stop")
	}
	return strings.Join(lines, "\n") + "\n"
}

func formatDispatchResult(result domain.DispatchResult) string {
	mark := "OK"
	if !result.Outcome.OK {
		mark = "FAIL"
	}
	return fmt.Sprintf("%s %s -> %s: %s", mark, result.Phone, result.Target, result.Outcome.Detail)
}

type dispatchFunc func(ctx context.Context, opts application.DispatchOptions) ([]domain.DispatchResult, error)

type dispatchOutcome struct {
	results []domain.DispatchResult
	err     error
}

// runDispatch executes fn in the background and follows its events: with a
// progress bar on a terminal, as plain lines otherwise. The final results
// are rendered with the tally once fn returns.
func runDispatch(cmd *cobra.Command, app *app, title string, total int, delay time.Duration, fn dispatchFunc) error {
	return followDispatch(cmd, app, title, total, delay, isTerminal(cmd.OutOrStdout()), fn)
}

func followDispatch(cmd *cobra.Command, app *app, title string, total int, delay time.Duration, interactive bool, fn dispatchFunc) error {
	ctx := cmd.Context()
	events := make(chan domain.DispatchEvent, eventQueueSize)
	cancel := &domain.CancelFlag{}
	opts := application.DispatchOptions{
		Delay:  delay,
		Cancel: cancel,
		Events: events,
		RunID:  uuid.NewString(),
	}

	done := make(chan dispatchOutcome, 1)
	go func() {
		defer close(events)
		results, err := fn(ctx, opts)
		done <- dispatchOutcome{results: results, err: err}
	}()

	out := cmd.OutOrStdout()
	if interactive {
		p := tea.NewProgram(
			newDispatchProgressModel(title, total, events, cancel),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(out),
			tea.WithContext(ctx),
		)
		if _, err := p.Run(); err != nil {
			cancel.Cancel()
			app.logger.Debug().Err(err).Msg("progress view stopped")
			for range events {
			}
		}
	} else {
		for event := range events {
			_, _ = fmt.Fprintf(out, "[%d/%d] %s\n", event.Index+1, event.Total, formatDispatchResult(event.Result))
		}
	}

	result := <-done
	if result.err != nil {
		return result.err
	}
	return writeResults(cmd, app, title, toResultRows(result.results), domain.TallyResults(result.results))
}

func toResultRows(results []domain.DispatchResult) []statusadapter.Result {
	rows := make([]statusadapter.Result, 0, len(results))
	for _, r := range results {
		rows = append(rows, statusadapter.Result{
			Phone:  r.Phone,
			Target: r.Target,
			OK:     r.Outcome.OK,
			Detail: r.Outcome.Detail,
		})
	}
	return rows
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
