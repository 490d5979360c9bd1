package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var healthOrder = []domain.Health{
	domain.HealthOnline,
	domain.HealthRestricted,
	domain.HealthFrozen,
	domain.HealthOffline,
	domain.HealthUnknown,
}

var healthColors = map[domain.Health]lipgloss.Color{
	domain.HealthOnline:     lipgloss.Color("42"),
	domain.HealthRestricted: lipgloss.Color("214"),
	domain.HealthFrozen:     lipgloss.Color("196"),
	domain.HealthOffline:    lipgloss.Color("244"),
	domain.HealthUnknown:    lipgloss.Color("244"),
}

type healthMsg domain.AccountHealth

type checkDoneMsg struct{}

// checkModel follows a status check one account at a time and keeps a
// running count per health state.
type checkModel struct {
	spinner spinner.Model
	updates <-chan domain.AccountHealth
	total   int
	checked int
	last    domain.AccountHealth
	counts  map[domain.Health]int
	done    bool
}

func newCheckModel(total int, updates <-chan domain.AccountHealth) checkModel {
	return checkModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
		),
		updates: updates,
		total:   total,
		counts:  make(map[domain.Health]int),
	}
}

func waitForHealth(updates <-chan domain.AccountHealth) tea.Cmd {
	return func() tea.Msg {
		health, ok := <-updates
		if !ok {
			return checkDoneMsg{}
		}
		return healthMsg(health)
	}
}

func (m checkModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForHealth(m.updates))
}

func (m checkModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case healthMsg:
		m.checked++
		if m.checked > m.total {
			m.total = m.checked
		}
		m.last = domain.AccountHealth(msg)
		m.counts[msg.Health]++
		return m, waitForHealth(m.updates)
	case checkDoneMsg:
		m.done = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m checkModel) View() string {
	if m.done {
		return ""
	}

	label := fmt.Sprintf("Checking %d accounts...", m.total)
	if m.checked > 0 {
		label = fmt.Sprintf("Checked %s (%d/%d)", m.last.Phone, m.checked, m.total)
	}
	if tally := m.tally(); tally != "" {
		label += "  " + tally
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), label)
}

func (m checkModel) tally() string {
	parts := make([]string, 0, len(healthOrder))
	for _, health := range healthOrder {
		n := m.counts[health]
		if n == 0 {
			continue
		}
		style := lipgloss.NewStyle().Foreground(healthColors[health])
		parts = append(parts, style.Render(fmt.Sprintf("%s %d", health, n)))
	}
	return strings.Join(parts, " ")
}

type checkFunc func(ctx context.Context, out chan<- domain.AccountHealth) ([]domain.AccountHealth, error)

// runCheck runs check in the background and shows per-account progress on
// output until it returns.
func runCheck(ctx context.Context, output io.Writer, total int, check checkFunc) ([]domain.AccountHealth, error) {
	updates := make(chan domain.AccountHealth)
	var (
		results  []domain.AccountHealth
		checkErr error
	)
	go func() {
		defer close(updates)
		results, checkErr = check(ctx, updates)
	}()

	p := tea.NewProgram(
		newCheckModel(total, updates),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	_, runErr := p.Run()

	// Unblocks the check if the view stopped early and waits for it to return.
	for range updates {
	}
	if checkErr != nil {
		return results, checkErr
	}
	if runErr != nil && ctx.Err() == nil {
		return results, runErr
	}
	return results, nil
}
