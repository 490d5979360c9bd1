package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter marks accounts whose last activity is older than this.
	StaleAfter time.Duration
}

// Row is one account line. Health is empty when no live check ran.
type Row struct {
	Account domain.Account
	Health  domain.Health
	Detail  string
}

type Result struct {
	Phone  domain.Phone
	Target string
	OK     bool
	Detail string
}

func renderAccounts(rows []Row, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Telegram Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(rows))),
	}

	if len(rows) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	phoneWidth := 0
	for _, row := range rows {
		phoneWidth = max(phoneWidth, lipgloss.Width(string(row.Account.Phone)))
	}

	for i, row := range rows {
		lines = append(lines, renderRow(i+1, row, phoneWidth, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderRow(index int, row Row, phoneWidth int, opts RenderOptions, s styles) string {
	account := row.Account
	phone := s.account.Render(fmt.Sprintf("%-*s", phoneWidth, account.Phone))
	parts := []string{
		s.header.Render(fmt.Sprintf("%2d.", index)),
		" ",
		phone,
		"  ",
		s.health(stateLabel(row)).Render(fmt.Sprintf("%-10s", stateLabel(row))),
		" ",
		s.detail.Render(account.Profile.Label()),
	}
	if account.Kind() == domain.SessionKindDesktop {
		parts = append(parts, " ", s.header.Render("[desktop]"))
	}
	if !account.LastActive.IsZero() {
		activity := lipgloss.NewStyle().Foreground(activityColor(account.LastActive, opts.Now, opts.StaleAfter))
		parts = append(parts, " ", activity.Render("("+formatLastActive(account.LastActive, opts.Now)+")"))
		if isStale(account.LastActive, opts.Now, opts.StaleAfter) {
			parts = append(parts, " ", s.warning.Render("[stale]"))
		}
	}
	if row.Detail != "" && row.Health != domain.HealthOnline {
		parts = append(parts, " ", s.empty.Render(row.Detail))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func stateLabel(row Row) string {
	if row.Health != "" {
		return string(row.Health)
	}
	if row.Account.Authenticated {
		return "logged in"
	}
	return "logged out"
}

func isStale(lastActive, now time.Time, staleAfter time.Duration) bool {
	if now.IsZero() || staleAfter <= 0 {
		return false
	}
	return now.Sub(lastActive) > staleAfter
}

func formatLastActive(lastActive, now time.Time) string {
	if now.IsZero() {
		return "active " + lastActive.Format(time.RFC3339)
	}

	elapsed := now.Sub(lastActive)
	switch {
	case elapsed < time.Minute:
		return "active just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("active %d min ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return plural("active %d hour%s ago", int(elapsed.Hours()))
	default:
		return plural("active %d day%s ago", int(math.Floor(elapsed.Hours()/24)))
	}
}

func plural(format string, n int) string {
	suffix := "s"
	if n == 1 {
		suffix = ""
	}
	return fmt.Sprintf(format, n, suffix)
}

func renderResults(title string, results []Result, s styles) string {
	lines := []string{s.title.Render(title)}
	if len(results) == 0 {
		lines = append(lines, s.empty.Render("No results."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	succeeded := 0
	for _, result := range results {
		mark := s.failed.Render("FAIL")
		if result.OK {
			mark = s.ok.Render(" OK ")
			succeeded++
		}
		line := fmt.Sprintf("%s %s", mark, s.account.Render(string(result.Phone)))
		if result.Target != "" {
			line += " -> " + result.Target
		}
		if result.Detail != "" {
			line += " " + s.detail.Render(result.Detail)
		}
		lines = append(lines, line)
	}

	percent := 100 * float64(succeeded) / float64(len(results))
	summary := lipgloss.JoinHorizontal(
		lipgloss.Top,
		renderProgressBar(percent, 24, s),
		" ",
		s.header.Render(fmt.Sprintf("succeeded %d, failed %d, total %d", succeeded, len(results)-succeeded, len(results))),
	)
	lines = append(lines, "", summary)

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProgressBar(donePercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(donePercent) / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 faded to 255 bright.
	baseColor := 240.0
	targetColor := 255.0
	return lipgloss.Color(fmt.Sprintf("%d", int(baseColor+(targetColor-baseColor)*normalized)))
}

// activityColor fades from bright (just active) to grey (at or past staleAfter).
func activityColor(lastActive, now time.Time, staleAfter time.Duration) lipgloss.Color {
	if now.IsZero() || staleAfter <= 0 {
		return lipgloss.Color("255")
	}
	remaining := staleAfter.Seconds() - now.Sub(lastActive).Seconds()
	return interpolateColor(remaining, 0, staleAfter.Seconds())
}
