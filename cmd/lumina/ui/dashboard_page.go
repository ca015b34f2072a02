package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lumina/internal/usage"
)

// estCostPerToken approximates blended API pricing for the summary
// card. Display-only.
const estCostPerToken = 0.0000022

// DashboardPage renders the usage analytics view from tracker data.
type DashboardPage struct {
	tracker *usage.Tracker
	styles  Styles
	width   int
	height  int
}

// NewDashboardPage creates the dashboard view.
func NewDashboardPage(tracker *usage.Tracker, styles Styles) DashboardPage {
	return DashboardPage{tracker: tracker, styles: styles}
}

// SetSize resizes the view.
func (p *DashboardPage) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// Update is a no-op; the dashboard re-reads tracker state on render.
func (p DashboardPage) Update(msg tea.Msg) (DashboardPage, tea.Cmd) {
	return p, nil
}

// View renders the page.
func (p DashboardPage) View() string {
	stats := p.tracker.Stats()
	daily := p.tracker.Daily()

	var sb strings.Builder
	sb.WriteString(p.styles.Title.Render("Usage Analytics"))
	sb.WriteString("\n")
	sb.WriteString(p.styles.Muted.Render("Track your token consumption and generation metrics."))
	sb.WriteString("\n\n")

	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		p.statCard("TOTAL TOKENS", fmt.Sprintf("%d", stats.Total.Total)),
		" ",
		p.statCard("IMAGES CREATED", fmt.Sprintf("%d", stats.Images)),
		" ",
		p.statCard("API COST (EST)", fmt.Sprintf("$%.2f", float64(stats.Total.Total)*estCostPerToken)),
	)
	sb.WriteString(cards)
	sb.WriteString("\n\n")

	sb.WriteString(p.styles.BarTokens.Render("● Token Consumption"))
	sb.WriteString("\n")
	sb.WriteString(renderWeeklyChart(daily, func(d usage.DailyUsage) int64 { return d.Tokens }, p.styles.BarTokens))
	sb.WriteString("\n")

	sb.WriteString(p.styles.BarImages.Render("● Images Generated"))
	sb.WriteString("\n")
	sb.WriteString(renderWeeklyChart(daily, func(d usage.DailyUsage) int64 { return d.Images }, p.styles.BarImages))
	sb.WriteString("\n")

	if len(stats.ByOperation) > 0 {
		sb.WriteString(p.styles.Title.Render("By Operation"))
		sb.WriteString("\n")
		sb.WriteString(renderOperationTable(stats.ByOperation))
	}

	return sb.String()
}

func (p DashboardPage) statCard(label, value string) string {
	content := p.styles.Faint.Render(label) + "\n" + p.styles.Title.Render(value)
	return p.styles.StatCard.Render(content)
}

// renderWeeklyChart draws one horizontal bar per day, scaled to the
// series maximum.
func renderWeeklyChart(daily []usage.DailyUsage, value func(usage.DailyUsage) int64, style lipgloss.Style) string {
	const barWidth = 40

	var max int64
	for _, d := range daily {
		if v := value(d); v > max {
			max = v
		}
	}

	var sb strings.Builder
	for _, d := range daily {
		sb.WriteString(fmt.Sprintf("%-4s", d.Day))
		sb.WriteString(style.Render(bar(value(d), max, barWidth)))
		sb.WriteString(fmt.Sprintf(" %d\n", value(d)))
	}
	return sb.String()
}

// bar scales n against max into a block string of at most width runes.
// Any non-zero value shows at least one block.
func bar(n, max int64, width int) string {
	if n <= 0 || max <= 0 {
		return ""
	}
	w := int(n * int64(width) / max)
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}

func renderOperationTable(byOp map[string]usage.TokenCounts) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s | %-10s | %-10s | %-10s\n", "Operation", "Input", "Output", "Total"))
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	for _, op := range []string{"chat", "vision"} {
		counts, ok := byOp[op]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-12s | %-10d | %-10d | %-10d\n", op, counts.Input, counts.Output, counts.Total))
	}
	return sb.String()
}
