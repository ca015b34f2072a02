package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"lumina/internal/chat"
	"lumina/internal/gateway"
	"lumina/internal/usage"
)

// ViewMode determines which view is active.
type ViewMode int

const (
	ChatView ViewMode = iota
	ImagineView
	DashboardView
)

var viewLabels = []string{"Chat", "Imagine", "Dashboard"}

// App is the root model: a tab bar over the three views. State that
// matters lives below it; the app only routes messages.
type App struct {
	chat      ChatPage
	imagine   ImaginePage
	dashboard DashboardPage
	styles    Styles

	mode   ViewMode
	width  int
	height int
}

// NewApp wires the three views to the core.
func NewApp(ctrl *chat.Controller, gw gateway.Client, tracker *usage.Tracker, logger *zap.Logger) App {
	if logger == nil {
		logger = zap.NewNop()
	}
	styles := DefaultStyles()
	return App{
		chat:      NewChatPage(ctrl, styles, logger),
		imagine:   NewImaginePage(gw, tracker, styles, logger),
		dashboard: NewDashboardPage(tracker, styles),
		styles:    styles,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.chat.Init(), a.imagine.Init())
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		body := msg.Height - 3 // tab bar + footer
		a.chat.SetSize(msg.Width, body)
		a.imagine.SetSize(msg.Width, body)
		a.dashboard.SetSize(msg.Width, body)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "tab":
			a.setMode(ViewMode((int(a.mode) + 1) % len(viewLabels)))
			return a, nil
		case "shift+tab":
			a.setMode(ViewMode((int(a.mode) + len(viewLabels) - 1) % len(viewLabels)))
			return a, nil
		}
		// Keys go to the active view only.
		return a.routeToActive(msg)
	}

	// Everything else (ticks, async results, log changes) fans out so
	// background views keep making progress.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	a.imagine, cmd = a.imagine.Update(msg)
	cmds = append(cmds, cmd)
	a.dashboard, cmd = a.dashboard.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) setMode(mode ViewMode) {
	a.mode = mode
	if mode == ImagineView {
		a.imagine.Focus()
	} else {
		a.imagine.Blur()
	}
}

func (a App) routeToActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.mode {
	case ChatView:
		a.chat, cmd = a.chat.Update(msg)
	case ImagineView:
		a.imagine, cmd = a.imagine.Update(msg)
	case DashboardView:
		a.dashboard, cmd = a.dashboard.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	var sb strings.Builder
	sb.WriteString(a.tabBar())
	sb.WriteString("\n")

	switch a.mode {
	case ChatView:
		sb.WriteString(a.chat.View())
	case ImagineView:
		sb.WriteString(a.imagine.View())
	case DashboardView:
		sb.WriteString(a.dashboard.View())
	}

	sb.WriteString("\n")
	sb.WriteString(a.styles.Faint.Render("tab: switch view • ctrl+c: quit"))
	return sb.String()
}

func (a App) tabBar() string {
	tabs := make([]string, len(viewLabels))
	for i, label := range viewLabels {
		if ViewMode(i) == a.mode {
			tabs[i] = a.styles.TabActive.Render("● " + label)
		} else {
			tabs[i] = a.styles.TabIdle.Render("  " + label)
		}
	}
	return strings.Join(tabs, "   ")
}

// Run starts the interactive program.
func Run(ctrl *chat.Controller, gw gateway.Client, tracker *usage.Tracker, logger *zap.Logger) error {
	p := tea.NewProgram(NewApp(ctrl, gw, tracker, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
