package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"lumina/internal/attachment"
	"lumina/internal/chat"
)

// logChangedMsg signals that the message log mutated and the
// transcript needs re-rendering.
type logChangedMsg struct{}

// turnFinishedMsg signals that a submitted turn resolved.
type turnFinishedMsg struct{}

// ChatPage is the conversation view. It owns input state only; the
// transcript is always rebuilt from a log snapshot.
type ChatPage struct {
	ctrl   *chat.Controller
	logger *zap.Logger
	styles Styles

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	notify      chan struct{}
	att         *attachment.Attachment
	turnRunning bool
	status      string
	width       int
	height      int
}

// NewChatPage creates the chat view bound to the turn controller.
func NewChatPage(ctrl *chat.Controller, styles Styles, logger *zap.Logger) ChatPage {
	ta := textarea.New()
	ta.Placeholder = "Ask anything... (/attach <path> to add an image)"
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Muted

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	page := ChatPage{
		ctrl:     ctrl,
		logger:   logger,
		styles:   styles,
		viewport: viewport.New(80, 20),
		textarea: ta,
		spinner:  sp,
		renderer: renderer,
		notify:   make(chan struct{}, 1),
	}

	// Coalescing notification: the log may mutate faster than the UI
	// consumes; dropped signals are fine since rendering always reads
	// a fresh snapshot.
	ctrl.Log().Subscribe(func() {
		select {
		case page.notify <- struct{}{}:
		default:
		}
	})

	return page
}

// Init starts the blink, spinner and log-watch loops.
func (p ChatPage) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, p.spinner.Tick, waitForLogChange(p.notify))
}

func waitForLogChange(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return logChangedMsg{}
	}
}

// SetSize resizes the view.
func (p *ChatPage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.viewport.Width = w
	p.viewport.Height = h - p.textarea.Height() - 4
	p.textarea.SetWidth(w - 4)
	if renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(w-6, 100)),
	); err == nil {
		p.renderer = renderer
	}
	p.refreshTranscript()
}

// Update handles input and log-change events.
func (p ChatPage) Update(msg tea.Msg) (ChatPage, tea.Cmd) {
	switch msg := msg.(type) {
	case logChangedMsg:
		p.refreshTranscript()
		return p, waitForLogChange(p.notify)

	case turnFinishedMsg:
		p.turnRunning = false
		p.refreshTranscript()
		return p, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		if p.turnRunning {
			p.refreshTranscript()
		}
		return p, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return p.handleSubmit()
		case "ctrl+x":
			p.att = nil
			p.status = ""
			return p, nil
		}
	}

	var taCmd, vpCmd tea.Cmd
	p.textarea, taCmd = p.textarea.Update(msg)
	p.viewport, vpCmd = p.viewport.Update(msg)
	return p, tea.Batch(taCmd, vpCmd)
}

// handleSubmit dispatches the current input as a turn, or handles the
// /attach pseudo-command locally.
func (p ChatPage) handleSubmit() (ChatPage, tea.Cmd) {
	text := p.textarea.Value()

	if path, ok := strings.CutPrefix(strings.TrimSpace(text), "/attach "); ok {
		p.textarea.Reset()
		p.attachFile(strings.TrimSpace(path))
		return p, nil
	}

	if strings.TrimSpace(text) == "" && p.att == nil {
		return p, nil
	}
	if p.turnRunning {
		return p, nil
	}

	att := p.att
	p.att = nil // consumed the moment the turn is submitted
	p.status = ""
	p.textarea.Reset()
	p.turnRunning = true

	ctrl := p.ctrl
	return p, func() tea.Msg {
		ctrl.Submit(context.Background(), text, att)
		return turnFinishedMsg{}
	}
}

// attachFile loads and encodes an image for the next turn.
func (p *ChatPage) attachFile(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		p.status = p.styles.Error.Render(fmt.Sprintf("cannot read %s: %v", path, err))
		return
	}
	att, err := attachment.Encode(raw)
	if err != nil {
		p.status = p.styles.Error.Render(fmt.Sprintf("not a usable image: %v", err))
		return
	}
	p.att = &att
	p.status = p.styles.Chip.Render(fmt.Sprintf("Image attached (%s) — ctrl+x to remove", att.MIMEType))
	p.logger.Debug("attachment staged", zap.String("path", path), zap.String("mime", att.MIMEType))
}

// refreshTranscript rebuilds the viewport from a log snapshot.
func (p *ChatPage) refreshTranscript() {
	var sb strings.Builder
	for _, msg := range p.ctrl.CurrentLog() {
		sb.WriteString(p.renderMessage(msg))
		sb.WriteString("\n")
	}
	p.viewport.SetContent(sb.String())
	p.viewport.GotoBottom()
}

func (p *ChatPage) renderMessage(msg chat.Message) string {
	var sb strings.Builder

	switch msg.Role {
	case chat.RoleUser:
		sb.WriteString(p.styles.UserLabel.Render("You"))
	default:
		sb.WriteString(p.styles.ModelLabel.Render("Lumina"))
	}
	sb.WriteString("\n")

	if msg.Attachment != nil {
		sb.WriteString(p.styles.Chip.Render("🖼 " + msg.Attachment.MIMEType))
		sb.WriteString("\n")
	}

	if msg.Pending {
		sb.WriteString(p.spinner.View() + p.styles.Muted.Render(" Thinking..."))
		sb.WriteString("\n")
		return sb.String()
	}

	text := msg.Text
	if msg.Role == chat.RoleModel && p.renderer != nil {
		if rendered, err := p.renderer.Render(text); err == nil {
			text = strings.TrimRight(rendered, "\n") + "\n"
		}
	}
	sb.WriteString(text)
	sb.WriteString("\n")
	return sb.String()
}

// View renders the chat page.
func (p ChatPage) View() string {
	var sb strings.Builder
	sb.WriteString(p.viewport.View())
	sb.WriteString("\n")
	if p.status != "" {
		sb.WriteString(p.status)
		sb.WriteString("\n")
	}
	sb.WriteString(p.styles.InputBox.Render(p.textarea.View()))
	return sb.String()
}
