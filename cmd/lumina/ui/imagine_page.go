package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"lumina/internal/attachment"
	"lumina/internal/gateway"
	"lumina/internal/usage"
)

// imageResultMsg carries the outcome of an image generation call.
type imageResultMsg struct {
	uri string
	err error
}

// ImaginePage is the image generation view.
type ImaginePage struct {
	gw      gateway.Client
	tracker *usage.Tracker
	logger  *zap.Logger
	styles  Styles

	textarea textarea.Model
	spinner  spinner.Model

	ratioIdx   int
	generating bool
	savedPath  string
	savedBytes int
	errText    string
	width      int
	height     int
}

// NewImaginePage creates the imagine view.
func NewImaginePage(gw gateway.Client, tracker *usage.Tracker, styles Styles, logger *zap.Logger) ImaginePage {
	ta := textarea.New()
	ta.Placeholder = "A futuristic city with neon lights, cinematic lighting, 8k..."
	ta.SetHeight(4)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = styles.BarImages

	return ImaginePage{
		gw:       gw,
		tracker:  tracker,
		logger:   logger,
		styles:   styles,
		textarea: ta,
		spinner:  sp,
	}
}

// Init starts the spinner loop.
func (p ImaginePage) Init() tea.Cmd {
	return p.spinner.Tick
}

// SetSize resizes the view.
func (p *ImaginePage) SetSize(w, h int) {
	p.width = w
	p.height = h
	p.textarea.SetWidth(min(w-4, 80))
}

// Focus gives keyboard focus to the prompt input.
func (p *ImaginePage) Focus() { p.textarea.Focus() }

// Blur removes keyboard focus.
func (p *ImaginePage) Blur() { p.textarea.Blur() }

// Update handles input and generation results.
func (p ImaginePage) Update(msg tea.Msg) (ImaginePage, tea.Cmd) {
	switch msg := msg.(type) {
	case imageResultMsg:
		p.generating = false
		if msg.err != nil {
			p.errText = fmt.Sprintf("Failed to generate image: %v", msg.err)
			p.logger.Warn("image generation failed", zap.Error(msg.err))
			return p, nil
		}
		p.errText = ""
		p.saveResult(msg.uri)
		return p, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return p.handleGenerate()
		case "ctrl+a":
			p.ratioIdx = (p.ratioIdx + 1) % len(gateway.AspectRatios)
			return p, nil
		}
	}

	var cmd tea.Cmd
	p.textarea, cmd = p.textarea.Update(msg)
	return p, cmd
}

func (p ImaginePage) handleGenerate() (ImaginePage, tea.Cmd) {
	prompt := strings.TrimSpace(p.textarea.Value())
	if prompt == "" || p.generating {
		return p, nil
	}

	p.generating = true
	p.savedPath = ""
	p.errText = ""

	gw := p.gw
	ratio := gateway.AspectRatios[p.ratioIdx]
	return p, func() tea.Msg {
		uri, err := gw.GenerateImage(context.Background(), prompt, ratio)
		return imageResultMsg{uri: uri, err: err}
	}
}

// saveResult decodes the returned data URI and writes the image to a
// file under the temp dir so the user has something to open.
func (p *ImaginePage) saveResult(uri string) {
	att, err := attachment.ParseDataURI(uri)
	if err != nil {
		p.errText = fmt.Sprintf("unusable image payload: %v", err)
		return
	}
	raw, err := att.Bytes()
	if err != nil {
		p.errText = fmt.Sprintf("unusable image payload: %v", err)
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("lumina-%d.jpg", time.Now().Unix()))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		p.errText = fmt.Sprintf("cannot save image: %v", err)
		return
	}

	p.savedPath = path
	p.savedBytes = len(raw)
	if p.tracker != nil {
		p.tracker.RecordImage()
	}
	p.logger.Info("image generated", zap.String("path", path), zap.Int("bytes", len(raw)))
}

// View renders the imagine page.
func (p ImaginePage) View() string {
	var sb strings.Builder

	sb.WriteString(p.styles.Title.Render("Imagine"))
	sb.WriteString("\n")
	sb.WriteString(p.styles.Muted.Render("Generate studio-quality images with Imagen."))
	sb.WriteString("\n\n")

	sb.WriteString(p.styles.InputBox.Render(p.textarea.View()))
	sb.WriteString("\n\n")

	sb.WriteString(p.styles.Faint.Render("Aspect ratio (ctrl+a): "))
	for i, ratio := range gateway.AspectRatios {
		if i == p.ratioIdx {
			sb.WriteString(p.styles.TabActive.Render("[" + ratio + "]"))
		} else {
			sb.WriteString(p.styles.TabIdle.Render(" " + ratio + " "))
		}
	}
	sb.WriteString("\n\n")

	switch {
	case p.generating:
		sb.WriteString(p.spinner.View() + p.styles.Muted.Render(" Dreaming up your image..."))
	case p.errText != "":
		sb.WriteString(p.styles.Error.Render(p.errText))
	case p.savedPath != "":
		sb.WriteString(p.styles.Chip.Render(fmt.Sprintf("Saved %s (%d bytes)", p.savedPath, p.savedBytes)))
	default:
		sb.WriteString(p.styles.Faint.Render("Enter a prompt to begin"))
	}
	sb.WriteString("\n")

	return sb.String()
}
