package chat

import (
	"context"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"lumina/internal/attachment"
	"lumina/internal/gateway"
	"lumina/internal/usage"
)

const (
	// defaultVisionPrompt is substituted for the vision call when the
	// user attached an image without typing anything. It is never
	// stored as if the user typed it.
	defaultVisionPrompt = "Describe this image"

	// apologyText is the fixed user-facing text for a failed turn.
	apologyText = "I apologize, but I encountered an error processing your request."

	welcomeText = "Hello. I am Lumina. I can assist you with writing, analysis, and creative tasks. How can I help you today?"
)

// WelcomeMessage returns the model greeting a fresh log starts with.
func WelcomeMessage() Message {
	return NewMessage(RoleModel, welcomeText)
}

// Controller orchestrates one user turn end to end: it appends the
// user message and a pending placeholder, drives the gateway call
// (streaming text or single-shot vision depending on attachment
// presence), folds the response into the placeholder, and finalizes
// or fails the turn. At most one turn is in flight at a time; the
// log's pending invariant enforces this.
type Controller struct {
	log     *Log
	gw      gateway.Client
	tracker *usage.Tracker
	logger  *zap.Logger

	// busy spans the whole turn. The placeholder's pending flag drops
	// with the first fragment while text still accumulates, so the
	// log's pending check alone cannot guard the tail of a stream.
	busy atomic.Bool
}

// NewController creates a turn controller. tracker may be nil when
// usage recording is not wanted.
func NewController(log *Log, gw gateway.Client, tracker *usage.Tracker, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{log: log, gw: gw, tracker: tracker, logger: logger}
}

// Log returns the message log the controller mutates.
func (c *Controller) Log() *Log { return c.log }

// CurrentLog returns a read-only snapshot for rendering.
func (c *Controller) CurrentLog() []Message { return c.log.Snapshot() }

// Submit runs one turn to completion or failure. It blocks until the
// turn resolves; callers that need fire-and-forget semantics invoke
// it from a goroutine. The return value reports whether the
// submission was accepted: empty submissions and submissions while a
// turn is outstanding are rejected as a no-op, never an error.
func (c *Controller) Submit(ctx context.Context, text string, att *attachment.Attachment) bool {
	if strings.TrimSpace(text) == "" && att == nil {
		return false
	}
	if !c.busy.CompareAndSwap(false, true) {
		c.logger.Debug("submission rejected, turn outstanding")
		return false
	}
	defer c.busy.Store(false)
	if c.log.HasPending() {
		// Backstop; unreachable when this controller is the only
		// writer, since busy already spans the turn.
		c.logger.Warn("submission rejected, pending message in log")
		return false
	}

	// History is the prior log, excluding the fresh user message and
	// placeholder, mapped to the transport shape.
	history := historyTurns(c.log.Snapshot())

	user := NewMessage(RoleUser, text)
	user.Attachment = att
	if err := c.log.Append(user); err != nil {
		c.logger.Error("failed to append user message", zap.Error(err))
		return false
	}

	placeholder := NewMessage(RoleModel, "")
	placeholder.Pending = true
	if err := c.log.Append(placeholder); err != nil {
		c.logger.Error("failed to append placeholder", zap.Error(err))
		return false
	}

	// Regardless of how the turn ends, the placeholder must not stay
	// pending. The per-branch clears make this redundant on the happy
	// paths; it exists for the exits they do not cover.
	defer func() {
		_ = c.log.Amend(placeholder.ID, func(m *Message) {
			m.Pending = false
		})
	}()

	if att != nil {
		c.describeTurn(ctx, placeholder.ID, text, att)
	} else {
		c.streamTurn(ctx, placeholder.ID, text, history)
	}
	return true
}

// describeTurn resolves a vision turn with a single amend.
func (c *Controller) describeTurn(ctx context.Context, id, text string, att *attachment.Attachment) {
	prompt := text
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultVisionPrompt
	}

	resp, err := c.gw.DescribeImage(ctx, att.Data, att.MIMEType, prompt)
	if err != nil {
		c.failTurn(id, err)
		return
	}

	_ = c.log.Amend(id, func(m *Message) {
		m.Text = resp
		m.Pending = false
	})
	c.record("vision", prompt, resp)
}

// streamTurn folds fragments into the placeholder as they arrive. The
// pending flag clears with the first fragment, not at stream end, so
// the thinking indicator drops as soon as content shows up.
func (c *Controller) streamTurn(ctx context.Context, id, prompt string, history []gateway.Turn) {
	fragments, errs := c.gw.StreamChat(ctx, prompt, history)

	for fragment := range fragments {
		f := fragment
		_ = c.log.Amend(id, func(m *Message) {
			m.Text += f
			m.Pending = false
		})
	}

	if err := <-errs; err != nil {
		c.failTurn(id, err)
		return
	}

	var final string
	for _, m := range c.log.Snapshot() {
		if m.ID == id {
			final = m.Text
			break
		}
	}
	c.record("chat", prompt, final)
}

// failTurn replaces the placeholder text with the fixed apology.
// Fragments already shown are discarded; the user's message and any
// attachment preview stay untouched, and the next submission is
// accepted immediately.
func (c *Controller) failTurn(id string, err error) {
	c.logger.Warn("turn failed", zap.Error(err))
	_ = c.log.Amend(id, func(m *Message) {
		m.Text = apologyText
		m.Pending = false
	})
}

func (c *Controller) record(operation, prompt, response string) {
	if c.tracker == nil {
		return
	}
	c.tracker.Record(operation, usage.EstimateTokens(prompt), usage.EstimateTokens(response))
}

// historyTurns maps prior messages to the transport history shape.
// System messages and unresolved placeholders are excluded.
func historyTurns(messages []Message) []gateway.Turn {
	turns := make([]gateway.Turn, 0, len(messages))
	for _, m := range messages {
		if m.Pending || m.Role == RoleSystem {
			continue
		}
		turns = append(turns, gateway.Turn{Role: string(m.Role), Text: m.Text})
	}
	return turns
}
