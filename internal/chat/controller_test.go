package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lumina/internal/attachment"
	"lumina/internal/gateway"
	"lumina/internal/usage"
)

// No goroutine may outlive a turn.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// opencensus (a transitive dependency of the genai SDK) starts this
		// worker goroutine in its package init; it is not ours to stop.
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

// fakeGateway scripts the remote service for one turn at a time.
type fakeGateway struct {
	mu sync.Mutex

	fragments     []string
	fragmentDelay time.Duration
	release       chan struct{} // when set, block after the first fragment
	streamErr     error

	describeText string
	describeErr  error

	streamCalls   int
	describeCalls int
	lastPrompt    string
	lastHistory   []gateway.Turn
}

func (f *fakeGateway) StreamChat(ctx context.Context, prompt string, history []gateway.Turn) (<-chan string, <-chan error) {
	f.mu.Lock()
	f.streamCalls++
	f.lastPrompt = prompt
	f.lastHistory = history
	f.mu.Unlock()

	out := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for i, fragment := range f.fragments {
			if f.fragmentDelay > 0 {
				time.Sleep(f.fragmentDelay)
			}
			select {
			case out <- fragment:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
			if i == 0 && f.release != nil {
				<-f.release
			}
		}
		if f.streamErr != nil {
			errs <- f.streamErr
		}
	}()
	return out, errs
}

func (f *fakeGateway) DescribeImage(ctx context.Context, payload, mimeType, prompt string) (string, error) {
	f.mu.Lock()
	f.describeCalls++
	f.lastPrompt = prompt
	f.mu.Unlock()
	return f.describeText, f.describeErr
}

func (f *fakeGateway) GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error) {
	return "", errors.New("not scripted")
}

// attachInvariantCheck verifies the log invariants at every observed
// mutation: at most one pending message, and the pending message is
// the tail.
func attachInvariantCheck(t *testing.T, log *Log) {
	t.Helper()
	log.Subscribe(func() {
		snap := log.Snapshot()
		pendings := 0
		for i, m := range snap {
			if m.Pending {
				pendings++
				if i != len(snap)-1 {
					t.Errorf("pending message at index %d is not the tail (len=%d)", i, len(snap))
				}
			}
		}
		if pendings > 1 {
			t.Errorf("%d pending messages observed, want at most 1", pendings)
		}
	})
}

func newTestController(gw gateway.Client) (*Controller, *Log) {
	log := NewLog(WelcomeMessage())
	return NewController(log, gw, usage.NewTracker(), nil), log
}

func TestSubmit_HappyPathText(t *testing.T) {
	gw := &fakeGateway{fragments: []string{"Hi", " there!"}}
	ctrl, log := newTestController(gw)
	attachInvariantCheck(t, log)

	require.True(t, ctrl.Submit(context.Background(), "Hello", nil))

	snap := log.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, RoleUser, snap[1].Role)
	assert.Equal(t, "Hello", snap[1].Text)
	assert.Equal(t, RoleModel, snap[2].Role)
	assert.Equal(t, "Hi there!", snap[2].Text)
	assert.False(t, snap[2].Pending)
}

func TestSubmit_StreamOrderIsTimingIndependent(t *testing.T) {
	gw := &fakeGateway{
		fragments:     []string{"a", "b", "c", "d"},
		fragmentDelay: 2 * time.Millisecond,
	}
	ctrl, log := newTestController(gw)

	require.True(t, ctrl.Submit(context.Background(), "spell it", nil))

	snap := log.Snapshot()
	assert.Equal(t, "abcd", snap[len(snap)-1].Text)
}

func TestSubmit_PendingClearsOnFirstFragment(t *testing.T) {
	gw := &fakeGateway{
		fragments: []string{"first", " rest"},
		release:   make(chan struct{}),
	}
	ctrl, log := newTestController(gw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Submit(context.Background(), "go", nil)
	}()

	// Wait until the first fragment lands.
	require.Eventually(t, func() bool {
		snap := log.Snapshot()
		return len(snap) == 3 && snap[2].Text == "first"
	}, time.Second, time.Millisecond)

	snap := log.Snapshot()
	assert.False(t, snap[2].Pending, "pending must clear on the first fragment, not at stream end")

	close(gw.release)
	<-done
	assert.Equal(t, "first rest", log.Snapshot()[2].Text)
}

func TestSubmit_VisionPath(t *testing.T) {
	gw := &fakeGateway{describeText: "A red bicycle."}
	ctrl, log := newTestController(gw)
	attachInvariantCheck(t, log)

	// Record every state the placeholder passes through: the vision
	// branch must fill it in a single amend, no partial states.
	var observed []string
	log.Subscribe(func() {
		snap := log.Snapshot()
		if len(snap) == 3 {
			observed = append(observed, snap[2].Text)
		}
	})

	att := &attachment.Attachment{Data: "aGVsbG8=", MIMEType: "image/png"}
	require.True(t, ctrl.Submit(context.Background(), "What is this?", att))

	snap := log.Snapshot()
	require.Len(t, snap, 3)
	assert.Same(t, att, snap[1].Attachment, "user message carries the attachment")
	assert.Equal(t, "A red bicycle.", snap[2].Text)
	assert.False(t, snap[2].Pending)
	assert.Equal(t, 1, gw.describeCalls)
	assert.Equal(t, 0, gw.streamCalls)
	for _, text := range observed {
		assert.Contains(t, []string{"", "A red bicycle."}, text, "no partial amendments on the vision path")
	}
}

func TestSubmit_DefaultVisionPrompt(t *testing.T) {
	gw := &fakeGateway{describeText: "An image."}
	ctrl, log := newTestController(gw)

	att := &attachment.Attachment{Data: "aGVsbG8=", MIMEType: "image/jpeg"}
	require.True(t, ctrl.Submit(context.Background(), "", att))

	assert.Equal(t, "Describe this image", gw.lastPrompt)
	// The stored user message keeps what the user actually typed.
	assert.Equal(t, "", log.Snapshot()[1].Text)
}

func TestSubmit_FailureMidStream(t *testing.T) {
	gw := &fakeGateway{
		fragments: []string{"The"},
		streamErr: &gateway.Error{Op: "streamChat", Err: errors.New("quota exceeded")},
	}
	ctrl, log := newTestController(gw)
	attachInvariantCheck(t, log)
	before := log.Len()

	require.True(t, ctrl.Submit(context.Background(), "Explain X", nil))

	snap := log.Snapshot()
	require.Len(t, snap, before+2)
	last := snap[len(snap)-1]
	assert.Equal(t, apologyText, last.Text, "partial text is replaced by the apology")
	assert.False(t, last.Pending)
	// The user's message survives the failure.
	assert.Equal(t, "Explain X", snap[len(snap)-2].Text)

	// The next submission is accepted immediately.
	gw.streamErr = nil
	gw.fragments = []string{"ok"}
	require.True(t, ctrl.Submit(context.Background(), "again", nil))
}

func TestSubmit_VisionFailure(t *testing.T) {
	gw := &fakeGateway{describeErr: &gateway.Error{Op: "describeImage", Err: errors.New("boom")}}
	ctrl, log := newTestController(gw)

	att := &attachment.Attachment{Data: "aGVsbG8=", MIMEType: "image/png"}
	require.True(t, ctrl.Submit(context.Background(), "what", att))

	last := log.Snapshot()[2]
	assert.Equal(t, apologyText, last.Text)
	assert.False(t, last.Pending)
}

func TestSubmit_EmptySubmissionRejected(t *testing.T) {
	gw := &fakeGateway{}
	ctrl, log := newTestController(gw)
	before := log.Len()

	assert.False(t, ctrl.Submit(context.Background(), "", nil))
	assert.False(t, ctrl.Submit(context.Background(), "   ", nil))
	assert.Equal(t, before, log.Len())
	assert.Equal(t, 0, gw.streamCalls)
}

func TestSubmit_RejectedWhileTurnOutstanding(t *testing.T) {
	gw := &fakeGateway{
		fragments: []string{"slow", " reply"},
		release:   make(chan struct{}),
	}
	ctrl, log := newTestController(gw)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Submit(context.Background(), "first", nil)
	}()

	require.Eventually(t, func() bool {
		snap := log.Snapshot()
		return len(snap) == 3 && snap[2].Text == "slow"
	}, time.Second, time.Millisecond)

	// The turn is still running even though pending cleared with the
	// first fragment; the controller guard spans the whole turn.
	assert.False(t, ctrl.Submit(context.Background(), "second", nil))
	assert.Equal(t, 3, log.Len())

	close(gw.release)
	<-done

	assert.Equal(t, 1, gw.streamCalls)

	// A new turn is accepted once the first resolves.
	gw.release = nil
	gw.fragments = []string{"ok"}
	assert.True(t, ctrl.Submit(context.Background(), "second", nil))
}

func TestSubmit_HistoryExcludesFreshTurn(t *testing.T) {
	gw := &fakeGateway{fragments: []string{"answer one"}}
	ctrl, log := newTestController(gw)

	require.True(t, ctrl.Submit(context.Background(), "question one", nil))
	gw.fragments = []string{"answer two"}
	require.True(t, ctrl.Submit(context.Background(), "question two", nil))

	require.Len(t, gw.lastHistory, 3)
	assert.Equal(t, gateway.Turn{Role: "model", Text: WelcomeMessage().Text}, gw.lastHistory[0])
	assert.Equal(t, gateway.Turn{Role: "user", Text: "question one"}, gw.lastHistory[1])
	assert.Equal(t, gateway.Turn{Role: "model", Text: "answer one"}, gw.lastHistory[2])
	assert.Equal(t, "question two", gw.lastPrompt)
	require.Len(t, log.Snapshot(), 5)
}
