package chat

import (
	"errors"
	"fmt"
	"sync"
)

// Contract-breach errors. These indicate a sequencing bug in the
// caller, not a user-facing condition.
var (
	// ErrPendingExists rejects an append while a pending message is
	// outstanding. This check is the mutual-exclusion mechanism for
	// turns: at most one message is ever pending.
	ErrPendingExists = errors.New("chat: a pending message is already outstanding")

	// ErrNotFound rejects an amend of an unknown message ID.
	ErrNotFound = errors.New("chat: message not found")
)

// Log is the ordered, append-only message sequence and the single
// source of truth for what is displayed. Messages are amended in
// place, never reordered or deleted. Every successful mutation
// notifies subscribers.
type Log struct {
	mu       sync.Mutex
	messages []Message
	subs     []func()
}

// NewLog creates a log seeded with the given messages.
func NewLog(seed ...Message) *Log {
	l := &Log{}
	l.messages = append(l.messages, seed...)
	return l
}

// Subscribe registers fn to be called after every successful append
// or amend. Callbacks run synchronously on the mutating goroutine and
// must not call back into the log.
func (l *Log) Subscribe(fn func()) {
	l.mu.Lock()
	l.subs = append(l.subs, fn)
	l.mu.Unlock()
}

// Append adds a message at the tail. A second pending message while
// one is outstanding is rejected.
func (l *Log) Append(msg Message) error {
	l.mu.Lock()
	if msg.Pending && l.hasPendingLocked() {
		l.mu.Unlock()
		return ErrPendingExists
	}
	l.messages = append(l.messages, msg)
	subs := l.subs
	l.mu.Unlock()

	notify(subs)
	return nil
}

// Amend applies fn to the message with the given ID. Only Text and
// Pending survive the update; identity fields are immutable.
func (l *Log) Amend(id string, fn func(m *Message)) error {
	l.mu.Lock()
	idx := -1
	for i := range l.messages {
		if l.messages[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := l.messages[idx]
	fn(&updated)
	l.messages[idx].Text = updated.Text
	l.messages[idx].Pending = updated.Pending
	subs := l.subs
	l.mu.Unlock()

	notify(subs)
	return nil
}

// Snapshot returns a read-only copy of the log for rendering.
func (l *Log) Snapshot() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}

// HasPending reports whether a message is currently awaiting content.
func (l *Log) HasPending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasPendingLocked()
}

func (l *Log) hasPendingLocked() bool {
	for i := range l.messages {
		if l.messages[i].Pending {
			return true
		}
	}
	return false
}

func notify(subs []func()) {
	for _, fn := range subs {
		fn()
	}
}
