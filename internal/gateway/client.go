// Package gateway abstracts the remote generation service. The core
// depends on three operations: a streaming text completion, a
// single-shot vision description, and a single-shot image generation.
// Transport details stay behind this boundary.
package gateway

import (
	"context"
	"fmt"
)

// Turn is one prior conversation entry in the shape the transport
// expects. Role is "user" or "model".
type Turn struct {
	Role string
	Text string
}

// Client is the uniform asynchronous contract the chat core drives.
type Client interface {
	// StreamChat issues a streaming completion for prompt given the
	// prior turns. Fragments arrive on the first channel in delivery
	// order; both channels are closed when the stream terminates. A
	// transport failure mid-stream is reported on the error channel;
	// fragments already delivered are not rolled back.
	StreamChat(ctx context.Context, prompt string, history []Turn) (<-chan string, <-chan error)

	// DescribeImage issues a single-shot vision call. No partial
	// result is possible.
	DescribeImage(ctx context.Context, payload, mimeType, prompt string) (string, error)

	// GenerateImage renders prompt as an image with the given aspect
	// ratio ("1:1", "16:9" or "9:16") and returns it as a data URI.
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (string, error)
}

// Error wraps a transport failure from the remote service. The core
// converts any Error into a terminal failed turn; it never retries.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
