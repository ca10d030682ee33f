package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// InterruptHandler tells the user what happened when a long-running command
// is canceled.
type InterruptHandler struct {
	writer      io.Writer
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer: writer,
	}
}

// HandleInterrupts watches ctx and prints a friendly message, followed by
// hint, if it is canceled before stop is called.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, hint string) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		select {
		case <-ctx.Done():
			// Both cases may be ready when stop ran first.
			select {
			case <-done:
				return
			default:
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				h.markInterrupted(hint)
			}
		case <-done:
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}

func (h *InterruptHandler) markInterrupted(hint string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.interrupted {
		return
	}
	h.interrupted = true

	msg := "\n" + FormatWarning("Interrupted!")
	if hint != "" {
		msg += "\n" + FormatInfo(hint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
