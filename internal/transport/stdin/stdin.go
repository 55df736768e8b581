// Package stdin feeds lines typed on the process's standard input to the
// orchestrator's command queue, source "stdin" — the interactive console
// transport.
package stdin

import (
	"bufio"
	"io"
	"strings"

	"github.com/freyr-engine/freyr/internal/orchestrator"
)

// Transport scans r (normally os.Stdin) line by line, enqueueing each
// non-blank line as a command.
type Transport struct {
	r     io.Reader
	queue *orchestrator.CommandQueue
	done  chan struct{}
}

// New creates a Transport reading lines from r.
func New(r io.Reader, queue *orchestrator.CommandQueue) *Transport {
	return &Transport{r: r, queue: queue, done: make(chan struct{})}
}

// Run scans r until it hits EOF, an error, or Stop is called. Intended to be
// run in its own goroutine; blocks for the life of the transport.
func (t *Transport) Run() {
	scanner := bufio.NewScanner(t.r)
	for scanner.Scan() {
		select {
		case <-t.done:
			return
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		t.queue.Enqueue(line, "stdin")
	}
}

// Stop signals Run to exit once its current blocking read returns. Reading
// from an already-closed reader is the caller's responsibility if an
// earlier exit is required.
func (t *Transport) Stop() {
	close(t.done)
}
