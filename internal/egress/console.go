package egress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/freyr-engine/freyr/internal/frame"
)

// ConsoleConfig configures the ANSI terminal debug backend.
type ConsoleConfig struct {
	Width  int       // pixels per printed row, default 32
	Writer io.Writer // default os.Stdout
}

// ConsoleBackend renders its pixel range as a grid of 24-bit ANSI
// background-color cells, one space per pixel, wrapping every Width
// pixels — a terminal stand-in for a physical strand, handy for demos and
// for exercising the command pipeline without hardware attached.
type ConsoleBackend struct {
	mu    sync.Mutex
	width int
	w     io.Writer
}

// NewConsoleBackend clears the terminal and returns a backend ready to
// flush. Width defaults to 32 if not positive; Writer defaults to os.Stdout.
func NewConsoleBackend(cfg ConsoleConfig) *ConsoleBackend {
	width := cfg.Width
	if width <= 0 {
		width = 32
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprint(w, "\x1b[2J\x1b[H\x1b[3J")
	return &ConsoleBackend{width: width, w: w}
}

// NullBackend discards every frame. Useful for egress_init kinds that only
// exist to exercise the command/frame pipeline without any real output.
type NullBackend struct{}

// Flush implements Backend by doing nothing.
func (NullBackend) Flush(offset, count int, pixels []frame.Pixel) error { return nil }

// Flush implements Backend by printing count cells starting at the cursor
// home position, wrapping every Width cells.
func (c *ConsoleBackend) Flush(offset, count int, pixels []frame.Pixel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.w, "\x1b[H")
	for i, p := range pixels {
		cp := p.Clamp()
		r, g, b := int(cp.R*255), int(cp.G*255), int(cp.B*255)
		fmt.Fprintf(c.w, "\x1b[48;2;%d;%d;%dm ", r, g, b)
		if (i+1)%c.width == 0 {
			fmt.Fprint(c.w, "\x1b[40;0m\r\n")
		}
	}
	return nil
}
