// +build !linux

package egress

import (
	"fmt"

	"github.com/freyr-engine/freyr/internal/frame"
)

// GPIOConfig mirrors the Linux build's field set so config parsing stays
// platform-independent.
type GPIOConfig struct {
	Pin        int
	Count      int
	Brightness int
	Frequency  int
	Invert     bool
	Channel    int
	GRB        bool
}

// GPIOBackend is a stub on non-Linux platforms: rpi-ws281x-go only builds
// against the Raspberry Pi's PWM/DMA hardware.
type GPIOBackend struct{}

func NewGPIOBackend(cfg GPIOConfig) (*GPIOBackend, error) {
	return nil, fmt.Errorf("gpio egress: not supported on this platform")
}

func (g *GPIOBackend) Flush(offset, count int, pixels []frame.Pixel) error {
	return fmt.Errorf("gpio egress: not supported on this platform")
}

func (g *GPIOBackend) Close() error { return nil }
