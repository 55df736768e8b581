// +build linux

package egress

import (
	"fmt"

	ws281x "github.com/rpi-ws281x/rpi-ws281x-go"

	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/hal"
)

// GPIOConfig configures one hardware-PWM-driven ws281x output channel.
type GPIOConfig struct {
	Pin        int  // physical header pin, must be PWM-capable
	Count      int  // LED count on this channel
	Brightness int  // 0-255 global scale applied by the driver
	Frequency  int  // signal frequency in Hz, 800000 for ws2812b
	Invert     bool // invert output for a level shifter that inverts
	Channel    int  // DMA channel, 10 is the rpi-ws281x-go default
	GRB        bool // true for GRB-ordered strips (ws2812b), false for RGB
}

// GPIOBackend drives one ws281x strand through rpi-ws281x-go's
// PWM+DMA engine — the hardware-timed path, preferred over bit-banging
// through hal.GPIOProvider because ws281x's ~1.25us bit period tolerates
// essentially no jitter from a non-realtime scheduler.
type GPIOBackend struct {
	cfg GPIOConfig
	dev *ws281x.WS2811
}

// NewGPIOBackend validates cfg.Pin against the board's PWM-capable pins
// and opens the ws281x PWM/DMA engine.
func NewGPIOBackend(cfg GPIOConfig) (*GPIOBackend, error) {
	if !hal.ValidateOutputPin(cfg.Pin) {
		return nil, fmt.Errorf("gpio egress: pin %d is not a valid header position", cfg.Pin)
	}
	if !hal.IsPWMCapable(cfg.Pin) {
		return nil, fmt.Errorf("gpio egress: pin %d has no hardware PWM channel", cfg.Pin)
	}
	if cfg.Count <= 0 {
		return nil, fmt.Errorf("gpio egress: count must be positive, got %d", cfg.Count)
	}
	if cfg.Brightness == 0 {
		cfg.Brightness = 255
	}
	if cfg.Frequency == 0 {
		cfg.Frequency = 800000
	}
	if cfg.Channel == 0 {
		cfg.Channel = 10
	}

	opt := ws281x.DefaultOptions
	opt.Channels[0].GpioPin = cfg.Pin
	opt.Channels[0].LedCount = cfg.Count
	opt.Channels[0].Brightness = cfg.Brightness
	opt.Channels[0].Invert = cfg.Invert
	opt.Frequency = cfg.Frequency
	opt.DMAChannel = cfg.Channel

	dev, err := ws281x.MakeWS2811(&opt)
	if err != nil {
		return nil, fmt.Errorf("gpio egress: init ws281x engine: %w", err)
	}
	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("gpio egress: start ws281x engine: %w", err)
	}

	return &GPIOBackend{cfg: cfg, dev: dev}, nil
}

// Flush writes the count pixels of this instance's slice into the driver's
// LED buffer and renders them out over the wire.
func (g *GPIOBackend) Flush(offset, count int, pixels []frame.Pixel) error {
	if count != g.cfg.Count {
		return fmt.Errorf("gpio egress: flush count %d does not match configured %d", count, g.cfg.Count)
	}

	buf := g.dev.Leds(0)
	for i := 0; i < count; i++ {
		p := pixels[i].Clamp()
		r := uint32(p.R * 255)
		gr := uint32(p.G * 255)
		b := uint32(p.B * 255)
		if g.cfg.GRB {
			buf[i] = gr<<16 | r<<8 | b
		} else {
			buf[i] = r<<16 | gr<<8 | b
		}
	}

	if err := g.dev.Render(); err != nil {
		return fmt.Errorf("gpio egress: render: %w", err)
	}
	return g.dev.Wait()
}

// Close shuts down the ws281x engine and releases the DMA/PWM resources.
func (g *GPIOBackend) Close() error {
	g.dev.Fini()
	return nil
}
