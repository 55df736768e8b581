package hal

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
	"periph.io/x/host/v3"
)

// RpioGPIO implements GPIOProvider via memory-mapped register access
// (go-rpio). Lower per-call overhead than the character-device backend,
// at the cost of needing /dev/mem and running as root.
type RpioGPIO struct {
	mu      sync.Mutex
	pins    map[int]rpio.Pin
	pwmPins map[int]*rpioPWM
}

type rpioPWM struct {
	pin       rpio.Pin
	frequency int
	dutyCycle int
}

// NewRpioGPIO opens the /dev/gpiomem register mapping and registers
// periph.io's platform drivers (needed by anything in this package that
// later wants a periph.io handle, even though this provider itself talks
// to go-rpio directly).
func NewRpioGPIO() (*RpioGPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hal: periph.io host init: %w", err)
	}
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("hal: open gpiomem: %w", err)
	}
	return &RpioGPIO{
		pins:    make(map[int]rpio.Pin),
		pwmPins: make(map[int]*rpioPWM),
	}, nil
}

func (h *RpioGPIO) SetMode(pin int, mode PinMode) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p := rpio.Pin(pin)
	h.pins[pin] = p

	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	case PWM:
		p.Output()
		h.pwmPins[pin] = &rpioPWM{pin: p, frequency: 1000}
	default:
		return fmt.Errorf("hal: unsupported pin mode %v", mode)
	}
	return nil
}

func (h *RpioGPIO) SetPull(pin int, pull PullMode) error {
	h.mu.Lock()
	p, ok := h.pins[pin]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not initialized", pin)
	}
	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		p.PullOff()
	}
	return nil
}

func (h *RpioGPIO) DigitalWrite(pin int, value bool) error {
	h.mu.Lock()
	p, ok := h.pins[pin]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not initialized", pin)
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (h *RpioGPIO) DigitalRead(pin int) (bool, error) {
	h.mu.Lock()
	p, ok := h.pins[pin]
	h.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("hal: pin %d not initialized", pin)
	}
	return p.Read() == rpio.High, nil
}

func (h *RpioGPIO) PWMWrite(pin int, dutyCycle int) error {
	h.mu.Lock()
	pwm, ok := h.pwmPins[pin]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not configured for PWM", pin)
	}
	pwm.dutyCycle = dutyCycle
	pwm.pin.Write(rpio.State(dutyCycle & 0xFF))
	return nil
}

func (h *RpioGPIO) SetPWMFrequency(pin int, freq int) error {
	h.mu.Lock()
	pwm, ok := h.pwmPins[pin]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("hal: pin %d not configured for PWM", pin)
	}
	pwm.frequency = freq
	return nil
}

// WatchEdge is unsupported on the register-mapped backend; use
// GpiocdevGPIO for edge-triggered inputs.
func (h *RpioGPIO) WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error {
	return fmt.Errorf("hal: edge watching not supported by rpio backend, use gpiocdev")
}

func (h *RpioGPIO) ActivePins() map[int]PinMode {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make(map[int]PinMode, len(h.pins))
	for pin := range h.pins {
		if _, isPWM := h.pwmPins[pin]; isPWM {
			result[pin] = PWM
		} else {
			result[pin] = Output
		}
	}
	return result
}

func (h *RpioGPIO) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return rpio.Close()
}
