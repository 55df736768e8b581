package hal

import (
	"fmt"
	"sync"
)

// MockHAL is an in-memory HAL for tests and development off real hardware.
type MockHAL struct {
	gpio *MockGPIO
	info BoardInfo
}

// NewMockHAL creates a MockHAL reporting a generic 40-pin, 4-core board.
func NewMockHAL() *MockHAL {
	return &MockHAL{
		gpio: &MockGPIO{pins: make(map[int]*MockPin)},
		info: BoardInfo{
			Model:    BoardUnknown,
			Name:     "Mock Board",
			NumGPIO:  40,
			NumPWM:   4,
			CPUCores: 4,
			RAMSize:  1024,
		},
	}
}

func (m *MockHAL) GPIO() GPIOProvider { return m.gpio }
func (m *MockHAL) Info() BoardInfo    { return m.info }
func (m *MockHAL) Close() error       { return nil }

// Pixels returns the recorded high/low value last written to pin, and
// whether it has been touched at all, for test assertions against a GPIO
// egress backend.
func (m *MockHAL) Pixels(pin int) (bool, bool) {
	m.gpio.mu.RLock()
	defer m.gpio.mu.RUnlock()
	p, ok := m.gpio.pins[pin]
	if !ok {
		return false, false
	}
	return p.value, true
}

// MockPin is one simulated pin's recorded state.
type MockPin struct {
	mode  PinMode
	pull  PullMode
	value bool
	pwm   int
	freq  int
}

// MockGPIO is an in-memory GPIOProvider: every write is recorded, nothing
// touches real hardware.
type MockGPIO struct {
	pins map[int]*MockPin
	mu   sync.RWMutex
}

func (g *MockGPIO) SetMode(pin int, mode PinMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].mode = mode
	return nil
}

func (g *MockGPIO) SetPull(pin int, pull PullMode) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].pull = pull
	return nil
}

func (g *MockGPIO) DigitalRead(pin int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.pins[pin] == nil {
		return false, fmt.Errorf("pin %d not initialized", pin)
	}
	return g.pins[pin].value, nil
}

func (g *MockGPIO) DigitalWrite(pin int, value bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].value = value
	return nil
}

func (g *MockGPIO) PWMWrite(pin int, value int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	if value < 0 || value > 255 {
		return fmt.Errorf("PWM value must be 0-255")
	}
	g.pins[pin].pwm = value
	return nil
}

func (g *MockGPIO) SetPWMFrequency(pin int, freq int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pins[pin] == nil {
		g.pins[pin] = &MockPin{}
	}
	g.pins[pin].freq = freq
	return nil
}

// WatchEdge is a no-op: nothing in this process drives a simulated edge.
func (g *MockGPIO) WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error {
	return nil
}

func (g *MockGPIO) ActivePins() map[int]PinMode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	result := make(map[int]PinMode, len(g.pins))
	for pin, p := range g.pins {
		result[pin] = p.mode
	}
	return result
}

func (g *MockGPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pins = make(map[int]*MockPin)
	return nil
}
