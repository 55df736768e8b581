// Package hal abstracts the GPIO pins a board exposes for driving
// addressable LED strips and their auxiliary control lines (strip enable,
// level-shifter direction, status LEDs). It does not cover I2C/SPI/UART —
// no egress backend or module in this tree drives an I2C, SPI or UART
// peripheral.
package hal

import (
	"fmt"
	"sync"
)

// PinMode selects how a GPIO line is driven.
type PinMode int

const (
	Input PinMode = iota
	Output
	PWM
)

// PullMode selects a pin's internal pull resistor.
type PullMode int

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)

// EdgeMode selects which transitions WatchEdge reports.
type EdgeMode int

const (
	EdgeNone EdgeMode = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// GPIOProvider is one board's GPIO line controller. A pixel-pushing egress
// backend uses DigitalWrite/PWMWrite on an output pin; a button or strip
// fault line uses WatchEdge.
type GPIOProvider interface {
	SetMode(pin int, mode PinMode) error
	SetPull(pin int, pull PullMode) error
	DigitalRead(pin int) (bool, error)
	DigitalWrite(pin int, value bool) error
	// PWMWrite writes a duty cycle (0-255) to a pin already in PWM mode.
	PWMWrite(pin int, value int) error
	SetPWMFrequency(pin int, freq int) error
	WatchEdge(pin int, edge EdgeMode, callback func(pin int, value bool)) error
	// ActivePins reports every pin currently claimed and its mode, so a
	// second egress backend can refuse to double-claim one.
	ActivePins() map[int]PinMode
	Close() error
}

// HAL is one board's full set of GPIO capability plus identifying info.
type HAL interface {
	GPIO() GPIOProvider
	Info() BoardInfo
	Close() error
}

var (
	globalHAL HAL
	halMu     sync.RWMutex
)

// SetGlobalHAL installs the process-wide HAL, chosen once at startup based
// on DetectBoard.
func SetGlobalHAL(h HAL) {
	halMu.Lock()
	defer halMu.Unlock()
	globalHAL = h
}

// GetGlobalHAL returns the process-wide HAL, or an error if SetGlobalHAL
// was never called.
func GetGlobalHAL() (HAL, error) {
	halMu.RLock()
	defer halMu.RUnlock()
	if globalHAL == nil {
		return nil, fmt.Errorf("hal: not initialized")
	}
	return globalHAL, nil
}
