// +build linux

package egress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// These only cover the validation paths that return before the real
// ws281x PWM/DMA engine is touched — no hardware is available in a test
// environment, but bad config must still be rejected without it.

func TestNewGPIOBackendRejectsNonExistentPin(t *testing.T) {
	_, err := NewGPIOBackend(GPIOConfig{Pin: 2, Count: 10})
	assert.Error(t, err)
}

func TestNewGPIOBackendRejectsNonPWMPin(t *testing.T) {
	_, err := NewGPIOBackend(GPIOConfig{Pin: 11, Count: 10})
	assert.Error(t, err)
}

func TestNewGPIOBackendRejectsZeroCount(t *testing.T) {
	_, err := NewGPIOBackend(GPIOConfig{Pin: 12, Count: 0})
	assert.Error(t, err)
}
