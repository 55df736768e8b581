//go:build linux
// +build linux

package hal

import "fmt"

// BoardHAL is the real-hardware HAL: a detected BoardInfo paired with
// whichever GPIOProvider NewBoardHAL managed to open for it.
type BoardHAL struct {
	info BoardInfo
	gpio GPIOProvider
}

// NewBoardHAL detects the running board and opens a GPIO provider for it:
// the character-device backend first (works unprivileged, inside most
// containers with /dev/gpiochip* mounted), falling back to the register-
// mapped go-rpio backend when no GPIO chip is reachable but /dev/gpiomem
// is (older kernels, or a container that only bind-mounts gpiomem).
// Callers fall back to NewMockHAL if both of those fail too.
func NewBoardHAL() (*BoardHAL, error) {
	info, err := DetectBoard()
	if err != nil {
		return nil, fmt.Errorf("detecting board: %w", err)
	}
	chip := info.GPIOChip
	if chip == "" {
		chip = info.Model.GPIOChipName()
	}
	if gpio, err := NewGpiocdevGPIO(chip); err == nil {
		return &BoardHAL{info: *info, gpio: gpio}, nil
	}
	gpio, err := NewRpioGPIO()
	if err != nil {
		return nil, fmt.Errorf("opening GPIO chip %s: %w", chip, err)
	}
	return &BoardHAL{info: *info, gpio: gpio}, nil
}

func (b *BoardHAL) GPIO() GPIOProvider { return b.gpio }
func (b *BoardHAL) Info() BoardInfo    { return b.info }
func (b *BoardHAL) Close() error       { return b.gpio.Close() }
