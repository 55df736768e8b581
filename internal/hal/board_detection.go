package hal

import (
	"fmt"
	"os"
	"strings"
)

// BoardModel identifies a detected single-board computer.
type BoardModel int

const (
	BoardUnknown BoardModel = iota
	BoardRPiZero
	BoardRPiZeroW
	BoardRPiZero2W
	BoardRPi1
	BoardRPi2
	BoardRPi3
	BoardRPi3Plus
	BoardRPi4
	BoardRPi5
	BoardRPiCM3
	BoardRPiCM4
)

// BoardInfo carries the facts that matter for sizing an LED engine on this
// host: how many pins are available to claim for egress output, how many
// of those support hardware PWM (the reliable way to drive a ws281x strip
// without a dedicated DMA library), and how many CPU cores back the
// AnimatorPool.
type BoardInfo struct {
	Model    BoardModel
	Name     string
	NumGPIO  int
	NumPWM   int
	CPUCores int
	RAMSize  int // MB
	GPIOChip string
}

// RecommendedAnimatorCount suggests an AnimatorPool worker count for this
// board: one worker per core, reserving one core for the frame loop and
// egress flush, floored at 1.
func (b BoardInfo) RecommendedAnimatorCount() int {
	n := b.CPUCores - 1
	if n < 1 {
		return 1
	}
	return n
}

// GPIOChipName returns the GPIO character device name for this board
// model, auto-detected by reading the labels of gpiochip0 and gpiochip4
// under /sys/bus/gpio/devices and picking the first RP1 or BCM2835
// controller. Falls back to gpiochip0 if detection fails.
func (b BoardModel) GPIOChipName() string {
	for _, chip := range []string{"gpiochip0", "gpiochip4"} {
		labelPath := fmt.Sprintf("/sys/bus/gpio/devices/%s/label", chip)
		data, err := os.ReadFile(labelPath)
		if err != nil {
			continue
		}
		label := strings.TrimSpace(string(data))
		// Pi 5 uses pinctrl-rp1, Pi 4 and earlier use pinctrl-bcm2835.
		if strings.Contains(label, "pinctrl-rp1") || strings.Contains(label, "pinctrl-bcm2") {
			return chip
		}
	}
	return "gpiochip0"
}

// DetectBoard reads /proc/cpuinfo (and, for Pi 5, /proc/device-tree/model)
// to identify the host board and its GPIO/PWM/core capacity.
func DetectBoard() (*BoardInfo, error) {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return nil, fmt.Errorf("hal: read cpuinfo: %w", err)
	}

	model := extractModel(string(data))
	info := &BoardInfo{Model: model}

	switch model {
	case BoardRPiZero, BoardRPiZeroW:
		info.Name = model.String()
		info.NumGPIO, info.NumPWM, info.CPUCores, info.RAMSize = 26, 2, 1, 512
	case BoardRPiZero2W:
		info.Name = model.String()
		info.NumGPIO, info.NumPWM, info.CPUCores, info.RAMSize = 26, 2, 4, 512
	case BoardRPi3, BoardRPi3Plus:
		info.Name = model.String()
		info.NumGPIO, info.NumPWM, info.CPUCores, info.RAMSize = 26, 4, 4, 1024
	case BoardRPi4:
		info.Name = "Raspberry Pi 4"
		info.NumGPIO, info.NumPWM, info.CPUCores = 26, 4, 4
		info.RAMSize = detectRAMSize()
	case BoardRPi5:
		info.Name = "Raspberry Pi 5"
		info.NumGPIO, info.NumPWM, info.CPUCores = 26, 4, 4
		info.RAMSize = detectRAMSize()
	case BoardRPiCM4:
		info.Name = "Raspberry Pi Compute Module 4"
		info.NumGPIO, info.NumPWM, info.CPUCores = 28, 4, 4
		info.RAMSize = detectRAMSize()
	default:
		info.Name = "Unknown Board"
		info.NumGPIO, info.NumPWM, info.CPUCores, info.RAMSize = 26, 2, 1, 512
	}
	info.GPIOChip = model.GPIOChipName()

	return info, nil
}

func extractModel(cpuinfo string) BoardModel {
	for _, line := range strings.Split(cpuinfo, "\n") {
		if strings.HasPrefix(line, "Model") {
			if m := matchBoardModel(line); m != BoardUnknown {
				return m
			}
		}
	}
	// Pi 5 doesn't carry a Model line in cpuinfo; fall back to device-tree.
	if dtModel, err := os.ReadFile("/proc/device-tree/model"); err == nil {
		if m := matchBoardModel(string(dtModel)); m != BoardUnknown {
			return m
		}
	}
	return BoardUnknown
}

func matchBoardModel(text string) BoardModel {
	model := strings.ToLower(text)
	switch {
	case strings.Contains(model, "pi 5"):
		return BoardRPi5
	case strings.Contains(model, "pi 4"):
		return BoardRPi4
	case strings.Contains(model, "pi 3 model b+"):
		return BoardRPi3Plus
	case strings.Contains(model, "pi 3"):
		return BoardRPi3
	case strings.Contains(model, "pi 2"):
		return BoardRPi2
	case strings.Contains(model, "pi 1"), strings.Contains(model, "model b"):
		return BoardRPi1
	case strings.Contains(model, "zero 2 w"):
		return BoardRPiZero2W
	case strings.Contains(model, "zero w"):
		return BoardRPiZeroW
	case strings.Contains(model, "zero"):
		return BoardRPiZero
	case strings.Contains(model, "compute module 4"):
		return BoardRPiCM4
	case strings.Contains(model, "compute module 3"):
		return BoardRPiCM3
	}
	return BoardUnknown
}

func detectRAMSize() int {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "MemTotal:") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				var kb int
				fmt.Sscanf(parts[1], "%d", &kb)
				return kb / 1024
			}
		}
	}
	return 0
}

func (b BoardModel) String() string {
	switch b {
	case BoardRPiZero:
		return "Raspberry Pi Zero"
	case BoardRPiZeroW:
		return "Raspberry Pi Zero W"
	case BoardRPiZero2W:
		return "Raspberry Pi Zero 2 W"
	case BoardRPi1:
		return "Raspberry Pi 1"
	case BoardRPi2:
		return "Raspberry Pi 2"
	case BoardRPi3:
		return "Raspberry Pi 3"
	case BoardRPi3Plus:
		return "Raspberry Pi 3 B+"
	case BoardRPi4:
		return "Raspberry Pi 4"
	case BoardRPi5:
		return "Raspberry Pi 5"
	case BoardRPiCM3:
		return "Raspberry Pi Compute Module 3"
	case BoardRPiCM4:
		return "Raspberry Pi Compute Module 4"
	default:
		return "Unknown"
	}
}
