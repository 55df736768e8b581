//go:build linux
// +build linux

package main

import (
	"go.uber.org/zap"

	"github.com/freyr-engine/freyr/internal/hal"
)

// initHAL detects the running board and opens its GPIO chip, falling back
// to the in-memory mock HAL when no chip is reachable (e.g. in a container
// without /dev access, or on a non-Pi Linux host).
func initHAL(log *zap.Logger) {
	h, err := hal.NewBoardHAL()
	if err != nil {
		log.Warn("hal: board detection failed, falling back to mock", zap.Error(err))
		hal.SetGlobalHAL(hal.NewMockHAL())
		return
	}
	log.Info("hal: board detected", zap.String("board", h.Info().Name), zap.Int("gpio", h.Info().NumGPIO))
	hal.SetGlobalHAL(h)
}
