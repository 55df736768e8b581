//go:build !linux
// +build !linux

package main

import (
	"go.uber.org/zap"

	"github.com/freyr-engine/freyr/internal/hal"
)

// initHAL installs the mock HAL on platforms with no GPIO chip to open.
func initHAL(log *zap.Logger) {
	log.Info("hal: non-linux platform, using mock HAL")
	hal.SetGlobalHAL(hal.NewMockHAL())
}
