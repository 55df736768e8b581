package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultProfilesScalesAnimatorAndEgressCapacity(t *testing.T) {
	profiles := GetDefaultProfiles()

	minimal := profiles[ProfileMinimal]
	full := profiles[ProfileFull]

	assert.Less(t, minimal.MaxAnimators, full.MaxAnimators)
	assert.Less(t, minimal.MaxLEDs, full.MaxLEDs)
	assert.False(t, minimal.Egress.S3)
	assert.True(t, full.Egress.S3)
}

func TestLoadProfileFallsBackToDefaultsWithoutCustomFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadProfile("standard")
	require.NoError(t, err)
	assert.Equal(t, ProfileStandard, cfg.Name)
	assert.True(t, cfg.Features.HTTPTransport)
}

func TestLoadProfileUnknownNameErrors(t *testing.T) {
	_, err := LoadProfile("nonexistent")
	assert.Error(t, err)
}

func TestGetProfileForBoard(t *testing.T) {
	assert.Equal(t, ProfileMinimal, GetProfileForBoard("Pi Zero"))
	assert.Equal(t, ProfileStandard, GetProfileForBoard("Pi 3"))
	assert.Equal(t, ProfileFull, GetProfileForBoard("Pi 5"))
	assert.Equal(t, ProfileStandard, GetProfileForBoard("Unknown Board"))
}

func TestValidateProfileRejectsZeroAnimators(t *testing.T) {
	cfg := &ProfileConfig{MaxMemory: 50, MaxGoroutines: 50, MaxLEDs: 100, MaxAnimators: 0}
	assert.Error(t, ValidateProfile(cfg))
}
