package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAndGetReturnsUsableLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogDir = t.TempDir()
	require.NoError(t, Init(cfg))

	l := Get()
	require.NotNil(t, l)
	l.Info("test entry")
}

func TestBroadcasterReceivesLoggedEntries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogDir = t.TempDir()
	require.NoError(t, Init(cfg))
	defer SetBroadcaster(nil)

	type captured struct {
		level, msg, source string
	}
	var got captured
	SetBroadcaster(func(level, message, source string, fields map[string]interface{}) {
		got = captured{level: level, msg: message, source: source}
	})

	Get().Warn("overrun detected")

	assert.Equal(t, "warn", got.level)
	assert.Equal(t, "overrun detected", got.msg)
	assert.Equal(t, "engine", got.source)
}

func TestWithAnimationAttachesFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogDir = t.TempDir()
	require.NoError(t, Init(cfg))

	l := WithAnimation(7, "anim_solid")
	require.NotNil(t, l)
}
