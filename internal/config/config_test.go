package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60.0, cfg.Engine.FPS)
	assert.Equal(t, 1, cfg.Engine.AnimatorCount)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "freyrd", cfg.MQTT.ClientID)
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("FREYR_ENGINE_FPS", "120")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 120.0, cfg.Engine.FPS)
}

func TestLoadReadsExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/freyr.yaml"
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  fps: 30\n  animator_count: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Engine.FPS)
	assert.Equal(t, 3, cfg.Engine.AnimatorCount)
}
