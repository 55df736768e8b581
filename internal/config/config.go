// Package config loads process configuration via viper: the render engine's
// own settings (FPS, animator count, startup command file) plus the
// transports and ambient services it wires at startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the freyrd process.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig contains the HTTP transport's listen address and auth
// settings.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// MQTTConfig contains the MQTT transport's broker connection settings.
type MQTTConfig struct {
	BrokerURL string `mapstructure:"broker_url"`
	ClientID  string `mapstructure:"client_id"`
	Topic     string `mapstructure:"topic"`
}

// EngineConfig contains the frame loop and startup settings.
type EngineConfig struct {
	FPS           float64 `mapstructure:"fps"`
	AnimatorCount int     `mapstructure:"animator_count"`
	CommandFile   string  `mapstructure:"command_file"`
	PluginDir     string  `mapstructure:"plugin_dir"`
	MultiThreaded bool    `mapstructure:"multi_threaded"`
}

// TelemetryConfig contains the FPS/drop-count publishing backends.
type TelemetryConfig struct {
	RedisAddr    string `mapstructure:"redis_addr"`
	InfluxURL    string `mapstructure:"influx_url"`
	InfluxToken  string `mapstructure:"influx_token"`
	InfluxOrg    string `mapstructure:"influx_org"`
	InfluxBucket string `mapstructure:"influx_bucket"`
}

// LoggerConfig contains logging settings.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults
	}

	v.SetEnvPrefix("FREYR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("mqtt.broker_url", "")
	v.SetDefault("mqtt.client_id", "freyrd")
	v.SetDefault("mqtt.topic", "freyr/cmd")

	v.SetDefault("engine.fps", 60.0)
	v.SetDefault("engine.animator_count", 1)
	v.SetDefault("engine.command_file", "")
	v.SetDefault("engine.plugin_dir", "")
	v.SetDefault("engine.multi_threaded", false)

	v.SetDefault("telemetry.redis_addr", "")
	v.SetDefault("telemetry.influx_url", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".freyr")
}
