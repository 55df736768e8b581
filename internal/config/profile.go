package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Profile represents a build/runtime resource profile, scaling animator and
// egress capacity to the host board.
type Profile string

const (
	// ProfileMinimal - Pi Zero, BeagleBone (512MB RAM): single animator,
	// one egress backend, no HTTP/telemetry.
	ProfileMinimal Profile = "minimal"

	// ProfileStandard - Pi 3/4, Orange Pi (1GB RAM): a small animator
	// pool, GPIO + UDP egress, HTTP enabled.
	ProfileStandard Profile = "standard"

	// ProfileFull - Pi 4/5, Jetson Nano (2GB+ RAM): full animator pool,
	// every egress backend, telemetry and auth enabled.
	ProfileFull Profile = "full"
)

// ProfileConfig holds profile-specific resource ceilings.
type ProfileConfig struct {
	Name        Profile `mapstructure:"name"`
	Description string  `mapstructure:"description"`

	MaxMemory     int64 `mapstructure:"max_memory"`      // Max memory in MB
	MaxGoroutines int   `mapstructure:"max_goroutines"`  // Max concurrent goroutines
	MaxLEDs       int   `mapstructure:"max_leds"`        // Max total pixels across all egresses
	MaxAnimators  int   `mapstructure:"max_animators"`   // Max AnimatorPool workers

	Egress   EgressBackendsConfig `mapstructure:"egress"`
	Features FeaturesConfig       `mapstructure:"features"`
}

// EgressBackendsConfig gates which egress backends a profile may instantiate.
type EgressBackendsConfig struct {
	GPIO    bool `mapstructure:"gpio"`
	UART    bool `mapstructure:"uart"`
	Upsilon bool `mapstructure:"upsilon"` // UDP upsilon-striped
	S3      bool `mapstructure:"s3"`      // snapshot archiver
}

// FeaturesConfig defines feature flags.
type FeaturesConfig struct {
	HTTPTransport   bool `mapstructure:"http_transport"`
	APIAuth         bool `mapstructure:"api_auth"`
	Telemetry       bool `mapstructure:"telemetry"`
	DebugMode       bool `mapstructure:"debug_mode"`
	PluginHotReload bool `mapstructure:"plugin_hot_reload"`
	ResourceMonitor bool `mapstructure:"resource_monitor"`
}

// GetDefaultProfiles returns the default profile configurations.
func GetDefaultProfiles() map[Profile]*ProfileConfig {
	return map[Profile]*ProfileConfig{
		ProfileMinimal: {
			Name:          ProfileMinimal,
			Description:   "Minimal profile for Pi Zero, BeagleBone (512MB RAM)",
			MaxMemory:     50,
			MaxGoroutines: 50,
			MaxLEDs:       512,
			MaxAnimators:  1,
			Egress: EgressBackendsConfig{
				GPIO:    true,
				UART:    false,
				Upsilon: false,
				S3:      false,
			},
			Features: FeaturesConfig{
				HTTPTransport:   false,
				APIAuth:         false,
				Telemetry:       false,
				DebugMode:       false,
				PluginHotReload: false,
				ResourceMonitor: true,
			},
		},
		ProfileStandard: {
			Name:          ProfileStandard,
			Description:   "Standard profile for Pi 3/4, Orange Pi (1GB RAM)",
			MaxMemory:     200,
			MaxGoroutines: 200,
			MaxLEDs:       8192,
			MaxAnimators:  2,
			Egress: EgressBackendsConfig{
				GPIO:    true,
				UART:    true,
				Upsilon: true,
				S3:      false,
			},
			Features: FeaturesConfig{
				HTTPTransport:   true,
				APIAuth:         true,
				Telemetry:       true,
				DebugMode:       false,
				PluginHotReload: true,
				ResourceMonitor: true,
			},
		},
		ProfileFull: {
			Name:          ProfileFull,
			Description:   "Full profile for Pi 4/5, Jetson Nano (2GB+ RAM)",
			MaxMemory:     400,
			MaxGoroutines: 1000,
			MaxLEDs:       65536,
			MaxAnimators:  4,
			Egress: EgressBackendsConfig{
				GPIO:    true,
				UART:    true,
				Upsilon: true,
				S3:      true,
			},
			Features: FeaturesConfig{
				HTTPTransport:   true,
				APIAuth:         true,
				Telemetry:       true,
				DebugMode:       true,
				PluginHotReload: true,
				ResourceMonitor: true,
			},
		},
	}
}

// LoadProfile loads a profile configuration, merging a custom
// profile-<name>.yaml over the built-in defaults for that profile.
func LoadProfile(profileName string) (*ProfileConfig, error) {
	profile := Profile(profileName)

	defaults := GetDefaultProfiles()
	defaultConfig, exists := defaults[profile]
	if !exists {
		return nil, fmt.Errorf("unknown profile: %s", profileName)
	}

	v := viper.New()
	v.SetConfigName(fmt.Sprintf("profile-%s", profileName))
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(getConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read profile config: %w", err)
		}
		return defaultConfig, nil
	}

	var cfg ProfileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile config: %w", err)
	}

	mergeProfileConfig(&cfg, defaultConfig)
	return &cfg, nil
}

// DetectProfile automatically selects a profile for the current host.
func DetectProfile() Profile {
	var memInfo runtime.MemStats
	runtime.ReadMemStats(&memInfo)
	totalMem := memInfo.Sys / 1024 / 1024

	isARM := runtime.GOARCH == "arm" || runtime.GOARCH == "arm64"
	if !isARM {
		return ProfileFull
	}

	if totalMem < 256 {
		return ProfileMinimal
	} else if totalMem < 1024 {
		return ProfileStandard
	}
	return ProfileFull
}

// DetectBoard attempts to detect the board type from known device-tree and
// release marker files.
func DetectBoard() string {
	if _, err := os.Stat("/proc/device-tree/model"); err == nil {
		data, err := os.ReadFile("/proc/device-tree/model")
		if err == nil {
			model := string(data)
			switch {
			case contains(model, "Raspberry Pi Zero"):
				return "Pi Zero"
			case contains(model, "Raspberry Pi 3"):
				return "Pi 3"
			case contains(model, "Raspberry Pi 4"):
				return "Pi 4"
			case contains(model, "Raspberry Pi 5"):
				return "Pi 5"
			case contains(model, "Raspberry Pi"):
				return "Raspberry Pi"
			}
		}
	}

	if _, err := os.Stat("/etc/dogtag"); err == nil {
		return "BeagleBone"
	}
	if _, err := os.Stat("/etc/orangepi-release"); err == nil {
		return "Orange Pi"
	}
	if _, err := os.Stat("/etc/nv_tegra_release"); err == nil {
		return "Jetson"
	}

	if runtime.GOOS == "linux" {
		if runtime.GOARCH == "arm64" {
			return "ARM64 Linux"
		} else if runtime.GOARCH == "arm" {
			return "ARM Linux"
		}
		return "Linux"
	}
	return "Unknown"
}

// GetProfileForBoard returns the recommended profile for a board type.
func GetProfileForBoard(board string) Profile {
	switch board {
	case "Pi Zero":
		return ProfileMinimal
	case "Pi 3", "Orange Pi", "BeagleBone":
		return ProfileStandard
	case "Pi 4", "Pi 5", "Jetson":
		return ProfileFull
	default:
		return ProfileStandard
	}
}

func mergeProfileConfig(cfg *ProfileConfig, defaults *ProfileConfig) {
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Description == "" {
		cfg.Description = defaults.Description
	}
	if cfg.MaxMemory == 0 {
		cfg.MaxMemory = defaults.MaxMemory
	}
	if cfg.MaxGoroutines == 0 {
		cfg.MaxGoroutines = defaults.MaxGoroutines
	}
	if cfg.MaxLEDs == 0 {
		cfg.MaxLEDs = defaults.MaxLEDs
	}
	if cfg.MaxAnimators == 0 {
		cfg.MaxAnimators = defaults.MaxAnimators
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && findSubstring(s, substr)
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// SaveProfileConfig saves a profile configuration to file.
func SaveProfileConfig(profileName string, cfg *ProfileConfig) error {
	configPath := filepath.Join(getConfigDir(), fmt.Sprintf("profile-%s.yaml", profileName))

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("name", cfg.Name)
	v.Set("description", cfg.Description)
	v.Set("max_memory", cfg.MaxMemory)
	v.Set("max_goroutines", cfg.MaxGoroutines)
	v.Set("max_leds", cfg.MaxLEDs)
	v.Set("max_animators", cfg.MaxAnimators)
	v.Set("egress", cfg.Egress)
	v.Set("features", cfg.Features)

	return v.WriteConfigAs(configPath)
}

// ValidateProfile sanity-checks a profile's resource ceilings.
func ValidateProfile(cfg *ProfileConfig) error {
	if cfg.MaxMemory < 10 {
		return fmt.Errorf("max_memory must be at least 10MB")
	}
	if cfg.MaxGoroutines < 10 {
		return fmt.Errorf("max_goroutines must be at least 10")
	}
	if cfg.MaxLEDs < 1 {
		return fmt.Errorf("max_leds must be at least 1")
	}
	if cfg.MaxAnimators < 1 {
		return fmt.Errorf("max_animators must be at least 1")
	}
	return nil
}
