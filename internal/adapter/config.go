package adapter

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API          APIConfig          `mapstructure:"api"`
	Breaker      BreakerConfig      `mapstructure:"breaker"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Store        StoreConfig        `mapstructure:"store"`
	Sync         SyncConfig         `mapstructure:"sync"`
	UI           UIConfig           `mapstructure:"ui"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Debug        DebugConfig        `mapstructure:"debug"`
}

// APIConfig holds remote catalog configuration
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`       // e.g. https://api.themoviedb.org/3
	ImageBaseURL string        `mapstructure:"image_base_url"` // e.g. https://image.tmdb.org/t/p/
	Key          string        `mapstructure:"key"`
	Language     string        `mapstructure:"language"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// BreakerConfig holds circuit breaker settings for the catalog client
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"` // Allowed through while half-open
	Interval     time.Duration `mapstructure:"interval"`     // Count reset period while closed
	Timeout      time.Duration `mapstructure:"timeout"`      // Open -> half-open delay
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
}

// ConnectivityConfig holds reachability probe settings
type ConnectivityConfig struct {
	ProbeURL string        `mapstructure:"probe_url"` // Defaults to api.base_url
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// StoreConfig holds local store settings
type StoreConfig struct {
	CacheDir string `mapstructure:"cache_dir"` // Empty = memory-only
	SeedFile string `mapstructure:"seed_file"` // Optional JSON list of movies
}

// SyncConfig holds engine settings
type SyncConfig struct {
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"` // 0 = transport timeout only
}

// UIConfig holds presentation settings
type UIConfig struct {
	ChartWindow   int `mapstructure:"chart_window"`   // Ratings drawn in the chart
	AverageWindow int `mapstructure:"average_window"` // Ratings folded into the average line
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DebugConfig holds the optional debug HTTP listener
type DebugConfig struct {
	Listen string `mapstructure:"listen"` // e.g. "127.0.0.1:9464"; empty disables
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "https://api.themoviedb.org/3",
			ImageBaseURL: "https://image.tmdb.org/t/p/",
			Language:     "en-US",
			Timeout:      15 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  5,
			FailureRatio: 0.6,
		},
		Connectivity: ConnectivityConfig{
			Interval: 10 * time.Second,
			Timeout:  3 * time.Second,
		},
		Store: StoreConfig{
			CacheDir: defaultCachePath(),
		},
		UI: UIConfig{
			ChartWindow:   10,
			AverageWindow: 20,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviefan", "moviefan.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviefan", "moviefan.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "moviefan")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "moviefan")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "moviefan", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "moviefan", "cache")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(defaultConfigPath(), ".")
}

// LoadConfigFrom loads config.yaml from the first matching directory, then
// applies MOVIEFAN_* environment overrides (MOVIEFAN_API_KEY, MOVIEFAN_STORE_CACHE_DIR, ...)
func LoadConfigFrom(dirs ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	setDefaults(v, DefaultConfig())

	// Environment variable overrides
	v.SetEnvPrefix("MOVIEFAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.Connectivity.ProbeURL == "" {
		cfg.Connectivity.ProbeURL = cfg.API.BaseURL
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve nested overrides
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.image_base_url", cfg.API.ImageBaseURL)
	v.SetDefault("api.key", cfg.API.Key)
	v.SetDefault("api.language", cfg.API.Language)
	v.SetDefault("api.timeout", cfg.API.Timeout)

	v.SetDefault("breaker.enabled", cfg.Breaker.Enabled)
	v.SetDefault("breaker.max_requests", cfg.Breaker.MaxRequests)
	v.SetDefault("breaker.interval", cfg.Breaker.Interval)
	v.SetDefault("breaker.timeout", cfg.Breaker.Timeout)
	v.SetDefault("breaker.min_requests", cfg.Breaker.MinRequests)
	v.SetDefault("breaker.failure_ratio", cfg.Breaker.FailureRatio)

	v.SetDefault("connectivity.probe_url", cfg.Connectivity.ProbeURL)
	v.SetDefault("connectivity.interval", cfg.Connectivity.Interval)
	v.SetDefault("connectivity.timeout", cfg.Connectivity.Timeout)

	v.SetDefault("store.cache_dir", cfg.Store.CacheDir)
	v.SetDefault("store.seed_file", cfg.Store.SeedFile)

	v.SetDefault("sync.refresh_timeout", cfg.Sync.RefreshTimeout)

	v.SetDefault("ui.chart_window", cfg.UI.ChartWindow)
	v.SetDefault("ui.average_window", cfg.UI.AverageWindow)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)

	v.SetDefault("debug.listen", cfg.Debug.Listen)
}

// Validate reports the first configuration problem that prevents startup
func (c *Config) Validate() error {
	switch {
	case c.API.BaseURL == "":
		return errors.New("api.base_url is required")
	case c.API.Key == "":
		return errors.New("api.key is required (set MOVIEFAN_API_KEY)")
	case c.API.Timeout <= 0:
		return errors.New("api.timeout must be positive")
	case c.UI.ChartWindow <= 0:
		return errors.New("ui.chart_window must be positive")
	case c.UI.AverageWindow <= 0:
		return errors.New("ui.average_window must be positive")
	case c.Connectivity.Interval <= 0:
		return errors.New("connectivity.interval must be positive")
	case c.Breaker.Enabled && (c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1):
		return errors.New("breaker.failure_ratio must be in (0, 1]")
	}
	return nil
}

// StorePath returns the bolt file location, scoped per catalog base URL so
// switching catalogs never mixes records. Empty means memory-only.
func (c *Config) StorePath() string {
	if c.Store.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.Store.CacheDir, hashBaseURL(c.API.BaseURL), "moviefan.db")
}

func hashBaseURL(baseURL string) string {
	normalized := strings.TrimRight(strings.ToLower(baseURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// ClearCache removes all cached data
func (c *Config) ClearCache() error {
	if c.Store.CacheDir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Store.CacheDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
