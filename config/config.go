package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	NSE      RESTConfig     `mapstructure:"nse"`
	Yahoo    RESTConfig     `mapstructure:"yahoo"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// TrackerConfig holds the basket and scheduling knobs of the tracking engine.
type TrackerConfig struct {
	Index      string `mapstructure:"index"`       // index name as the exchange spells it, e.g. "NIFTY BANK"
	PIN        string `mapstructure:"pin"`         // externally configured PIN; overrides any persisted value
	BasketFile string `mapstructure:"basket_file"` // optional path to a basket YAML; empty uses the embedded default

	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	BatchTTL      time.Duration `mapstructure:"batch_ttl"`
	SupplementTTL time.Duration `mapstructure:"supplement_ttl"`

	LogWindowStart string        `mapstructure:"log_window_start"` // "HH:MM" in LogTimezone
	LogWindowEnd   string        `mapstructure:"log_window_end"`
	LogTimezone    string        `mapstructure:"log_timezone"`
	LogInterval    time.Duration `mapstructure:"log_interval"`
	LogGrace       time.Duration `mapstructure:"log_grace"`
	HistoryCap     int           `mapstructure:"history_cap"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// StorageConfig selects where the local JSON fallback documents live.
type StorageConfig struct {
	Dir       string `mapstructure:"dir"`
	Ephemeral bool   `mapstructure:"ephemeral"` // true routes local persistence to a temp dir (throwaway environments)
}

// Path resolves the effective local storage directory.
func (s StorageConfig) Path() string {
	if s.Ephemeral {
		return filepath.Join(os.TempDir(), "banktrack")
	}
	return s.Dir
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	v.AddConfigPath(".")

	setDefaults(v)

	// Support environment variables with dot notation (e.g., TRACKER_PIN, NSE_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Defaults plus environment variables are a complete configuration.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("failed to read config: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tracker.index", "NIFTY BANK")
	v.SetDefault("tracker.session_ttl", 15*time.Minute)
	v.SetDefault("tracker.batch_ttl", 8*time.Second)
	v.SetDefault("tracker.supplement_ttl", 10*time.Minute)
	v.SetDefault("tracker.log_window_start", "09:15")
	v.SetDefault("tracker.log_window_end", "15:30")
	v.SetDefault("tracker.log_timezone", "Asia/Kolkata")
	v.SetDefault("tracker.log_interval", 5*time.Minute)
	v.SetDefault("tracker.log_grace", 25*time.Second)
	v.SetDefault("tracker.history_cap", 1000)

	v.SetDefault("nse.base_url", "https://www.nseindia.com")
	v.SetDefault("nse.timeout", 10*time.Second)
	v.SetDefault("yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("yahoo.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.ephemeral", false)
}
