package model

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// AIConfig selects and tunes the model service.
type AIConfig struct {
	Provider  string        `mapstructure:"provider" yaml:"provider"`
	Model     string        `mapstructure:"model" yaml:"model"`
	Endpoint  string        `mapstructure:"endpoint" yaml:"endpoint"`
	Retries   int           `mapstructure:"retries" yaml:"retries"`
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// TriageConfig controls batch processing.
type TriageConfig struct {
	// Concurrency bounds the number of emails categorized at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// InboxConfig controls the drop folder watched for new .eml files. An
// empty WatchDir disables watching.
type InboxConfig struct {
	WatchDir     string        `mapstructure:"watch_dir" yaml:"watch_dir"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	AutoTag      bool          `mapstructure:"auto_tag" yaml:"auto_tag"`
}

// LogConfig controls the file logger. An empty File disables logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database string        `mapstructure:"database" yaml:"database"`
	AI       AIConfig      `mapstructure:"ai" yaml:"ai"`
	Triage   TriageConfig  `mapstructure:"triage" yaml:"triage"`
	Inbox    InboxConfig   `mapstructure:"inbox" yaml:"inbox"`
	Log      LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics  MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ConfigDir returns ~/.config/inboxagent, or the working directory when the
// home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "inboxagent")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/inboxagent/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

func defaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Database: filepath.Join(dir, "inbox.db"),
		AI: AIConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash",
			Retries:   3,
			BaseDelay: 2 * time.Second,
			Timeout:   60 * time.Second,
		},
		Triage: TriageConfig{Concurrency: 4},
		Inbox: InboxConfig{
			PollInterval: 120 * time.Second,
			AutoTag:      true,
		},
		Log: LogConfig{
			Level: "info",
			File:  filepath.Join(dir, "inboxagent.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("database", def.Database)
	v.SetDefault("ai.provider", def.AI.Provider)
	v.SetDefault("ai.model", def.AI.Model)
	v.SetDefault("ai.retries", def.AI.Retries)
	v.SetDefault("ai.base_delay", def.AI.BaseDelay)
	v.SetDefault("ai.timeout", def.AI.Timeout)
	v.SetDefault("triage.concurrency", def.Triage.Concurrency)
	v.SetDefault("inbox.poll_interval", def.Inbox.PollInterval)
	v.SetDefault("inbox.auto_tag", def.Inbox.AutoTag)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.file", def.Log.File)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// The default model name belongs to the default provider.
	if cfg.AI.Provider != def.AI.Provider && !v.InConfig("ai.model") {
		cfg.AI.Model = ""
	}
	if cfg.AI.Retries < 1 {
		cfg.AI.Retries = 1
	}
	if cfg.Triage.Concurrency < 1 {
		cfg.Triage.Concurrency = 1
	}
	if cfg.Inbox.PollInterval < 10*time.Second {
		cfg.Inbox.PollInterval = 10 * time.Second
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("ai.provider", cfg.AI.Provider)
	v.Set("ai.model", cfg.AI.Model)
	v.Set("ai.endpoint", cfg.AI.Endpoint)
	v.Set("ai.retries", cfg.AI.Retries)
	v.Set("ai.base_delay", cfg.AI.BaseDelay.String())
	v.Set("ai.timeout", cfg.AI.Timeout.String())
	v.Set("triage.concurrency", cfg.Triage.Concurrency)
	v.Set("inbox.watch_dir", cfg.Inbox.WatchDir)
	v.Set("inbox.poll_interval", cfg.Inbox.PollInterval.String())
	v.Set("inbox.auto_tag", cfg.Inbox.AutoTag)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)
	v.Set("metrics.addr", cfg.Metrics.Addr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
