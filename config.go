package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	koanftoml "github.com/knadh/koanf/parsers/toml/v2"
	koanfenv "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
)

const (
	appName         = "raport"
	projectConfDir  = ".raport"
	configFileName  = "conf.toml"
	envPrefix       = "RAPORT_"
	defaultBaseURL  = "http://localhost:5000"
	defaultTimeout  = 120 * time.Second
	defaultMaxLines = 6
)

// Config represents the application configuration structure
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	UI      UIConfig      `koanf:"ui"`
	Storage StorageConfig `koanf:"storage"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig holds the report backend connection settings
type ServerConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// UIConfig holds terminal UI settings
type UIConfig struct {
	// Theme is used when no preference has been stored yet ("light" or "dark").
	Theme          string   `koanf:"theme"`
	MaxPromptLines int      `koanf:"max_prompt_lines"`
	Suggestions    []string `koanf:"suggestions"`
}

// StorageConfig holds the local storage location
type StorageConfig struct {
	Path string `koanf:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// defaultConfig returns the configuration populated with sensible defaults.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: defaultBaseURL,
			Timeout: defaultTimeout,
		},
		UI: UIConfig{
			Theme:          string(ThemeLight),
			MaxPromptLines: defaultMaxLines,
			Suggestions: []string{
				"Generate a sales report for the last quarter",
				"Compare monthly revenue by region as a chart",
				"Summarize customer churn for this year",
				"Show the top 10 products by margin",
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// dataDir returns ~/.local/share/raport, the home of the log file and local store.
func dataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appName), nil
}

// envKey maps RAPORT_SERVER_BASE_URL to server.base_url.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return section
	}
	return section + "." + rest
}

// LoadConfig loads configuration from multiple sources
func LoadConfig() (*Config, error) {
	// A missing .env is the common case
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	k := koanf.New(".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Failed to get user home directory: %v", err)
	} else {
		userConfigPath := filepath.Join(homeDir, ".config", appName, configFileName)
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := k.Load(file.Provider(userConfigPath), koanftoml.Parser()); err != nil {
				log.Printf("Failed to load user config from %s: %v", userConfigPath, err)
			}
		}
	}

	projectConfigPath := filepath.Join(projectConfDir, configFileName)
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := k.Load(file.Provider(projectConfigPath), koanftoml.Parser()); err != nil {
			log.Printf("Failed to load project config from %s: %v", projectConfigPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Unable to stat project config at %s: %v", projectConfigPath, err)
	}

	// RAPORT_SERVER_TIMEOUT=30s overrides server.timeout
	if err := k.Load(koanfenv.Provider(".", koanfenv.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKey(key), value
		},
	}), nil); err != nil {
		log.Printf("Failed to load environment variables: %v", err)
	}

	config := defaultConfig()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.normalize()

	return &config, nil
}

// normalize repairs values that would leave the client unusable.
func (c *Config) normalize() {
	c.Server.BaseURL = strings.TrimRight(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = defaultBaseURL
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = defaultTimeout
	}
	if c.UI.MaxPromptLines < 1 {
		c.UI.MaxPromptLines = defaultMaxLines
	}
	if _, ok := parseTheme(c.UI.Theme); !ok {
		c.UI.Theme = string(ThemeLight)
	}
}

// storagePath returns the configured local store path or the default one.
func (c *Config) storagePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "local.db"), nil
}

// SaveConfig saves the server settings to the project-level conf.toml file
func SaveConfig(config *Config) error {
	projectConfigPath := filepath.Join(projectConfDir, configFileName)

	if err := os.MkdirAll(projectConfDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", projectConfDir, err)
	}

	k := koanf.New(".")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := k.Load(file.Provider(projectConfigPath), koanftoml.Parser()); err != nil {
			return fmt.Errorf("failed to load existing project config: %w", err)
		}
	}

	if err := k.Set("server.base_url", config.Server.BaseURL); err != nil {
		return fmt.Errorf("failed to update base_url in config: %w", err)
	}
	if err := k.Set("server.timeout", config.Server.Timeout.String()); err != nil {
		return fmt.Errorf("failed to update timeout in config: %w", err)
	}

	data, err := k.Marshal(koanftoml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(projectConfigPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
