// Package config loads chatcli settings from a TOML file and the environment
//
// Settings are resolved in this order, later sources winning:
//   - built-in defaults
//   - $CHATCLI_CONFIG or <user config dir>/chatcli/config.toml
//   - environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sealor/chatcli/pkg/logstore"
	"github.com/sealor/chatcli/pkg/usage"
)

type Config struct {
	APIURL string `toml:"api_url"`
	APIKey string `toml:"api_key"`

	DefaultModel       string   `toml:"default_model"`
	DefaultPersonality string   `toml:"default_personality"`
	Models             []string `toml:"models"`
	Stream             bool     `toml:"stream"`

	// LogFile is the name searched for upwards from the working directory,
	// or an absolute path.
	LogFile string `toml:"log_file"`

	// Pricing is merged over usage.DefaultPrices, USD per 1000 tokens.
	Pricing usage.Table `toml:"pricing"`
}

func Default() *Config {
	return &Config{
		DefaultModel:       conversation.DefaultModel,
		DefaultPersonality: "concise",
		Models:             []string{"gpt-4", "gpt-3.5-turbo", "gpt-4o", "gpt-4o-mini"},
		Stream:             true,
		LogFile:            logstore.DefaultFileName,
	}
}

// Path returns the config file location; the file need not exist.
func Path() (string, error) {
	if path, ok := os.LookupEnv("CHATCLI_CONFIG"); ok {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatcli", "config.toml"), nil
}

func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if err := LoadTOML(cfg, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.APIKey = GetEnv("OPENAI_API_KEY", c.APIKey)
	c.APIURL = GetEnv("OPENAI_URL", c.APIURL)
	c.LogFile = GetEnv("CHATCLI_LOGFILE", c.LogFile)
	c.DefaultModel = GetEnv("CHATCLI_MODEL", c.DefaultModel)
}

func (c *Config) Validate() error {
	if c.DefaultModel == "" {
		return errors.New("config: default_model must not be empty")
	}
	if c.LogFile == "" {
		return errors.New("config: log_file must not be empty")
	}
	for model, price := range c.Pricing {
		if price.Prompt < 0 || price.Completion < 0 {
			return fmt.Errorf("config: negative price for %s", model)
		}
	}
	return nil
}

// Prices is the pricing table with configured overrides applied.
func (c *Config) Prices() usage.Table {
	return usage.DefaultPrices.Merge(c.Pricing)
}

func GetEnv(name, fallback string) string {
	value, ok := os.LookupEnv(name)
	if ok {
		return value
	} else {
		return fallback
	}
}
