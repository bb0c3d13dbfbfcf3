// Package config manages Solace configuration: a TOML file at
// ~/.config/solace/config.toml with defaults applied first and environment
// variables taking precedence over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// BackendConfig selects and tunes the local completion service.
type BackendConfig struct {
	// Kind is "ollama" (generate-style API) or "openai" (chat-style API
	// served by llama.cpp, LM Studio, vLLM, etc).
	Kind        string  `toml:"kind"`
	BaseURL     string  `toml:"base_url"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
}

// ServerConfig tunes the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Config holds all Solace settings.
type Config struct {
	DBPath       string        `toml:"db_path"`
	TemplatePath string        `toml:"template_path"`
	Backend      BackendConfig `toml:"backend"`
	Server       ServerConfig  `toml:"server"`
}

// Default returns sensible defaults for a local setup.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DBPath:       filepath.Join(home, ".local", "share", "solace", "solace.db"),
		TemplatePath: filepath.Join(home, ".config", "solace", "templates.toml"),
		Backend: BackendConfig{
			Kind:        "ollama",
			BaseURL:     "http://localhost:11434",
			Model:       "llama3.2",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Server: ServerConfig{
			Addr: ":8790",
		},
	}
}

// Path returns the location of the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "solace", "config.toml"), nil
}

// Load reads the config file (if present) over the defaults, then applies
// environment overrides. A `.env` file in the working directory is honoured.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path, err := Path()
	if err != nil {
		return cfg, nil // No home dir — run on defaults.
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SOLACE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SOLACE_TEMPLATE_PATH"); v != "" {
		cfg.TemplatePath = v
	}
	if v := os.Getenv("SOLACE_BACKEND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("SOLACE_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("SOLACE_MODEL"); v != "" {
		cfg.Backend.Model = v
	}
	if v := os.Getenv("SOLACE_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backend.Temperature = f
		}
	}
	if v := os.Getenv("SOLACE_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.MaxTokens = n
		}
	}
	if v := os.Getenv("SOLACE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Save writes the config file to disk.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
