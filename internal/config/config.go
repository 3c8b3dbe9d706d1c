package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvAPIKey         = "OPENROUTER_API_KEY"
	EnvAPIKeyFallback = "OPENAI_API_KEY"
	EnvAPIBase        = "OPENAI_API_BASE"
	EnvModelName      = "OPENAI_MODEL_NAME"
)

type Config struct {
	Model ModelConfig `yaml:"model"`
	Agent AgentConfig `yaml:"agent"`
	Store StoreConfig `yaml:"store"`
	Log   LogConfig   `yaml:"log"`
}

type ModelConfig struct {
	APIKey  string `yaml:"apiKey"`  // usually supplied via OPENROUTER_API_KEY
	APIBase string `yaml:"apiBase"` // OpenAI-compatible endpoint, e.g. https://openrouter.ai/api/v1
	Name    string `yaml:"name"`    // default "kimi-k2-250711"
}

type AgentConfig struct {
	MaxRetries     int           `yaml:"maxRetries"`     // default 5
	Stream         bool          `yaml:"stream"`         // default true
	SettleDelay    time.Duration `yaml:"settleDelay"`    // default 100ms
	ShellTimeout   time.Duration `yaml:"shellTimeout"`   // default 120s
	MaxOutputBytes int           `yaml:"maxOutputBytes"` // default 100KiB
	PromptTemplate string        `yaml:"promptTemplate"` // optional path to a text/template file
}

type StoreConfig struct {
	Enabled bool   `yaml:"enabled"` // default true
	DataDir string `yaml:"dataDir"` // default "~/.reagent/data"
}

type LogConfig struct {
	Level  string `yaml:"level"`  // default "warn"
	Format string `yaml:"format"` // default "console"
}

// MissingValueError reports a required setting that was not supplied.
type MissingValueError struct {
	Key string
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf("required setting %s is not set", e.Key)
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Name: "kimi-k2-250711",
		},
		Agent: AgentConfig{
			MaxRetries:     5,
			Stream:         true,
			SettleDelay:    100 * time.Millisecond,
			ShellTimeout:   120 * time.Second,
			MaxOutputBytes: 100 * 1024,
		},
		Store: StoreConfig{
			Enabled: true,
			DataDir: filepath.Join(baseDir(), "data"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (or DefaultPath when path is empty and the file exists), then
// a .env file in the working directory, then environment variables.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// A missing .env is the common case.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile decodes the YAML file at path over the current values.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Model.APIKey = v
	} else if v := os.Getenv(EnvAPIKeyFallback); v != "" && c.Model.APIKey == "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv(EnvAPIBase); v != "" {
		c.Model.APIBase = v
	}
	if v := os.Getenv(EnvModelName); v != "" {
		c.Model.Name = v
	}
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	if c.Agent.MaxRetries < 1 {
		return fmt.Errorf("agent.maxRetries must be at least 1, got %d", c.Agent.MaxRetries)
	}
	if c.Agent.SettleDelay < 0 {
		return fmt.Errorf("agent.settleDelay must not be negative")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q (valid: console, json)", c.Log.Format)
	}
	return nil
}

// RequireModel reports a MissingValueError if the model endpoint cannot
// be reached with the current settings.
func (c *Config) RequireModel() error {
	if c.Model.APIKey == "" {
		return &MissingValueError{Key: EnvAPIKey}
	}
	if c.Model.APIBase == "" {
		return &MissingValueError{Key: EnvAPIBase}
	}
	return nil
}

// JournalPath returns the full path to the BoltDB file (DataDir + "/journal.db").
func (c *Config) JournalPath() string {
	return filepath.Join(c.Store.DataDir, "journal.db")
}

// DefaultPath returns the config file consulted when --config is not given.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.yaml")
}

// baseDir resolves ~/.reagent, falling back to /tmp/reagent if the home
// directory cannot be determined.
func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "reagent")
	}
	return filepath.Join(home, ".reagent")
}
