package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/colsense/colsense/internal/taxonomy"
)

// Environment variables read by colsense.
const (
	EnvAPIKey  = "GEMINI_API_KEY"
	EnvModel   = "COLSENSE_MODEL"
	EnvBaseURL = "COLSENSE_BASE_URL"
)

// FileConfig is the on-disk YAML configuration shape.
type FileConfig struct {
	// APIKeyEnv names the environment variable holding the Gemini key.
	// The key itself never lives in the file.
	APIKeyEnv *string `yaml:"api_key_env,omitempty"`
	Model     *string `yaml:"model,omitempty"`
	BaseURL   *string `yaml:"base_url,omitempty"`
	Timeout   *string `yaml:"timeout,omitempty"`

	LogLevel *string `yaml:"log_level,omitempty"`
	NoColor  *bool   `yaml:"no_color,omitempty"`

	Samples   *int     `yaml:"samples,omitempty"`
	Columns   []string `yaml:"columns,omitempty"`
	Reconcile *bool    `yaml:"reconcile,omitempty"`

	// Retry tuning for the generate call.
	MaxAttempts  *int    `yaml:"max_attempts,omitempty"`
	InitialDelay *string `yaml:"initial_delay,omitempty"`

	Addr         *string `yaml:"addr,omitempty"`
	HistoryLimit *int    `yaml:"history_limit,omitempty"`

	// Taxonomy overrides the guidance for individual levels, keyed by level
	// name.
	Taxonomy map[string]taxonomy.Entry `yaml:"taxonomy,omitempty"`
}

var localNames = []string{".colsense.yml", ".colsense.yaml", "colsense.yml", "colsense.yaml"}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches dir for .colsense.yml/.yaml or colsense.yml/.yaml.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range localNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath is $XDG_CONFIG_HOME/colsense/config.yml, falling back to
// ~/.config.
func GlobalPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return "", errors.New("no config dir")
	}
	return filepath.Join(base, "colsense", "config.yml"), nil
}

// LoadGlobal loads the global config file.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p, err := GlobalPath()
	if err != nil {
		return cfg, err
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// Merge overlays the set fields of over onto base. Taxonomy entries are
// merged per level.
func Merge(base, over FileConfig) FileConfig {
	out := base
	if over.APIKeyEnv != nil {
		out.APIKeyEnv = over.APIKeyEnv
	}
	if over.Model != nil {
		out.Model = over.Model
	}
	if over.BaseURL != nil {
		out.BaseURL = over.BaseURL
	}
	if over.Timeout != nil {
		out.Timeout = over.Timeout
	}
	if over.LogLevel != nil {
		out.LogLevel = over.LogLevel
	}
	if over.NoColor != nil {
		out.NoColor = over.NoColor
	}
	if over.Samples != nil {
		out.Samples = over.Samples
	}
	if over.Columns != nil {
		out.Columns = over.Columns
	}
	if over.Reconcile != nil {
		out.Reconcile = over.Reconcile
	}
	if over.MaxAttempts != nil {
		out.MaxAttempts = over.MaxAttempts
	}
	if over.InitialDelay != nil {
		out.InitialDelay = over.InitialDelay
	}
	if over.Addr != nil {
		out.Addr = over.Addr
	}
	if over.HistoryLimit != nil {
		out.HistoryLimit = over.HistoryLimit
	}
	if len(over.Taxonomy) > 0 {
		t := make(map[string]taxonomy.Entry, len(base.Taxonomy)+len(over.Taxonomy))
		for k, v := range base.Taxonomy {
			t[k] = v
		}
		for k, v := range over.Taxonomy {
			t[k] = v
		}
		out.Taxonomy = t
	}
	return out
}

// Load returns the global config overlaid with the local config in dir.
// Missing files are not an error; malformed ones are.
func Load(dir string) (FileConfig, error) {
	var cfg FileConfig
	if p, err := GlobalPath(); err == nil {
		if _, statErr := os.Stat(p); statErr == nil {
			g, err := LoadFile(p)
			if err != nil {
				return cfg, err
			}
			cfg = g
		}
	}
	for _, name := range localNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		l, err := LoadFile(p)
		if err != nil {
			return cfg, err
		}
		return Merge(cfg, l), nil
	}
	return cfg, nil
}

// LoadEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// APIKeyVar is the environment variable the key is read from.
func (fc FileConfig) APIKeyVar() string {
	if fc.APIKeyEnv != nil && strings.TrimSpace(*fc.APIKeyEnv) != "" {
		return strings.TrimSpace(*fc.APIKeyEnv)
	}
	return EnvAPIKey
}

// APIKey returns the credential from the configured environment variable.
func (fc FileConfig) APIKey() string {
	return strings.TrimSpace(os.Getenv(fc.APIKeyVar()))
}

// Template is the starter file written by `colsense config init`.
const Template = `# colsense configuration
# Name of the environment variable holding the Gemini API key.
api_key_env: GEMINI_API_KEY
model: gemini-1.5-flash
# Overall deadline for one classification, including retries.
timeout: 2m
log_level: info

# Distinct sample values sent per column.
samples: 5
# Column selection globs; empty means every column.
columns: []
# Log columns missing from, or unexpected in, the model's answer.
reconcile: false

max_attempts: 5
initial_delay: 1s

addr: ":8080"
history_limit: 5

# Per-level guidance overrides, e.g.
# taxonomy:
#   Internal:
#     description: Data for employees and contractors only.
#     examples: [employee_id, cost_center]
`

// WriteTemplate writes Template to path unless a file already exists there.
func WriteTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Template), 0o644)
}
