package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WeightProfile is one named ranking preset in scout.yaml. Scout ships only
// the balanced default; alternate presets are defined here by the user.
type WeightProfile struct {
	Relevance  float64 `yaml:"relevance"`
	Popularity float64 `yaml:"popularity"`
	Recency    float64 `yaml:"recency"`
	Redundancy float64 `yaml:"redundancy"`
}

// Config is the in-memory representation of ~/.scout/scout.yaml.
type Config struct {
	RegistryURL    string                   `yaml:"registry_url"`
	TimeoutSeconds int                      `yaml:"timeout_seconds,omitempty"`
	ResultLimit    int                      `yaml:"result_limit,omitempty"`
	TopK           int                      `yaml:"top_k,omitempty"`
	DefaultDepth   int                      `yaml:"default_depth,omitempty"`
	Profile        string                   `yaml:"profile,omitempty"`
	Profiles       map[string]WeightProfile `yaml:"profiles,omitempty"`
	SynonymsPath   string                   `yaml:"synonyms_path,omitempty"`
	RolesPath      string                   `yaml:"roles_path,omitempty"`
	InstallerCmd   string                   `yaml:"installer_cmd,omitempty"`
}

// ScoutDir returns the absolute path to ~/.scout/.
func ScoutDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".scout"), nil
}

// ConfigPath returns the absolute path to ~/.scout/scout.yaml.
func ConfigPath() (string, error) {
	dir, err := ScoutDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "scout.yaml"), nil
}

// CacheDir returns the directory holding the popular-listing cache.
func CacheDir() (string, error) {
	dir, err := ScoutDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache", "popular"), nil
}

// SessionsDir returns the directory holding persisted session files.
func SessionsDir() (string, error) {
	dir, err := ScoutDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first scout init.
func DefaultConfig() *Config {
	return &Config{
		RegistryURL:    "https://registry.scout.dev",
		TimeoutSeconds: 5,
		ResultLimit:    20,
		TopK:           3,
		DefaultDepth:   1,
		Profile:        "balanced",
		InstallerCmd:   "skillpack install",
	}
}

// Load reads and parses ~/.scout/scout.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	// Expand ~ in table paths at load time.
	for _, p := range []*string{&cfg.SynonymsPath, &cfg.RolesPath} {
		if *p == "" {
			continue
		}
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}
	return &cfg, nil
}

// Save marshals cfg and writes it to ~/.scout/scout.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// Timeout returns the registry call timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EffectiveRegistryURL resolves the registry base URL: environment and
// dotenv first, then the config file.
func (c *Config) EffectiveRegistryURL() (string, error) {
	v, err := GetConfigValue("SCOUT_REGISTRY_URL")
	if err != nil {
		return "", err
	}
	if v != "" {
		return v, nil
	}
	return c.RegistryURL, nil
}
