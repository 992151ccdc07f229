// Package config handles the configuration directory, config file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskdesk"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// ConfigFile is the optional settings filename.
	ConfigFile = "config.yaml"

	// LogFile receives diagnostics while the TUI owns the terminal.
	LogFile = "taskdesk.log"

	// DefaultServer is the backend base URL used when nothing else is set.
	DefaultServer = "http://localhost:4000"

	// DefaultTimeout bounds a single REST request.
	DefaultTimeout = 10 * time.Second

	// ServerEnv overrides the server URL.
	ServerEnv = "TASKDESK_SERVER"

	// PasswordEnv supplies the login password non-interactively.
	PasswordEnv = "TASKDESK_PASSWORD"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Server is the backend base URL (scheme, host and port).
	Server string

	// Timeout bounds each REST request.
	Timeout time.Duration

	// SelfNotify makes the task view rely on its own live echoes instead
	// of applying local changes directly.
	SelfNotify bool

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// fileSettings is the on-disk shape of config.yaml.
type fileSettings struct {
	Server     string `yaml:"server"`
	Timeout    string `yaml:"timeout"`
	SelfNotify bool   `yaml:"self_notify"`
}

// New creates a Config rooted at configDir.
// If configDir is empty, uses XDG_CONFIG_HOME/taskdesk or $HOME/.config/taskdesk.
// Settings are layered: defaults, config.yaml, .env / TASKDESK_SERVER.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:     dir,
		Server:  DefaultServer,
		Timeout: DefaultTimeout,
	}

	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	// A missing .env is the common case.
	_ = godotenv.Load()
	if server := strings.TrimSpace(os.Getenv(ServerEnv)); server != "" {
		cfg.Server = server
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.FilePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if fs.Server != "" {
		c.Server = fs.Server
	}
	if fs.Timeout != "" {
		d, err := time.ParseDuration(fs.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: bad timeout %q", ConfigFile, fs.Timeout)
		}
		c.Timeout = d
	}
	c.SelfNotify = fs.SelfNotify
	return nil
}

// Validate checks that the server URL is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server url: %s (want http or https)", c.Server)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server url: %s (missing host)", c.Server)
	}
	c.Server = strings.TrimRight(c.Server, "/")
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// FilePath returns the path to config.yaml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// LogPath returns the path to the TUI diagnostic log.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
