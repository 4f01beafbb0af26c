// Package config loads the porcelain CLI configuration file.
//
// The file is YAML. It is read from $PORCELAIN_CONFIG when set, otherwise
// from porcelain/config.yaml under the XDG config directories. A missing
// file yields the defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"github.com/input-output-hk/catalyst-forge-libs/porcelain"
	"github.com/input-output-hk/catalyst-forge-libs/porcelain/internal/auth"
)

// EnvPath overrides the configuration file location.
const EnvPath = "PORCELAIN_CONFIG"

// RelPath is the file location relative to an XDG config directory.
const RelPath = "porcelain/config.yaml"

// Config is the on-disk configuration.
type Config struct {
	Remote              string    `yaml:"remote"`
	Branch              string    `yaml:"branch"`
	Identity            *Identity `yaml:"identity"`
	ConventionalCommits bool      `yaml:"conventional_commits"`
	StorerCacheSize     int       `yaml:"storer_cache_size"`
	ShallowDepth        int       `yaml:"shallow_depth"`
	Auth                Auth      `yaml:"auth"`
	Log                 Log       `yaml:"log"`
}

// Identity is the default commit author.
type Identity struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Auth names where credentials come from. Secrets are never stored in the
// file itself, only the environment variables holding them.
type Auth struct {
	TokenEnv            string   `yaml:"token_env"`
	Username            string   `yaml:"username"`
	PasswordEnv         string   `yaml:"password_env"`
	SSHKey              string   `yaml:"ssh_key"`
	SSHKeyEnv           string   `yaml:"ssh_key_env"`
	SSHKeyPassphraseEnv string   `yaml:"ssh_key_passphrase_env"`
	SSHAgent            bool     `yaml:"ssh_agent"`
	SSHUser             string   `yaml:"ssh_user"`
	KnownHosts          []string `yaml:"known_hosts"`
	Hosts               []string `yaml:"hosts"`
	Strict              bool     `yaml:"strict"`
}

// Log configures CLI logging.
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Path returns the configuration file to read, or "" when none exists.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}

	p, err := xdg.SearchConfigFile(RelPath)
	if err != nil {
		return ""
	}
	return p
}

// Load reads the configuration at Path.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the configuration at path. An empty path or a missing file
// yields an empty Config.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, porcelain.WrapErrorf(porcelain.ErrInvalidOption, "failed to parse config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for values the library would reject.
func (c *Config) Validate() error {
	if c.StorerCacheSize < 0 {
		return porcelain.WrapError(porcelain.ErrInvalidOption, "storer_cache_size cannot be negative")
	}
	if c.ShallowDepth < 0 {
		return porcelain.WrapError(porcelain.ErrInvalidOption, "shallow_depth cannot be negative")
	}
	if c.Identity != nil && (c.Identity.Name == "" || c.Identity.Email == "") {
		return porcelain.WrapError(porcelain.ErrInvalidOption, "identity requires name and email")
	}
	return nil
}

// AuthSettings resolves the credential sources named by the file.
func (c *Config) AuthSettings() auth.Settings {
	s := auth.Settings{
		Username:   c.Auth.Username,
		SSHKeyPath: c.Auth.SSHKey,
		SSHAgent:   c.Auth.SSHAgent,
		SSHUser:    c.Auth.SSHUser,
		KnownHosts: c.Auth.KnownHosts,
		Hosts:      c.Auth.Hosts,
		Strict:     c.Auth.Strict,
	}

	if c.Auth.TokenEnv != "" {
		if token := os.Getenv(c.Auth.TokenEnv); token != "" {
			s.Token = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		}
	}
	if c.Auth.PasswordEnv != "" {
		s.Password = os.Getenv(c.Auth.PasswordEnv)
	}
	if c.Auth.SSHKeyEnv != "" {
		if key := os.Getenv(c.Auth.SSHKeyEnv); key != "" {
			s.SSHKey = []byte(key)
		}
	}
	if c.Auth.SSHKeyPassphraseEnv != "" {
		s.SSHKeyPassphrase = os.Getenv(c.Auth.SSHKeyPassphraseEnv)
	}

	return s
}

// Options converts the configuration into library options. It fails when the
// configured known_hosts files cannot be loaded.
func (c *Config) Options() (*porcelain.Options, error) {
	opts := &porcelain.Options{
		DefaultRemote:   c.Remote,
		DefaultBranch:   c.Branch,
		StorerCacheSize: c.StorerCacheSize,
		ShallowDepth:    c.ShallowDepth,
		Conventional:    c.ConventionalCommits,
	}

	if c.Identity != nil {
		opts.DefaultIdentity = &porcelain.Identity{Name: c.Identity.Name, Email: c.Identity.Email}
	}
	p, err := auth.New(c.AuthSettings())
	if err != nil {
		return nil, porcelain.WrapError(porcelain.ErrInvalidOption, err.Error())
	}
	if p != nil {
		opts.Auth = p
	}

	return opts, nil
}
