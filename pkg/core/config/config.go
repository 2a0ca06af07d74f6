package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	chkerr "github.com/msto63/chomsky/pkg/core/error"
)

// EnvConfigPath names the environment variable holding the config file path
const EnvConfigPath = "CHOMSKY_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Grammar GrammarConfig `toml:"grammar"`
	Check   CheckConfig   `toml:"check"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name"`
	DataDir   string `toml:"data_dir"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// GrammarConfig holds lexicon settings
type GrammarConfig struct {
	// LexiconFile points to a YAML word list; empty means the built-in lexicon
	LexiconFile string `toml:"lexicon_file"`
}

// CheckConfig holds batch checking settings
type CheckConfig struct {
	Workers       int    `toml:"workers"`
	EmitTree      bool   `toml:"emit_tree"`
	CommentPrefix string `toml:"comment_prefix"`
	Color         string `toml:"color"` // auto, always, never
	Record        bool   `toml:"record"`
}

// StoreConfig holds result store settings
type StoreConfig struct {
	Path string `toml:"path"`
}

// ServerConfig holds network service settings
type ServerConfig struct {
	Host             string   `toml:"host"`
	GRPCPort         int      `toml:"grpc_port"`
	HTTPPort         int      `toml:"http_port"`
	ReadTimeout      Duration `toml:"read_timeout"`
	WriteTimeout     Duration `toml:"write_timeout"`
	EnableReflection bool     `toml:"enable_reflection"`

	// CacheSize bounds the verdict cache; a negative size disables it
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, chkerr.Newf("config file not found: %s", path).
			WithCode(chkerr.CodeConfigError).
			WithOperation("config.Load")
	}

	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, chkerr.Wrap(err, "failed to parse config").
			WithCode(chkerr.CodeConfigError).
			WithDetail("path", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, chkerr.Newf("unknown config key %q in %s", undecoded[0].String(), path).
			WithCode(chkerr.CodeConfigError)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Resolve finds and loads the configuration file. An explicit path must
// exist; otherwise CHOMSKY_CONFIG and the default locations are tried and,
// if none exists, the defaults are returned. The second return value is
// the path that was loaded, or "" for defaults.
func Resolve(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}

	if path := os.Getenv(EnvConfigPath); path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}

	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}

	return Default(), "", nil
}

// DefaultPaths returns the locations searched for a config file
func DefaultPaths() []string {
	paths := []string{
		"./configs/config.toml",
		"./config.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "chomsky", "config.toml"))
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "chomsky"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "warn"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Check
	if c.Check.Workers == 0 {
		c.Check.Workers = 1
	}
	if c.Check.CommentPrefix == "" {
		c.Check.CommentPrefix = "#"
	}
	if c.Check.Color == "" {
		c.Check.Color = "auto"
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "chomsky.db")
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = 9455
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8455
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 15 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 30 * time.Second
	}
	if c.Server.CacheSize == 0 {
		c.Server.CacheSize = 1024
	}
	if c.Server.CacheTTL.Duration == 0 {
		c.Server.CacheTTL.Duration = 10 * time.Minute
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Grammar.LexiconFile = os.ExpandEnv(c.Grammar.LexiconFile)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
}

// Validate checks value ranges that defaults cannot repair
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return chkerr.Newf(format, args...).WithCode(chkerr.CodeConfigError).WithOperation("config.Validate")
	}

	if c.Check.Workers < 1 {
		return invalid("check.workers must be >= 1, got %d", c.Check.Workers)
	}
	if c.Check.CommentPrefix == "" {
		return invalid("check.comment_prefix must not be empty")
	}
	switch c.Check.Color {
	case "auto", "always", "never":
	default:
		return invalid("check.color must be auto, always or never, got %q", c.Check.Color)
	}
	for name, port := range map[string]int{"server.grpc_port": c.Server.GRPCPort, "server.http_port": c.Server.HTTPPort} {
		if port < 1 || port > 65535 {
			return invalid("%s out of range: %d", name, port)
		}
	}
	if c.Server.GRPCPort == c.Server.HTTPPort {
		return invalid("server.grpc_port and server.http_port must differ (%d)", c.Server.GRPCPort)
	}
	return nil
}

// GRPCAddress returns the listen address of the gRPC service
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

// HTTPAddress returns the listen address of the HTTP service
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
