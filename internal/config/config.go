// Package config loads gateway settings from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// Defaults
const (
	DefaultTimeout         = 30 * time.Second
	DefaultJarDir          = "./jars"
	DefaultConcurrency     = 1
	DefaultMaxEntries      = 100
	DefaultAuditPath       = "./history/history.json"
	DefaultAddress         = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the complete secprops.yaml configuration
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Batch  BatchConfig  `yaml:"batch"`
	Audit  AuditConfig  `yaml:"audit"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// EngineConfig configures the external JAR engine
type EngineConfig struct {
	Timeout        time.Duration            `yaml:"timeout"`
	JarDir         string                   `yaml:"jar_dir"`
	DefaultVersion string                   `yaml:"default_version"`
	Versions       map[string]VersionConfig `yaml:"versions,omitempty"`
}

// VersionConfig overrides the runtime of one Java version
type VersionConfig struct {
	JavaHome string `yaml:"java_home,omitempty"`
	Jar      string `yaml:"jar,omitempty"`
}

// BatchConfig configures batch orchestration
type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// AuditConfig configures the operation history
type AuditConfig struct {
	Enabled    bool   `yaml:"enabled"`
	MaxEntries int    `yaml:"max_entries"`
	Path       string `yaml:"path"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Address         string        `yaml:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     time.Duration `yaml:"idle_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Timeout:        DefaultTimeout,
			JarDir:         DefaultJarDir,
			DefaultVersion: string(runtime.DefaultVersion),
		},
		Batch: BatchConfig{Concurrency: DefaultConcurrency},
		Audit: AuditConfig{
			MaxEntries: DefaultMaxEntries,
			Path:       DefaultAuditPath,
		},
		Server: ServerConfig{
			Address:         DefaultAddress,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		// Expand environment variables in the config
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// javaHomeEnv maps version keys to their JAVA_HOME override variables.
var javaHomeEnv = map[runtime.VersionKey]string{
	runtime.Java8:  "JAVA_HOME_8",
	runtime.Java11: "JAVA_HOME_11",
	runtime.Java17: "JAVA_HOME_17",
}

// ApplyEnv overlays environment variables onto cfg. Set variables win over
// file values.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for key, name := range javaHomeEnv {
		if home, ok := lookup(name); ok && home != "" {
			if c.Engine.Versions == nil {
				c.Engine.Versions = make(map[string]VersionConfig)
			}
			vc := c.Engine.Versions[string(key)]
			vc.JavaHome = home
			c.Engine.Versions[string(key)] = vc
		}
	}

	if v, ok := lookup("ENABLE_HISTORY"); ok {
		c.Audit.Enabled = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	if v, ok := lookup("HISTORY_MAX_ENTRIES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORY_MAX_ENTRIES: %w", err)
		}
		c.Audit.MaxEntries = n
	}

	if v, ok := lookup("ENGINE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ENGINE_TIMEOUT: %w", err)
		}
		c.Engine.Timeout = d
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.Server.Address = ":" + strings.TrimPrefix(v, ":")
	}

	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}

	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine timeout must be positive")
	}
	if c.Engine.JarDir == "" {
		return fmt.Errorf("engine jar_dir is required")
	}
	if !runtime.IsSupported(runtime.VersionKey(c.Engine.DefaultVersion)) {
		return fmt.Errorf("engine default_version %q is not supported", c.Engine.DefaultVersion)
	}
	for key := range c.Engine.Versions {
		if !runtime.IsSupported(runtime.VersionKey(key)) {
			return fmt.Errorf("engine versions: %q is not supported", key)
		}
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch concurrency must be at least 1")
	}
	if c.Audit.MaxEntries < 1 {
		return fmt.Errorf("audit max_entries must be at least 1")
	}
	if c.Audit.Enabled && c.Audit.Path == "" {
		return fmt.Errorf("audit path is required when audit is enabled")
	}
	if c.Server.Address == "" {
		return fmt.Errorf("server address is required")
	}
	return nil
}

// Runtimes returns the runtime table for the version registry: the stock
// artifacts under jar_dir with per-version overrides applied. A relative jar
// override resolves against jar_dir.
func (c *Config) Runtimes() []runtime.Runtime {
	runtimes := runtime.DefaultRuntimes(c.Engine.JarDir)
	for i, rt := range runtimes {
		vc, ok := c.Engine.Versions[string(rt.Version)]
		if !ok {
			continue
		}
		if vc.JavaHome != "" {
			runtimes[i].JavaHome = vc.JavaHome
		}
		if vc.Jar != "" {
			jar := vc.Jar
			if !filepath.IsAbs(jar) {
				jar = filepath.Join(c.Engine.JarDir, jar)
			}
			runtimes[i].Artifact = jar
		}
	}
	return runtimes
}
