// Package config loads flowdoc settings from defaults, an optional
// .flowdoc.yaml, FLOWDOC_* environment variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/morozRed/flowdoc/internal/fileutil"
	"github.com/morozRed/flowdoc/internal/logging"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the project root.
const FileName = ".flowdoc.yaml"

// EnvPrefix prefixes every environment override, e.g. FLOWDOC_OUTPUT_DIR.
const EnvPrefix = "FLOWDOC"

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete flowdoc configuration.
type Config struct {
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Cache  CacheConfig  `mapstructure:"cache" yaml:"cache"`
	Ignore []string     `mapstructure:"ignore" yaml:"ignore"`
}

// OutputConfig holds where artifacts are written. Relative directories are
// resolved against the project root; AuxDir is resolved against Dir.
type OutputConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	AuxDir string `mapstructure:"aux_dir" yaml:"aux_dir"`
	HTML   bool   `mapstructure:"html" yaml:"html"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// CacheConfig sizes the parsed-tree cache.
type CacheConfig struct {
	Size int `mapstructure:"size" yaml:"size"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Dir: "flowdoc", AuxDir: "aux_files", HTML: true},
		Log:    LogConfig{Level: "info", Format: "text"},
		Cache:  CacheConfig{Size: 256},
		Ignore: []string{},
	}
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.aux_dir", d.Output.AuxDir)
	v.SetDefault("output.html", d.Output.HTML)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("ignore", d.Ignore)
}

// Load reads the configuration of the project at root into v. A .env file in
// root is loaded first; file overrides the default config file location.
func Load(v *viper.Viper, root, file string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(root)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("%w: output.dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Output.AuxDir) == "" {
		return fmt.Errorf("%w: output.aux_dir is required", ErrInvalidConfig)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Cache.Size < 1 {
		return fmt.Errorf("%w: cache.size must be positive, got %d", ErrInvalidConfig, c.Cache.Size)
	}
	return nil
}

// OutputDir returns the absolute output directory of the project at root.
func (c *Config) OutputDir(root string) string {
	if filepath.IsAbs(c.Output.Dir) {
		return c.Output.Dir
	}
	return filepath.Join(root, c.Output.Dir)
}

// AuxDir returns the absolute auxiliary directory of the project at root.
func (c *Config) AuxDir(root string) string {
	if filepath.IsAbs(c.Output.AuxDir) {
		return c.Output.AuxDir
	}
	return filepath.Join(c.OutputDir(root), c.Output.AuxDir)
}

// WriteDefault writes the default configuration to path unless a file
// already exists there. It reports whether the file was created.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return false, fmt.Errorf("failed to encode default config: %w", err)
	}
	if err := fileutil.WriteIfMissing(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
