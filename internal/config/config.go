// Package config loads scrapekit configuration from an optional YAML file.
//
// Lookup order: $SCRAPEKIT_CONFIG, then scrapekit.yaml in the working
// directory. A missing default file yields Default(); a missing file named
// explicitly by the environment is an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "SCRAPEKIT_CONFIG"

// DefaultConfigFile is read from the working directory when EnvConfigPath is unset.
const DefaultConfigFile = "scrapekit.yaml"

// Source names.
const (
	SourceFood     = "alimentos"
	SourceExercise = "ejercicios"
	SourceRecipe   = "recetas"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full configuration.
type Config struct {
	OutputDir string                  `yaml:"output_dir"`
	LogLevel  string                  `yaml:"log_level"`
	UserAgent string                  `yaml:"user_agent"`
	HTTP      HTTPConfig              `yaml:"http"`
	Translate TranslateConfig         `yaml:"translate"`
	Index     IndexConfig             `yaml:"index"`
	Sources   map[string]SourceConfig `yaml:"sources"`
}

// HTTPConfig configures the collectors' transport.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig configures retries of transient remote failures.
// The delay doubles after every failed attempt.
type RetryConfig struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
}

// TranslateConfig configures the text translator.
type TranslateConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Target   string `yaml:"target"`
	Endpoint string `yaml:"endpoint"`
}

// IndexConfig configures the optional SQLite fingerprint index.
type IndexConfig struct {
	// Path of the database; empty disables the index.
	Path string `yaml:"path"`
}

// SourceConfig configures one collector. Zero fields fall back to the
// source's defaults.
type SourceConfig struct {
	URL            string        `yaml:"url"`
	Artifact       string        `yaml:"artifact"`
	Log            string        `yaml:"log"`
	Pace           time.Duration `yaml:"pace"`
	AcceptLanguage string        `yaml:"accept_language"`
}

var defaultSources = map[string]SourceConfig{
	SourceFood: {
		URL:            "https://world.openfoodfacts.org/cgi/search.pl",
		Artifact:       "alimentos_openfoodfacts.json",
		Log:            "alimentos_log.json",
		Pace:           time.Second,
		AcceptLanguage: "en-US,en;q=0.9",
	},
	SourceExercise: {
		URL:            "https://raw.githubusercontent.com/yuhonas/free-exercise-db/main/dist/exercises.json",
		Artifact:       "exercicios.json",
		Log:            "exercicios_log.json",
		Pace:           500 * time.Millisecond,
		AcceptLanguage: "en-US,en;q=0.9",
	},
	SourceRecipe: {
		URL:            "https://www.recetasgratis.net/",
		Artifact:       "receitas.json",
		Log:            "receitas_log.json",
		Pace:           time.Second,
		AcceptLanguage: "es-ES,es;q=0.9",
	},
}

// Default returns the built-in configuration.
func Default() Config {
	sources := make(map[string]SourceConfig, len(defaultSources))
	for name, sc := range defaultSources {
		sources[name] = sc
	}
	return Config{
		OutputDir: "output",
		LogLevel:  "info",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			Retry: RetryConfig{
				Attempts: 3,
				Delay:    time.Second,
			},
		},
		Translate: TranslateConfig{
			Enabled:  true,
			Target:   "es",
			Endpoint: "https://translate.googleapis.com/translate_a/single",
		},
		Sources: sources,
	}
}

// Load reads the YAML file at path over Default() and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Resolve loads the configuration from $SCRAPEKIT_CONFIG or the default
// file in dir. It returns the path it loaded, or "" when defaults were used.
func Resolve(dir string) (Config, string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}

	path := filepath.Join(dir, DefaultConfigFile)
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	if err != nil {
		return Config{}, path, err
	}
	return cfg, path, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir must not be empty", ErrInvalidConfig)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("%w: http.timeout must be positive", ErrInvalidConfig)
	}
	if c.HTTP.Retry.Attempts < 1 {
		return fmt.Errorf("%w: http.retry.attempts must be at least 1", ErrInvalidConfig)
	}
	if c.HTTP.Retry.Delay <= 0 {
		return fmt.Errorf("%w: http.retry.delay must be positive", ErrInvalidConfig)
	}
	if c.Translate.Enabled {
		if _, err := c.TargetLanguage(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if c.Translate.Endpoint == "" {
			return fmt.Errorf("%w: translate.endpoint must be set when translation is enabled", ErrInvalidConfig)
		}
	}
	for name, sc := range c.Sources {
		if _, ok := defaultSources[name]; !ok {
			return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, name)
		}
		if sc.Pace < 0 {
			return fmt.Errorf("%w: sources.%s.pace must not be negative", ErrInvalidConfig, name)
		}
	}
	return nil
}

// Source returns the settings of the named source with defaults filled in.
func (c Config) Source(name string) SourceConfig {
	sc := c.Sources[name]
	def := defaultSources[name]
	if sc.URL == "" {
		sc.URL = def.URL
	}
	if sc.Artifact == "" {
		sc.Artifact = def.Artifact
	}
	if sc.Log == "" {
		sc.Log = def.Log
	}
	if sc.Pace == 0 {
		sc.Pace = def.Pace
	}
	if sc.AcceptLanguage == "" {
		sc.AcceptLanguage = def.AcceptLanguage
	}
	return sc
}

// ArtifactPath returns the artifact file path of the named source.
func (c Config) ArtifactPath(name string) string {
	return filepath.Join(c.OutputDir, c.Source(name).Artifact)
}

// LogPath returns the change log file path of the named source.
func (c Config) LogPath(name string) string {
	return filepath.Join(c.OutputDir, c.Source(name).Log)
}

// TargetLanguage parses the translation target as a BCP 47 tag.
func (c Config) TargetLanguage() (language.Tag, error) {
	tag, err := language.Parse(c.Translate.Target)
	if err != nil {
		return language.Und, fmt.Errorf("translate.target %q: %w", c.Translate.Target, err)
	}
	return tag, nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level %q: must be one of debug, info, warn, error", s)
	}
}
