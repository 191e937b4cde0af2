// Package config loads jewelgen configuration with layered precedence:
// runtime overrides, then environment variables (JEWELGEN_ prefix, with
// .env.local / .env files loaded first), then a config file
// (config.yaml or config.json in the working directory), then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the resolved process configuration.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Generation GenerationConfig `mapstructure:"generation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
}

// APIConfig configures the remote generation service client.
type APIConfig struct {
	// Key is the bearer credential. The legacy MESHY_API_KEY env var is
	// honored in addition to JEWELGEN_API_KEY.
	Key string `mapstructure:"key"`

	// BaseURL is the API endpoint.
	BaseURL string `mapstructure:"base_url"`

	// Timeout applies to individual HTTP requests.
	Timeout time.Duration `mapstructure:"timeout"`

	// RateLimit caps API requests per second. Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// PollInterval is the delay between task status checks.
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// PathsConfig configures on-disk locations.
type PathsConfig struct {
	OutputDir   string `mapstructure:"output_dir"`
	ModelsDir   string `mapstructure:"models_dir"`
	MetadataDir string `mapstructure:"metadata_dir"`
}

// DefaultsConfig configures design parameter defaults.
type DefaultsConfig struct {
	Material    string `mapstructure:"material"`
	JewelryType string `mapstructure:"jewelry_type"`
	ChainStyle  string `mapstructure:"chain_style"`
	BatchSize   int    `mapstructure:"batch_size"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

// GenerationConfig configures the style knobs sent with preview tasks and
// the refine phase.
type GenerationConfig struct {
	EnablePBR       bool     `mapstructure:"enable_pbr"`
	ArtStyle        string   `mapstructure:"art_style"`
	SymmetryMode    string   `mapstructure:"symmetry_mode"`
	ShouldRemesh    bool     `mapstructure:"should_remesh"`
	Topology        string   `mapstructure:"topology"`
	TargetPolycount int      `mapstructure:"target_polycount"`
	AIModel         string   `mapstructure:"ai_model"`
	Formats         []string `mapstructure:"formats"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Structured bool   `mapstructure:"structured"`
}

// ServerConfig configures the inspection server.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// setDefaults registers every known key with its default value. Keys must
// be registered here for env var binding to work through Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.key", "")
	v.SetDefault("api.base_url", "https://api.meshy.ai")
	v.SetDefault("api.timeout", "60s")
	v.SetDefault("api.rate_limit", 0.0)
	v.SetDefault("api.poll_interval", "5s")

	v.SetDefault("paths.output_dir", "output")
	v.SetDefault("paths.models_dir", "output/models")
	v.SetDefault("paths.metadata_dir", "output/metadata")

	v.SetDefault("defaults.material", "gold")
	v.SetDefault("defaults.jewelry_type", "chain")
	v.SetDefault("defaults.chain_style", "cuban")
	v.SetDefault("defaults.batch_size", 10)
	v.SetDefault("defaults.max_workers", 3)

	v.SetDefault("generation.enable_pbr", true)
	v.SetDefault("generation.art_style", "realistic")
	v.SetDefault("generation.symmetry_mode", "on")
	v.SetDefault("generation.should_remesh", true)
	v.SetDefault("generation.topology", "quad")
	v.SetDefault("generation.target_polycount", 100000)
	v.SetDefault("generation.ai_model", "meshy-4")
	v.SetDefault("generation.formats", []string{"glb", "fbx"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.structured", false)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
}

// loadDotenv loads .env.local if present, else .env. Existing process env
// vars always win over file values.
func loadDotenv() {
	if _, err := os.Stat(".env.local"); err == nil {
		_ = godotenv.Load(".env.local")
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}

// Load resolves configuration.
//
// configFile, when non-empty, names an explicit config file; otherwise
// config.{yaml,yml,json} is searched for in the working directory (its
// absence is not an error). Each overrides map is merged last, at highest
// precedence.
func Load(configFile string, overrides ...map[string]any) (*Config, error) {
	loadDotenv()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("JEWELGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Legacy credential variable from earlier tooling.
	_ = v.BindEnv("api.key", "JEWELGEN_API_KEY", "MESHY_API_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	// Explicit Set sits above env and file layers in viper, which is what
	// "runtime overrides win" requires.
	for _, override := range overrides {
		applyOverrides(v, "", override)
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decodeHook); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// applyOverrides walks a possibly nested override map and applies each
// leaf with v.Set using its dotted key path.
func applyOverrides(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			applyOverrides(v, path, nested)
			continue
		}
		v.Set(path, value)
	}
}
