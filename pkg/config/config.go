// Package config loads coordgeom settings from defaults, an optional config
// file, environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g.
// COORDGEOM_SERVER_PORT.
const EnvPrefix = "COORDGEOM"

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Geometry GeometryConfig `mapstructure:"geometry"`
}

// ServerConfig holds configuration options for the API server
type ServerConfig struct {
	// Host is the server host (default: localhost)
	Host string `mapstructure:"host"`
	// Port is the server port (default: 8080)
	Port int `mapstructure:"port"`
	// Prefork spawns one process per CPU
	Prefork bool `mapstructure:"prefork"`
	// EnableMetrics exposes the Prometheus /metrics endpoint
	EnableMetrics bool `mapstructure:"enable_metrics"`
	// ReadTimeout is the maximum duration for reading the entire request (default: 10s)
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration before timing out writes of the response (default: 10s)
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for server shutdown (default: 10s)
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// GeometryConfig holds defaults applied to geometry requests.
type GeometryConfig struct {
	// DefaultMetric is used when a distance request names no metric
	DefaultMetric string `mapstructure:"default_metric"`
	// Concurrency bounds batch evaluation
	Concurrency int `mapstructure:"concurrency"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.prefork", false)
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("geometry.default_metric", "euclidean")
	v.SetDefault("geometry.concurrency", 4)
}

// Load reads configuration into a Config. When cfgFile is empty a
// .coordgeom file is searched for in the home and working directories; a
// missing file is not an error in that case.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".coordgeom")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
