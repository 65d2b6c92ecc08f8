package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. SKINSENSE_SERVER_PORT.
const EnvPrefix = "SKINSENSE"

// Config holds all service configuration.
type Config struct {
	Server          ServerConfig      `mapstructure:"server"`
	Log             LogConfig         `mapstructure:"log"`
	Model           ModelConfig       `mapstructure:"model"`
	Image           ImageConfig       `mapstructure:"image"`
	Recommendations map[string]string `mapstructure:"recommendations"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig points at the frozen classifier artifacts.
type ModelConfig struct {
	Dir            string        `mapstructure:"dir"`
	GraphFile      string        `mapstructure:"graph_file"`
	MetadataFile   string        `mapstructure:"metadata_file"`
	SharedLibrary  string        `mapstructure:"shared_library"`
	IntraOpThreads int           `mapstructure:"intra_op_threads"`
	InferTimeout   time.Duration `mapstructure:"infer_timeout"`
}

// ImageConfig bounds what the decoder accepts.
type ImageConfig struct {
	MaxPixels int64 `mapstructure:"max_pixels"`
}

// Addr returns the host:port the server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from defaults, an optional YAML file and the environment.
// An empty path falls back to $SKINSENSE_CONFIG, then ./config.yaml if it exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("model.dir", "models")
	v.SetDefault("model.graph_file", "model.onnx")
	v.SetDefault("model.metadata_file", "model_metadata.json")
	v.SetDefault("model.shared_library", "")
	v.SetDefault("model.intra_op_threads", 0)
	v.SetDefault("model.infer_timeout", 30*time.Second)

	v.SetDefault("image.max_pixels", 40_000_000)
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server.mode %q", c.Server.Mode)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if c.Model.InferTimeout <= 0 {
		return fmt.Errorf("model.infer_timeout must be positive")
	}
	if c.Image.MaxPixels <= 0 {
		return fmt.Errorf("image.max_pixels must be positive")
	}
	return nil
}
