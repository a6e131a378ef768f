package orm

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultTimeout = 30 * time.Second
	envPrefix      = "RESTORM"
)

// Config configures a Connection.
type Config struct {
	// BaseURI is prepended to every resource path. Required.
	BaseURI string `yaml:"base_uri" mapstructure:"base_uri" validate:"required,url"`

	// Timeout bounds each request of the default handler. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Auth holds static parameters merged into every query string.
	// WithAuth overrides it.
	Auth map[string]string `yaml:"auth" mapstructure:"auth"`

	// Debug logs every request at debug level.
	Debug bool `yaml:"debug" mapstructure:"debug"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate reports a missing or malformed base URI as ErrConfiguration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURI) == "" {
		return configError("base_uri is required")
	}
	if err := validate.Struct(c); err != nil {
		return configError("%v", err)
	}
	return nil
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
}

// WithConfigFile reads a YAML config file before the environment.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile loads a .env file into the process environment first.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// LoadConfig builds a Config from an optional YAML file, an optional .env
// file and RESTORM_* environment variables, in increasing precedence.
// The name selects the nested section of the YAML file ("" for the root).
func LoadConfig(name string, opts ...LoaderOption) (Config, error) {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile != "" {
		if _, err := os.Stat(lc.envFile); err == nil {
			if err := godotenv.Load(lc.envFile); err != nil {
				return Config{}, fmt.Errorf("orm: load env file %s: %w", lc.envFile, err)
			}
		}
	}

	v := viper.New()
	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("orm: read config file %s: %w", lc.configFile, err)
		}
		if name != "" {
			sub := v.Sub(name)
			if sub == nil {
				return Config{}, configError("section %q not found in %s", name, lc.configFile)
			}
			v = sub
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"base_uri", "timeout", "debug"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("orm: bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("orm: unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
