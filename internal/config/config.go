// Package config loads service configuration from defaults, an optional
// config file, a .env file and TUTOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/aniketthapawork/ai-tutor/internal/llm"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. TUTOR_SERVER_PORT.
const EnvPrefix = "TUTOR"

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Learning LearningConfig `mapstructure:"learning"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects and configures the database.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Path   string `mapstructure:"path"`
	LogSQL bool   `mapstructure:"log_sql"`
}

// Store converts to the store configuration.
func (d DatabaseConfig) Store() store.Config {
	return store.Config{Driver: d.Driver, DSN: d.DSN, Path: d.Path, LogSQL: d.LogSQL}
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig configures the authentication gate.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// DevHeader accepts an X-User-Id header instead of a token. Development
	// only.
	DevHeader bool `mapstructure:"dev_header"`
}

// LLMConfig configures the text-generation provider.
type LLMConfig struct {
	Provider   string        `mapstructure:"provider"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Anthropic  ProviderKey   `mapstructure:"anthropic"`
	OpenAI     ProviderKey   `mapstructure:"openai"`
	Gemini     ProviderKey   `mapstructure:"gemini"`
	OpenRouter ProviderKey   `mapstructure:"openrouter"`
	Retry      RetryConfig   `mapstructure:"retry"`
}

// ProviderKey holds one provider's credentials and model.
type ProviderKey struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// RetryConfig configures retries of transient LLM failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// Resolved converts to an llm.Config with the provider resolved.
func (c LLMConfig) Resolved() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = c.Provider
	cfg.Timeout = c.Timeout
	cfg.Anthropic.APIKey = c.Anthropic.APIKey
	cfg.OpenAI.APIKey = c.OpenAI.APIKey
	cfg.OpenAI.BaseURL = c.OpenAI.BaseURL
	cfg.Gemini.APIKey = c.Gemini.APIKey
	cfg.OpenRouter.APIKey = c.OpenRouter.APIKey
	cfg.OpenRouter.BaseURL = c.OpenRouter.BaseURL
	if c.Anthropic.Model != "" {
		cfg.Anthropic.Model = c.Anthropic.Model
	}
	if c.OpenAI.Model != "" {
		cfg.OpenAI.Model = c.OpenAI.Model
	}
	if c.Gemini.Model != "" {
		cfg.Gemini.Model = c.Gemini.Model
	}
	if c.OpenRouter.Model != "" {
		cfg.OpenRouter.Model = c.OpenRouter.Model
	}
	cfg.Retry = llm.RetryConfig(c.Retry)
	cfg.Resolve()
	return cfg
}

// LearningConfig configures learning rules.
type LearningConfig struct {
	// Timezone is the IANA zone whose calendar days count for streaks.
	Timezone        string        `mapstructure:"timezone"`
	FeedbackTimeout time.Duration `mapstructure:"feedback_timeout"`
	Seed            bool          `mapstructure:"seed"`
}

// Location loads the streak time zone.
func (l LearningConfig) Location() (*time.Location, error) {
	if l.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("learning.timezone: %w", err)
	}
	return loc, nil
}

// Options controls where Load looks.
type Options struct {
	// EnvFile is loaded into the environment first. Missing files are
	// ignored. Default ".env".
	EnvFile string
	// ConfigFile is an optional YAML/TOML/JSON file.
	ConfigFile string
}

// Load reads configuration. Precedence, highest first: environment,
// config file, defaults. The result is not validated; servers call
// Validate.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	bindProviderKeys(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case store.DriverSQLite:
	case store.DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" && !c.Auth.DevHeader {
		return errors.New("auth.jwt_secret is required unless auth.dev_header is enabled")
	}
	if _, err := c.Learning.Location(); err != nil {
		return err
	}
	return c.LLM.Resolved().Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", store.DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.path", "")
	v.SetDefault("database.log_sql", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.dev_header", false)

	def := llm.DefaultConfig()
	v.SetDefault("llm.provider", llm.ProviderAuto)
	v.SetDefault("llm.timeout", def.Timeout)
	v.SetDefault("llm.anthropic.model", def.Anthropic.Model)
	v.SetDefault("llm.openai.model", def.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.model", def.Gemini.Model)
	v.SetDefault("llm.openrouter.model", def.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.retry.max_attempts", def.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", def.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", def.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", def.Retry.Multiplier)

	v.SetDefault("learning.timezone", "UTC")
	v.SetDefault("learning.feedback_timeout", 30*time.Second)
	v.SetDefault("learning.seed", true)
}

// bindProviderKeys accepts the providers' conventional key variables next
// to the TUTOR_ ones.
func bindProviderKeys(v *viper.Viper) {
	for key, conventional := range map[string]string{
		"llm.anthropic.api_key":  "ANTHROPIC_API_KEY",
		"llm.openai.api_key":     "OPENAI_API_KEY",
		"llm.gemini.api_key":     "GEMINI_API_KEY",
		"llm.openrouter.api_key": "OPENROUTER_API_KEY",
	} {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, conventional)
	}
}
