// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Planner PlannerConfig `mapstructure:"planner" yaml:"planner"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig tunes task execution: retry bounds, timeouts and snapshot
// behavior of the action engine.
type EngineConfig struct {
	// MaxAttempts is the total number of tries per step (first attempt
	// included). Must be >= 1.
	MaxAttempts int `mapstructure:"max_attempts" yaml:"max_attempts"`
	// TaskTimeout bounds one ExecuteTask call end to end. Zero disables it.
	TaskTimeout time.Duration `mapstructure:"task_timeout" yaml:"task_timeout"`
	// StepTimeout bounds a single browser action. Zero disables it.
	StepTimeout time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	// MaxConcurrentTasks limits how many independent tasks the runner
	// executes at once.
	MaxConcurrentTasks int `mapstructure:"max_concurrent_tasks" yaml:"max_concurrent_tasks"`
}

// PlannerConfig tunes plan construction.
type PlannerConfig struct {
	// PerStepDuration feeds the estimated duration a plan advertises
	// (steps x duration).
	PerStepDuration time.Duration `mapstructure:"per_step_duration" yaml:"per_step_duration"`
	// HistoryTail is how many trailing history entries are summarized into
	// planning prompts.
	HistoryTail int `mapstructure:"history_tail" yaml:"history_tail"`
	// MaxContentChars caps the compact page representation embedded in
	// prompts.
	MaxContentChars int `mapstructure:"max_content_chars" yaml:"max_content_chars"`
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini    LLMProvider = "gemini"
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderOllama    LLMProvider = "ollama"
)

// LLMConfig configures the model routing logic.
type LLMConfig struct {
	DefaultFastModel     string                    `mapstructure:"default_fast_model" yaml:"default_fast_model"`
	DefaultPowerfulModel string                    `mapstructure:"default_powerful_model" yaml:"default_powerful_model"`
	// RequestsPerMinute rate-limits outbound generation calls across all
	// models. Zero disables the limiter.
	RequestsPerMinute float64                   `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Models            map[string]LLMModelConfig `mapstructure:"models" yaml:"models"`
}

// LLMModelConfig defines the configuration for a single LLM.
type LLMModelConfig struct {
	Provider      LLMProvider       `mapstructure:"provider" yaml:"provider"`
	Model         string            `mapstructure:"model" yaml:"model"`
	APIKey        string            `mapstructure:"api_key" yaml:"api_key"`
	Endpoint      string            `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout    time.Duration     `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature   float32           `mapstructure:"temperature" yaml:"temperature"`
	TopP          float32           `mapstructure:"top_p" yaml:"top_p"`
	TopK          int               `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens     int               `mapstructure:"max_tokens" yaml:"max_tokens"`
	SafetyFilters map[string]string `mapstructure:"safety_filters" yaml:"safety_filters"`
}

// BrowserConfig controls the chromedp session manager.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// StoreConfig holds the connection details for the optional task archive.
type StoreConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DSN renders the pgx connection string.
func (s StoreConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.DBName, s.SSLMode)
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webpilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.max_attempts", 2)
	v.SetDefault("engine.task_timeout", "5m")
	v.SetDefault("engine.step_timeout", "30s")
	v.SetDefault("engine.max_concurrent_tasks", 4)

	// -- Planner --
	v.SetDefault("planner.per_step_duration", "1s")
	v.SetDefault("planner.history_tail", 10)
	v.SetDefault("planner.max_content_chars", 8000)

	// -- LLM --
	v.SetDefault("llm.default_fast_model", "gemini-flash")
	v.SetDefault("llm.default_powerful_model", "gemini-pro")
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.models.gemini-flash.provider", "gemini")
	v.SetDefault("llm.models.gemini-flash.model", "gemini-2.5-flash")
	v.SetDefault("llm.models.gemini-flash.api_timeout", "30s")
	v.SetDefault("llm.models.gemini-pro.provider", "gemini")
	v.SetDefault("llm.models.gemini-pro.model", "gemini-2.5-pro")
	v.SetDefault("llm.models.gemini-pro.api_timeout", "60s")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)

	// -- Store --
	v.SetDefault("store.enabled", false)
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.user", "postgres")
	v.SetDefault("store.password", "")
	v.SetDefault("store.dbname", "webpilot")
	v.SetDefault("store.sslmode", "disable")
}

// DefaultConfigPath returns the path searched for config.yaml when none is
// given on the command line.
func DefaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".webpilot")
}

// New creates a configuration populated with defaults only.
func New() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with pure defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// FromViper builds and validates a configuration from a prepared viper
// instance (file + env already merged by the caller).
func FromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("store.password", "WEBPILOT_STORE_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// API keys come from the environment when the file leaves them blank.
	for name, m := range cfg.LLM.Models {
		if m.APIKey == "" {
			m.APIKey = os.Getenv(apiKeyEnvVar(m.Provider))
			cfg.LLM.Models[name] = m
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func apiKeyEnvVar(p LLMProvider) string {
	switch p {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Engine.MaxAttempts < 1 {
		return fmt.Errorf("engine.max_attempts must be at least 1, got %d", c.Engine.MaxAttempts)
	}
	if c.Planner.PerStepDuration <= 0 {
		return fmt.Errorf("planner.per_step_duration must be positive, got %s", c.Planner.PerStepDuration)
	}
	if len(c.LLM.Models) == 0 {
		return fmt.Errorf("at least one model must be configured under llm.models")
	}
	if _, ok := c.LLM.Models[c.LLM.DefaultFastModel]; !ok {
		return fmt.Errorf("llm.default_fast_model %q is not defined under llm.models", c.LLM.DefaultFastModel)
	}
	if _, ok := c.LLM.Models[c.LLM.DefaultPowerfulModel]; !ok {
		return fmt.Errorf("llm.default_powerful_model %q is not defined under llm.models", c.LLM.DefaultPowerfulModel)
	}
	for name, m := range c.LLM.Models {
		switch m.Provider {
		case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		default:
			return fmt.Errorf("model %q has unknown provider %q", name, m.Provider)
		}
	}
	return nil
}
