package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Gemini     GeminiConfig     `yaml:"gemini" envconfig:"GEMINI"`
	Automation AutomationConfig `yaml:"automation" envconfig:"MINO"`
	WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	// AnalyzeTimeout bounds a full pipeline run: one resolver call, the
	// parallel news fan-out, and one synthesizer call.
	AnalyzeTimeout time.Duration `yaml:"analyze_timeout" envconfig:"ANALYZE_TIMEOUT" default:"5m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"10"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"20"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// GeminiConfig contains the completion service configuration.
// The API key is read from the unprefixed GEMINI_API_KEY variable so the
// deployment environment matches the legacy service.
type GeminiConfig struct {
	APIKey  string        `yaml:"api_key" envconfig:"API_KEY"`
	Model   string        `yaml:"model" envconfig:"MODEL" default:"gemini-3-flash-preview"`
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"120s"`
}

// AutomationConfig contains the browser automation service configuration
type AutomationConfig struct {
	APIKey  string        `yaml:"api_key" envconfig:"API_KEY"`
	BaseURL string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://mino.ai"`
	// Timeout bounds each per-source automation run independently.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"120s"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and an optional
// config.yaml next to the binary. Environment variables win.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("SENTIPULSE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if _, err := os.Stat(configFilePath()); err == nil {
		fileCfg, err := loadFromFile(configFilePath())
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	// Credentials keep their historical unprefixed names.
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("MINO_API_KEY"); v != "" {
		cfg.Automation.APIKey = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs merges file config with env config, env taking precedence
func mergeConfigs(file, env Config) Config {
	merged := file

	if env.Server.Port != 0 {
		merged.Server.Port = env.Server.Port
	}
	if env.Server.ReadTimeout != 0 {
		merged.Server.ReadTimeout = env.Server.ReadTimeout
	}
	if env.Server.WriteTimeout != 0 {
		merged.Server.WriteTimeout = env.Server.WriteTimeout
	}
	if env.Server.IdleTimeout != 0 {
		merged.Server.IdleTimeout = env.Server.IdleTimeout
	}
	if env.Server.ShutdownTimeout != 0 {
		merged.Server.ShutdownTimeout = env.Server.ShutdownTimeout
	}
	if env.Server.AnalyzeTimeout != 0 {
		merged.Server.AnalyzeTimeout = env.Server.AnalyzeTimeout
	}
	if env.Logging.Level != "" {
		merged.Logging.Level = env.Logging.Level
	}
	if env.Logging.Format != "" {
		merged.Logging.Format = env.Logging.Format
	}
	if env.Logging.Output != "" {
		merged.Logging.Output = env.Logging.Output
	}
	if env.Logging.FilePath != "" {
		merged.Logging.FilePath = env.Logging.FilePath
	}
	if env.Gemini.APIKey != "" {
		merged.Gemini.APIKey = env.Gemini.APIKey
	}
	if env.Gemini.Model != "" {
		merged.Gemini.Model = env.Gemini.Model
	}
	if env.Gemini.BaseURL != "" {
		merged.Gemini.BaseURL = env.Gemini.BaseURL
	}
	if env.Gemini.Timeout != 0 {
		merged.Gemini.Timeout = env.Gemini.Timeout
	}
	if env.Automation.APIKey != "" {
		merged.Automation.APIKey = env.Automation.APIKey
	}
	if env.Automation.BaseURL != "" {
		merged.Automation.BaseURL = env.Automation.BaseURL
	}
	if env.Automation.Timeout != 0 {
		merged.Automation.Timeout = env.Automation.Timeout
	}
	if len(env.Security.AllowedOrigins) > 0 {
		merged.Security.AllowedOrigins = env.Security.AllowedOrigins
	}
	merged.Security.EnableCORS = env.Security.EnableCORS
	merged.Security.RateLimit = env.Security.RateLimit
	merged.WebSocket = env.WebSocket

	return merged
}

// Validate checks the configuration for invalid values. Credential errors
// carry the variable name so the HTTP boundary can classify them as 400s.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	level := strings.ToLower(c.Logging.Level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Automation.Timeout <= 0 {
		return fmt.Errorf("automation timeout must be positive, got %s", c.Automation.Timeout)
	}

	return nil
}

// ValidateCredentials verifies the two mandatory API credentials are present.
// Kept separate from Validate so the server can start without keys and fail
// per-request, matching the legacy behavior.
func (c *Config) ValidateCredentials() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.Automation.APIKey == "" {
		return fmt.Errorf("MINO_API_KEY is required")
	}
	return nil
}

func configFilePath() string {
	if p := os.Getenv("SENTIPULSE_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}
