package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port               string   `env:"PORT" envDefault:"8000"`
	Env                string   `env:"APP_ENV" envDefault:"local"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	DatabaseURL        string   `env:"DATABASE_URL"`
	SessionCacheSize   int      `env:"SESSION_CACHE_SIZE" envDefault:"1024"`

	LLM      LLMConfig
	Tests    TestsConfig
	TestBank TestBankConfig
}

type LLMConfig struct {
	Provider       string        `env:"LLM_PROVIDER" envDefault:"groq"`
	GroqAPIKeys    []string      `env:"GROQ_API_KEYS" envSeparator:","`
	GroqAPIKey     string        `env:"GROQ_API_KEY"`
	GroqBaseURL    string        `env:"GROQ_BASE_URL"`
	GeminiAPIKeys  []string      `env:"GEMINI_API_KEYS" envSeparator:","`
	GeminiAPIKey   string        `env:"GEMINI_API_KEY"`
	Model          string        `env:"GROQ_MODEL" envDefault:"openai/gpt-oss-20b"`
	GeminiModel    string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	MaxTokens      int           `env:"GROQ_MAX_TOKENS" envDefault:"1000"`
	Temperature    float32       `env:"GROQ_TEMPERATURE" envDefault:"0.7"`
	MaxRetries     int           `env:"GROQ_MAX_RETRIES" envDefault:"3"`
	BackoffBase    float64       `env:"GROQ_BACKOFF_BASE" envDefault:"1.0"`
	SystemPrompt   string        `env:"GROQ_SYSTEM_PROMPT"`
	RPS            float64       `env:"LLM_RPS" envDefault:"0"`
	Burst          int           `env:"LLM_BURST" envDefault:"1"`
	RequestTimeout time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"60s"`
}

type TestsConfig struct {
	CacheTTL    time.Duration `env:"TEST_CACHE_TTL" envDefault:"1h"`
	CacheSize   int           `env:"TEST_CACHE_SIZE" envDefault:"256"`
	MaxTokens   int           `env:"TEST_MAX_TOKENS" envDefault:"4000"`
	Temperature float32       `env:"TEST_TEMPERATURE" envDefault:"0.7"`
}

type TestBankConfig struct {
	Endpoint  string `env:"TESTBANK_S3_ENDPOINT"`
	Region    string `env:"TESTBANK_S3_REGION" envDefault:"us-east-1"`
	AccessKey string `env:"TESTBANK_S3_ACCESS_KEY"`
	SecretKey string `env:"TESTBANK_S3_SECRET_KEY"`
	Bucket    string `env:"TESTBANK_S3_BUCKET" envDefault:"geomentor-tests"`
	UseSSL    bool   `env:"TESTBANK_S3_USE_SSL" envDefault:"true"`
}

// Enabled reports whether an S3 compatible bank is configured.
func (c TestBankConfig) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

// Load reads .env, the process environment and the -port flag.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", "", "server port (overrides PORT)")
	flag.Parse()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if *port != "" {
		cfg.Port = normalizePort(*port)
	}
	return cfg, nil
}

// FromEnv parses the process environment without touching flags or files.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Port = normalizePort(cfg.Port)
	cfg.Env = strings.TrimSpace(cfg.Env)
	if cfg.Env == "" {
		cfg.Env = "local"
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.IsLocal() {
		applyLocalDefaults(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsLocal() bool { return strings.EqualFold(c.Env, "local") }

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case "groq", "gemini":
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config: GROQ_MAX_RETRIES must not be negative")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("config: GROQ_MAX_TOKENS must be positive")
	}
	return nil
}

// APIKeys returns the keys for the selected provider, list first, then the
// single key variable.
func (c LLMConfig) APIKeys() []string {
	var keys []string
	switch c.Provider {
	case "gemini":
		keys = append(keys, c.GeminiAPIKeys...)
		keys = append(keys, c.GeminiAPIKey)
	default:
		keys = append(keys, c.GroqAPIKeys...)
		keys = append(keys, c.GroqAPIKey)
	}
	out := keys[:0]
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ModelName returns the model for the selected provider.
func (c LLMConfig) ModelName() string {
	if c.Provider == "gemini" {
		return c.GeminiModel
	}
	return c.Model
}

// Backoff is the base delay for rate limit retries.
func (c LLMConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffBase * float64(time.Second))
}

func normalizePort(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, ":") || strings.Contains(p, ":") {
		return p
	}
	return ":" + p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
