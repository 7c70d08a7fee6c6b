// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	JWTSecret      string        `yaml:"jwt_secret"`
	RateLimit      struct {
		Limit  int           `yaml:"limit"`
		Window time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // memory | postgres
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	Migrate  bool   `yaml:"migrate"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AIConfig struct {
	// Providers lists generators in failover order: gemini | openai | noop.
	Providers       []string      `yaml:"providers"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiModel     string        `yaml:"gemini_model"`
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIBaseURL   string        `yaml:"openai_base_url"`
	OpenAIModel     string        `yaml:"openai_model"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent AI calls
	Timeout         time.Duration `yaml:"timeout"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
}

type InterviewConfig struct {
	ExtractionAttempts   int           `yaml:"extraction_attempts"`
	RetryDelay           time.Duration `yaml:"retry_delay"`
	StaleSubmissionAfter time.Duration `yaml:"stale_submission_after"`
	ReaperInterval       time.Duration `yaml:"reaper_interval"`
	AnswerMinLen         int           `yaml:"answer_min_len"`
	AnswerMaxLen         int           `yaml:"answer_max_len"`
	MinSkills            int           `yaml:"min_skills"`
	MaxSkills            int           `yaml:"max_skills"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Interview InterviewConfig `yaml:"interview"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads -config and -dev from the command line and loads the file.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()
	return Load(configPath, dev)
}

// Load parses the YAML at path after loading an optional .env and expanding ${VAR} references.
func Load(path string, dev bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse expands environment references in raw, applies defaults and validates.
func Parse(raw []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.RateLimit.Limit <= 0 {
		cfg.HTTP.RateLimit.Limit = 30
	}
	if cfg.HTTP.RateLimit.Window <= 0 {
		cfg.HTTP.RateLimit.Window = time.Minute
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}

	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if len(cfg.AI.Providers) == 0 {
		cfg.AI.Providers = []string{"noop"}
	}
	if cfg.AI.GeminiModel == "" {
		cfg.AI.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.AI.OpenAIModel == "" {
		cfg.AI.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 30 * time.Second
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.AI.MaxPromptTokens <= 0 {
		cfg.AI.MaxPromptTokens = 12000
	}

	iv := &cfg.Interview
	if iv.ExtractionAttempts <= 0 {
		iv.ExtractionAttempts = 3
	}
	if iv.RetryDelay <= 0 {
		iv.RetryDelay = time.Second
	}
	if iv.ReaperInterval <= 0 {
		iv.ReaperInterval = time.Minute
	}
	if iv.AnswerMinLen <= 0 {
		iv.AnswerMinLen = 140
	}
	if iv.AnswerMaxLen <= 0 {
		iv.AnswerMaxLen = 1500
	}
	if iv.MinSkills <= 0 {
		iv.MinSkills = 3
	}
	if iv.MaxSkills <= 0 {
		iv.MaxSkills = 5
	}

	// timeouts that depend on the assessment budget come last
	budget := cfg.SubmissionBudget()
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = max(90*time.Second, budget+10*time.Second)
	}
	if iv.StaleSubmissionAfter <= 0 {
		iv.StaleSubmissionAfter = max(10*time.Minute, 2*budget)
	}
}

// SubmissionBudget is the longest a submission's assessment can take: every
// attempt running through every provider until ai.timeout, plus the waits
// between attempts.
func (c *Config) SubmissionBudget() time.Duration {
	providers := max(len(c.AI.Providers), 1)
	attempts := max(c.Interview.ExtractionAttempts, 1)
	return time.Duration(attempts*providers)*c.AI.Timeout + time.Duration(attempts-1)*c.Interview.RetryDelay
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		return errors.New("redis.url is required when redis is enabled")
	}
	if c.HTTP.JWTSecret == "" {
		return errors.New("http.jwt_secret is required")
	}
	for _, p := range c.AI.Providers {
		switch strings.ToLower(p) {
		case "gemini":
			if c.AI.GeminiKey == "" {
				return errors.New("ai.gemini_key is required when gemini is listed")
			}
		case "openai":
			if c.AI.OpenAIKey == "" {
				return errors.New("ai.openai_key is required when openai is listed")
			}
		case "noop":
		default:
			return fmt.Errorf("ai.providers: unknown provider %q", p)
		}
	}
	if budget := c.SubmissionBudget(); c.HTTP.RequestTimeout < budget {
		return fmt.Errorf("http.request_timeout %s is shorter than the submission budget %s (extraction_attempts x providers x ai.timeout + retry delays)",
			c.HTTP.RequestTimeout, budget)
	} else if c.Interview.StaleSubmissionAfter < budget {
		return fmt.Errorf("interview.stale_submission_after %s is shorter than the submission budget %s",
			c.Interview.StaleSubmissionAfter, budget)
	}
	if c.Interview.AnswerMinLen > c.Interview.AnswerMaxLen {
		return errors.New("interview.answer_min_len must not exceed answer_max_len")
	}
	if c.Interview.MinSkills > c.Interview.MaxSkills {
		return errors.New("interview.min_skills must not exceed max_skills")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
