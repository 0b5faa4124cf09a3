package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissingRequired signals a required setting that resolved to an empty value.
var ErrMissingRequired = errors.New("missing required configuration")

//go:embed default.yaml
var defaultConfig []byte

// Config holds the lexrag API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Index      IndexConfig      `yaml:"index"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Budget     BudgetConfig     `yaml:"budget"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	AllowOrigins    []string `yaml:"allow_origins"`
	RateLimitRPS    float64  `yaml:"rate_limit_rps"` // 0 = disabled
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
}

// IndexConfig holds vector index connection settings.
type IndexConfig struct {
	Driver           string   `yaml:"driver"` // qdrant, valkey (default: qdrant)
	Collection       string   `yaml:"collection"`
	URL              string   `yaml:"url"`
	APIKey           string   `yaml:"api_key"`
	GRPCPort         int      `yaml:"grpc_port"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	TimeoutSec       int      `yaml:"timeout_sec"`
}

// OpenAIConfig holds the OpenAI-compatible provider settings shared by embedding and chat.
type OpenAIConfig struct {
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	EmbeddingModel     string `yaml:"embedding_model"`
	Dimensions         int    `yaml:"dimensions"`
	ChatModel          string `yaml:"chat_model"`
	EmbedTimeoutSec    int    `yaml:"embedding_timeout_sec"`
	GenerateTimeoutSec int    `yaml:"generation_timeout_sec"`
}

// RetrievalConfig holds owner scoping and top-k limits.
type RetrievalConfig struct {
	OwnerDefault     string `yaml:"owner_default"`
	DefaultTopK      int    `yaml:"default_top_k"`
	MaxTopK          int    `yaml:"max_top_k"`
	MaxCitationChars int    `yaml:"max_citation_chars"`
}

// GenerationConfig holds answer prompting settings. Empty strings keep built-in prompts.
type GenerationConfig struct {
	Temperature  float32 `yaml:"temperature"`
	SystemPrompt string  `yaml:"system_prompt"`
	Instruction  string  `yaml:"instruction"`
	Fallback     string  `yaml:"fallback"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Load reads configuration by environment name (local, dev, prod).
// Falls back to the embedded default file when config/<env>.yaml does not exist.
func Load(env string) (Config, error) {
	data, err := readConfig(env)
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.AllowOrigins) == 0 {
		c.HTTP.AllowOrigins = []string{"*"}
	}
	if c.HTTP.RateLimitRPS > 0 && c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = int(c.HTTP.RateLimitRPS * 2)
	}
	if c.Index.Driver == "" {
		c.Index.Driver = "qdrant"
	}
	if c.Index.Collection == "" {
		c.Index.Collection = "Legal-Docs"
	}
	if c.Index.GRPCPort <= 0 {
		c.Index.GRPCPort = 6334
	}
	if c.Index.ReadinessTimeout <= 0 {
		c.Index.ReadinessTimeout = 10
	}
	if c.Index.TimeoutSec <= 0 {
		c.Index.TimeoutSec = 15
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-4o-mini"
	}
	if c.OpenAI.EmbedTimeoutSec <= 0 {
		c.OpenAI.EmbedTimeoutSec = 15
	}
	if c.OpenAI.GenerateTimeoutSec <= 0 {
		c.OpenAI.GenerateTimeoutSec = 60
	}
	if c.Retrieval.OwnerDefault == "" {
		c.Retrieval.OwnerDefault = "user_test_001"
	}
	if c.Retrieval.DefaultTopK <= 0 {
		c.Retrieval.DefaultTopK = 5
	}
	if c.Retrieval.MaxTopK <= 0 {
		c.Retrieval.MaxTopK = 20
	}
	if c.Retrieval.MaxCitationChars <= 0 {
		c.Retrieval.MaxCitationChars = 1200
	}
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.2
	}
}

// Validate checks the configuration for correctness.
// Missing credentials wrap ErrMissingRequired so callers can refuse to start.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key (OPENAI_API_KEY): %w", ErrMissingRequired)
	}

	switch c.Index.Driver {
	case "qdrant":
		if c.Index.URL == "" {
			return fmt.Errorf("index.url (QDRANT_URL): %w", ErrMissingRequired)
		}
		if c.Index.APIKey == "" {
			return fmt.Errorf("index.api_key (QDRANT_API_KEY): %w", ErrMissingRequired)
		}
		if _, err := url.Parse(c.Index.URL); err != nil {
			return fmt.Errorf("index.url is not a valid URL: %w", err)
		}
	case "valkey":
		if len(c.Index.Addrs) == 0 {
			return fmt.Errorf("index.addrs (VALKEY_ADDRS): %w", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("index.driver must be \"qdrant\" or \"valkey\", got %q", c.Index.Driver)
	}

	if c.Retrieval.DefaultTopK > c.Retrieval.MaxTopK {
		return fmt.Errorf("retrieval.default_top_k (%d) exceeds retrieval.max_top_k (%d)",
			c.Retrieval.DefaultTopK, c.Retrieval.MaxTopK)
	}

	switch c.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	return nil
}

// readConfig returns the contents of config/<env>.yaml or the embedded default.
func readConfig(env string) ([]byte, error) {
	configPath, ok := findConfigPath(env)
	if !ok {
		return defaultConfig, nil
	}
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return data, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) (string, bool) {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path, true
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path, true
	}

	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
