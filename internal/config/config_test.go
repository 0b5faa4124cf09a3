package config

import (
	"errors"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		OpenAI: OpenAIConfig{APIKey: "sk-test"},
		Index: IndexConfig{
			URL:    "https://example.cloud.qdrant.io:6333",
			APIKey: "qdrant-key",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.HTTP.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.Index.Driver != "qdrant" {
		t.Errorf("expected driver qdrant, got %q", cfg.Index.Driver)
	}
	if cfg.Index.Collection != "Legal-Docs" {
		t.Errorf("expected collection Legal-Docs, got %q", cfg.Index.Collection)
	}
	if cfg.Retrieval.OwnerDefault != "user_test_001" {
		t.Errorf("expected default owner user_test_001, got %q", cfg.Retrieval.OwnerDefault)
	}
	if cfg.Retrieval.DefaultTopK != 5 || cfg.Retrieval.MaxTopK != 20 {
		t.Errorf("unexpected top_k limits: default=%d max=%d", cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK)
	}
	if cfg.Retrieval.MaxCitationChars != 1200 {
		t.Errorf("expected 1200 citation chars, got %d", cfg.Retrieval.MaxCitationChars)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("unexpected embedding model %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("unexpected chat model %q", cfg.OpenAI.ChatModel)
	}
	if cfg.Generation.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %f", cfg.Generation.Temperature)
	}
	if len(cfg.HTTP.AllowOrigins) != 1 || cfg.HTTP.AllowOrigins[0] != "*" {
		t.Errorf("expected allow_origins [*], got %v", cfg.HTTP.AllowOrigins)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"openai key", func(c *Config) { c.OpenAI.APIKey = "" }},
		{"qdrant url", func(c *Config) { c.Index.URL = "" }},
		{"qdrant key", func(c *Config) { c.Index.APIKey = "" }},
		{"valkey addrs", func(c *Config) { c.Index.Driver = "valkey" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrMissingRequired) {
				t.Fatalf("expected ErrMissingRequired, got %v", err)
			}
		})
	}
}

func TestValidate_ValkeyDoesNotNeedQdrant(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Driver = "valkey"
	cfg.Index.URL = ""
	cfg.Index.APIKey = ""
	cfg.Index.Addrs = []string{"localhost:6379"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Driver = "milvus"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Budget.Action = "invalid_action"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}

	expected := `budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_TopKLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Retrieval.DefaultTopK = 50
	cfg.Retrieval.MaxTopK = 20

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when default_top_k exceeds max_top_k")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestParse_EmbeddedDefaultFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("QDRANT_URL", "https://q.example.com:6333")
	t.Setenv("QDRANT_API_KEY", "q-env")
	t.Setenv("COLLECTION", "Saudi-Laws")
	t.Setenv("OWNER_DEFAULT", "tenant_42")
	t.Setenv("GEN_MODEL", "gpt-4o")

	cfg, err := Parse(defaultConfig)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.OpenAI.APIKey != "sk-env" {
		t.Errorf("expected api key from env, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Index.Collection != "Saudi-Laws" {
		t.Errorf("expected collection Saudi-Laws, got %q", cfg.Index.Collection)
	}
	if cfg.Retrieval.OwnerDefault != "tenant_42" {
		t.Errorf("expected owner tenant_42, got %q", cfg.Retrieval.OwnerDefault)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("expected chat model gpt-4o, got %q", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Errorf("expected default embedding model, got %q", cfg.OpenAI.EmbeddingModel)
	}
	if cfg.Index.Driver != "qdrant" {
		t.Errorf("expected qdrant driver, got %q", cfg.Index.Driver)
	}
}

func TestParse_MissingOpenAIKeyFails(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("QDRANT_URL", "https://q.example.com:6333")
	t.Setenv("QDRANT_API_KEY", "q-env")

	_, err := Parse(defaultConfig)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("expected ErrMissingRequired, got %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LEXRAG_TEST_VALUE", "hello")

	tests := []struct {
		in, want string
	}{
		{"a: ${LEXRAG_TEST_VALUE}", "a: hello"},
		{"a: ${LEXRAG_TEST_UNSET:-fallback}", "a: fallback"},
		{"a: ${LEXRAG_TEST_UNSET}", "a: "},
		{"a: plain", "a: plain"},
	}
	for _, tc := range tests {
		got := string(expandEnvVars([]byte(tc.in)))
		if got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
