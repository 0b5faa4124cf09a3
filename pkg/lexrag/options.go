package lexrag

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver     string // "qdrant" or "valkey"
	url        string
	apiKey     string
	grpcPort   int
	addrs      []string
	password   string
	collection string

	openAIKey      string
	openAIBaseURL  string
	embeddingModel string
	chatModel      string
	dimensions     int

	embedder  Embedder
	completer Completer

	ownerDefault string
	defaultTopK  int
	maxTopK      int
	timeout      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		collection:     "Legal-Docs",
		embeddingModel: "text-embedding-3-small",
		chatModel:      "gpt-4o-mini",
		ownerDefault:   "user_test_001",
		defaultTopK:    5,
		maxTopK:        20,
		timeout:        60 * time.Second,
	}
}

// WithQdrant connects to a Qdrant instance. url is http(s)://host[:port];
// https enables TLS. The gRPC port defaults to 6334.
func WithQdrant(url, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "qdrant"
		c.url = url
		c.apiKey = apiKey
	})
}

// WithQdrantGRPCPort overrides the Qdrant gRPC port.
func WithQdrantGRPCPort(port int) Option {
	return optionFunc(func(c *clientConfig) {
		c.grpcPort = port
	})
}

// WithValkey connects to a Valkey instance with the search module.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCollection sets the collection (Valkey: index name). Default: Legal-Docs.
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithOpenAI uses the OpenAI API for both embeddings and answers.
func WithOpenAI(apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIKey = apiKey
	})
}

// WithOpenAIBaseURL points the OpenAI client at a compatible endpoint.
func WithOpenAIBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.openAIBaseURL = url
	})
}

// WithModels sets the embedding and chat models. Empty values keep the defaults
// (text-embedding-3-small, gpt-4o-mini).
func WithModels(embedding, chat string) Option {
	return optionFunc(func(c *clientConfig) {
		if embedding != "" {
			c.embeddingModel = embedding
		}
		if chat != "" {
			c.chatModel = chat
		}
	})
}

// WithEmbedder replaces the OpenAI embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithCompleter replaces the OpenAI chat model.
func WithCompleter(cm Completer) Option {
	return optionFunc(func(c *clientConfig) {
		c.completer = cm
	})
}

// WithOwnerDefault sets the owner used when a Request has none. Default: user_test_001.
func WithOwnerDefault(owner string) Option {
	return optionFunc(func(c *clientConfig) {
		c.ownerDefault = owner
	})
}

// WithTopK sets the default and maximum number of passages per question.
// Defaults: 5 and 20. Non-positive values keep the default.
func WithTopK(def, maxK int) Option {
	return optionFunc(func(c *clientConfig) {
		if def > 0 {
			c.defaultTopK = def
		}
		if maxK > 0 {
			c.maxTopK = maxK
		}
	})
}

// WithTimeout bounds each upstream call (embedding, search, generation). Default: 60s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
