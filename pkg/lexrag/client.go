package lexrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/db"
	dbQdrant "github.com/kailas-cloud/lexrag/internal/db/qdrant"
	dbValkey "github.com/kailas-cloud/lexrag/internal/db/valkey"
	"github.com/kailas-cloud/lexrag/internal/domain"
	"github.com/kailas-cloud/lexrag/internal/repository/passage"
	openaiTransport "github.com/kailas-cloud/lexrag/internal/transport/openai"
	"github.com/kailas-cloud/lexrag/internal/usecase/answer"
	chatuc "github.com/kailas-cloud/lexrag/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/lexrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lexrag/internal/usecase/health"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces for substitution in tests.
type chatUseCase interface {
	Ask(ctx context.Context, q domain.Query) (domain.Answer, error)
	Retrieve(ctx context.Context, q domain.Query) ([]domain.Citation, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the lexrag entry point.
type Client struct {
	store     db.Store
	chatSvc   chatUseCase
	healthSvc healthUseCase
	limits    domain.QueryLimits
	obs       *observer
}

// New creates a Client and connects to the vector index.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lexrag: index not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

func (c *clientConfig) validate() error {
	if c.driver == "" {
		return errors.New("lexrag: vector index required (use WithQdrant or WithValkey)")
	}
	if c.openAIKey == "" && (c.embedder == nil || c.completer == nil) {
		return errors.New("lexrag: model provider required (use WithOpenAI or WithEmbedder and WithCompleter)")
	}
	if c.defaultTopK > c.maxTopK {
		return fmt.Errorf("lexrag: default top_k %d exceeds max %d", c.defaultTopK, c.maxTopK)
	}
	return nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "qdrant":
		s, err := dbQdrant.NewStore(dbQdrant.Config{
			URL:      cfg.url,
			APIKey:   cfg.apiKey,
			GRPCPort: cfg.grpcPort,
		})
		if err != nil {
			return nil, fmt.Errorf("lexrag: create qdrant store: %w", err)
		}
		return s, nil
	case "valkey":
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("lexrag: create valkey store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("lexrag: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	// Internal layers log through zap; the client reports through slog in observe.
	nop := zap.NewNop()
	oaiCfg := &openaiTransport.Config{
		APIKey:     cfg.openAIKey,
		BaseURL:    cfg.openAIBaseURL,
		Model:      cfg.embeddingModel,
		Dimensions: cfg.dimensions,
		Provider:   "openai",
		Logger:     nop,
	}

	var emb domain.Embedder
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	} else {
		emb = openaiTransport.NewEmbedder(oaiCfg)
	}
	instrumented := embeddinguc.NewInstrumentedEmbedder(emb, oaiCfg.Provider, cfg.embeddingModel, nil, nop)

	var completer domain.Completer
	if cfg.completer != nil {
		completer = &completerAdapter{inner: cfg.completer}
	} else {
		chatCfg := *oaiCfg
		chatCfg.Model = cfg.chatModel
		completer = openaiTransport.NewChatCompleter(&chatCfg)
	}
	answerSvc := answer.New(completer, answer.Prompts{}, nil)

	repo := passage.New(store, cfg.driver, cfg.collection, domain.DefaultMaxCitationChars)
	chatSvc := chatuc.New(instrumented, repo, answerSvc, chatuc.Timeouts{
		Embed:    cfg.timeout,
		Search:   cfg.timeout,
		Generate: cfg.timeout,
	})

	return &Client{
		store:     store,
		chatSvc:   chatSvc,
		healthSvc: healthuc.New(store, instrumented, answerSvc),
		limits: domain.QueryLimits{
			OwnerDefault: cfg.ownerDefault,
			DefaultTopK:  cfg.defaultTopK,
			MaxTopK:      cfg.maxTopK,
		},
		obs: obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ask answers req from the owner's passages. No matching passages still yields
// an answer (the fallback phrase) with empty citations.
func (c *Client) Ask(ctx context.Context, req Request) (ans Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	q, err := c.query(req)
	if err != nil {
		return Answer{}, err
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	res, err := c.chatSvc.Ask(ctx, q)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}

	ans = Answer{Text: res.Text, Citations: citationsFromDomain(res.Citations), Usage: usageFromDomain(usage)}
	c.obs.observeUsage(ans.Usage)
	return ans, nil
}

// Retrieve returns the owner's passages nearest to req.Query without generating an answer.
func (c *Client) Retrieve(ctx context.Context, req Request) (cites []Citation, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	q, err := c.query(req)
	if err != nil {
		return nil, err
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	res, err := c.chatSvc.Retrieve(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	c.obs.observeUsage(usageFromDomain(usage))
	return citationsFromDomain(res), nil
}

func (c *Client) query(req Request) (domain.Query, error) {
	var topK *int
	if req.TopK != 0 {
		topK = &req.TopK
	}
	q, err := domain.NewQuery(req.Query, req.Owner, topK, c.limits)
	if err != nil {
		return domain.Query{}, fmt.Errorf("lexrag: %w", err)
	}
	return q, nil
}
