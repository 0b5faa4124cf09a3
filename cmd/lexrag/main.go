package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/config"
	"github.com/kailas-cloud/lexrag/internal/db"
	dbQdrant "github.com/kailas-cloud/lexrag/internal/db/qdrant"
	dbValkey "github.com/kailas-cloud/lexrag/internal/db/valkey"
	"github.com/kailas-cloud/lexrag/internal/domain"
	logpkg "github.com/kailas-cloud/lexrag/internal/logger"
	"github.com/kailas-cloud/lexrag/internal/metrics"
	budgetrepo "github.com/kailas-cloud/lexrag/internal/repository/budget"
	"github.com/kailas-cloud/lexrag/internal/repository/passage"
	chiTransport "github.com/kailas-cloud/lexrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/lexrag/internal/transport/openai"
	"github.com/kailas-cloud/lexrag/internal/usecase/answer"
	budgetuc "github.com/kailas-cloud/lexrag/internal/usecase/budget"
	chatuc "github.com/kailas-cloud/lexrag/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/lexrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/lexrag/internal/usecase/health"
	usageuc "github.com/kailas-cloud/lexrag/internal/usecase/usage"
	"github.com/kailas-cloud/lexrag/internal/version"
)

const providerName = "openai"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lexrag: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting lexrag API server",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("collection", cfg.Index.Collection),
		zap.String("embedding_model", cfg.OpenAI.EmbeddingModel),
		zap.String("chat_model", cfg.OpenAI.ChatModel),
	)

	metrics.Register()

	store, err := buildStore(cfg.Index)
	if err != nil {
		return fmt.Errorf("create index store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Index.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("index not ready: %w", err)
	}
	logger.Info("Connected to vector index")

	budget := buildBudget(ctx, cfg.Budget, store, logger)

	// Pass nil interfaces (not typed nil pointers) when no budget is configured.
	var (
		embBudget embeddinguc.BudgetChecker
		genBudget answer.BudgetChecker
		reader    usageuc.BudgetReader
	)
	if budget != nil {
		embBudget, genBudget, reader = budget, budget, budget
	}

	oaiCfg := &openaiTransport.Config{
		APIKey:     cfg.OpenAI.APIKey,
		BaseURL:    cfg.OpenAI.BaseURL,
		Model:      cfg.OpenAI.EmbeddingModel,
		Dimensions: cfg.OpenAI.Dimensions,
		Provider:   providerName,
		Logger:     logger,
	}
	embedder := embeddinguc.NewInstrumentedEmbedder(
		openaiTransport.NewEmbedder(oaiCfg), providerName, cfg.OpenAI.EmbeddingModel, embBudget, logger,
	)

	chatCfg := *oaiCfg
	chatCfg.Model = cfg.OpenAI.ChatModel
	answerSvc := answer.New(openaiTransport.NewChatCompleter(&chatCfg), answer.Prompts{
		System:      cfg.Generation.SystemPrompt,
		Instruction: cfg.Generation.Instruction,
		Fallback:    cfg.Generation.Fallback,
		Temperature: cfg.Generation.Temperature,
	}, genBudget)

	passages := passage.New(store, cfg.Index.Driver, cfg.Index.Collection, cfg.Retrieval.MaxCitationChars)

	chatSvc := chatuc.New(embedder, passages, answerSvc, chatuc.Timeouts{
		Embed:    time.Duration(cfg.OpenAI.EmbedTimeoutSec) * time.Second,
		Search:   time.Duration(cfg.Index.TimeoutSec) * time.Second,
		Generate: time.Duration(cfg.OpenAI.GenerateTimeoutSec) * time.Second,
	})
	healthSvc := healthuc.New(store, embedder, answerSvc)
	usageSvc := usageuc.New(reader)

	server := chiTransport.NewServer(chatSvc, healthSvc, usageSvc, domain.QueryLimits{
		OwnerDefault: cfg.Retrieval.OwnerDefault,
		DefaultTopK:  cfg.Retrieval.DefaultTopK,
		MaxTopK:      cfg.Retrieval.MaxTopK,
	}, cfg.Index.Collection, logger)

	handler := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		AllowOrigins:   cfg.HTTP.AllowOrigins,
		RateLimitRPS:   cfg.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.HTTP.RateLimitBurst,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-quit:
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildStore creates the vector index store for the configured driver.
func buildStore(cfg config.IndexConfig) (db.Store, error) {
	switch cfg.Driver {
	case "qdrant":
		return dbQdrant.NewStore(dbQdrant.Config{
			URL:      cfg.URL,
			APIKey:   cfg.APIKey,
			GRPCPort: cfg.GRPCPort,
		})
	case "valkey":
		return dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
	default:
		return nil, fmt.Errorf("unknown index driver %q", cfg.Driver)
	}
}

// buildBudget returns nil when no limit is configured. Counters persist only on
// backends that also serve as a key-value store.
func buildBudget(ctx context.Context, cfg config.BudgetConfig, store db.Store, logger *zap.Logger) *budgetuc.Tracker {
	if cfg.DailyTokenLimit <= 0 && cfg.MonthlyTokenLimit <= 0 {
		return nil
	}

	tracker := budgetuc.New(providerName, cfg.DailyTokenLimit, cfg.MonthlyTokenLimit,
		budgetuc.ParseAction(cfg.Action), logger)

	if kv, ok := store.(db.KVStore); ok {
		tracker.WithStore(ctx, budgetrepo.New(kv, 48*time.Hour, 62*24*time.Hour))
		logger.Info("Token budget persisted in index store")
	}
	return tracker
}
