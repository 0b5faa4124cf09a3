package chi

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/domain"
	"github.com/kailas-cloud/lexrag/internal/logger"
	chatuc "github.com/kailas-cloud/lexrag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/lexrag/internal/usecase/health"
	usageuc "github.com/kailas-cloud/lexrag/internal/usecase/usage"
)

// maxBodyBytes bounds request bodies; a question never needs more.
const maxBodyBytes = 1 << 20

//go:embed openapi.yaml
var openAPIDoc []byte

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the lexrag HTTP API.
type Server struct {
	chat          *chatuc.Service
	health        *healthuc.Service
	usage         *usageuc.Service
	limits        domain.QueryLimits
	collection    string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	health *healthuc.Service,
	usage *usageuc.Service,
	limits domain.QueryLimits,
	collection string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:       chat,
		health:     health,
		usage:      usage,
		limits:     limits,
		collection: collection,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusTooManyRequests, CodeBudgetExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProvider),
		sentinelHandler(domain.ErrSearchProviderError, http.StatusBadGateway, CodeSearchProvider),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, CodeGenerationFailed),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.Liveness)
	r.Get("/ready", s.Readiness)
	r.Get("/docs", s.Docs)
	r.Get("/usage", s.GetUsage)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/chat", s.Chat)
	r.Post("/v1/chat", s.Chat)
	r.Post("/search", s.Search)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{Status: "running", Docs: "/docs"})
}

// Liveness handles GET /health. It never touches upstreams.
func (s *Server) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, LivenessResponse{Status: "ok", Collection: s.collection})
}

// Readiness handles GET /ready.
func (s *Server) Readiness(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, ReadinessResponse{Status: string(report.Status), Checks: checks})
}

// Docs handles GET /docs.
func (s *Server) Docs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDoc)
}

// Chat handles POST /chat and POST /v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.chat.Ask(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:    ans.Text,
		Citations: citationsToDTO(ans.Citations),
	})
}

// Search handles POST /search: retrieval only, no generation.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q, ok := s.decodeQuery(w, r)
	if !ok {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	citations, err := s.chat.Retrieve(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, SearchResponse{OK: true, Contexts: citationsToContexts(citations)})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, err := usageuc.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:          string(report.Period),
		PeriodStartAt:   report.PeriodStart,
		PeriodEndAt:     report.PeriodEnd,
		TokensUsed:      report.TokensUsed,
		TokensLimit:     report.Limit,
		TokensRemaining: report.Remaining,
		IsExhausted:     report.Exhausted,
	})
}

// decodeQuery parses the request body into a domain.Query, writing a 400 on failure.
func (s *Server) decodeQuery(w http.ResponseWriter, r *http.Request) (domain.Query, bool) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return domain.Query{}, false
	}

	q, err := domain.NewQuery(req.Query, req.Owner, req.TopK, s.limits)
	if err != nil {
		s.handleDomainError(w, r, err)
		return domain.Query{}, false
	}
	return q, true
}

func setUsageHeaders(w http.ResponseWriter, u *domain.Usage) {
	if u == nil {
		return
	}
	if u.Embedded {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(u.EmbeddingTokens))
	}
	if u.Generated {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(u.CompletionTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail, Code: code})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrBudgetExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrSearchProviderError,
		domain.ErrGenerationProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler surfaces the validation reason ("query is required") to the caller.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	if _, reason, ok := strings.Cut(err.Error(), fmt.Sprintf("%s: ", domain.ErrValidation)); ok && reason != "" {
		msg = reason
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
