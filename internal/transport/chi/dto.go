package chi

import (
	"time"

	"github.com/kailas-cloud/lexrag/internal/domain"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest        = "bad_request"
	CodeValidationFailed  = "validation_failed"
	CodeBudgetExceeded    = "budget_exceeded"
	CodeRateLimited       = "rate_limited"
	CodeEmbeddingProvider = "embedding_provider_error"
	CodeSearchProvider    = "search_provider_error"
	CodeGenerationFailed  = "generation_provider_error"
	CodeNotFound          = "not_found"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeInternalError     = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// ChatRequest is the body of POST /chat and POST /search.
type ChatRequest struct {
	Query string `json:"query"`
	Owner string `json:"owner,omitempty"`
	TopK  *int   `json:"top_k,omitempty"`
}

// CitationDTO is one cited passage.
type CitationDTO struct {
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	DocID   *string `json:"doc_id"`
	LawName *string `json:"law_name"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Answer    string        `json:"answer"`
	Citations []CitationDTO `json:"citations"`
}

// ContextDTO is one passage in the retrieval-only response.
type ContextDTO struct {
	Text    string  `json:"text"`
	LawName *string `json:"law_name"`
	DocID   *string `json:"doc_id"`
	Score   float64 `json:"score"`
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	OK       bool         `json:"ok"`
	Contexts []ContextDTO `json:"contexts"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Status string `json:"status"`
	Docs   string `json:"docs"`
}

// LivenessResponse is the body of GET /health.
type LivenessResponse struct {
	Status     string `json:"status"`
	Collection string `json:"collection"`
}

// ReadinessResponse is the body of GET /ready.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period          string    `json:"period"`
	PeriodStartAt   time.Time `json:"period_start_at"`
	PeriodEndAt     time.Time `json:"period_end_at"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
}

func citationsToDTO(cc []domain.Citation) []CitationDTO {
	out := make([]CitationDTO, len(cc))
	for i, c := range cc {
		out[i] = CitationDTO{Score: c.Score, Text: c.Text, DocID: c.DocID, LawName: c.LawName}
	}
	return out
}

func citationsToContexts(cc []domain.Citation) []ContextDTO {
	out := make([]ContextDTO, len(cc))
	for i, c := range cc {
		out[i] = ContextDTO{Text: c.Text, LawName: c.LawName, DocID: c.DocID, Score: c.Score}
	}
	return out
}
