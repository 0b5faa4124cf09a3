package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/lexrag/internal/domain"
)

// BudgetChecker is the local interface for budget enforcement.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
}

// Service composes a cited answer from retrieved passages.
type Service struct {
	completer domain.Completer
	prompts   Prompts
	budget    BudgetChecker
}

// New creates an answer service. budget may be nil (unlimited).
func New(c domain.Completer, prompts Prompts, budget BudgetChecker) *Service {
	return &Service{completer: c, prompts: prompts.withDefaults(), budget: budget}
}

// Generate asks the chat model to answer question from citations only.
// With no citations the model is still called and is expected to reply with the fallback phrase.
func (s *Service) Generate(ctx context.Context, question string, citations []domain.Citation) (string, error) {
	if s.budget != nil {
		if err := s.budget.Check(ctx); err != nil {
			return "", fmt.Errorf("budget check: %w", err)
		}
	}

	res, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      s.prompts.System,
		User:        BuildPrompt(question, citations, s.prompts),
		Temperature: s.prompts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if s.budget != nil {
		s.budget.Record(int64(res.TotalTokens))
	}
	domain.UsageFromContext(ctx).AddCompletionTokens(res.TotalTokens)

	return strings.TrimSpace(res.Text), nil
}

// HealthCheck proxies to the completer when it supports health checks.
func (s *Service) HealthCheck(ctx context.Context) error {
	hc, ok := s.completer.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("generation health: %w", err)
	}
	return nil
}
