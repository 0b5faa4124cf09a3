package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a model provider is failing while the index is reachable.
	Degraded Status = "degraded"
	// Unhealthy indicates the index is unreachable; no request can succeed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentIndex      = "index"
	ComponentEmbedding  = "embedding"
	ComponentGeneration = "generation"
)

const checkTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates readiness checks.
type Service struct {
	index      IndexPinger
	embedding  UpstreamChecker
	generation UpstreamChecker
}

// New creates a Service. embedding and generation can be nil.
func New(index IndexPinger, embedding, generation UpstreamChecker) *Service {
	return &Service{index: index, embedding: embedding, generation: generation}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	checks[ComponentIndex] = run(ctx, ComponentIndex, s.index.Ping)
	if s.embedding != nil {
		checks[ComponentEmbedding] = run(ctx, ComponentEmbedding, s.embedding.HealthCheck)
	}
	if s.generation != nil {
		checks[ComponentGeneration] = run(ctx, ComponentGeneration, s.generation.HealthCheck)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentIndex] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func run(ctx context.Context, name string, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		logger.FromContext(ctx).Warn("health check failed", zap.String("component", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
