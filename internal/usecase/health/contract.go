package health

import "context"

// IndexPinger checks vector index availability.
type IndexPinger interface {
	Ping(ctx context.Context) error
}

// UpstreamChecker checks an upstream model provider (embedding or generation).
type UpstreamChecker interface {
	HealthCheck(ctx context.Context) error
}
