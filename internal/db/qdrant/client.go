package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/lexrag/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Qdrant store.
type Config struct {
	URL      string // http(s)://host[:port]; scheme selects TLS
	APIKey   string
	GRPCPort int
}

// pointsClient is the subset of the Qdrant client the store uses.
type pointsClient interface {
	Query(ctx context.Context, request *qc.QueryPoints) ([]*qc.ScoredPoint, error)
	HealthCheck(ctx context.Context) (*qc.HealthCheckReply, error)
	Close() error
}

// Store implements db.Store over the Qdrant gRPC API.
type Store struct {
	client pointsClient
}

// NewStore dials Qdrant. The connection is lazy; use WaitForReady to verify it.
func NewStore(cfg Config) (*Store, error) {
	host, useTLS, err := parseEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}
	port := cfg.GRPCPort
	if port <= 0 {
		port = 6334
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// parseEndpoint extracts the host and TLS flag from a Qdrant URL.
// A bare host name is accepted and dialed without TLS.
func parseEndpoint(raw string) (host string, useTLS bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("url is required")
	}
	if !strings.Contains(raw, "://") {
		h, _, _ := strings.Cut(raw, ":")
		return h, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse url: %w", err)
	}
	if u.Hostname() == "" {
		return "", false, fmt.Errorf("url %q has no host", raw)
	}
	return u.Hostname(), u.Scheme == "https", nil
}

// Ping checks connectivity via the gRPC health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	_ = s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}
