package lexrag

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/lexrag/internal/db"
)

// --- db.Store mock ---

type mockStore struct {
	entries []db.SearchEntry
	pingErr error
	closed  bool
	lastK   int
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastK = q.K
	owner, _ := q.Filters.Owner()
	res := &db.SearchResult{}
	for _, e := range m.entries {
		if e.Fields[db.FieldOwner] == owner && len(res.Entries) < q.K {
			res.Entries = append(res.Entries, e)
		}
	}
	res.Total = len(res.Entries)
	return res, nil
}

func (m *mockStore) Close() { m.closed = true }

func (m *mockStore) WaitForReady(ctx context.Context, _ time.Duration) error { return m.Ping(ctx) }

// --- provider mocks ---

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return EmbeddingResult{}, m.err
	}
	return EmbeddingResult{Embedding: []float32{0.3, 0.4}, PromptTokens: 6, TotalTokens: 6}, nil
}

type mockCompleter struct {
	err      error
	calls    int
	lastUser string
	lastTemp float32
}

func (m *mockCompleter) Complete(_ context.Context, _, user string, temperature float32) (Completion, error) {
	m.calls++
	m.lastUser = user
	m.lastTemp = temperature
	if m.err != nil {
		return Completion{}, m.err
	}
	return Completion{Text: " الجواب [1] ", TotalTokens: 50}, nil
}

var errProviderDown = errors.New("provider down")

func strPtr(s string) *string { return &s }

func testEntries() []db.SearchEntry {
	return []db.SearchEntry{
		{Key: "a", Score: 0.9, Fields: map[string]string{
			db.FieldOwner: "acme", db.FieldText: "passage a", db.FieldDocID: "a", db.FieldLawName: "نظام العمل",
		}},
		{Key: "b", Score: 0.8, Fields: map[string]string{
			db.FieldOwner: "user_test_001", db.FieldText: "passage b", db.FieldDocID: "b",
		}},
	}
}

func testClient(store *mockStore, emb *mockEmbedder, comp *mockCompleter, opts ...Option) *Client {
	cfg := defaultConfig()
	cfg.driver = "memory"
	cfg.embedder = emb
	cfg.completer = comp
	for _, o := range opts {
		o.apply(cfg)
	}
	obs, _ := newObserver(cfg.logger, cfg.metricsReg)
	return wireClient(store, cfg, obs)
}
