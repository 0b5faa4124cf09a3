package chat

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/lexrag/internal/domain"
)

var limits = domain.QueryLimits{OwnerDefault: "user_test_001", DefaultTopK: 5, MaxTopK: 20}

type fakeEmbedder struct {
	err   error
	calls int
	dl    bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	_, f.dl = ctx.Deadline()
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 7}, nil
}

// fakeIndex holds passages per owner and only ever returns the requested owner's passages.
type fakeIndex struct {
	byOwner map[string][]domain.Citation
	err     error
	calls   int
	gotK    int
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, owner string, k int) ([]domain.Citation, error) {
	f.calls++
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Citation, 0)
	for _, c := range f.byOwner[owner] {
		if len(out) == k {
			break
		}
		out = append(out, c)
	}
	return out, nil
}

type fakeAnswerer struct {
	err      error
	calls    int
	lastCite []domain.Citation
	dl       bool
}

func (f *fakeAnswerer) Generate(ctx context.Context, _ string, citations []domain.Citation) (string, error) {
	f.calls++
	f.lastCite = citations
	_, f.dl = ctx.Deadline()
	if f.err != nil {
		return "", f.err
	}
	if len(citations) == 0 {
		return "المقتطفات المتاحة لا تكفي لإجابة دقيقة", nil
	}
	return fmt.Sprintf("answer from %d excerpts [1]", len(citations)), nil
}

func cite(owner, text string, score float64) domain.Citation {
	return domain.Citation{Owner: owner, Text: text, Score: score}
}

func twoOwnerIndex() *fakeIndex {
	return &fakeIndex{byOwner: map[string][]domain.Citation{
		"alice": {cite("alice", "a1", 0.9), cite("alice", "a2", 0.8), cite("alice", "a3", 0.7)},
		"bob":   {cite("bob", "b1", 0.95), cite("bob", "b2", 0.6)},
	}}
}

func mustQuery(t *testing.T, text, owner string, k *int) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(text, owner, k, limits)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return q
}

func TestAsk_HappyPath(t *testing.T) {
	emb, idx, ans := &fakeEmbedder{}, twoOwnerIndex(), &fakeAnswerer{}
	svc := New(emb, idx, ans, Timeouts{})

	got, err := svc.Ask(context.Background(), mustQuery(t, "سؤال", "alice", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Citations) != 3 {
		t.Fatalf("expected 3 citations, got %d", len(got.Citations))
	}
	if got.Text == "" {
		t.Error("expected non-empty answer")
	}
	if emb.calls != 1 || idx.calls != 1 || ans.calls != 1 {
		t.Errorf("expected one call each, got %d/%d/%d", emb.calls, idx.calls, ans.calls)
	}
	if idx.gotK != 5 {
		t.Errorf("expected default k=5, got %d", idx.gotK)
	}
}

func TestAsk_NoLeakageAcrossOwners(t *testing.T) {
	svc := New(&fakeEmbedder{}, twoOwnerIndex(), &fakeAnswerer{}, Timeouts{})

	for _, owner := range []string{"alice", "bob"} {
		got, err := svc.Ask(context.Background(), mustQuery(t, "q", owner, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, c := range got.Citations {
			if c.Owner != owner {
				t.Errorf("owner %s received citation of %s", owner, c.Owner)
			}
		}
	}
}

func TestAsk_UnknownOwnerEmptyCitations(t *testing.T) {
	ans := &fakeAnswerer{}
	svc := New(&fakeEmbedder{}, twoOwnerIndex(), ans, Timeouts{})

	got, err := svc.Ask(context.Background(), mustQuery(t, "q", "nobody", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Citations == nil || len(got.Citations) != 0 {
		t.Errorf("expected empty non-nil citations, got %#v", got.Citations)
	}
	if got.Text == "" {
		t.Error("expected non-empty answer for empty retrieval")
	}
	if ans.calls != 1 {
		t.Error("generator must still be called with empty context")
	}
}

func TestAsk_DefaultOwner(t *testing.T) {
	idx := &fakeIndex{byOwner: map[string][]domain.Citation{
		"user_test_001": {cite("user_test_001", "x", 0.5)},
	}}
	svc := New(&fakeEmbedder{}, idx, &fakeAnswerer{}, Timeouts{})

	got, err := svc.Ask(context.Background(), mustQuery(t, "q", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Citations) != 1 {
		t.Errorf("expected default owner's citation, got %d", len(got.Citations))
	}
}

func TestAsk_TopKRespected(t *testing.T) {
	idx := twoOwnerIndex()
	svc := New(&fakeEmbedder{}, idx, &fakeAnswerer{}, Timeouts{})

	k := 2
	got, err := svc.Ask(context.Background(), mustQuery(t, "q", "alice", &k))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Citations) > 2 || idx.gotK != 2 {
		t.Errorf("expected at most 2 citations (k=%d), got %d", idx.gotK, len(got.Citations))
	}
}

func TestAsk_OrderPreserved(t *testing.T) {
	ans := &fakeAnswerer{}
	svc := New(&fakeEmbedder{}, twoOwnerIndex(), ans, Timeouts{})

	got, err := svc.Ask(context.Background(), mustQuery(t, "q", "alice", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(got.Citations); i++ {
		if got.Citations[i].Score > got.Citations[i-1].Score {
			t.Errorf("citations not in non-increasing order at %d", i)
		}
	}
	if !reflect.DeepEqual(ans.lastCite, got.Citations) {
		t.Error("generator must see citations in the returned order")
	}
}

func TestAsk_Idempotent(t *testing.T) {
	svc := New(&fakeEmbedder{}, twoOwnerIndex(), &fakeAnswerer{}, Timeouts{})
	q := mustQuery(t, "q", "bob", nil)

	first, err := svc.Ask(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Ask(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first.Citations, second.Citations) {
		t.Error("same query against unchanged index must return the same citations")
	}
}

func TestAsk_EmbeddingError(t *testing.T) {
	idx, ans := twoOwnerIndex(), &fakeAnswerer{}
	svc := New(&fakeEmbedder{err: fmt.Errorf("down: %w", domain.ErrEmbeddingProviderError)}, idx, ans, Timeouts{})

	_, err := svc.Ask(context.Background(), mustQuery(t, "q", "alice", nil))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if idx.calls != 0 || ans.calls != 0 {
		t.Error("later stages must not run after an embedding failure")
	}
}

func TestAsk_SearchError(t *testing.T) {
	idx := &fakeIndex{err: fmt.Errorf("down: %w", domain.ErrSearchProviderError)}
	ans := &fakeAnswerer{}
	svc := New(&fakeEmbedder{}, idx, ans, Timeouts{})

	_, err := svc.Ask(context.Background(), mustQuery(t, "q", "alice", nil))
	if !errors.Is(err, domain.ErrSearchProviderError) {
		t.Fatalf("expected ErrSearchProviderError, got %v", err)
	}
	if ans.calls != 0 {
		t.Error("generator must not run after a search failure")
	}
}

func TestAsk_GenerationError(t *testing.T) {
	ans := &fakeAnswerer{err: fmt.Errorf("down: %w", domain.ErrGenerationProviderError)}
	svc := New(&fakeEmbedder{}, twoOwnerIndex(), ans, Timeouts{})

	_, err := svc.Ask(context.Background(), mustQuery(t, "q", "alice", nil))
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestAsk_AppliesTimeouts(t *testing.T) {
	emb, ans := &fakeEmbedder{}, &fakeAnswerer{}
	svc := New(emb, twoOwnerIndex(), ans, Timeouts{Embed: time.Second, Search: time.Second, Generate: time.Second})

	if _, err := svc.Ask(context.Background(), mustQuery(t, "q", "alice", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !emb.dl || !ans.dl {
		t.Error("expected per-call deadlines on embed and generate")
	}
}

func TestRetrieve_SkipsGeneration(t *testing.T) {
	ans := &fakeAnswerer{}
	svc := New(&fakeEmbedder{}, twoOwnerIndex(), ans, Timeouts{})

	got, err := svc.Retrieve(context.Background(), mustQuery(t, "q", "bob", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 citations, got %d", len(got))
	}
	if ans.calls != 0 {
		t.Error("retrieve must not call the generator")
	}
}
