package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/domain"
	chatuc "github.com/kailas-cloud/lexrag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/lexrag/internal/usecase/health"
	usageuc "github.com/kailas-cloud/lexrag/internal/usecase/usage"
)

var testLimits = domain.QueryLimits{OwnerDefault: "user_test_001", DefaultTopK: 5, MaxTopK: 20}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	domain.UsageFromContext(ctx).AddEmbeddingTokens(9)
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 9}, nil
}

// fakeRetriever returns only the requested owner's passages.
type fakeRetriever struct {
	byOwner  map[string][]domain.Citation
	err      error
	calls    int
	gotOwner string
	gotK     int
}

func (f *fakeRetriever) Search(_ context.Context, _ []float32, owner string, k int) ([]domain.Citation, error) {
	f.calls++
	f.gotOwner = owner
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	cc := f.byOwner[owner]
	if len(cc) > k {
		cc = cc[:k]
	}
	return cc, nil
}

type fakeAnswerer struct {
	text  string
	err   error
	calls int
	got   []domain.Citation
}

func (f *fakeAnswerer) Generate(ctx context.Context, _ string, cc []domain.Citation) (string, error) {
	f.calls++
	f.got = cc
	if f.err != nil {
		return "", f.err
	}
	domain.UsageFromContext(ctx).AddCompletionTokens(42)
	return f.text, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeChecker struct{ err error }

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }

type fakeBudget struct{ daily, monthly, used int64 }

func (f fakeBudget) DailyLimit() int64   { return f.daily }
func (f fakeBudget) MonthlyLimit() int64 { return f.monthly }
func (f fakeBudget) DailyUsed() int64    { return f.used }
func (f fakeBudget) MonthlyUsed() int64  { return f.used }
func (f fakeBudget) RemainingDaily() int64 {
	return max(f.daily-f.used, 0)
}
func (f fakeBudget) RemainingMonthly() int64 {
	return max(f.monthly-f.used, 0)
}

type testEnv struct {
	embed    *fakeEmbedder
	retrieve *fakeRetriever
	answer   *fakeAnswerer
	handler  http.Handler
}

func (e *testEnv) upstreamCalls() int {
	return e.embed.calls + e.retrieve.calls + e.answer.calls
}

func law(s string) *string { return &s }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		embed: &fakeEmbedder{},
		retrieve: &fakeRetriever{byOwner: map[string][]domain.Citation{
			"user_test_001": {
				{Score: 0.91, Text: "نص المادة الأولى", DocID: law("doc-1"), LawName: law("نظام العمل")},
				{Score: 0.72, Text: "نص المادة الثانية", DocID: law("doc-2")},
			},
			"acme": {
				{Score: 0.88, Text: "acme passage", DocID: law("acme-1"), LawName: law("Acme Law")},
			},
		}},
		answer: &fakeAnswerer{text: "الإجابة [1][2]"},
	}
	env.handler = newTestHandler(t, env.embed, env.retrieve, env.answer, nil)
	return env
}

func newTestHandler(
	t *testing.T, e chatuc.Embedder, r chatuc.Retriever, a chatuc.Answerer, br usageuc.BudgetReader,
) http.Handler {
	t.Helper()
	chat := chatuc.New(e, r, a, chatuc.Timeouts{})
	health := healthuc.New(fakePinger{}, fakeChecker{}, fakeChecker{})
	usage := usageuc.New(br)
	s := NewServer(chat, health, usage, testLimits, "Legal-Docs", zap.NewNop())
	return NewRouter(s, RouterOptions{AllowOrigins: []string{"*"}})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}
