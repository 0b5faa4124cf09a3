package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/domain"
	"github.com/kailas-cloud/lexrag/internal/logger"
)

// Timeouts bounds each upstream call. Zero leaves the call bounded only by the caller's context.
type Timeouts struct {
	Embed    time.Duration
	Search   time.Duration
	Generate time.Duration
}

// Service runs the embed → retrieve → generate pipeline for one question.
// Calls are strictly sequential; the service holds no per-request state.
type Service struct {
	embed    Embedder
	retrieve Retriever
	answer   Answerer
	timeouts Timeouts
}

// New creates a chat service.
func New(embed Embedder, retrieve Retriever, answer Answerer, timeouts Timeouts) *Service {
	return &Service{embed: embed, retrieve: retrieve, answer: answer, timeouts: timeouts}
}

// Ask answers q from the owner's passages. No passages still yields an answer
// (the model is told to say the excerpts are insufficient) with empty citations.
func (s *Service) Ask(ctx context.Context, q domain.Query) (domain.Answer, error) {
	citations, err := s.Retrieve(ctx, q)
	if err != nil {
		return domain.Answer{}, err
	}

	gctx, cancel := withTimeout(ctx, s.timeouts.Generate)
	defer cancel()

	text, err := s.answer.Generate(gctx, q.Text(), citations)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("answer: %w", err)
	}

	return domain.Answer{Text: text, Citations: citations}, nil
}

// Retrieve embeds q and returns up to q.TopK() citations owned by q.Owner(), best first.
func (s *Service) Retrieve(ctx context.Context, q domain.Query) ([]domain.Citation, error) {
	ectx, cancel := withTimeout(ctx, s.timeouts.Embed)
	emb, err := s.embed.Embed(ectx, q.Text())
	cancel()
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sctx, cancel := withTimeout(ctx, s.timeouts.Search)
	citations, err := s.retrieve.Search(sctx, emb.Embedding, q.Owner(), q.TopK())
	cancel()
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	if citations == nil {
		citations = []domain.Citation{}
	}

	logger.FromContext(ctx).Debug("retrieved passages",
		zap.String("owner", q.Owner()),
		zap.Int("top_k", q.TopK()),
		zap.Int("citations", len(citations)),
	)
	return citations, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
