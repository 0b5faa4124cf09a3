package lexrag

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/lexrag/internal/domain"
)

// Embedder converts text to a vector. Use WithEmbedder to replace the OpenAI embedder.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Completer runs one chat completion. Use WithCompleter to replace the OpenAI chat model.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float32) (Completion, error)
}

// Completion is the model reply and its token usage.
type Completion struct {
	Text        string
	TotalTokens int
}

// embedderAdapter wraps a public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// completerAdapter wraps a public Completer to satisfy domain.Completer.
type completerAdapter struct {
	inner Completer
}

func (a *completerAdapter) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	r, err := a.inner.Complete(ctx, req.System, req.User, req.Temperature)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("%w: %w", domain.ErrGenerationProviderError, err)
	}
	return domain.CompletionResult{Text: r.Text, TotalTokens: r.TotalTokens}, nil
}
