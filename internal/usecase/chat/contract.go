package chat

import (
	"context"

	"github.com/kailas-cloud/lexrag/internal/domain"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever finds owner-scoped passages nearest to a vector.
type Retriever interface {
	Search(ctx context.Context, vector []float32, owner string, k int) ([]domain.Citation, error)
}

// Answerer composes a cited answer from passages.
type Answerer interface {
	Generate(ctx context.Context, question string, citations []domain.Citation) (string, error)
}
