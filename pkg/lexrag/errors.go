package lexrag

import "github.com/kailas-cloud/lexrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation              = domain.ErrValidation
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrSearchProviderError     = domain.ErrSearchProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)
