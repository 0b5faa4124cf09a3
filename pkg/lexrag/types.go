package lexrag

import "github.com/kailas-cloud/lexrag/internal/domain"

// Request is one question. Empty Owner uses the client's default owner;
// zero TopK uses the client's default.
type Request struct {
	Query string
	Owner string
	TopK  int
}

// Citation is a retrieved passage. DocID and LawName are nil when the passage lacks them.
type Citation struct {
	Score   float64
	Text    string
	DocID   *string
	LawName *string
}

// Usage reports tokens consumed by one call.
type Usage struct {
	EmbeddingTokens  int
	CompletionTokens int
}

// Answer is the generated text and the passages it cites, best first.
type Answer struct {
	Text      string
	Citations []Citation
	Usage     Usage
}

func citationsFromDomain(cc []domain.Citation) []Citation {
	out := make([]Citation, len(cc))
	for i, c := range cc {
		out[i] = Citation{Score: c.Score, Text: c.Text, DocID: c.DocID, LawName: c.LawName}
	}
	return out
}

func usageFromDomain(u *domain.Usage) Usage {
	if u == nil {
		return Usage{}
	}
	return Usage{EmbeddingTokens: u.EmbeddingTokens, CompletionTokens: u.CompletionTokens}
}
