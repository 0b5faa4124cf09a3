package domain

import (
	"fmt"
	"strings"
)

// KeyPrefix namespaces every key this service writes to a key-value store.
const KeyPrefix = "lexrag:"

// QueryLimits bounds owner resolution and top-k for incoming queries.
type QueryLimits struct {
	OwnerDefault string
	DefaultTopK  int
	MaxTopK      int
}

// Query is a single owner-scoped question.
type Query struct {
	text  string
	owner string
	topK  int
}

// NewQuery validates a raw request and resolves defaults.
// An empty owner falls back to limits.OwnerDefault; a nil topK to limits.DefaultTopK.
// topK above limits.MaxTopK is clamped, below 1 is rejected.
func NewQuery(text, owner string, topK *int, limits QueryLimits) (Query, error) {
	if strings.TrimSpace(text) == "" {
		return Query{}, fmt.Errorf("%w: query is required", ErrValidation)
	}

	if owner == "" {
		owner = limits.OwnerDefault
	}

	k := limits.DefaultTopK
	if topK != nil {
		k = *topK
	}
	if k < 1 {
		return Query{}, fmt.Errorf("%w: top_k must be at least 1, got %d", ErrValidation, k)
	}
	if limits.MaxTopK > 0 && k > limits.MaxTopK {
		k = limits.MaxTopK
	}

	return Query{text: text, owner: owner, topK: k}, nil
}

// Text returns the question as sent by the caller.
func (q Query) Text() string { return q.text }

// Owner returns the resolved owner.
func (q Query) Owner() string { return q.owner }

// TopK returns the resolved number of passages to retrieve.
func (q Query) TopK() int { return q.topK }
