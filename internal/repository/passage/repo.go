package passage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lexrag/internal/db"
	"github.com/kailas-cloud/lexrag/internal/domain"
	"github.com/kailas-cloud/lexrag/internal/domain/filter"
	"github.com/kailas-cloud/lexrag/internal/logger"
	"github.com/kailas-cloud/lexrag/internal/metrics"
)

// store is the consumer interface for retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/chat.Retriever over a vector index collection.
type Repo struct {
	store      store
	backend    string
	collection string
	maxChars   int
}

// New creates a passage repository.
// backend labels metrics ("qdrant", "valkey"); maxChars bounds citation text (0 = default).
func New(s store, backend, collection string, maxChars int) *Repo {
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxCitationChars
	}
	return &Repo{store: s, backend: backend, collection: collection, maxChars: maxChars}
}

// Search returns at most k citations owned by owner, best first.
// No matches is an empty slice, not an error.
func (r *Repo) Search(ctx context.Context, vector []float32, owner string, k int) ([]domain.Citation, error) {
	scope, err := filter.ForOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	start := time.Now()
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.collection,
		Filters:      scope,
		Vector:       vector,
		K:            k,
		ReturnFields: db.PassageFields,
	})
	metrics.SearchRequestDuration.WithLabelValues(r.backend).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(r.backend, "error").Inc()
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrSearchProviderError, r.collection, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues(r.backend, "ok").Inc()

	citations := r.toCitations(ctx, sr, owner, k)
	metrics.SearchResults.WithLabelValues(r.backend).Observe(float64(len(citations)))
	return citations, nil
}

// toCitations maps hits to citations: drops foreign owners, truncates text,
// orders by descending score (stable, so index order wins on ties) and caps at k.
func (r *Repo) toCitations(ctx context.Context, sr *db.SearchResult, owner string, k int) []domain.Citation {
	citations := make([]domain.Citation, 0)
	if sr == nil {
		return citations
	}

	for _, e := range sr.Entries {
		got, hasOwner := e.Fields[db.FieldOwner]
		if hasOwner && got != owner {
			metrics.SearchOwnerMismatchTotal.WithLabelValues(r.backend).Inc()
			logger.FromContext(ctx).Warn("dropping hit with foreign owner",
				zap.String("key", e.Key),
				zap.String("collection", r.collection),
			)
			continue
		}
		citations = append(citations, domain.Citation{
			Score:   e.Score,
			Text:    domain.TruncateText(e.Fields[db.FieldText], r.maxChars),
			DocID:   optional(e.Fields, db.FieldDocID),
			LawName: optional(e.Fields, db.FieldLawName),
			Owner:   owner,
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].Score > citations[j].Score
	})
	if len(citations) > k {
		citations = citations[:k]
	}
	return citations
}

func optional(fields map[string]string, key string) *string {
	v, ok := fields[key]
	if !ok {
		return nil
	}
	return &v
}
