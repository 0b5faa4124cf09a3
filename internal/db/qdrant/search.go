package qdrant

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	qc "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/lexrag/internal/db"
	"github.com/kailas-cloud/lexrag/internal/domain/filter"
)

// SearchKNN runs a nearest-neighbour query with the filter applied server-side.
// Hits come back in the order Qdrant returns them (descending score).
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("collection name is required: %w", db.ErrInvalidQuery)
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required: %w", db.ErrInvalidQuery)
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", db.ErrInvalidQuery)
	}

	points, err := s.client.Query(ctx, buildQuery(q))
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("%s: %w", q.IndexName, db.ErrIndexNotFound)}
		}
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(points))
	for _, p := range points {
		entries = append(entries, toEntry(p, q.ReturnFields))
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func buildQuery(q *db.KNNQuery) *qc.QueryPoints {
	req := &qc.QueryPoints{
		CollectionName: q.IndexName,
		Query:          qc.NewQuery(q.Vector...),
		Limit:          qc.PtrOf(uint64(q.K)),
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(false),
	}
	if len(q.ReturnFields) > 0 {
		req.WithPayload = qc.NewWithPayloadInclude(q.ReturnFields...)
	}
	if f := buildFilter(q.Filters); f != nil {
		req.Filter = f
	}
	return req
}

// buildFilter translates filter.Expression into a Qdrant keyword-match filter.
func buildFilter(expr filter.Expression) *qc.Filter {
	if expr.IsEmpty() {
		return nil
	}
	f := &qc.Filter{}
	for _, c := range expr.Must() {
		f.Must = append(f.Must, qc.NewMatch(c.Key(), c.Match()))
	}
	for _, c := range expr.MustNot() {
		f.MustNot = append(f.MustNot, qc.NewMatch(c.Key(), c.Match()))
	}
	return f
}

// toEntry is the single place where Qdrant payload values are normalized.
// Strings pass through, numbers are formatted, null and unsupported kinds are dropped.
func toEntry(p *qc.ScoredPoint, fields []string) db.SearchEntry {
	entry := db.SearchEntry{
		Key:    pointKey(p.GetId()),
		Score:  float64(p.GetScore()),
		Fields: make(map[string]string, len(p.GetPayload())),
	}
	for name, v := range p.GetPayload() {
		if len(fields) > 0 && !slices.Contains(fields, name) {
			continue
		}
		if s, ok := normalizeValue(v); ok {
			entry.Fields[name] = s
		}
	}
	return entry
}

func normalizeValue(v *qc.Value) (string, bool) {
	if v == nil {
		return "", false
	}
	switch k := v.GetKind().(type) {
	case *qc.Value_StringValue:
		return k.StringValue, true
	case *qc.Value_IntegerValue:
		return strconv.FormatInt(k.IntegerValue, 10), true
	case *qc.Value_DoubleValue:
		return strconv.FormatFloat(k.DoubleValue, 'f', -1, 64), true
	case *qc.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), true
	default:
		return "", false
	}
}

func pointKey(id *qc.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}
