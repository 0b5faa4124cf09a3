package db

import "github.com/kailas-cloud/lexrag/internal/domain/filter"

// Payload field names stored with every indexed passage.
const (
	FieldOwner   = "owner"
	FieldText    = "text"
	FieldDocID   = "doc_id"
	FieldLawName = "law_name"
)

// PassageFields is the default projection for passage lookups.
var PassageFields = []string{FieldOwner, FieldText, FieldDocID, FieldLawName}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Fields holds normalized payload values;
// a key absent from Fields means the payload had no value (or null) for it.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
