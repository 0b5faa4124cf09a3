package qdrant

// NewStoreForTest creates a Store over the provided points client (test-only).
func NewStoreForTest(c pointsClient) *Store {
	return &Store{client: c}
}
