package db

import "errors"

// Sentinel errors for index operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrInvalidQuery  = errors.New("db: invalid query")
)

// Op constants name the backend operation for error context.
const (
	OpPing   = "PING"
	OpReady  = "READY"
	OpSearch = "FT.SEARCH"
	OpQuery  = "QDRANT.QUERY"
	OpGet    = "GET"
	OpIncrBy = "INCRBY"
	OpExpire = "EXPIRE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
