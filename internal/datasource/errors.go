package datasource

import (
	"errors"
	"fmt"
)

// ErrDataSource is matched by every connection or query failure.
var ErrDataSource = errors.New("tablestat: data source failure")

// Error indicates the database could not be reached or a query failed.
// It is fatal to a run: callers are expected to abort rather than retry.
type Error struct {
	Op    string // connect|query|scan
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "data source error"
	}
	if e.Query != "" {
		return fmt.Sprintf("data source %s failed for %q: %v", e.Op, e.Query, e.Err)
	}
	return fmt.Sprintf("data source %s failed: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrDataSource so callers can use errors.Is without a type assertion.
func (e *Error) Is(target error) bool { return target == ErrDataSource }
