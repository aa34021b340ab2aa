// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

// Status classifies the outcome of one catalog call.
type Status int

const (
	// StatusOK means the call succeeded and returned at least one record.
	StatusOK Status = iota
	// StatusEmpty means the call succeeded but the payload held no records.
	StatusEmpty
	// StatusFailed means the call did not produce a usable payload: a
	// non-200 response, a transport error or an undecodable body.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries the records of a catalog call together with whether the call
// itself failed. Items is empty for both StatusEmpty and StatusFailed, so
// callers that do not care about the difference can range over it directly.
type Result[T any] struct {
	Status Status
	Items  []T
	Err    error
}

func okResult[T any](items []T) Result[T] {
	if len(items) == 0 {
		return Result[T]{Status: StatusEmpty}
	}
	return Result[T]{Status: StatusOK, Items: items}
}

func failedResult[T any](err error) Result[T] {
	return Result[T]{Status: StatusFailed, Err: err}
}

// Failed reports whether the call failed rather than returning no data.
func (r Result[T]) Failed() bool {
	return r.Status == StatusFailed
}
