package api

type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	// StatusUnavailable covers transport errors, non-2xx answers, bad JSON and a missing key.
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is the outcome of one catalog call. Callers pick between an empty
// state and a retry by looking at Status instead of at an error.
type Result[T any] struct {
	Status Status
	Data   T
	Err    error
}

func OK[T any](data T) Result[T] {
	return Result[T]{Status: StatusOK, Data: data}
}

func NotFound[T any]() Result[T] {
	return Result[T]{Status: StatusNotFound}
}

func Unavailable[T any](err error) Result[T] {
	return Result[T]{Status: StatusUnavailable, Err: err}
}

func (r Result[T]) OK() bool {
	return r.Status == StatusOK
}

// OrEmpty collapses every failure into the zero value.
func (r Result[T]) OrEmpty() T {
	if r.Status != StatusOK {
		var zero T
		return zero
	}
	return r.Data
}
