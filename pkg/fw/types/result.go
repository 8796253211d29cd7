package types

// Result carries either a value or the error that prevented it. It is used at
// fetch boundaries so fallback branches stay explicit.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports success.
func (r Result[T]) OK() bool { return r.Err == nil }

// Get unpacks the result.
func (r Result[T]) Get() (T, error) { return r.Value, r.Err }
