package engine

import "context"

// State of an asynchronous operation result.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

// Result is one emission of an operation stream. UI collaborators consume
// streams of these instead of calling the blocking operations directly.
type Result[T any] struct {
	State   State
	Data    T
	Err     error
	Message string
}

// Loading returns the initial emission of every stream.
func Loading[T any]() Result[T] {
	return Result[T]{State: StateLoading}
}

// Success wraps a terminal successful emission.
func Success[T any](data T) Result[T] {
	return Result[T]{State: StateSuccess, Data: data}
}

// Failure wraps a terminal failed emission with its user-facing message.
func Failure[T any](err error) Result[T] {
	return Result[T]{State: StateError, Err: err, Message: UserMessage(err)}
}

// Stream runs fn asynchronously and returns a channel that emits Loading
// immediately, then exactly one terminal Success or Failure, then closes.
// Cancelling ctx cancels fn; the terminal emission carries ctx.Err().
func Stream[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 2)
	out <- Loading[T]()
	go func() {
		defer close(out)
		data, err := fn(ctx)
		if err != nil {
			out <- Failure[T](err)
			return
		}
		out <- Success(data)
	}()
	return out
}
