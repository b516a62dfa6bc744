package tasks

// Result carries a background task's outcome.
type Result[T any] struct {
	Value T
	Err   error
}

// Go runs fn on its own goroutine and returns a channel that delivers
// exactly one Result and is then closed. The channel is buffered, so the
// task never blocks on a caller that stopped listening.
func Go[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
