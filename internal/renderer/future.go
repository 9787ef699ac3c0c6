package renderer

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("renderer: future closed without a result")

type Result[T any] struct {
	Value T
	Err   error
}

// Future is a renderer result that settles on a later turn of the event
// loop. It delivers exactly one Result.
type Future[T any] <-chan Result[T]

// Await blocks until the future settles.
func (f Future[T]) Await() (T, error) {
	r, ok := <-f
	if !ok {
		var zero T
		return zero, ErrClosed
	}
	return r.Value, r.Err
}

// Wait blocks until the future settles and reports only the error.
func (f Future[T]) Wait() error {
	_, err := f.Await()
	return err
}

func Resolved[T any](v T) Future[T] {
	ch := make(chan Result[T], 1)
	ch <- Result[T]{Value: v}
	return ch
}

func Rejected[T any](err error) Future[T] {
	ch := make(chan Result[T], 1)
	ch <- Result[T]{Err: err}
	return ch
}

// Promise is the settling side of a Future. Only the first Resolve or Reject
// has an effect.
type Promise[T any] struct {
	ch   chan Result[T]
	once sync.Once
}

func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{ch: make(chan Result[T], 1)}
}

func (p *Promise[T]) Future() Future[T] {
	return p.ch
}

func (p *Promise[T]) Resolve(v T) {
	p.once.Do(func() { p.ch <- Result[T]{Value: v} })
}

func (p *Promise[T]) Reject(err error) {
	p.once.Do(func() { p.ch <- Result[T]{Err: err} })
}
