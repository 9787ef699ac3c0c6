package store

import (
	"fmt"
	"log/slog"
	"sync"
)

// Reducer computes the next state from the current state and an action. It
// must not mutate its input and must return the input unchanged for actions
// it does not handle.
type Reducer[S, A any] func(state S, action A) S

type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to trace dispatches at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type subscription struct {
	listener func()
}

// Store owns the current state. Dispatch is the only writer; subscribers are
// notified synchronously, in registration order, after every dispatch.
type Store[S, A any] struct {
	mu      sync.Mutex
	reducer Reducer[S, A]
	state   S
	// subs is copy-on-write so a notification pass can keep the slice it
	// started with while listeners come and go.
	subs        []*subscription
	queue       []A
	dispatching bool
	logger      *slog.Logger
}

func New[S, A any](reducer Reducer[S, A], initial S, opts ...Option) *Store[S, A] {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[S, A]{
		reducer: reducer,
		state:   initial,
		logger:  o.logger,
	}
}

// GetState returns the current state snapshot.
func (s *Store[S, A]) GetState() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies the reducer and notifies every subscriber. A dispatch made
// while a notification pass is running is queued and applied once that pass
// has finished, so passes never interleave.
func (s *Store[S, A]) Dispatch(action A) {
	s.mu.Lock()
	s.queue = append(s.queue, action)
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	s.mu.Unlock()

	finished := false
	defer func() {
		if finished {
			return
		}
		// a listener panicked; drop whatever was queued behind it
		s.mu.Lock()
		s.dispatching = false
		s.queue = nil
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.dispatching = false
			s.mu.Unlock()
			finished = true
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.state = s.reducer(s.state, next)
		pass := s.subs
		s.mu.Unlock()

		s.logger.Debug("dispatch", slog.String("action", fmt.Sprintf("%T", next)), slog.Int("listeners", len(pass)))
		for _, sub := range pass {
			sub.listener()
		}
	}
}

// Subscribe registers listener and returns a function that removes it.
// Removing a listener during a notification pass does not stop it from
// running in that pass.
func (s *Store[S, A]) Subscribe(listener func()) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}
	sub := &subscription{listener: listener}

	s.mu.Lock()
	subs := make([]*subscription, len(s.subs), len(s.subs)+1)
	copy(subs, s.subs)
	s.subs = append(subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			remaining := make([]*subscription, 0, len(s.subs))
			for _, existing := range s.subs {
				if existing != sub {
					remaining = append(remaining, existing)
				}
			}
			s.subs = remaining
		})
	}
}
