package timer

import (
	"context"
	"sync"
)

type job func(ctx context.Context) error

// sideEffects runs persistence and notification jobs in order on a single
// goroutine. Enqueue never blocks, so the tick path never waits on storage.
type sideEffects struct {
	mu      sync.Mutex
	pending []job
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	onError func(error)
}

func newSideEffects(onError func(error)) *sideEffects {
	w := &sideEffects{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onError: onError,
	}
	go w.loop()
	return w
}

func (w *sideEffects) enqueue(j job) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = append(w.pending, j)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// close stops accepting jobs and waits for the queue to drain.
func (w *sideEffects) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	<-w.done
}

func (w *sideEffects) loop() {
	defer close(w.done)
	ctx := context.Background()

	for range w.wake {
		for {
			w.mu.Lock()
			if len(w.pending) == 0 {
				closed := w.closed
				w.mu.Unlock()
				if closed {
					return
				}
				break
			}
			next := w.pending[0]
			w.pending[0] = nil
			w.pending = w.pending[1:]
			w.mu.Unlock()

			if err := next(ctx); err != nil && w.onError != nil {
				w.onError(err)
			}
		}
	}
}
