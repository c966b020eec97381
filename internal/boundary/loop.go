// Package boundary hands values from the capture thread to consumer callbacks
// that run on a separate event loop goroutine.
//
// The producer side only ever submits: Submit and Func.Call never wait for the
// callback to run, and a full or closed loop drops the invocation.
package boundary

import (
	"context"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize is used when NewLoop is given a non-positive size
const DefaultQueueSize = 1024

// Loop executes queued invocations serially on one goroutine
type Loop struct {
	queue chan func()
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	once    sync.Once
	running atomic.Bool
}

// NewLoop creates a loop with room for queueSize pending invocations.
// The loop does nothing until Run is called.
func NewLoop(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes invocations until ctx is cancelled or Close is called.
// Invocations still queued when the loop closes are discarded.
// A loop runs at most once; later calls return immediately.
func (l *Loop) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		log.Println("Boundary: loop already running")
		return
	}
	for {
		select {
		case fn := <-l.queue:
			l.invoke(fn)
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		}
	}
}

// Start runs the loop on a new goroutine
func (l *Loop) Start(ctx context.Context) {
	go l.Run(ctx)
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Boundary: callback panicked: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}

// Submit queues fn without blocking.
func (l *Loop) Submit(fn func()) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the loop. Further submissions fail with ErrClosed.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.done)
	})
}

// Done is closed once the loop has been closed
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Pending returns the number of queued invocations
func (l *Loop) Pending() int {
	return len(l.queue)
}
