package clock

import (
	"log"
	"sync"
	"time"
)

// idleWait is how long the dispatcher sleeps when nothing is scheduled.
const idleWait = time.Hour

// Loop runs scheduled callbacks on a single dispatcher goroutine, one at a
// time, against wall-clock time.
//
// Host code that touches state owned by loop callbacks must run inside Do.
// Do and callback dispatch are mutually exclusive, so a Cancel issued inside
// Do is synchronous: once Do returns the cancelled callback cannot run.
type Loop struct {
	mu      sync.Mutex // guards pending
	exec    sync.Mutex // held while a callback or Do body runs
	pending queue

	wake   chan struct{}
	done   chan struct{}
	closed sync.Once
	logger *log.Logger
}

// NewLoop starts a dispatcher goroutine. Call Close to stop it.
func NewLoop(logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
	go l.run()
	return l
}

func (l *Loop) Now() time.Time                  { return time.Now() }
func (l *Loop) Since(t time.Time) time.Duration { return time.Since(t) }

func (l *Loop) Schedule(delay time.Duration, fn func()) *Handle {
	if delay < 0 {
		delay = 0
	}
	l.mu.Lock()
	h := l.pending.add(time.Now().Add(delay), fn)
	l.mu.Unlock()
	l.notify()
	return h
}

func (l *Loop) Cancel(h *Handle) {
	l.mu.Lock()
	l.pending.remove(h)
	l.mu.Unlock()
}

// Do runs fn on the loop's logical thread. It must not be called from
// inside a loop callback.
func (l *Loop) Do(fn func()) {
	l.exec.Lock()
	defer l.exec.Unlock()
	fn()
}

// Pending returns the number of callbacks waiting to fire.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.Len()
}

// Close stops the dispatcher. Pending callbacks never run.
func (l *Loop) Close() {
	l.closed.Do(func() {
		close(l.done)
	})
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		wait := idleWait
		l.mu.Lock()
		if next := l.pending.peek(); next != nil {
			wait = time.Until(next.at)
		}
		l.mu.Unlock()
		timer.Reset(wait)

		select {
		case <-l.done:
			return
		case <-l.wake:
		case <-timer.C:
			l.dispatch()
		}
	}
}

func (l *Loop) dispatch() {
	l.exec.Lock()
	defer l.exec.Unlock()
	for {
		select {
		case <-l.done:
			return
		default:
		}
		l.mu.Lock()
		h := l.pending.popDue(time.Now())
		l.mu.Unlock()
		if h == nil {
			return
		}
		l.invoke(h)
	}
}

// invoke recovers a panicking callback so one bad cue cannot stop the loop.
func (l *Loop) invoke(h *Handle) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Printf("clock: callback panic: %v", r)
		}
	}()
	h.fn()
}
