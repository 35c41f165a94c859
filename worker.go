package quotecard

import (
	"errors"
	"fmt"
	"sync"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("quotecard: renderer closed")

type job struct {
	fn   func() error
	done chan error
}

// graphicsContext runs drawing work one job at a time on a single
// goroutine. Submitters block until their job has run.
type graphicsContext struct {
	jobs    chan job
	mu      sync.RWMutex
	closed  bool
	stopped chan struct{}
	depth   func(int)
}

func newGraphicsContext(queue int, depth func(int)) *graphicsContext {
	if queue < 1 {
		queue = 1
	}
	if depth == nil {
		depth = func(int) {}
	}
	g := &graphicsContext{
		jobs:    make(chan job, queue),
		stopped: make(chan struct{}),
		depth:   depth,
	}
	go g.loop()
	return g
}

func (g *graphicsContext) loop() {
	defer close(g.stopped)
	for j := range g.jobs {
		g.depth(len(g.jobs))
		j.done <- runJob(j.fn)
	}
}

// runJob runs fn, reporting a panic as an error.
func runJob(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// Do queues fn and waits for it to finish.
func (g *graphicsContext) Do(fn func() error) error {
	done := make(chan error, 1)
	g.mu.RLock()
	if g.closed {
		g.mu.RUnlock()
		return ErrClosed
	}
	g.jobs <- job{fn: fn, done: done}
	g.depth(len(g.jobs))
	g.mu.RUnlock()
	return <-done
}

// Close stops accepting work and waits for queued jobs to drain.
func (g *graphicsContext) Close() {
	g.mu.Lock()
	if !g.closed {
		g.closed = true
		close(g.jobs)
	}
	g.mu.Unlock()
	<-g.stopped
}
