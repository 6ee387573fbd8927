// Package executor provides Strand, the serial executor transports deliver
// their completion handlers on.
package executor

import (
	"sync"

	"dominicbreuker/anysock/pkg/log"

	"github.com/eapache/queue"
)

// Poster schedules work for later execution.
type Poster interface {
	Post(fn func())
}

// Strand runs posted tasks one at a time, in the order they were posted, on a
// single goroutine. That holds across Close as well: tasks posted after Close
// run after the queue has drained, still one at a time.
type Strand struct {
	logger *log.Logger

	mu      sync.Mutex
	tasks   *queue.Queue
	closed  bool
	running bool // a goroutine is draining tasks

	wake     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

// New starts a Strand. The logger may be nil.
func New(logger *log.Logger) *Strand {
	s := &Strand{
		logger:  logger,
		tasks:   queue.New(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		running: true,
	}
	go s.run()
	return s
}

// Post schedules fn and returns immediately. fn runs exactly once and never
// on the caller's stack. Once the Strand is closed and drained, a short-lived
// goroutine runs late tasks.
func (s *Strand) Post(fn func()) {
	s.mu.Lock()
	s.tasks.Add(fn)
	restart := s.closed && !s.running
	if restart {
		s.running = true
	}
	s.mu.Unlock()

	if restart {
		go s.run()
		return
	}
	s.signal()
}

// Pending returns the number of queued tasks.
func (s *Strand) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Length()
}

// Close stops the Strand once the queued tasks have run. It does not wait;
// use Done for that. Calling Close again has no effect.
func (s *Strand) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.signal()
}

// Done is closed once the Strand is closed and every task queued before has run.
func (s *Strand) Done() <-chan struct{} {
	return s.done
}

func (s *Strand) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Strand) run() {
	for {
		s.mu.Lock()
		if s.tasks.Length() == 0 {
			if s.closed {
				s.running = false
				s.mu.Unlock()
				s.doneOnce.Do(func() { close(s.done) })
				return
			}
			s.mu.Unlock()
			<-s.wake
			continue
		}
		fn := s.tasks.Remove().(func())
		s.mu.Unlock()

		s.safeExecute(fn)
	}
}

// safeExecute keeps a panicking task from taking the Strand down.
func (s *Strand) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorMsg("Task panic: %v\n", r)
		}
	}()
	fn()
}

var _ Poster = (*Strand)(nil)
