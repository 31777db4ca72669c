// Package ticker runs a repeating task on a dedicated goroutine with
// frame-interval pacing.
package ticker

import (
	"errors"
	"sync"
	"time"

	"github.com/user/mediaplay/pkg/ports"
)

var (
	// ErrAlreadyRegistered is returned when a task is still active.
	ErrAlreadyRegistered = errors.New("ticker: a task is already registered")
	// ErrInvalidInterval is returned for non-positive intervals.
	ErrInvalidInterval = errors.New("ticker: interval must be positive")
)

// Scheduler implements ports.Scheduler. One task at a time; a new task can be
// registered after the previous one was unregistered or finished.
type Scheduler struct {
	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	active bool

	now   func() time.Time
	ticks uint64
}

// New creates an idle scheduler.
func New() *Scheduler {
	return &Scheduler{now: time.Now}
}

// Register starts a worker invoking task every interval. With SleepUntil the
// n-th invocation targets start + n*interval; when the worker falls more than
// one interval behind, the schedule re-anchors to the current time instead of
// bursting to catch up.
func (s *Scheduler) Register(task func() bool, interval time.Duration, policy ports.SleepPolicy) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		select {
		case <-s.done:
		default:
			return ErrAlreadyRegistered
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.stop, s.done, s.active = stop, done, true
	s.ticks = 0

	go s.run(task, interval, policy, stop, done)
	return nil
}

func (s *Scheduler) run(task func() bool, interval time.Duration, policy ports.SleepPolicy, stop, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	next := s.now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		if !task() {
			return
		}
		s.mu.Lock()
		s.ticks++
		s.mu.Unlock()

		now := s.now()
		switch policy {
		case ports.SleepFor:
			next = now.Add(interval)
		default:
			next = next.Add(interval)
			if now.Sub(next) > interval {
				next = now
			}
		}

		wait := next.Sub(now)
		if wait <= 0 {
			continue
		}
		timer.Reset(wait)
		select {
		case <-stop:
			return
		case <-timer.C:
		}
	}
}

// Unregister stops the worker and waits until the in-flight invocation, if
// any, has returned. Must not be called from inside the task.
func (s *Scheduler) Unregister() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	stop, done := s.stop, s.done
	s.active = false
	s.mu.Unlock()

	close(stop)
	<-done
}

// Running reports whether the worker is still invoking the task.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Ticks returns how many times the current task has completed.
func (s *Scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

var _ ports.Scheduler = (*Scheduler)(nil)
