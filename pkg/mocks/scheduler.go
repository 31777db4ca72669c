package mocks

import (
	"errors"
	"sync"
	"time"

	"github.com/user/mediaplay/pkg/ports"
)

// ErrTaskRegistered is returned by Register while a task is active.
var ErrTaskRegistered = errors.New("mocks: task already registered")

// Scheduler is a mock implementation of ports.Scheduler. The task only runs
// when the test calls Tick.
type Scheduler struct {
	RegisterErr error

	mu          sync.Mutex
	task        func() bool
	running     bool
	Interval    time.Duration
	Policy      ports.SleepPolicy
	Registers   int
	Unregisters int
	Ticks       int
}

// NewScheduler creates a new mock Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (m *Scheduler) Register(task func() bool, interval time.Duration, policy ports.SleepPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RegisterErr != nil {
		return m.RegisterErr
	}
	if m.running {
		return ErrTaskRegistered
	}
	m.task = task
	m.running = true
	m.Interval = interval
	m.Policy = policy
	m.Registers++
	return nil
}

func (m *Scheduler) Unregister() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unregisters++
	m.running = false
	m.task = nil
}

func (m *Scheduler) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Tick runs the task once. It returns false when no task is active or the
// task asked to stop.
func (m *Scheduler) Tick() bool {
	m.mu.Lock()
	task := m.task
	running := m.running
	m.mu.Unlock()
	if !running || task == nil {
		return false
	}

	keep := task()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ticks++
	if !keep {
		m.running = false
		m.task = nil
	}
	return keep
}

// TickN runs the task up to n times and returns how many ticks ran.
func (m *Scheduler) TickN(n int) int {
	for i := 0; i < n; i++ {
		if !m.Tick() {
			return i + 1
		}
	}
	return n
}

var _ ports.Scheduler = (*Scheduler)(nil)
