package scheduler

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"
)

// DefaultMaxDelay is the longest single wait; longer delays are split into chunks.
const DefaultMaxDelay = time.Duration(math.MaxInt32) * time.Millisecond

// Scheduler runs one-shot deferred jobs. Jobs cannot be cancelled individually;
// Stop drops everything still pending.
type Scheduler struct {
	mu       sync.Mutex
	timers   map[uint64]*time.Timer
	next     uint64
	stopped  bool
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	maxDelay time.Duration
	logger   *slog.Logger
}

type Option func(*Scheduler)

func WithMaxDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.maxDelay = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func New(opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		timers:   make(map[uint64]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
		maxDelay: DefaultMaxDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// After runs fn once delay has elapsed. A non-positive delay runs fn as soon as possible.
func (s *Scheduler) After(delay time.Duration, name string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.logger.Warn("scheduler stopped, dropping job", "job", name)
		return
	}

	id := s.next
	s.next++
	s.wg.Add(1)
	s.arm(id, delay, name, fn)
	s.logger.Debug("job scheduled", "job", name, "delay", delay)
}

// arm must be called with mu held.
func (s *Scheduler) arm(id uint64, remaining time.Duration, name string, fn func(ctx context.Context)) {
	wait := min(max(remaining, 0), s.maxDelay)

	s.timers[id] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		if s.stopped {
			delete(s.timers, id)
			s.mu.Unlock()
			s.wg.Done()
			return
		}
		if rest := remaining - wait; rest > 0 {
			s.arm(id, rest, name, fn)
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()

		defer s.wg.Done()
		s.run(name, fn)
	})
}

func (s *Scheduler) run(name string, fn func(ctx context.Context)) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("job panicked", "job", name, "panic", p)
		}
	}()
	fn(s.ctx)
}

// Pending returns the number of jobs waiting to fire.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop drops pending jobs, cancels the context handed to running ones and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cancel()
	for id, t := range s.timers {
		if t.Stop() {
			delete(s.timers, id)
			s.wg.Done()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
}
