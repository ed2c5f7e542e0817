package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cglreviews/internal/logging"
)

func TestScheduler_After(t *testing.T) {
	s := New(WithLogger(logging.Discard()))
	defer s.Stop()

	done := make(chan struct{})
	s.After(10*time.Millisecond, "job", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
}

func TestScheduler_NonPositiveDelayRunsImmediately(t *testing.T) {
	s := New(WithLogger(logging.Discard()))
	defer s.Stop()

	done := make(chan struct{})
	s.After(-time.Hour, "expired", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expired job did not run")
	}
}

func TestScheduler_ChunksLongDelays(t *testing.T) {
	s := New(WithMaxDelay(20*time.Millisecond), WithLogger(logging.Discard()))
	defer s.Stop()

	var fired atomic.Bool
	start := time.Now()
	done := make(chan time.Duration, 1)
	s.After(70*time.Millisecond, "long", func(ctx context.Context) {
		fired.Store(true)
		done <- time.Since(start)
	})

	// past the first chunk the job is still pending
	time.Sleep(30 * time.Millisecond)
	assert.False(t, fired.Load())
	assert.Equal(t, 1, s.Pending())

	select {
	case elapsed := <-done:
		assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("chunked job did not run")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_Stop(t *testing.T) {
	s := New(WithLogger(logging.Discard()))

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		s.After(time.Hour, "later", func(ctx context.Context) { ran.Add(1) })
	}
	require.Equal(t, 5, s.Pending())

	s.Stop()
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, int32(0), ran.Load())

	// scheduling after Stop is dropped
	s.After(0, "dropped", func(ctx context.Context) { ran.Add(1) })
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), ran.Load())

	// Stop is idempotent
	s.Stop()
}

func TestScheduler_PanicIsRecovered(t *testing.T) {
	s := New(WithLogger(logging.Discard()))
	defer s.Stop()

	done := make(chan struct{})
	s.After(0, "panics", func(ctx context.Context) { panic("boom") })
	s.After(5*time.Millisecond, "after", func(ctx context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler stopped running jobs after a panic")
	}
}
