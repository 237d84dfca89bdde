package persist

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// countingFlusher records FlushAndArchive calls.
type countingFlusher struct {
	mu    sync.Mutex
	calls int
	err   error
	block chan struct{}
}

func (f *countingFlusher) FlushAndArchive(_ context.Context) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *countingFlusher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestScheduler_TicksFire(t *testing.T) {
	f := &countingFlusher{}
	s := NewScheduler(f, time.Second)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, 3*time.Second, func() bool { return f.count() >= 1 })
}

func TestScheduler_FailedRunDoesNotStopTicking(t *testing.T) {
	f := &countingFlusher{err: fmt.Errorf("disk full")}
	s := NewScheduler(f, time.Second)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	// Two ticks despite every run failing.
	waitFor(t, 5*time.Second, func() bool { return f.count() >= 2 })
}

func TestScheduler_RunNow(t *testing.T) {
	f := &countingFlusher{}
	s := NewScheduler(f, time.Hour)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.RunNow()
	waitFor(t, 2*time.Second, func() bool { return f.count() == 1 })
	s.Stop()
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	f := &countingFlusher{block: make(chan struct{})}
	s := NewScheduler(f, time.Hour)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	s.RunNow()
	time.Sleep(50 * time.Millisecond) // let the run reach the block

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Stop returned while a run was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(f.block)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the run finished")
	}

	if f.count() != 1 {
		t.Errorf("calls = %d, want 1", f.count())
	}
}

func TestScheduler_ZeroIntervalDefaultsToHour(t *testing.T) {
	s := NewScheduler(&countingFlusher{}, 0)
	if s.interval != time.Hour {
		t.Errorf("interval = %s, want 1h", s.interval)
	}
}
