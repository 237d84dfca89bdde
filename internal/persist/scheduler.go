package persist

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Flusher is the subset of the Manager the scheduler drives.
type Flusher interface {
	FlushAndArchive(ctx context.Context) error
}

// Scheduler runs FlushAndArchive on a fixed interval. A failed run is
// logged and the next tick still fires; if a run outlasts the interval the
// overlapping tick is skipped rather than queued.
type Scheduler struct {
	flusher  Flusher
	interval time.Duration
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler flushing every interval. An interval of
// zero defaults to one hour.
func NewScheduler(flusher Flusher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		flusher:  flusher,
		interval: interval,
		cron:     cron.New(),
	}
}

// Start registers the flush job and begins ticking.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("schedule flush job: %w", err)
	}

	s.cron.Start()
	log.Printf("backup scheduler started, interval %s", s.interval)
	return nil
}

// RunNow triggers an immediate flush-and-archive outside the schedule.
func (s *Scheduler) RunNow() {
	go s.run()
}

func (s *Scheduler) run() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("backup still in progress, skipping tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.flusher.FlushAndArchive(ctx); err != nil {
		log.Printf("scheduled backup failed: %v", err)
	}
}

// Stop stops the ticker and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()

	// cron's context covers jobs it started; wait out a RunNow too.
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("backup scheduler stopped")
}
