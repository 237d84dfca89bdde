// Package probe observes network connectivity and records transitions.
//
// The prober polls a set of HTTP targets on an interval. The link counts
// as up when any target answers. Only transitions are recorded: the store
// receives one entry when connectivity is first observed and one for every
// subsequent flip, never one per probe.
package probe

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/calm-green-heron/connwatch/internal/metrics"
	"github.com/calm-green-heron/connwatch/internal/models"
)

// Recorder receives connectivity transitions. Satisfied by monitor.Service.
type Recorder interface {
	RecordStatusChange(status, timestamp string) (int64, error)
}

// Target is a single probe endpoint.
type Target struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Config holds prober configuration.
type Config struct {
	// Targets are probed in order; the first success marks the link up.
	Targets []Target

	// Interval between probe rounds (default: 30s).
	Interval time.Duration

	// Timeout for a single target (default: 5s).
	Timeout time.Duration
}

// Validate validates the prober configuration.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one probe target is required")
	}
	for _, t := range c.Targets {
		if t.URL == "" {
			return fmt.Errorf("probe target %q has no url", t.Name)
		}
	}
	return nil
}

// Prober polls targets and feeds transitions to the recorder.
type Prober struct {
	recorder   Recorder
	interval   time.Duration
	timeout    time.Duration
	httpClient *http.Client

	mu      sync.Mutex
	targets []Target
	state   models.Status // StatusUnknown until the first round completes
}

// NewProber creates a prober.
func NewProber(recorder Recorder, config Config) (*Prober, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid probe config: %w", err)
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Prober{
		recorder: recorder,
		interval: config.Interval,
		timeout:  config.Timeout,
		targets:  config.Targets,
		state:    models.StatusUnknown,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// SetTargets replaces the target list. Used by the hot-reload watcher.
func (p *Prober) SetTargets(targets []Target) {
	if len(targets) == 0 {
		log.Printf("ignoring empty probe target list")
		return
	}
	p.mu.Lock()
	p.targets = targets
	p.mu.Unlock()
	log.Printf("probe targets updated, %d targets", len(targets))
}

// State returns the last observed connectivity state.
func (p *Prober) State() models.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Run probes on the configured interval until ctx is canceled. The first
// round runs immediately so the initial state is recorded without waiting
// a full interval.
func (p *Prober) Run(ctx context.Context) error {
	log.Printf("prober started, interval %s, %d targets", p.interval, len(p.targets))

	p.ProbeOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("prober stopped")
			return ctx.Err()
		case <-ticker.C:
			p.ProbeOnce(ctx)
		}
	}
}

// ProbeOnce runs a single probe round and records a transition if the
// observed state differs from the previous one.
func (p *Prober) ProbeOnce(ctx context.Context) {
	p.mu.Lock()
	targets := p.targets
	p.mu.Unlock()

	status := models.StatusDown
	for _, t := range targets {
		if p.reachable(ctx, t) {
			status = models.StatusUp
			break
		}
	}

	metrics.ProbesTotal.WithLabelValues(string(status)).Inc()

	p.mu.Lock()
	changed := status != p.state
	p.state = status
	p.mu.Unlock()

	if !changed {
		return
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	id, err := p.recorder.RecordStatusChange(string(status), ts)
	if err != nil {
		log.Printf("record transition %s failed: %v", status, err)
		return
	}
	log.Printf("connectivity %s (entry %d)", status, id)
}

// reachable reports whether a single target answered. Any HTTP response
// counts; we are probing the network path, not the target's health.
func (p *Prober) reachable(ctx context.Context, t Target) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, t.URL, nil)
	if err != nil {
		log.Printf("probe %s: bad url: %v", t.Name, err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}
