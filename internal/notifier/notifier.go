// Package notifier provides backup-status notification dispatching.
//
// Notifications are fire-and-forget: the persistence manager pushes a
// human-readable message after a successful archive, and whoever is
// registered receives it. No delivery guarantee or acknowledgment exists;
// with no notifier registered the message is simply dropped.
package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Message is a backup-status notification.
type Message struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	ArchivePath string    `json:"archive_path,omitempty"`
	Entries     int64     `json:"entries"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh id and the current time.
func NewMessage(text, archivePath string, entries int64) *Message {
	return &Message{
		ID:          uuid.New().String(),
		Text:        text,
		ArchivePath: archivePath,
		Entries:     entries,
		Timestamp:   time.Now().UTC(),
	}
}

// Notifier is the interface for all notification channels.
type Notifier interface {
	// Name returns the notifier name (e.g., "console", "webhook").
	Name() string
	// Send delivers a backup-status message.
	Send(ctx context.Context, msg *Message) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = fmt.Errorf("notification rate limited")

// RateLimitConfig holds dispatcher rate limit configuration.
type RateLimitConfig struct {
	MaxPerWindow int           // Maximum notifications per window (default: 10)
	Window       time.Duration // Time window (default: 1 minute)
	Enabled      bool          // Whether rate limiting is enabled (default: true)
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPerWindow: 10,
		Window:       time.Minute,
		Enabled:      true,
	}
}

// Dispatcher fans a message out to all registered notifiers.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	limiter   *rate.Limiter
	dropped   int64
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher() *Dispatcher {
	return NewDispatcherWithRateLimit(DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with custom rate limiting.
func NewDispatcherWithRateLimit(config RateLimitConfig) *Dispatcher {
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = 10
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	var limiter *rate.Limiter
	if config.Enabled {
		limiter = rate.NewLimiter(
			rate.Every(config.Window/time.Duration(config.MaxPerWindow)),
			config.MaxPerWindow,
		)
	}

	return &Dispatcher{
		notifiers: make(map[string]Notifier),
		limiter:   limiter,
	}
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a notifier from the dispatcher.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Dispatch sends a message to all registered notifiers. Returns
// ErrRateLimited if the message is dropped due to rate limiting; individual
// notifier failures are aggregated but never fatal.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) error {
	if d.limiter != nil && !d.limiter.Allow() {
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		return ErrRateLimited
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// Dropped returns the number of messages dropped by the rate limiter.
func (d *Dispatcher) Dropped() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dropped
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
