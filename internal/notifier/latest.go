package notifier

import (
	"context"
	"sync"
)

// LatestNotifier retains the most recent message so the status API can
// display it. Older messages are discarded; there is no history.
type LatestNotifier struct {
	mu   sync.RWMutex
	last *Message
}

// NewLatestNotifier creates a latest-message notifier.
func NewLatestNotifier() *LatestNotifier {
	return &LatestNotifier{}
}

// Name returns "latest".
func (l *LatestNotifier) Name() string {
	return "latest"
}

// Send replaces the retained message.
func (l *LatestNotifier) Send(_ context.Context, msg *Message) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = msg
	return nil
}

// Latest returns the most recently delivered message, or nil.
func (l *LatestNotifier) Latest() *Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.last
}

// Close is a no-op.
func (l *LatestNotifier) Close() error {
	return nil
}
