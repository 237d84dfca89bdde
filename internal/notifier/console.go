package notifier

import (
	"context"
	"log"
)

// ConsoleNotifier writes backup-status messages to the process log.
type ConsoleNotifier struct{}

// NewConsoleNotifier creates a console notifier.
func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

// Name returns "console".
func (c *ConsoleNotifier) Name() string {
	return "console"
}

// Send logs the message.
func (c *ConsoleNotifier) Send(_ context.Context, msg *Message) error {
	log.Printf("backup: %s", msg.Text)
	return nil
}

// Close is a no-op for the console notifier.
func (c *ConsoleNotifier) Close() error {
	return nil
}
