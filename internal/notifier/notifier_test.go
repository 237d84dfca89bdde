package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// recordingNotifier captures sent messages for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	name     string
	messages []*Message
	sendErr  error
}

func (r *recordingNotifier) Name() string { return r.name }

func (r *recordingNotifier) Send(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sendErr != nil {
		return r.sendErr
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcherWithRateLimit(RateLimitConfig{Enabled: false})
	a := &recordingNotifier{name: "a"}
	b := &recordingNotifier{name: "b"}
	d.Register(a)
	d.Register(b)

	msg := NewMessage("backup created", "/tmp/backup.db", 3)
	if err := d.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if a.count() != 1 || b.count() != 1 {
		t.Errorf("delivery counts = %d/%d, want 1/1", a.count(), b.count())
	}
	if msg.ID == "" {
		t.Error("message should have an id")
	}
}

func TestDispatcher_AggregatesErrors(t *testing.T) {
	d := NewDispatcherWithRateLimit(RateLimitConfig{Enabled: false})
	d.Register(&recordingNotifier{name: "bad", sendErr: fmt.Errorf("boom")})
	ok := &recordingNotifier{name: "good"}
	d.Register(ok)

	err := d.Dispatch(context.Background(), NewMessage("m", "", 0))
	if err == nil {
		t.Fatal("dispatch should report notifier errors")
	}
	// A failing notifier must not block delivery to the others.
	if ok.count() != 1 {
		t.Errorf("good notifier deliveries = %d, want 1", ok.count())
	}
}

func TestDispatcher_RateLimit(t *testing.T) {
	d := NewDispatcherWithRateLimit(RateLimitConfig{
		MaxPerWindow: 2,
		Window:       time.Hour,
		Enabled:      true,
	})
	rec := &recordingNotifier{name: "rec"}
	d.Register(rec)

	ctx := context.Background()
	d.Dispatch(ctx, NewMessage("1", "", 0))
	d.Dispatch(ctx, NewMessage("2", "", 0))
	err := d.Dispatch(ctx, NewMessage("3", "", 0))

	if err != ErrRateLimited {
		t.Errorf("third dispatch error = %v, want ErrRateLimited", err)
	}
	if rec.count() != 2 {
		t.Errorf("deliveries = %d, want 2", rec.count())
	}
	if d.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", d.Dropped())
	}
}

func TestDispatcher_Unregister(t *testing.T) {
	d := NewDispatcherWithRateLimit(RateLimitConfig{Enabled: false})
	rec := &recordingNotifier{name: "rec"}
	d.Register(rec)
	d.Unregister("rec")

	d.Dispatch(context.Background(), NewMessage("m", "", 0))
	if rec.count() != 0 {
		t.Errorf("deliveries = %d, want 0", rec.count())
	}
}

func TestLatestNotifier(t *testing.T) {
	l := NewLatestNotifier()
	if l.Latest() != nil {
		t.Error("latest should start nil")
	}

	ctx := context.Background()
	l.Send(ctx, NewMessage("first", "", 0))
	l.Send(ctx, NewMessage("second", "", 0))

	got := l.Latest()
	if got == nil || got.Text != "second" {
		t.Errorf("latest = %+v, want text %q", got, "second")
	}
}

func TestHub_SubscribeAndDrop(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Send(context.Background(), NewMessage("hello", "", 0))

	select {
	case msg := <-ch:
		if msg.Text != "hello" {
			t.Errorf("text = %q, want hello", msg.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	// With no subscriber the message is dropped without blocking.
	cancel()
	if err := h.Send(context.Background(), NewMessage("dropped", "", 0)); err != nil {
		t.Fatalf("send with no subscribers: %v", err)
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	received := make(chan *http.Request, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("create webhook notifier: %v", err)
	}

	if err := n.Send(context.Background(), NewMessage("backup", "/a/b.db", 7)); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case r := <-received:
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s, want application/json", ct)
		}
	case <-time.After(time.Second):
		t.Fatal("webhook not called")
	}
}

func TestWebhookNotifier_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("create webhook notifier: %v", err)
	}

	if err := n.Send(context.Background(), NewMessage("backup", "", 0)); err == nil {
		t.Error("send should fail on 500 response")
	}
}

func TestWebhookConfig_Validate(t *testing.T) {
	if err := (&WebhookConfig{}).Validate(); err == nil {
		t.Error("empty URL should fail validation")
	}
	if err := (&WebhookConfig{URL: "ftp://example.com"}).Validate(); err == nil {
		t.Error("non-http URL should fail validation")
	}
	if err := (&WebhookConfig{URL: "https://example.com/hook"}).Validate(); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
}
