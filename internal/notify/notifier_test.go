package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordingSender struct {
	name     string
	err      error
	messages []string
}

func (r *recordingSender) Send(ctx context.Context, title, message string) error {
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, title+": "+message)
	return nil
}

func (r *recordingSender) Name() string { return r.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotify_FansOutToAllSenders(t *testing.T) {
	a := &recordingSender{name: "a"}
	b := &recordingSender{name: "b"}
	n := NewNotifier([]Sender{a, b}, nil, quietLogger())

	if err := n.Notify(context.Background(), "arbitrage_signal", "Alert", "spread 0.6%"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(a.messages) != 1 || len(b.messages) != 1 {
		t.Errorf("delivery counts: a=%d b=%d, want 1 each", len(a.messages), len(b.messages))
	}
}

func TestNotify_EventFilter(t *testing.T) {
	s := &recordingSender{name: "a"}
	n := NewNotifier([]Sender{s}, []string{"arbitrage_signal"}, quietLogger())

	if err := n.Notify(context.Background(), "heartbeat", "t", "m"); err != nil {
		t.Fatalf("filtered notify should not error: %v", err)
	}
	if len(s.messages) != 0 {
		t.Errorf("filtered event was delivered: %v", s.messages)
	}

	if err := n.Notify(context.Background(), "arbitrage_signal", "t", "m"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(s.messages) != 1 {
		t.Errorf("allowed event not delivered")
	}
}

func TestNotify_OneFailureDoesNotBlockOthers(t *testing.T) {
	broken := &recordingSender{name: "broken", err: errors.New("api down")}
	healthy := &recordingSender{name: "healthy"}
	n := NewNotifier([]Sender{broken, healthy}, nil, quietLogger())

	err := n.Notify(context.Background(), "arbitrage_signal", "t", "m")
	if err == nil {
		t.Fatal("expected the failing sender's error to surface")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error should name the failed sender: %v", err)
	}
	if len(healthy.messages) != 1 {
		t.Error("healthy sender skipped after another sender failed")
	}
}

func TestNotify_NoSendersIsNoOp(t *testing.T) {
	n := NewNotifier(nil, nil, quietLogger())
	if err := n.Notify(context.Background(), "arbitrage_signal", "t", "m"); err != nil {
		t.Fatalf("notify with no senders: %v", err)
	}
}

func TestDiscordSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "Alert", "spread 0.6%"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(got["content"], "**Alert**") || !strings.Contains(got["content"], "spread 0.6%") {
		t.Errorf("unexpected content: %q", got["content"])
	}
}

func TestDiscordSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}
