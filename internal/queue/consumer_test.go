package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingNotifier struct {
	to, subject, body string
}

func (r *recordingNotifier) Send(to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return nil
}

func TestComposeMail(t *testing.T) {
	ev := BookingEvent{
		Action:       ActionCreated,
		TrainingName: "Go Fundamentals",
		StartDate:    "2026-09-01T09:00:00Z",
		Location:     "Berlin",
		CustomerName: "Alice",
	}
	subject, body := composeMail(ev)
	if !strings.Contains(subject, "confirmed") || !strings.Contains(subject, "Go Fundamentals") {
		t.Errorf("subject = %q", subject)
	}
	if !strings.Contains(body, "Alice") || !strings.Contains(body, "Berlin") {
		t.Errorf("body = %q", body)
	}

	ev.Action = ActionCancelled
	subject, body = composeMail(ev)
	if !strings.Contains(subject, "cancelled") || !strings.Contains(body, "cancelled") {
		t.Errorf("cancel mail = %q / %q", subject, body)
	}
}

func TestHandleMessageNotifiesAndLogs(t *testing.T) {
	t.Chdir(t.TempDir())

	ev := BookingEvent{
		Action:        ActionCreated,
		BookingID:     "bk-1",
		TrainingName:  "Go Fundamentals",
		CustomerName:  "Alice",
		CustomerEmail: "alice@example.com",
		OccurredAt:    "2026-08-31T12:00:00Z",
	}
	body, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}

	n := &recordingNotifier{}
	if err := handleMessage(body, n); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if n.to != "alice@example.com" {
		t.Errorf("notified %q", n.to)
	}

	logged, err := os.ReadFile(filepath.Join("logs", "booking.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logged), "bk-1") {
		t.Errorf("log line = %q", logged)
	}
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	if err := handleMessage([]byte("{not json"), nil); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
