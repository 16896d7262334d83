package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestEmail(t *testing.T, maxAttempts int) *QueuedEmail {
	t.Helper()
	email, err := NewQueuedEmail(
		"carol@planhub.test", "Carol", "You were mentioned",
		"<p>hi</p>", "hi", "mention", []byte(`{}`), maxAttempts,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return email
}

func TestNewQueuedEmail(t *testing.T) {
	email := newTestEmail(t, 3)

	if email.Status != EmailStatusPending {
		t.Errorf("expected pending, got %q", email.Status)
	}
	if email.Attempts != 0 {
		t.Errorf("expected zero attempts, got %d", email.Attempts)
	}
	if email.ScheduledAt.IsZero() {
		t.Error("expected immediate scheduling")
	}

	t.Run("default max attempts", func(t *testing.T) {
		email := newTestEmail(t, 0)
		if email.MaxAttempts != DefaultMaxAttempts {
			t.Errorf("expected default max attempts %d, got %d", DefaultMaxAttempts, email.MaxAttempts)
		}
	})

	t.Run("missing recipient", func(t *testing.T) {
		_, err := NewQueuedEmail("", "", "subject", "<p>x</p>", "x", "mention", nil, 3)
		if !errors.Is(err, ErrEmailRecipientEmpty) {
			t.Errorf("expected ErrEmailRecipientEmpty, got %v", err)
		}
	})

	t.Run("missing body", func(t *testing.T) {
		_, err := NewQueuedEmail("a@b.c", "", "subject", "", "x", "mention", nil, 3)
		if !errors.Is(err, ErrEmailBodyEmpty) {
			t.Errorf("expected ErrEmailBodyEmpty, got %v", err)
		}
	})
}

func TestQueuedEmailRecordFailure(t *testing.T) {
	email := newTestEmail(t, 2)

	if err := email.RecordFailure("connection refused"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.Status != EmailStatusPending {
		t.Errorf("first failure should return to pending, got %q", email.Status)
	}
	if email.Attempts != 1 {
		t.Errorf("expected one attempt, got %d", email.Attempts)
	}
	if email.LastError != "connection refused" {
		t.Errorf("expected recorded error, got %q", email.LastError)
	}

	if err := email.RecordFailure("still down"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.Status != EmailStatusFailed {
		t.Errorf("final failure should be terminal, got %q", email.Status)
	}
	if !email.Terminal() {
		t.Error("failed email should be terminal")
	}

	// Terminal records reject further transitions.
	if err := email.RecordFailure("again"); !errors.Is(err, ErrEmailStatusInvalid) {
		t.Errorf("expected ErrEmailStatusInvalid, got %v", err)
	}
	if err := email.RecordSent(time.Now()); !errors.Is(err, ErrEmailStatusInvalid) {
		t.Errorf("expected ErrEmailStatusInvalid, got %v", err)
	}
}

func TestQueuedEmailRecordSent(t *testing.T) {
	email := newTestEmail(t, 3)
	sentAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	if err := email.RecordSent(sentAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if email.Status != EmailStatusSent {
		t.Errorf("expected sent, got %q", email.Status)
	}
	if email.SentAt == nil || !email.SentAt.Equal(sentAt) {
		t.Errorf("expected sent_at %v, got %v", sentAt, email.SentAt)
	}
	if !email.Terminal() {
		t.Error("sent email should be terminal")
	}
}
