package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EmailStatus represents the delivery state of a queued email.
type EmailStatus string

// Possible email status values. "sending" marks a record claimed by an
// in-flight sweep; it is transient and resets to pending on crash recovery.
// "sent" and "failed" are terminal.
const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSending EmailStatus = "sending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// DefaultMaxAttempts bounds delivery attempts when no override is configured.
const DefaultMaxAttempts = 3

// Common validation errors for QueuedEmail
var (
	ErrEmailIDEmpty        = errors.New("email ID cannot be empty")
	ErrEmailRecipientEmpty = errors.New("email recipient address cannot be empty")
	ErrEmailSubjectEmpty   = errors.New("email subject cannot be empty")
	ErrEmailBodyEmpty      = errors.New("email body cannot be empty")
	ErrEmailStatusInvalid  = errors.New("invalid email status")
	ErrEmailAttemptsBound  = errors.New("email attempts cannot exceed max attempts")
)

// QueuedEmail represents one durable outbound email with retry bookkeeping.
// Attempts only ever increase and never exceed MaxAttempts; the record
// becomes failed exactly when attempts reach MaxAttempts without a
// successful send.
type QueuedEmail struct {
	ID           uuid.UUID       `json:"id"`
	ToEmail      string          `json:"to_email"`
	ToName       string          `json:"to_name"`
	Subject      string          `json:"subject"`
	HTMLBody     string          `json:"html_body"`
	TextBody     string          `json:"text_body"`
	TemplateName string          `json:"template_name"`
	TemplateData json.RawMessage `json:"template_data"`
	Status       EmailStatus     `json:"status"`
	Attempts     int             `json:"attempts"`
	MaxAttempts  int             `json:"max_attempts"`
	ScheduledAt  time.Time       `json:"scheduled_at"`
	LastError    string          `json:"last_error,omitempty"`
	SentAt       *time.Time      `json:"sent_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewQueuedEmail creates a pending email record with zero attempts,
// scheduled for immediate delivery.
func NewQueuedEmail(
	toEmail, toName, subject, htmlBody, textBody, templateName string,
	templateData json.RawMessage,
	maxAttempts int,
) (*QueuedEmail, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	now := time.Now().UTC()
	email := &QueuedEmail{
		ID:           uuid.New(),
		ToEmail:      toEmail,
		ToName:       toName,
		Subject:      subject,
		HTMLBody:     htmlBody,
		TextBody:     textBody,
		TemplateName: templateName,
		TemplateData: templateData,
		Status:       EmailStatusPending,
		Attempts:     0,
		MaxAttempts:  maxAttempts,
		ScheduledAt:  now,
		CreatedAt:    now,
	}

	if err := email.Validate(); err != nil {
		return nil, err
	}

	return email, nil
}

// Validate checks if the QueuedEmail has valid data.
func (e *QueuedEmail) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmailIDEmpty
	}

	if e.ToEmail == "" {
		return ErrEmailRecipientEmpty
	}

	if e.Subject == "" {
		return ErrEmailSubjectEmpty
	}

	if e.HTMLBody == "" || e.TextBody == "" {
		return ErrEmailBodyEmpty
	}

	if !isValidEmailStatus(e.Status) {
		return ErrEmailStatusInvalid
	}

	if e.Attempts < 0 || e.Attempts > e.MaxAttempts {
		return ErrEmailAttemptsBound
	}

	return nil
}

// Terminal reports whether the email reached a status from which no
// further transition occurs.
func (e *QueuedEmail) Terminal() bool {
	return e.Status == EmailStatusSent || e.Status == EmailStatusFailed
}

// RecordFailure applies one failed delivery attempt: attempts increments,
// the error message is recorded, and the status becomes failed exactly
// when the new attempt count reaches the maximum.
func (e *QueuedEmail) RecordFailure(errMsg string) error {
	if e.Terminal() {
		return ErrEmailStatusInvalid
	}

	e.Attempts++
	e.LastError = errMsg
	if e.Attempts >= e.MaxAttempts {
		e.Status = EmailStatusFailed
	} else {
		e.Status = EmailStatusPending
	}
	return nil
}

// RecordSent marks the email delivered at the given time.
func (e *QueuedEmail) RecordSent(at time.Time) error {
	if e.Terminal() {
		return ErrEmailStatusInvalid
	}

	e.Status = EmailStatusSent
	sentAt := at.UTC()
	e.SentAt = &sentAt
	return nil
}

// isValidEmailStatus checks if the given status is a valid EmailStatus.
func isValidEmailStatus(status EmailStatus) bool {
	switch status {
	case EmailStatusPending, EmailStatusSending, EmailStatusSent, EmailStatusFailed:
		return true
	default:
		return false
	}
}
