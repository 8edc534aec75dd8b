package usecase

import (
	"context"
	"time"

	"carelink-backend/internal/task/domain"
)

// EmailSource is the email adapter contract consumed by the scanner and the
// email-reply executor. pkg/gmail and pkg/imap implement it.
type EmailSource interface {
	// FetchUnread returns up to max unread messages
	FetchUnread(ctx context.Context, max int) ([]*domain.SourceEmail, error)

	// GetByID retrieves a single message, nil when it does not exist
	GetByID(ctx context.Context, id string) (*domain.SourceEmail, error)

	// MarkRead marks a message read
	MarkRead(ctx context.Context, id string) error

	// Send sends an email
	Send(ctx context.Context, to []string, subject, body string, cc []string, replyTo string) error
}

// ChatSource is the Telegram adapter contract
type ChatSource interface {
	// PollUpdates returns pending updates; the adapter manages the offset
	PollUpdates(ctx context.Context) ([]*domain.ChatUpdate, error)

	// Send sends a message to a chat
	Send(ctx context.Context, chatID int64, text string) error
}

// CalendarService is the calendar adapter contract
type CalendarService interface {
	// IsFree reports whether the primary calendar has no busy block in the interval
	IsFree(ctx context.Context, start, end time.Time) (bool, error)

	// AddEvent creates an event and returns its link
	AddEvent(ctx context.Context, summary string, start, end time.Time, description string) (string, error)
}

// TaskUsecase is the surface exposed to the HTTP layer
type TaskUsecase interface {
	// ListTasks returns pending tasks matching the patient context.
	// Listings are snapshots; a status change shows up on the next call.
	ListTasks(pc domain.PatientContext) []*domain.Task

	// TriggerScan starts a scan unless one is already in flight
	TriggerScan(ctx context.Context)

	// Accept runs the task's executor and completes it
	Accept(ctx context.Context, id string) error

	// Dismiss transitions a pending task to dismissed
	Dismiss(id string) error
}
