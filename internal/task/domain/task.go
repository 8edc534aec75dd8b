package domain

import "time"

// TaskType identifies the kind of caregiver action a task represents
type TaskType string

const (
	TaskTypeEmailReply           TaskType = "email_reply"
	TaskTypeTelegramReply        TaskType = "telegram_reply"
	TaskTypeAppointmentScheduler TaskType = "appointment_scheduler"
	TaskTypePrescriptionRefill   TaskType = "prescription_refill"
	TaskTypeHealthAlert          TaskType = "health_alert"
)

// Urgency represents how quickly the caregiver should act
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyModerate  Urgency = "moderate"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// IsUrgent reports whether the urgency warrants an immediate push notification
func (u Urgency) IsUrgent() bool {
	return u == UrgencyHigh || u == UrgencyEmergency
}

// TaskStatus represents the current lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusAccepted  TaskStatus = "accepted"
	TaskStatusDismissed TaskStatus = "dismissed"
	TaskStatusCompleted TaskStatus = "completed"
)

// ReplyDraft is an AI-drafted email reply
type ReplyDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OriginalEmail is a snapshot of the source message a task was created from.
// The relevance filter matches only against these fields, never against
// drafted text.
type OriginalEmail struct {
	Sender  string `json:"sender"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailReplyPayload carries the data needed to send a drafted reply
type EmailReplyPayload struct {
	MessageID string        `json:"message_id"`
	Draft     ReplyDraft    `json:"draft"`
	Original  OriginalEmail `json:"original"`
}

// TelegramReplyPayload carries an inbound chat message awaiting a response
type TelegramReplyPayload struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// AppointmentPayload carries a suggested follow-up appointment
type AppointmentPayload struct {
	Doctor    string `json:"doctor"`
	Symptom   string `json:"symptom,omitempty"`
	Timeframe string `json:"timeframe,omitempty"`
}

// Task is a unit of caregiver-facing work surfaced by the scan pipeline.
// Exactly one of the payload pointers is set, matching Type.
type Task struct {
	ID          string                `json:"id"`
	Type        TaskType              `json:"type"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Urgency     Urgency               `json:"urgency"`
	Status      TaskStatus            `json:"status"`
	Email       *EmailReplyPayload    `json:"email,omitempty"`
	Telegram    *TelegramReplyPayload `json:"telegram,omitempty"`
	Appointment *AppointmentPayload   `json:"appointment,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// SourceEmail is one inbound email as returned by an email adapter
type SourceEmail struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Snippet string    `json:"snippet,omitempty"`
	Date    time.Time `json:"date"`
}

// ChatUpdate is one inbound Telegram update as returned by the chat adapter
type ChatUpdate struct {
	UpdateID int64  `json:"update_id"`
	ChatID   int64  `json:"chat_id"`
	Text     string `json:"text"`
	Sender   string `json:"sender"`
}

// PatientContext is the caller-supplied filter input. It is never persisted;
// the patient module can produce one from a stored profile.
type PatientContext struct {
	PatientName   string   `json:"patient_name,omitempty"`
	DoctorEmails  []string `json:"doctor_emails,omitempty"`
	DoctorNames   []string `json:"doctor_names,omitempty"`
	ContactEmails []string `json:"contact_emails,omitempty"`
	ContactNames  []string `json:"contact_names,omitempty"`
}

// IsEmpty reports whether no patient has been selected. An empty context
// filters to nothing, not to everything.
func (pc PatientContext) IsEmpty() bool {
	return pc.PatientName == "" && len(pc.DoctorEmails) == 0 && len(pc.DoctorNames) == 0
}
