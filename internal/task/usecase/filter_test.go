package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelink-backend/internal/task/domain"
)

func TestFilterRelevantEmptyContext(t *testing.T) {
	tasks := []*domain.Task{
		pendingEmailTask("1", "drsmith@clinic.com", "Checkup", "..."),
	}

	matched := FilterRelevant(tasks, domain.PatientContext{})
	require.NotNil(t, matched)
	assert.Empty(t, matched, "no patient selected should filter to nothing")
}

func TestFilterRelevantEmailMatching(t *testing.T) {
	pc := domain.PatientContext{
		PatientName:  "Jane Doe",
		DoctorEmails: []string{"drsmith@clinic.com"},
		DoctorNames:  []string{"Smith"},
	}

	tests := []struct {
		name  string
		task  *domain.Task
		match bool
	}{
		{
			name:  "doctor email inside display sender",
			task:  pendingEmailTask("1", "Dr. Smith <drsmith@clinic.com>", "Results", "All clear"),
			match: true,
		},
		{
			name:  "doctor name in subject",
			task:  pendingEmailTask("2", "frontdesk@clinic.com", "Message from Dr. Smith", "Please call"),
			match: true,
		},
		{
			name:  "patient name in subject",
			task:  pendingEmailTask("3", "someone@example.com", "Re: Jane Doe checkup", "Confirming"),
			match: true,
		},
		{
			name:  "patient name in body",
			task:  pendingEmailTask("4", "someone@example.com", "Appointment", "This is about Jane Doe's visit"),
			match: true,
		},
		{
			name:  "unrelated spam",
			task:  pendingEmailTask("5", "promo@shopping.com", "Big sale", "Buy now"),
			match: false,
		},
		{
			name:  "doctor name in body only does not match",
			task:  pendingEmailTask("6", "someone@example.com", "Hello", "Smith said hi"),
			match: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched := FilterRelevant([]*domain.Task{tt.task}, pc)
			if tt.match {
				assert.Len(t, matched, 1)
			} else {
				assert.Empty(t, matched)
			}
		})
	}
}

func TestFilterRelevantIgnoresDraftedText(t *testing.T) {
	// The draft mentions the patient but the original does not; the filter
	// must not match hallucinated draft content.
	task := pendingEmailTask("1", "stranger@example.com", "Hello", "Unrelated note")
	task.Email.Draft.Body = "Dear Jane Doe, ..."

	pc := domain.PatientContext{PatientName: "Jane Doe"}
	assert.Empty(t, FilterRelevant([]*domain.Task{task}, pc))
}

func TestFilterRelevantShortNamesNeverMatch(t *testing.T) {
	task := pendingEmailTask("1", "al@example.com", "Hello Al", "Hi")
	pc := domain.PatientContext{
		PatientName: "Al",
		DoctorNames: []string{"Jo"},
	}
	assert.Empty(t, FilterRelevant([]*domain.Task{task}, pc))
}

func TestFilterRelevantTelegram(t *testing.T) {
	pc := domain.PatientContext{
		PatientName:  "Margaret",
		ContactNames: []string{"Robert"},
		DoctorNames:  []string{"Lee"},
	}

	byText := &domain.Task{
		ID: "1", Type: domain.TaskTypeTelegramReply, Status: domain.TaskStatusPending,
		Telegram: &domain.TelegramReplyPayload{ChatID: 1, Text: "Margaret fell this morning", Sender: "Unknown"},
	}
	bySender := &domain.Task{
		ID: "2", Type: domain.TaskTypeTelegramReply, Status: domain.TaskStatusPending,
		Telegram: &domain.TelegramReplyPayload{ChatID: 1, Text: "Calling later", Sender: "Robert Jones"},
	}
	neither := &domain.Task{
		ID: "3", Type: domain.TaskTypeTelegramReply, Status: domain.TaskStatusPending,
		Telegram: &domain.TelegramReplyPayload{ChatID: 1, Text: "hello", Sender: "Stranger"},
	}

	matched := FilterRelevant([]*domain.Task{byText, bySender, neither}, pc)
	require.Len(t, matched, 2)
	assert.Equal(t, "1", matched[0].ID)
	assert.Equal(t, "2", matched[1].ID)
}

func TestFilterRelevantAppointmentAndAlwaysOnTypes(t *testing.T) {
	pc := domain.PatientContext{
		PatientName: "Margaret",
		DoctorNames: []string{"Lee"},
	}

	appointment := &domain.Task{
		ID: "1", Type: domain.TaskTypeAppointmentScheduler, Status: domain.TaskStatusPending,
		Appointment: &domain.AppointmentPayload{Doctor: "Dr. Lee"},
	}
	otherDoctor := &domain.Task{
		ID: "2", Type: domain.TaskTypeAppointmentScheduler, Status: domain.TaskStatusPending,
		Appointment: &domain.AppointmentPayload{Doctor: "Dr. Chen"},
	}
	refill := &domain.Task{
		ID: "3", Type: domain.TaskTypePrescriptionRefill, Status: domain.TaskStatusPending,
	}
	alert := &domain.Task{
		ID: "4", Type: domain.TaskTypeHealthAlert, Status: domain.TaskStatusPending,
	}

	matched := FilterRelevant([]*domain.Task{appointment, otherDoctor, refill, alert}, pc)
	require.Len(t, matched, 3)
	assert.Equal(t, "1", matched[0].ID)
	assert.Equal(t, "3", matched[1].ID)
	assert.Equal(t, "4", matched[2].ID)
}

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Dr. Smith <drsmith@clinic.com>", "drsmith@clinic.com"},
		{"drsmith@clinic.com", "drsmith@clinic.com"},
		{"  spaced@example.com  ", "spaced@example.com"},
		{"Broken <unclosed@example.com", "Broken <unclosed@example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractAddress(tt.in))
	}
}
