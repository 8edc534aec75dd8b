package usecase

import (
	"strings"

	"carelink-backend/internal/task/domain"
)

// minNameLength keeps 1-2 letter name fragments from matching everything
const minNameLength = 3

// FilterRelevant narrows pending tasks to those plausibly about the selected
// patient. Matching runs strictly against original source content — never
// against AI-drafted text, so a hallucinated name in a draft cannot create a
// false positive. A context with no patient selected returns nothing.
func FilterRelevant(tasks []*domain.Task, pc domain.PatientContext) []*domain.Task {
	matched := make([]*domain.Task, 0)
	if pc.IsEmpty() {
		return matched
	}

	knownEmails := lowerAll(append(append([]string{}, pc.DoctorEmails...), pc.ContactEmails...))
	knownNames := lowerAll(append(append([]string{}, pc.DoctorNames...), pc.ContactNames...))
	patientName := strings.ToLower(pc.PatientName)

	for _, task := range tasks {
		if taskMatches(task, patientName, knownEmails, knownNames) {
			matched = append(matched, task)
		}
	}
	return matched
}

func taskMatches(task *domain.Task, patientName string, knownEmails, knownNames []string) bool {
	switch task.Type {
	case domain.TaskTypeEmailReply:
		if task.Email == nil {
			return false
		}
		original := task.Email.Original
		sender := strings.ToLower(original.Sender)
		subject := strings.ToLower(original.Subject)
		body := strings.ToLower(original.Body)

		addr := strings.ToLower(extractAddress(original.Sender))
		for _, known := range knownEmails {
			if addr != "" && addr == known {
				return true
			}
		}
		// Names match against the sender display field and the subject only;
		// body is excluded to limit false positives
		for _, name := range knownNames {
			if len(name) >= minNameLength && (strings.Contains(sender, name) || strings.Contains(subject, name)) {
				return true
			}
		}
		if len(patientName) >= minNameLength && (strings.Contains(subject, patientName) || strings.Contains(body, patientName)) {
			return true
		}
		return false

	case domain.TaskTypeTelegramReply:
		if task.Telegram == nil {
			return false
		}
		text := strings.ToLower(task.Telegram.Text)
		sender := strings.ToLower(task.Telegram.Sender)
		if len(patientName) >= minNameLength && strings.Contains(text, patientName) {
			return true
		}
		for _, name := range knownNames {
			if len(name) >= minNameLength && strings.Contains(sender, name) {
				return true
			}
		}
		return false

	case domain.TaskTypeAppointmentScheduler:
		if task.Appointment == nil {
			return false
		}
		doctor := strings.ToLower(task.Appointment.Doctor)
		for _, name := range knownNames {
			if len(name) >= minNameLength && strings.Contains(doctor, name) {
				return true
			}
		}
		return false

	case domain.TaskTypePrescriptionRefill, domain.TaskTypeHealthAlert:
		// Inherently patient-scoped once any patient is selected
		return true

	default:
		return false
	}
}

// extractAddress pulls the bare address out of a "Display Name <addr>"
// sender field; a bare address passes through unchanged.
func extractAddress(sender string) string {
	if open := strings.Index(sender, "<"); open >= 0 {
		if end := strings.Index(sender[open:], ">"); end > 0 {
			return strings.TrimSpace(sender[open+1 : open+end])
		}
	}
	return strings.TrimSpace(sender)
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(strings.ToLower(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
