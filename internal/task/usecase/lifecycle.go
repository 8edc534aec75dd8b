package usecase

import (
	"context"
	"log"
	"time"

	"carelink-backend/internal/task/domain"
)

// followUpLeadTime and followUpHour place the default appointment slot two
// weeks out at a fixed morning hour
const (
	followUpLeadTime = 14 * 24 * time.Hour
	followUpHour     = 10
	followUpMinutes  = 120
)

type executorFunc func(ctx context.Context, task *domain.Task) error

// buildExecutors registers one executor per task type. Every type gets an
// entry here, so dispatch can never miss at runtime.
func (u *taskUsecase) buildExecutors() map[domain.TaskType]executorFunc {
	return map[domain.TaskType]executorFunc{
		domain.TaskTypeEmailReply:           u.executeEmailReply,
		domain.TaskTypeTelegramReply:        executeNoop,
		domain.TaskTypeAppointmentScheduler: u.executeAppointment,
		domain.TaskTypePrescriptionRefill:   executeNoop,
		domain.TaskTypeHealthAlert:          executeNoop,
	}
}

// Accept runs the task's executor and, on success, completes it. An executor
// failure leaves the task pending so the caregiver can retry by accepting
// again.
func (u *taskUsecase) Accept(ctx context.Context, id string) error {
	task, err := u.store.FindByID(id)
	if err != nil {
		return err
	}
	if task.Status != domain.TaskStatusPending {
		return domain.ErrInvalidTransition
	}

	executor := u.executors[task.Type]
	if err := executor(ctx, task); err != nil {
		log.Printf("[TaskLifecycle] Executor failed for task %s: %v", id, err)
		return err
	}

	return u.store.UpdateStatus(id, domain.TaskStatusCompleted)
}

// Dismiss transitions a pending task to dismissed. No side effect.
func (u *taskUsecase) Dismiss(id string) error {
	return u.store.UpdateStatus(id, domain.TaskStatusDismissed)
}

// executeEmailReply sends the drafted reply to the original sender and marks
// the source message read. Both steps must succeed; any failure is total and
// the task stays pending.
func (u *taskUsecase) executeEmailReply(ctx context.Context, task *domain.Task) error {
	payload := task.Email
	to := extractAddress(payload.Original.Sender)

	if err := u.emails.Send(ctx, []string{to}, payload.Draft.Subject, payload.Draft.Body, nil, ""); err != nil {
		return domain.NewTransportError("send reply", err)
	}
	if err := u.emails.MarkRead(ctx, payload.MessageID); err != nil {
		return domain.NewTransportError("mark read", err)
	}
	log.Printf("[TaskLifecycle] Sent reply for task %s to %s", task.ID, to)
	return nil
}

// executeAppointment books a default follow-up slot. Unlike the email
// executor this one tolerates calendar failure: the booking error is logged
// and the task still completes.
func (u *taskUsecase) executeAppointment(ctx context.Context, task *domain.Task) error {
	start := time.Now().Add(followUpLeadTime)
	start = time.Date(start.Year(), start.Month(), start.Day(), followUpHour, 0, 0, 0, start.Location())
	end := start.Add(followUpMinutes * time.Minute)

	summary := "Follow-up appointment"
	description := ""
	if task.Appointment != nil {
		if task.Appointment.Doctor != "" {
			summary = "Follow-up with " + task.Appointment.Doctor
		}
		description = task.Appointment.Symptom
	}

	if u.calendar == nil {
		log.Printf("[TaskLifecycle] No calendar configured, completing task %s without booking", task.ID)
		return nil
	}
	link, err := u.calendar.AddEvent(ctx, summary, start, end, description)
	if err != nil {
		log.Printf("[TaskLifecycle] Calendar booking failed for task %s: %v", task.ID, err)
		return nil
	}
	log.Printf("[TaskLifecycle] Booked follow-up for task %s: %s", task.ID, link)
	return nil
}

func executeNoop(ctx context.Context, task *domain.Task) error {
	return nil
}
