package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelink-backend/internal/task/domain"
	"carelink-backend/internal/task/repository"
)

func seedTask(t *testing.T, store repository.TaskStore, task *domain.Task) {
	t.Helper()
	require.NoError(t, store.Create(task))
}

func TestAcceptEmailReplySendsAndCompletes(t *testing.T) {
	emails := &fakeEmailSource{}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	task := pendingEmailTask("t1", "Dr. Smith <drsmith@clinic.com>", "Results", "body")
	seedTask(t, store, task)

	require.NoError(t, uc.Accept(context.Background(), "t1"))

	require.Len(t, emails.sent, 1)
	assert.Equal(t, []string{"drsmith@clinic.com"}, emails.sent[0].to)
	assert.Equal(t, "Re: Results", emails.sent[0].subject)
	assert.Equal(t, []string{"msg-t1"}, emails.marked)

	stored, err := store.FindByID("t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}

func TestAcceptEmailReplyFailureKeepsPending(t *testing.T) {
	emails := &fakeEmailSource{sendErr: fmt.Errorf("smtp unavailable")}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	seedTask(t, store, pendingEmailTask("t1", "a@b.com", "Subject", "body"))

	err := uc.Accept(context.Background(), "t1")
	require.Error(t, err)
	var transportErr *domain.TransportError
	assert.True(t, errors.As(err, &transportErr))

	stored, findErr := store.FindByID("t1")
	require.NoError(t, findErr)
	assert.Equal(t, domain.TaskStatusPending, stored.Status, "failed execution must leave the task retryable")

	// Retry-by-reaccept once the transport recovers
	emails.sendErr = nil
	require.NoError(t, uc.Accept(context.Background(), "t1"))
	stored, _ = store.FindByID("t1")
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}

func TestAcceptEmailReplyMarkReadFailureKeepsPending(t *testing.T) {
	emails := &fakeEmailSource{markErr: fmt.Errorf("gmail 500")}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	seedTask(t, store, pendingEmailTask("t1", "a@b.com", "Subject", "body"))

	require.Error(t, uc.Accept(context.Background(), "t1"))
	stored, _ := store.FindByID("t1")
	assert.Equal(t, domain.TaskStatusPending, stored.Status)
}

func TestAcceptAppointmentFailsOpen(t *testing.T) {
	cal := &fakeCalendar{addErr: fmt.Errorf("calendar down")}
	uc, store := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, cal, &fakeClassifier{})

	seedTask(t, store, &domain.Task{
		ID: "t1", Type: domain.TaskTypeAppointmentScheduler, Status: domain.TaskStatusPending,
		Appointment: &domain.AppointmentPayload{Doctor: "Dr. Lee", Symptom: "tremors"},
	})

	// Booking failure is tolerated; the task still completes
	require.NoError(t, uc.Accept(context.Background(), "t1"))
	stored, _ := store.FindByID("t1")
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}

func TestAcceptAppointmentBooksFollowUp(t *testing.T) {
	cal := &fakeCalendar{}
	uc, store := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, cal, &fakeClassifier{})

	seedTask(t, store, &domain.Task{
		ID: "t1", Type: domain.TaskTypeAppointmentScheduler, Status: domain.TaskStatusPending,
		Appointment: &domain.AppointmentPayload{Doctor: "Dr. Lee"},
	})

	require.NoError(t, uc.Accept(context.Background(), "t1"))
	require.Len(t, cal.booked, 1)
	assert.Equal(t, "Follow-up with Dr. Lee", cal.booked[0])
}

func TestAcceptNoopTypesComplete(t *testing.T) {
	uc, store := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	for i, typ := range []domain.TaskType{domain.TaskTypeTelegramReply, domain.TaskTypePrescriptionRefill, domain.TaskTypeHealthAlert} {
		id := fmt.Sprintf("t%d", i)
		task := &domain.Task{ID: id, Type: typ, Status: domain.TaskStatusPending}
		if typ == domain.TaskTypeTelegramReply {
			task.Telegram = &domain.TelegramReplyPayload{ChatID: 1, Text: "hi"}
		}
		seedTask(t, store, task)

		require.NoError(t, uc.Accept(context.Background(), id))
		stored, _ := store.FindByID(id)
		assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
	}
}

func TestLifecycleMonotonicity(t *testing.T) {
	uc, store := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	seedTask(t, store, pendingEmailTask("t1", "a@b.com", "S", "b"))
	seedTask(t, store, pendingEmailTask("t2", "a@b.com", "S", "b"))

	require.NoError(t, uc.Dismiss("t1"))
	assert.ErrorIs(t, uc.Accept(context.Background(), "t1"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, uc.Dismiss("t1"), domain.ErrInvalidTransition)

	require.NoError(t, uc.Accept(context.Background(), "t2"))
	assert.ErrorIs(t, uc.Dismiss("t2"), domain.ErrInvalidTransition)
	assert.ErrorIs(t, uc.Accept(context.Background(), "t2"), domain.ErrInvalidTransition)
}

func TestAcceptUnknownTask(t *testing.T) {
	uc, _ := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})
	assert.ErrorIs(t, uc.Accept(context.Background(), "missing"), domain.ErrTaskNotFound)
	assert.ErrorIs(t, uc.Dismiss("missing"), domain.ErrTaskNotFound)
}

func TestListTasksFiltersAndReturnsNonNil(t *testing.T) {
	uc, store := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})
	seedTask(t, store, pendingEmailTask("t1", "drsmith@clinic.com", "Checkup", "body"))

	empty := uc.ListTasks(domain.PatientContext{})
	require.NotNil(t, empty)
	assert.Empty(t, empty)

	matched := uc.ListTasks(domain.PatientContext{DoctorEmails: []string{"drsmith@clinic.com"}, PatientName: "Jane"})
	assert.Len(t, matched, 1)
}

func TestListedTasksUnaffectedByConcurrentAccept(t *testing.T) {
	uc, store := newTestUsecase(&fakeEmailSource{}, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})
	seedTask(t, store, pendingEmailTask("t1", "drsmith@clinic.com", "Checkup", "body"))

	listed := uc.ListTasks(domain.PatientContext{DoctorEmails: []string{"drsmith@clinic.com"}, PatientName: "Jane"})
	require.Len(t, listed, 1)

	// A listed task is a snapshot, so reading it while Accept completes the
	// stored task involves no shared memory
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			_ = listed[0].Status
		}
	}()
	require.NoError(t, uc.Accept(context.Background(), "t1"))
	<-done

	assert.Equal(t, domain.TaskStatusPending, listed[0].Status)
	stored, err := store.FindByID("t1")
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, stored.Status)
}
