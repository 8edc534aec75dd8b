package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelink-backend/internal/task/domain"
	"carelink-backend/internal/task/repository"
	"carelink-backend/pkg/ai"
)

func newTestUsecase(emails *fakeEmailSource, chat *fakeChatSource, cal *fakeCalendar, cls *fakeClassifier, opts ...Option) (TaskUsecase, repository.TaskStore) {
	store := repository.NewTaskStore()
	ledger := repository.NewLedger(0)
	uc := NewTaskUsecase(store, ledger, emails, chat, cal, cls, opts...)
	return uc, store
}

func TestScanCreatesEmailReplyTask(t *testing.T) {
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "Dr. Smith <drsmith@clinic.com>", "Test results", "Please call about the results."),
		},
	}
	cls := &fakeClassifier{
		intent: &ai.IntentAnalysis{Intent: "medical", Urgency: "high", RequiresReply: true},
	}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, cls)

	uc.TriggerScan(context.Background())

	pending := store.FindPending()
	require.Len(t, pending, 1)
	task := pending[0]
	assert.Equal(t, domain.TaskTypeEmailReply, task.Type)
	assert.Equal(t, "Reply to Dr. Smith <drsmith@clinic.com>", task.Title)
	assert.Equal(t, domain.UrgencyHigh, task.Urgency)
	require.NotNil(t, task.Email)
	assert.Equal(t, "m1", task.Email.MessageID)
	assert.Equal(t, "Test results", task.Email.Original.Subject)
	assert.Equal(t, "Re: Test results", task.Email.Draft.Subject)
}

func TestScanIsIdempotent(t *testing.T) {
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "friend@example.com", "Hello", "How is she doing?"),
		},
	}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	uc.TriggerScan(context.Background())
	uc.TriggerScan(context.Background())

	assert.Len(t, store.FindPending(), 1, "same message must not produce a second task")
}

func TestScanPrefiltersAutomatedMail(t *testing.T) {
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "noreply@shop.com", "Order shipped", "Your order is on its way"),
			testEmail("m2", "friend@example.com", "Newsletter for you", "Click unsubscribe below"),
			testEmail("m3", "Security <notifications@service.com>", "Sign-in alert", "New sign-in detected"),
		},
	}
	cls := &fakeClassifier{}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, cls)

	uc.TriggerScan(context.Background())

	assert.Empty(t, store.FindPending())
	assert.Empty(t, cls.draftRequests, "prefiltered mail must never reach the model")
}

func TestScanSkipsLowUrgencyNoReply(t *testing.T) {
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "friend@example.com", "FYI", "Just so you know."),
		},
	}
	cls := &fakeClassifier{
		intent: &ai.IntentAnalysis{Intent: "other", Urgency: "low", RequiresReply: false},
	}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, cls)

	uc.TriggerScan(context.Background())

	assert.Empty(t, store.FindPending())

	// The item is still recorded: a rescan does not re-classify it
	uc.TriggerScan(context.Background())
	assert.Empty(t, store.FindPending())
}

func TestScanAvailabilityContextFree(t *testing.T) {
	slot := time.Date(2026, time.September, 7, 15, 0, 0, 0, time.UTC)
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "scheduler@clinic.com", "Appointment for checkup", "Can we meet Monday at 3pm?"),
		},
	}
	cls := &fakeClassifier{
		intent:   &ai.IntentAnalysis{Intent: "appointment", Urgency: "medium", RequiresReply: true},
		proposal: &ai.SchedulingProposal{HasProposal: true, DateTime: &slot, DurationMinutes: 30},
	}
	cal := &fakeCalendar{free: true}
	uc, _ := newTestUsecase(emails, &fakeChatSource{}, cal, cls)

	uc.TriggerScan(context.Background())

	require.Len(t, cls.draftRequests, 1)
	ctx := cls.draftRequests[0].Context
	assert.Contains(t, ctx, "is free on the calendar")
	assert.Contains(t, ctx, "Monday, September 7 at 3:00 PM")
	assert.Equal(t, 30*time.Minute, cal.lastSpan)
}

func TestScanAvailabilityContextBusy(t *testing.T) {
	slot := time.Date(2026, time.September, 7, 15, 0, 0, 0, time.UTC)
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "scheduler@clinic.com", "Appointment", "Can we schedule Monday at 3pm?"),
		},
	}
	cls := &fakeClassifier{
		intent:   &ai.IntentAnalysis{Intent: "appointment", Urgency: "medium", RequiresReply: true},
		proposal: &ai.SchedulingProposal{HasProposal: true, DateTime: &slot},
	}
	cal := &fakeCalendar{free: false}
	uc, _ := newTestUsecase(emails, &fakeChatSource{}, cal, cls)

	uc.TriggerScan(context.Background())

	require.Len(t, cls.draftRequests, 1)
	assert.Contains(t, cls.draftRequests[0].Context, "conflicts with an existing calendar event")
	// No duration given: the check defaults to one hour
	assert.Equal(t, time.Hour, cal.lastSpan)
}

func TestScanProposalOverridesLowUrgencySkip(t *testing.T) {
	slot := time.Date(2026, time.September, 7, 15, 0, 0, 0, time.UTC)
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "scheduler@clinic.com", "Visit date", "Proposing a visit Monday 3pm, no need to reply."),
		},
	}
	cls := &fakeClassifier{
		intent:   &ai.IntentAnalysis{Intent: "appointment", Urgency: "low", RequiresReply: false},
		proposal: &ai.SchedulingProposal{HasProposal: true, DateTime: &slot},
	}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{free: true}, cls)

	uc.TriggerScan(context.Background())

	assert.Len(t, store.FindPending(), 1, "a concrete scheduling proposal keeps the message actionable")
}

func TestScanClassifierFailureStillMarksProcessed(t *testing.T) {
	emails := &fakeEmailSource{
		unread: []*domain.SourceEmail{
			testEmail("m1", "friend@example.com", "Hello", "text"),
		},
	}
	cls := &fakeClassifier{intentErr: fmt.Errorf("model unavailable")}
	uc, store := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, cls)

	uc.TriggerScan(context.Background())
	assert.Empty(t, store.FindPending())

	// Recovered classifier: the message is not re-evaluated
	cls.intentErr = nil
	uc.TriggerScan(context.Background())
	assert.Empty(t, store.FindPending())
}

func TestScanChatCreatesTasks(t *testing.T) {
	chat := &fakeChatSource{
		updates: []*domain.ChatUpdate{
			{UpdateID: 7, ChatID: 42, Text: "Mom seems dizzy today", Sender: "Robert"},
		},
	}
	uc, store := newTestUsecase(&fakeEmailSource{}, chat, &fakeCalendar{}, &fakeClassifier{})

	uc.TriggerScan(context.Background())
	uc.TriggerScan(context.Background())

	pending := store.FindPending()
	require.Len(t, pending, 1)
	task := pending[0]
	assert.Equal(t, domain.TaskTypeTelegramReply, task.Type)
	assert.Equal(t, "Message from Robert", task.Title)
	assert.Equal(t, domain.UrgencyMedium, task.Urgency)
	require.NotNil(t, task.Telegram)
	assert.Equal(t, int64(42), task.Telegram.ChatID)
}

func TestScanSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	emails := &fakeEmailSource{fetchGate: gate}
	uc, _ := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		uc.TriggerScan(context.Background())
	}()

	// Wait for the first scan to reach the blocking fetch
	require.Eventually(t, func() bool { return emails.fetchCount() == 1 }, time.Second, time.Millisecond)

	// Overlapping trigger returns immediately without a second fetch
	uc.TriggerScan(context.Background())
	assert.Equal(t, 1, emails.fetchCount())

	close(gate)
	wg.Wait()

	// After the scan finishes the guard is released
	uc.TriggerScan(context.Background())
	assert.Equal(t, 2, emails.fetchCount())
}

func TestListTasksDoesNotTriggerScan(t *testing.T) {
	emails := &fakeEmailSource{}
	uc, _ := newTestUsecase(emails, &fakeChatSource{}, &fakeCalendar{}, &fakeClassifier{})

	// The scan trigger lives in the delivery layer; listing alone must not
	// touch the adapters
	uc.ListTasks(domain.PatientContext{})
	assert.Never(t, func() bool { return emails.fetchCount() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 120))
	long := make([]byte, 130)
	for i := range long {
		long[i] = 'a'
	}
	out := truncate(string(long), 120)
	assert.Len(t, out, 123)
	assert.True(t, out[len(out)-1] == '.')
}
