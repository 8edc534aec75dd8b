package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carelink-backend/internal/task/domain"
	"carelink-backend/pkg/ai"
)

// fakeEmailSource is a scriptable EmailSource double
type fakeEmailSource struct {
	mu         sync.Mutex
	unread     []*domain.SourceEmail
	fetchCalls int
	fetchGate  chan struct{} // when set, FetchUnread blocks until closed
	fetchErr   error
	sendErr    error
	markErr    error
	sent       []sentMail
	marked     []string
}

type sentMail struct {
	to      []string
	subject string
	body    string
}

func (f *fakeEmailSource) FetchUnread(ctx context.Context, max int) ([]*domain.SourceEmail, error) {
	f.mu.Lock()
	f.fetchCalls++
	gate := f.fetchGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.unread, nil
}

func (f *fakeEmailSource) GetByID(ctx context.Context, id string) (*domain.SourceEmail, error) {
	for _, e := range f.unread {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeEmailSource) MarkRead(ctx context.Context, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	f.marked = append(f.marked, id)
	f.mu.Unlock()
	return nil
}

func (f *fakeEmailSource) Send(ctx context.Context, to []string, subject, body string, cc []string, replyTo string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	f.mu.Unlock()
	return nil
}

func (f *fakeEmailSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

// fakeChatSource is a scriptable ChatSource double
type fakeChatSource struct {
	updates []*domain.ChatUpdate
	pollErr error
	sent    []string
}

func (f *fakeChatSource) PollUpdates(ctx context.Context) ([]*domain.ChatUpdate, error) {
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	return f.updates, nil
}

func (f *fakeChatSource) Send(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

// fakeCalendar is a scriptable CalendarService double
type fakeCalendar struct {
	free     bool
	freeErr  error
	addErr   error
	booked   []string
	lastSpan time.Duration
}

func (f *fakeCalendar) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	f.lastSpan = end.Sub(start)
	return f.free, f.freeErr
}

func (f *fakeCalendar) AddEvent(ctx context.Context, summary string, start, end time.Time, description string) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.booked = append(f.booked, summary)
	return "https://calendar.example/event/1", nil
}

// fakeClassifier returns canned analyses and records reply-draft requests
type fakeClassifier struct {
	intent      *ai.IntentAnalysis
	intentErr   error
	proposal    *ai.SchedulingProposal
	proposalErr error
	draftErr    error
	symptom     *ai.SymptomAnalysis

	draftRequests []ai.ReplyRequest
}

func (f *fakeClassifier) AnalyzeIntent(ctx context.Context, body string) (*ai.IntentAnalysis, error) {
	if f.intentErr != nil {
		return nil, f.intentErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &ai.IntentAnalysis{Intent: "other", Urgency: "medium", RequiresReply: true}, nil
}

func (f *fakeClassifier) ExtractScheduling(ctx context.Context, body string) (*ai.SchedulingProposal, error) {
	if f.proposalErr != nil {
		return nil, f.proposalErr
	}
	if f.proposal != nil {
		return f.proposal, nil
	}
	return &ai.SchedulingProposal{HasProposal: false}, nil
}

func (f *fakeClassifier) DraftReply(ctx context.Context, req ai.ReplyRequest) (*ai.ReplyDraft, error) {
	if f.draftErr != nil {
		return nil, f.draftErr
	}
	f.draftRequests = append(f.draftRequests, req)
	return &ai.ReplyDraft{Subject: "Re: " + req.Subject, Body: "Drafted reply"}, nil
}

func (f *fakeClassifier) AnalyzeSymptom(ctx context.Context, symptom, patientContext string) (*ai.SymptomAnalysis, error) {
	if f.symptom != nil {
		return f.symptom, nil
	}
	return &ai.SymptomAnalysis{Urgency: "moderate", SuggestAppointment: true}, nil
}

func testEmail(id, sender, subject, body string) *domain.SourceEmail {
	return &domain.SourceEmail{
		ID:      id,
		Sender:  sender,
		Subject: subject,
		Body:    body,
		Date:    time.Now(),
	}
}

func pendingEmailTask(id, sender, subject, body string) *domain.Task {
	return &domain.Task{
		ID:      id,
		Type:    domain.TaskTypeEmailReply,
		Urgency: domain.UrgencyMedium,
		Status:  domain.TaskStatusPending,
		Email: &domain.EmailReplyPayload{
			MessageID: fmt.Sprintf("msg-%s", id),
			Draft:     domain.ReplyDraft{Subject: "Re: " + subject, Body: "draft"},
			Original:  domain.OriginalEmail{Sender: sender, Subject: subject, Body: body},
		},
		CreatedAt: time.Now(),
	}
}
