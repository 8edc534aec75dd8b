package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelink-backend/internal/task/domain"
	"carelink-backend/pkg/ai"
)

type stubClassifier struct {
	analysis    *ai.SymptomAnalysis
	lastContext string
}

func (s *stubClassifier) AnalyzeIntent(ctx context.Context, body string) (*ai.IntentAnalysis, error) {
	return nil, nil
}

func (s *stubClassifier) ExtractScheduling(ctx context.Context, body string) (*ai.SchedulingProposal, error) {
	return nil, nil
}

func (s *stubClassifier) DraftReply(ctx context.Context, req ai.ReplyRequest) (*ai.ReplyDraft, error) {
	return nil, nil
}

func (s *stubClassifier) AnalyzeSymptom(ctx context.Context, symptom, patientContext string) (*ai.SymptomAnalysis, error) {
	s.lastContext = patientContext
	if s.analysis != nil {
		return s.analysis, nil
	}
	return &ai.SymptomAnalysis{Urgency: "moderate"}, nil
}

type stubEmailSource struct {
	sent []struct {
		to      []string
		cc      []string
		subject string
		body    string
	}
}

func (s *stubEmailSource) FetchUnread(ctx context.Context, max int) ([]*domain.SourceEmail, error) {
	return nil, nil
}

func (s *stubEmailSource) GetByID(ctx context.Context, id string) (*domain.SourceEmail, error) {
	return nil, nil
}

func (s *stubEmailSource) MarkRead(ctx context.Context, id string) error { return nil }

func (s *stubEmailSource) Send(ctx context.Context, to []string, subject, body string, cc []string, replyTo string) error {
	s.sent = append(s.sent, struct {
		to      []string
		cc      []string
		subject string
		body    string
	}{to, cc, subject, body})
	return nil
}

func TestAnalyzeSymptomRequiresDescription(t *testing.T) {
	uc := NewAppointmentUsecase(&stubClassifier{}, &stubEmailSource{}, nil, "")
	_, err := uc.AnalyzeSymptom(context.Background(), SymptomReport{Symptom: "  "})
	assert.Error(t, err)
}

func TestAnalyzeSymptomEchoesSymptom(t *testing.T) {
	cls := &stubClassifier{analysis: &ai.SymptomAnalysis{Urgency: "high", SuggestAppointment: true}}
	uc := NewAppointmentUsecase(cls, &stubEmailSource{}, nil, "")

	analysis, err := uc.AnalyzeSymptom(context.Background(), SymptomReport{Symptom: "persistent dizziness"})
	require.NoError(t, err)
	assert.Equal(t, "persistent dizziness", analysis.Symptom)
	assert.Equal(t, "high", analysis.Urgency)
	assert.Empty(t, cls.lastContext, "no patient selected means no profile context")
}

func TestSendBookingRequestUrgentSubject(t *testing.T) {
	emails := &stubEmailSource{}
	uc := NewAppointmentUsecase(&stubClassifier{}, emails, nil, "caregiver@example.com")

	err := uc.SendBookingRequest(context.Background(), BookingRequest{
		DoctorName:  "Lee",
		DoctorEmail: "drlee@clinic.com",
		PatientName: "Margaret Hill",
		Symptom:     "severe tremors",
		Urgency:     "high",
		Timeframe:   "within 24 hours",
	})
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	mail := emails.sent[0]
	assert.Equal(t, []string{"drlee@clinic.com"}, mail.to)
	assert.Equal(t, []string{"caregiver@example.com"}, mail.cc)
	assert.Equal(t, "Appointment Request for Margaret Hill - URGENT", mail.subject)
	assert.Contains(t, mail.body, "Dear Dr. Lee,")
	assert.Contains(t, mail.body, "severe tremors")
	assert.Contains(t, mail.body, "as soon as possible, preferably within 24 hours")
}

func TestSendBookingRequestLowUrgency(t *testing.T) {
	emails := &stubEmailSource{}
	uc := NewAppointmentUsecase(&stubClassifier{}, emails, nil, "")

	err := uc.SendBookingRequest(context.Background(), BookingRequest{
		DoctorName:  "Chen",
		DoctorEmail: "drchen@clinic.com",
		PatientName: "Margaret Hill",
		Symptom:     "routine checkup",
		Urgency:     "low",
		Timeframe:   "next available",
	})
	require.NoError(t, err)

	mail := emails.sent[0]
	assert.Equal(t, "Appointment Request for Margaret Hill", mail.subject)
	assert.Empty(t, mail.cc)
	assert.Contains(t, mail.body, "at your earliest convenience")
}

func TestSendBookingRequestValidation(t *testing.T) {
	uc := NewAppointmentUsecase(&stubClassifier{}, &stubEmailSource{}, nil, "")

	assert.Error(t, uc.SendBookingRequest(context.Background(), BookingRequest{PatientName: "M"}))
	assert.Error(t, uc.SendBookingRequest(context.Background(), BookingRequest{DoctorEmail: "d@c.com"}))
}

func TestSendCalendarInvite(t *testing.T) {
	emails := &stubEmailSource{}
	uc := NewAppointmentUsecase(&stubClassifier{}, emails, nil, "")

	startsAt := time.Date(2026, time.September, 14, 14, 30, 0, 0, time.UTC)
	err := uc.SendCalendarInvite(context.Background(), InviteRequest{
		PatientEmail: "margaret@example.com",
		PatientName:  "Margaret",
		DoctorName:   "Lee",
		StartsAt:     startsAt,
		Location:     "Room 3, Main Clinic",
	})
	require.NoError(t, err)

	require.Len(t, emails.sent, 1)
	mail := emails.sent[0]
	assert.Equal(t, []string{"margaret@example.com"}, mail.to)
	assert.Contains(t, mail.subject, "Dr. Lee on September 14, 2026 at 2:30 PM")
	assert.Contains(t, mail.body, "BEGIN:VCALENDAR")
	assert.Contains(t, mail.body, "DTSTART:20260914T143000")
	assert.Contains(t, mail.body, "DTEND:20260914T163000")
	assert.Contains(t, mail.body, "LOCATION:Room 3, Main Clinic")
}

func TestSendCalendarInviteValidation(t *testing.T) {
	uc := NewAppointmentUsecase(&stubClassifier{}, &stubEmailSource{}, nil, "")

	assert.Error(t, uc.SendCalendarInvite(context.Background(), InviteRequest{StartsAt: time.Now()}))
	assert.Error(t, uc.SendCalendarInvite(context.Background(), InviteRequest{PatientEmail: "m@e.com"}))
}
