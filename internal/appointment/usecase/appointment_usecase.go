package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	patientusecase "carelink-backend/internal/patient/usecase"
	taskusecase "carelink-backend/internal/task/usecase"
	"carelink-backend/pkg/ai"
)

// SymptomReport is a caregiver-entered symptom for triage
type SymptomReport struct {
	PatientID string `json:"patient_id,omitempty"`
	Symptom   string `json:"symptom"`
}

// BookingRequest asks the doctor's office for an appointment by email
type BookingRequest struct {
	DoctorName  string `json:"doctor_name"`
	DoctorEmail string `json:"doctor_email"`
	PatientName string `json:"patient_name"`
	Symptom     string `json:"symptom"`
	Urgency     string `json:"urgency"`
	Timeframe   string `json:"timeframe"`
	Notes       string `json:"notes,omitempty"`
}

// InviteRequest confirms a booked appointment to the patient, with an
// inline iCal block they can import
type InviteRequest struct {
	PatientEmail string    `json:"patient_email"`
	PatientName  string    `json:"patient_name"`
	DoctorName   string    `json:"doctor_name"`
	StartsAt     time.Time `json:"starts_at"`
	Location     string    `json:"location,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// AppointmentUsecase handles symptom triage and appointment mail
type AppointmentUsecase interface {
	// AnalyzeSymptom triages a symptom, enriched with the patient's stored
	// conditions and medications when a patient ID is given
	AnalyzeSymptom(ctx context.Context, report SymptomReport) (*ai.SymptomAnalysis, error)

	// SendBookingRequest emails the doctor's office asking for a slot
	SendBookingRequest(ctx context.Context, req BookingRequest) error

	// SendCalendarInvite emails the patient a confirmation with iCal details
	SendCalendarInvite(ctx context.Context, req InviteRequest) error
}

type appointmentUsecase struct {
	classifier     ai.Classifier
	emails         taskusecase.EmailSource
	patients       patientusecase.PatientUsecase
	caregiverEmail string
}

// NewAppointmentUsecase creates a new appointment usecase. patients may be
// nil when no database is configured; triage then runs without profile
// context.
func NewAppointmentUsecase(classifier ai.Classifier, emails taskusecase.EmailSource, patients patientusecase.PatientUsecase, caregiverEmail string) AppointmentUsecase {
	return &appointmentUsecase{
		classifier:     classifier,
		emails:         emails,
		patients:       patients,
		caregiverEmail: caregiverEmail,
	}
}

func (u *appointmentUsecase) AnalyzeSymptom(ctx context.Context, report SymptomReport) (*ai.SymptomAnalysis, error) {
	if strings.TrimSpace(report.Symptom) == "" {
		return nil, fmt.Errorf("symptom description is required")
	}

	patientContext := ""
	if report.PatientID != "" && u.patients != nil {
		if patient, err := u.patients.GetPatient(report.PatientID); err == nil && patient != nil {
			var parts []string
			if patient.Conditions != "" {
				parts = append(parts, "Patient's conditions: "+patient.Conditions)
			}
			if patient.Medications != "" {
				parts = append(parts, "Current medications: "+patient.Medications)
			}
			patientContext = strings.Join(parts, "\n")
		} else if err != nil {
			log.Printf("[Appointment] Could not load patient %s for triage context: %v", report.PatientID, err)
		}
	}

	analysis, err := u.classifier.AnalyzeSymptom(ctx, report.Symptom, patientContext)
	if err != nil {
		return nil, err
	}
	analysis.Symptom = report.Symptom
	return analysis, nil
}

func (u *appointmentUsecase) SendBookingRequest(ctx context.Context, req BookingRequest) error {
	if req.DoctorEmail == "" {
		return fmt.Errorf("doctor email is required")
	}
	if req.PatientName == "" {
		return fmt.Errorf("patient name is required")
	}

	subject, body := buildBookingEmail(req)

	var cc []string
	if u.caregiverEmail != "" {
		cc = []string{u.caregiverEmail}
	}
	if err := u.emails.Send(ctx, []string{req.DoctorEmail}, subject, body, cc, ""); err != nil {
		return fmt.Errorf("failed to send appointment request: %v", err)
	}
	log.Printf("[Appointment] Request sent to Dr. %s for %s", req.DoctorName, req.PatientName)
	return nil
}

func (u *appointmentUsecase) SendCalendarInvite(ctx context.Context, req InviteRequest) error {
	if req.PatientEmail == "" {
		return fmt.Errorf("patient email is required")
	}
	if req.StartsAt.IsZero() {
		return fmt.Errorf("appointment time is required")
	}

	subject, body := buildInviteEmail(req)
	if err := u.emails.Send(ctx, []string{req.PatientEmail}, subject, body, nil, ""); err != nil {
		return fmt.Errorf("failed to send calendar invite: %v", err)
	}
	log.Printf("[Appointment] Calendar invite sent to %s", req.PatientEmail)
	return nil
}

func buildBookingEmail(req BookingRequest) (string, string) {
	urgencyText := map[string]string{
		"low":       "at your earliest convenience",
		"moderate":  "within the next few days",
		"high":      "as soon as possible, preferably within 24 hours",
		"emergency": "URGENTLY - immediate attention requested",
	}[req.Urgency]
	if urgencyText == "" {
		urgencyText = "at your earliest convenience"
	}

	subject := fmt.Sprintf("Appointment Request for %s", req.PatientName)
	if req.Urgency == "high" || req.Urgency == "emergency" {
		subject += " - URGENT"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear Dr. %s,\n\n", req.DoctorName)
	fmt.Fprintf(&b, "I am writing to request an appointment for %s.\n\n", req.PatientName)
	fmt.Fprintf(&b, "Reason for Visit:\n%s\n\n", req.Symptom)
	fmt.Fprintf(&b, "The patient would like to be seen %s.\n", urgencyText)
	fmt.Fprintf(&b, "Preferred timing: %s\n\n", req.Timeframe)
	if req.Notes != "" {
		fmt.Fprintf(&b, "Additional Notes:\n%s\n\n", req.Notes)
	}
	b.WriteString("Please let us know your available times, or feel free to call to schedule.\n\n")
	b.WriteString("Thank you for your prompt attention to this matter.\n\n")
	b.WriteString("Best regards,\nCareLink - Caregiver Assistant")

	return subject, b.String()
}

func buildInviteEmail(req InviteRequest) (string, string) {
	location := req.Location
	if location == "" {
		location = "To be confirmed"
	}
	description := req.Notes
	if description == "" {
		description = "Medical appointment scheduled via CareLink"
	}

	end := req.StartsAt.Add(2 * time.Hour)
	uid := fmt.Sprintf("carelink-%s@carelink.app", time.Now().Format("20060102150405"))

	ical := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//CareLink//Appointment//EN",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + time.Now().UTC().Format("20060102T150405Z"),
		"DTSTART:" + req.StartsAt.Format("20060102T150405"),
		"DTEND:" + end.Format("20060102T150405"),
		fmt.Sprintf("SUMMARY:Doctor Appointment with Dr. %s", req.DoctorName),
		"DESCRIPTION:" + description,
		"LOCATION:" + location,
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\n")

	subject := fmt.Sprintf("Appointment Confirmed: Dr. %s on %s",
		req.DoctorName, req.StartsAt.Format("January 2, 2006 at 3:04 PM"))

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", req.PatientName)
	b.WriteString("Your appointment has been confirmed!\n\n")
	b.WriteString("APPOINTMENT DETAILS\n")
	fmt.Fprintf(&b, "Doctor: Dr. %s\n", req.DoctorName)
	fmt.Fprintf(&b, "Date: %s\n", req.StartsAt.Format("Monday, January 2, 2006"))
	fmt.Fprintf(&b, "Time: %s\n", req.StartsAt.Format("3:04 PM"))
	fmt.Fprintf(&b, "Location: %s\n", location)
	if req.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", req.Notes)
	}
	b.WriteString("\nYou can import the appointment below into your calendar:\n\n")
	b.WriteString(ical)
	b.WriteString("\n\nIf you need to reschedule or cancel, please contact the doctor's office directly.\n\n")
	b.WriteString("Best regards,\nCareLink - Your Care Management Assistant")

	return subject, b.String()
}
