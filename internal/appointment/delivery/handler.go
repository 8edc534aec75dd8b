package delivery

import (
	"net/http"
	"time"

	"carelink-backend/internal/appointment/usecase"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler exposes symptom triage and appointment mail endpoints
type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
	}
}

// AnalyzeSymptom handles POST /api/symptoms/analyze
func (h *AppointmentHandler) AnalyzeSymptom(c *gin.Context) {
	var report usecase.SymptomReport
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	analysis, err := h.appointmentUsecase.AnalyzeSymptom(c.Request.Context(), report)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// BookAppointment handles POST /api/appointments/book
func (h *AppointmentHandler) BookAppointment(c *gin.Context) {
	var req usecase.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.appointmentUsecase.SendBookingRequest(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Appointment request sent to Dr. " + req.DoctorName,
		"email_sent_to": req.DoctorEmail,
	})
}

// SendCalendarInvite handles POST /api/appointments/calendar-invite
func (h *AppointmentHandler) SendCalendarInvite(c *gin.Context) {
	var body struct {
		PatientEmail string `json:"patient_email" binding:"required"`
		PatientName  string `json:"patient_name"`
		DoctorName   string `json:"doctor_name"`
		StartsAt     string `json:"starts_at" binding:"required"`
		Location     string `json:"location"`
		Notes        string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "starts_at must be RFC3339"})
		return
	}

	req := usecase.InviteRequest{
		PatientEmail: body.PatientEmail,
		PatientName:  body.PatientName,
		DoctorName:   body.DoctorName,
		StartsAt:     startsAt,
		Location:     body.Location,
		Notes:        body.Notes,
	}
	if err := h.appointmentUsecase.SendCalendarInvite(c.Request.Context(), req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Calendar invite sent to " + req.PatientEmail})
}
