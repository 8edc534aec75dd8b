package delivery

import (
	"net/http"
	"strings"

	patientdomain "carelink-backend/internal/patient/domain"
	"carelink-backend/internal/patient/repository"
	"carelink-backend/internal/patient/usecase"

	"github.com/gin-gonic/gin"
)

// PatientHandler exposes patient profile CRUD and device token registration
type PatientHandler struct {
	patientUsecase usecase.PatientUsecase
	deviceRepo     repository.DeviceTokenRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientUsecase usecase.PatientUsecase, deviceRepo repository.DeviceTokenRepository) *PatientHandler {
	return &PatientHandler{
		patientUsecase: patientUsecase,
		deviceRepo:     deviceRepo,
	}
}

// CreatePatient handles POST /api/patients
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var patient patientdomain.Patient
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.patientUsecase.CreatePatient(&patient); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, patient)
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(c *gin.Context) {
	patients, err := h.patientUsecase.ListPatients()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list patients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients, "count": len(patients)})
}

// GetPatient handles GET /api/patients/:id
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patient, err := h.patientUsecase.GetPatient(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get patient"})
		return
	}
	if patient == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patient not found"})
		return
	}
	c.JSON(http.StatusOK, patient)
}

// UpdatePatient handles PUT /api/patients/:id
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var patient patientdomain.Patient
	if err := c.ShouldBindJSON(&patient); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	patient.ID = c.Param("id")

	if err := h.patientUsecase.UpdatePatient(&patient); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update patient"})
		return
	}
	c.JSON(http.StatusOK, patient)
}

// DeletePatient handles DELETE /api/patients/:id
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.patientUsecase.DeletePatient(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete patient"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted"})
}

// AddDoctor handles POST /api/patients/:id/doctors
func (h *PatientHandler) AddDoctor(c *gin.Context) {
	var doctor patientdomain.Doctor
	if err := c.ShouldBindJSON(&doctor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.patientUsecase.AddDoctor(c.Param("id"), &doctor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, doctor)
}

// AddContact handles POST /api/patients/:id/contacts
func (h *PatientHandler) AddContact(c *gin.Context) {
	var contact patientdomain.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.patientUsecase.AddContact(c.Param("id"), &contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// GetContext handles GET /api/patients/:id/context
func (h *PatientHandler) GetContext(c *gin.Context) {
	pc, err := h.patientUsecase.GetContext(c.Param("id"))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build patient context"})
		return
	}
	c.JSON(http.StatusOK, pc)
}

// RegisterDevice handles POST /api/fcm/register
func (h *PatientHandler) RegisterDevice(c *gin.Context) {
	var req struct {
		Token      string `json:"token" binding:"required"`
		DeviceInfo string `json:"device_info"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.deviceRepo.SaveToken(req.Token, req.DeviceInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
}

// UnregisterDevice handles DELETE /api/fcm/:token
func (h *PatientHandler) UnregisterDevice(c *gin.Context) {
	if err := h.deviceRepo.DeleteToken(c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unregister device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
