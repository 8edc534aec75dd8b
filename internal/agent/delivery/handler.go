package delivery

import (
	"log"
	"net/http"

	"carelink-backend/internal/agent/usecase"
	patientdomain "carelink-backend/internal/patient/domain"
	patientusecase "carelink-backend/internal/patient/usecase"

	"github.com/gin-gonic/gin"
)

// AgentHandler exposes the autonomous agent endpoint
type AgentHandler struct {
	agentUsecase   usecase.AgentUsecase
	patientUsecase patientusecase.PatientUsecase
}

// NewAgentHandler creates a new agent handler. patientUsecase may be nil
// when no database is configured.
func NewAgentHandler(agentUsecase usecase.AgentUsecase, patientUsecase patientusecase.PatientUsecase) *AgentHandler {
	return &AgentHandler{
		agentUsecase:   agentUsecase,
		patientUsecase: patientUsecase,
	}
}

// Run handles POST /api/agent
func (h *AgentHandler) Run(c *gin.Context) {
	var req struct {
		Prompt    string `json:"prompt" binding:"required"`
		PatientID string `json:"patient_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	var patient *patientdomain.Patient
	if req.PatientID != "" && h.patientUsecase != nil {
		p, err := h.patientUsecase.GetPatient(req.PatientID)
		if err != nil {
			log.Printf("[Agent] Could not load patient %s: %v", req.PatientID, err)
		}
		patient = p
	}

	result, err := h.agentUsecase.Run(c.Request.Context(), req.Prompt, patient)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
