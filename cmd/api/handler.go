package api

import (
	agentDelivery "carelink-backend/internal/agent/delivery"
	appointmentDelivery "carelink-backend/internal/appointment/delivery"
	patientDelivery "carelink-backend/internal/patient/delivery"
	taskDelivery "carelink-backend/internal/task/delivery"
	taskUsecasePkg "carelink-backend/internal/task/usecase"
	"carelink-backend/pkg/config"
	"carelink-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	taskHandler        *taskDelivery.TaskHandler
	patientHandler     *patientDelivery.PatientHandler
	appointmentHandler *appointmentDelivery.AppointmentHandler
	agentHandler       *agentDelivery.AgentHandler
	sseManager         *sse.Manager
	config             *config.Config
}

// NewHandler wires the delivery handlers together. patientHandler and
// agentHandler may be nil when their dependencies are not configured; the
// router skips their routes.
func NewHandler(taskUc taskUsecasePkg.TaskUsecase, patientHandler *patientDelivery.PatientHandler, appointmentHandler *appointmentDelivery.AppointmentHandler, agentHandler *agentDelivery.AgentHandler, sseManager *sse.Manager, cfg *config.Config) *Handler {
	return &Handler{
		taskHandler:        taskDelivery.NewTaskHandler(taskUc),
		patientHandler:     patientHandler,
		appointmentHandler: appointmentHandler,
		agentHandler:       agentHandler,
		sseManager:         sseManager,
		config:             cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)

	return r.Run(addr)
}
