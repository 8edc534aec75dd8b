package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", h.sseManager.HandleSSE)

		// Task routes - the scan pipeline surfaces tasks here
		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.taskHandler.GetTasks)
			tasks.POST("/scan", h.taskHandler.TriggerScan)
			tasks.POST("/:id/accept", h.taskHandler.AcceptTask)
			tasks.POST("/:id/dismiss", h.taskHandler.DismissTask)
		}

		// Patient profile routes (require a database)
		if h.patientHandler != nil {
			patients := api.Group("/patients")
			{
				patients.GET("", h.patientHandler.ListPatients)
				patients.POST("", h.patientHandler.CreatePatient)
				patients.GET("/:id", h.patientHandler.GetPatient)
				patients.PUT("/:id", h.patientHandler.UpdatePatient)
				patients.DELETE("/:id", h.patientHandler.DeletePatient)
				patients.POST("/:id/doctors", h.patientHandler.AddDoctor)
				patients.POST("/:id/contacts", h.patientHandler.AddContact)
				patients.GET("/:id/context", h.patientHandler.GetContext)
			}

			fcm := api.Group("/fcm")
			{
				fcm.POST("/register", h.patientHandler.RegisterDevice)
				fcm.DELETE("/:token", h.patientHandler.UnregisterDevice)
			}
		}

		// Symptom triage and appointment mail
		if h.appointmentHandler != nil {
			api.POST("/symptoms/analyze", h.appointmentHandler.AnalyzeSymptom)
			appointments := api.Group("/appointments")
			{
				appointments.POST("/book", h.appointmentHandler.BookAppointment)
				appointments.POST("/calendar-invite", h.appointmentHandler.SendCalendarInvite)
			}
		}

		// Autonomous agent
		if h.agentHandler != nil {
			api.POST("/agent", h.agentHandler.Run)
		}
	}
}
