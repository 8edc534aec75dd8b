package delivery

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carelink-backend/internal/task/domain"
	"carelink-backend/internal/task/usecase"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
	}
}

// GetTasks returns pending tasks filtered by the supplied patient context and
// triggers a background scan as a side effect.
// GET /api/tasks?patient_name=Jane%20Doe&doctor_emails=a@b.com,c@d.com&doctor_names=Smith&contact_emails=x@y.com
func (h *TaskHandler) GetTasks(c *gin.Context) {
	go h.taskUsecase.TriggerScan(context.Background())

	pc := domain.PatientContext{
		PatientName:   c.Query("patient_name"),
		DoctorEmails:  splitList(c.Query("doctor_emails")),
		DoctorNames:   splitList(c.Query("doctor_names")),
		ContactEmails: splitList(c.Query("contact_emails")),
		ContactNames:  splitList(c.Query("contact_names")),
	}

	tasks := h.taskUsecase.ListTasks(pc)

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// TriggerScan starts a scan immediately; skipped when one is in flight
// POST /api/tasks/scan
func (h *TaskHandler) TriggerScan(c *gin.Context) {
	go h.taskUsecase.TriggerScan(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"message": "Scan triggered"})
}

// AcceptTask runs the task's executor and completes it
// POST /api/tasks/:id/accept
func (h *TaskHandler) AcceptTask(c *gin.Context) {
	id := c.Param("id")

	if err := h.taskUsecase.Accept(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		var transportErr *domain.TransportError
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrInvalidTransition):
			status = http.StatusConflict
		case errors.As(err, &transportErr):
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task completed"})
}

// DismissTask transitions a pending task to dismissed
// POST /api/tasks/:id/dismiss
func (h *TaskHandler) DismissTask(c *gin.Context) {
	id := c.Param("id")

	if err := h.taskUsecase.Dismiss(id); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			status = http.StatusNotFound
		case errors.Is(err, domain.ErrInvalidTransition):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task dismissed"})
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
