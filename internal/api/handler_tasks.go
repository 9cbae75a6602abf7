package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/model"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/task"
)

type createTaskRequest struct {
	Type         string     `json:"type" binding:"required"`
	Priority     string     `json:"priority"`
	Description  string     `json:"description"`
	ScheduledFor *time.Time `json:"scheduledFor"`
	RoomID       int64      `json:"roomId" binding:"required"`
	BookingID    *int64     `json:"bookingId"`
}

func (h *Handler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.tasks.Create(c.Request.Context(), task.CreateInput{
		Type:         model.TaskType(req.Type),
		Priority:     model.TaskPriority(req.Priority),
		Description:  req.Description,
		ScheduledFor: req.ScheduledFor,
		RoomID:       req.RoomID,
		BookingID:    req.BookingID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// ListTasks filters tasks by status, type, roomId, assignedToId, bookingId
// and dueBefore.
func (h *Handler) ListTasks(c *gin.Context) {
	filter := store.TaskFilter{
		Status: model.TaskStatus(c.Query("status")),
		Type:   model.TaskType(c.Query("type")),
	}
	var err error
	if filter.RoomID, err = queryInt(c, "roomId"); err != nil {
		respondError(c, err)
		return
	}
	if filter.AssignedToID, err = queryInt(c, "assignedToId"); err != nil {
		respondError(c, err)
		return
	}
	if filter.BookingID, err = queryInt(c, "bookingId"); err != nil {
		respondError(c, err)
		return
	}
	if raw := c.Query("dueBefore"); raw != "" {
		due, err := parseDate("dueBefore", raw)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.DueBefore = &due
	}

	tasks, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *Handler) GetTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	t, err := h.tasks.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type assigneeRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

func (h *Handler) AssignTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assigneeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.tasks.AssignWorker(c.Request.Context(), id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type taskStatusRequest struct {
	Status      string `json:"status" binding:"required"`
	NewDoorCode string `json:"newDoorCode"`
}

// UpdateTaskStatus moves a task on behalf of the user in ActorHeader.
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.tasks.UpdateStatus(c.Request.Context(), id, task.StatusChange{
		Status:      model.TaskStatus(req.Status),
		ActorUserID: actor,
		NewDoorCode: req.NewDoorCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTask(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
