package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/model"
)

// GetAvailability answers how many rooms of a category are free over
// [start, end].
func (h *Handler) GetAvailability(c *gin.Context) {
	categoryID, err := queryInt(c, "categoryId")
	if err != nil {
		respondError(c, err)
		return
	}
	start, err := parseDate("start", c.Query("start"))
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := parseDate("end", c.Query("end"))
	if err != nil {
		respondError(c, err)
		return
	}
	result, err := h.availability.CheckAvailability(c.Request.Context(), categoryID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type reserveRequest struct {
	CategoryID int64     `json:"categoryId" binding:"required"`
	StartDate  time.Time `json:"startDate" binding:"required"`
	EndDate    time.Time `json:"endDate" binding:"required"`
}

// CreateReservation holds one room of a category for a date range.
func (h *Handler) CreateReservation(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.availability.Reserve(c.Request.Context(), req.CategoryID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

type assignRoomRequest struct {
	RoomID int64 `json:"roomId" binding:"required"`
}

func (h *Handler) AssignReservationRoom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.availability.AssignRoom(c.Request.Context(), id, req.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) UpdateReservationStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.availability.UpdateReservationStatus(c.Request.Context(), id, model.ReservationStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
