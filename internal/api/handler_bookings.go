package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/model"
)

type createBookingRequest struct {
	GuestID  int64     `json:"guestId" binding:"required"`
	CheckIn  time.Time `json:"checkIn" binding:"required"`
	CheckOut time.Time `json:"checkOut" binding:"required"`
	RoomIDs  []int64   `json:"roomIds" binding:"required"`
}

// CreateBooking books specific rooms for an existing guest.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.bookings.Create(c.Request.Context(), booking.CreateInput{
		GuestID:  req.GuestID,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
		RoomIDs:  req.RoomIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

type publicGuest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type categoryCount struct {
	CategoryID int64 `json:"categoryId" binding:"required"`
	Count      int   `json:"count" binding:"required,min=1"`
}

type publicBookingRequest struct {
	Guest    publicGuest     `json:"guest" binding:"required"`
	CheckIn  time.Time       `json:"checkIn" binding:"required"`
	CheckOut time.Time       `json:"checkOut" binding:"required"`
	Rooms    []categoryCount `json:"rooms" binding:"required,min=1,dive"`
}

// CreatePublicBooking books rooms by category for a guest identified by email.
func (h *Handler) CreatePublicBooking(c *gin.Context) {
	var req publicBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	categories := make(map[int64]int, len(req.Rooms))
	for _, r := range req.Rooms {
		categories[r.CategoryID] += r.Count
	}
	b, err := h.bookings.CreatePublic(c.Request.Context(), booking.PublicInput{
		Guest: model.Guest{
			Email:     req.Guest.Email,
			FirstName: req.Guest.FirstName,
			LastName:  req.Guest.LastName,
			Phone:     req.Guest.Phone,
		},
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
		Categories: categories,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// ListBookings lists bookings in the status given by the status query parameter.
func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.ListByStatus(c.Request.Context(), model.BookingStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) GetBookingByReference(c *gin.Context) {
	b, err := h.bookings.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type updateBookingRequest struct {
	CheckIn  *time.Time `json:"checkIn"`
	CheckOut *time.Time `json:"checkOut"`
}

// UpdateBooking changes the stay dates.
func (h *Handler) UpdateBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.bookings.Update(c.Request.Context(), id, booking.UpdateInput{CheckIn: req.CheckIn, CheckOut: req.CheckOut})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type preferencesRequest struct {
	WantsDailyCleaning *bool `json:"wantsDailyCleaning"`
	RequestTowels      *bool `json:"requestTowels"`
}

func (h *Handler) UpdateBookingPreferences(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.bookings.UpdatePreferences(c.Request.Context(), id, booking.Preferences{
		WantsDailyCleaning: req.WantsDailyCleaning,
		RequestTowels:      req.RequestTowels,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.bookings.UpdateStatus(c.Request.Context(), id, model.BookingStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type paymentRequest struct {
	PaymentStatus string `json:"paymentStatus" binding:"required"`
}

func (h *Handler) UpdateBookingPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.bookings.UpdatePaymentStatus(c.Request.Context(), id, model.PaymentStatus(req.PaymentStatus))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.bookings.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.bookings.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type issueRequest struct {
	RoomID      int64  `json:"roomId" binding:"required"`
	Description string `json:"description" binding:"required"`
	Priority    string `json:"priority"`
}

// ReportIssue files a guest-reported problem as a REPAIR task.
func (h *Handler) ReportIssue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.bookings.ReportIssue(c.Request.Context(), id, req.RoomID, req.Description, model.TaskPriority(req.Priority))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GetAccessCodes discloses the door and key box codes of a paid, active booking.
func (h *Handler) GetAccessCodes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	codes, err := h.access.Codes(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": codes})
}
