package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"hotel-ops-backend/internal/access"
	"hotel-ops-backend/internal/apperr"
	"hotel-ops-backend/internal/availability"
	"hotel-ops-backend/internal/booking"
	"hotel-ops-backend/internal/condition"
	"hotel-ops-backend/internal/mw"
	"hotel-ops-backend/internal/store"
	"hotel-ops-backend/internal/task"
)

// ActorHeader carries the id of the authenticated user making the request.
const ActorHeader = "X-User-ID"

// Deps are the services the HTTP layer calls into.
type Deps struct {
	Store        store.Store
	Bookings     *booking.Service
	Tasks        *task.Service
	Rooms        *condition.Tracker
	Availability *availability.Calculator
	Access       *access.Gate
	Webpush      *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store        store.Store
	bookings     *booking.Service
	tasks        *task.Service
	rooms        *condition.Tracker
	availability *availability.Calculator
	access       *access.Gate
	webpush      *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		store:        d.Store,
		bookings:     d.Bookings,
		tasks:        d.Tasks,
		rooms:        d.Rooms,
		availability: d.Availability,
		access:       d.Access,
		webpush:      d.Webpush,
	}
}

// respondError writes err as JSON. Application errors keep their code and
// message; anything else is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	var appErr *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		log.Printf("[%s] %s %s: %v", mw.GetRequestID(c), c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	body := gin.H{"code": appErr.Code, "error": appErr.Message}
	if appErr.Retryable {
		body["retryable"] = true
	}
	c.AbortWithStatusJSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": apperr.CodeInvalidInput, "error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": apperr.CodeInvalidInput, "error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// actorID returns the acting user from ActorHeader, or 0 when the header is
// absent.
func actorID(c *gin.Context) (int64, bool) {
	raw := c.GetHeader(ActorHeader)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"code": apperr.CodeInvalidInput, "error": "invalid " + ActorHeader})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Invalid(apperr.CodeInvalidInput, "invalid %s %q", key, raw)
	}
	return v, nil
}

// parseDate accepts a calendar date (UTC midnight) or an RFC 3339 timestamp.
func parseDate(key, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperr.Invalid(apperr.CodeInvalidInput, "%s is required", key)
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperr.Invalid(apperr.CodeInvalidInput, "invalid %s %q", key, raw)
	}
	return t.UTC(), nil
}
