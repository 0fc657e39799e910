package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/handlers/dto"
	"github.com/thereayou/gatherly/internal/middleware"
	"github.com/thereayou/gatherly/internal/services"
)

type EventHandler struct {
	events    *services.EventService
	countdown *services.CountdownService
}

func NewEventHandler(events *services.EventService, countdown *services.CountdownService) *EventHandler {
	return &EventHandler{events: events, countdown: countdown}
}

func (h *EventHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Create(c.Request.Context(), userID, services.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
		Category:    req.Category,
		Capacity:    req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "event created", "event": event})
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *EventHandler) Get(c *gin.Context) {
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	event, err := h.events.Get(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Join(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.JoinEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	event, err := h.events.Join(c.Request.Context(), eventID, userID, req.Interests)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "registered", "event": event})
}

// Update edits an event; only its organizer may.
func (h *EventHandler) Update(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.events.Update(c.Request.Context(), eventID, userID, services.UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		Time:        req.Time,
		Category:    req.Category,
		Capacity:    req.Capacity,
		Status:      req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event updated", "event": event})
}

func (h *EventHandler) Delete(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.events.Delete(c.Request.Context(), eventID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

func (h *EventHandler) Withdraw(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)
	eventID, ok := parseID(c, "id")
	if !ok {
		return
	}

	event, err := h.events.Withdraw(c.Request.Context(), eventID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "withdrawn", "event": event})
}

// Nearest returns the caller's nearest event using the countdown policy.
func (h *EventHandler) Nearest(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	event, err := h.countdown.Nearest(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
