package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/handlers/dto"
	"github.com/thereayou/gatherly/internal/middleware"
	"github.com/thereayou/gatherly/internal/services"
)

type NoticeHandler struct {
	notices *services.NoticeService
}

func NewNoticeHandler(notices *services.NoticeService) *NoticeHandler {
	return &NoticeHandler{notices: notices}
}

func (h *NoticeHandler) List(c *gin.Context) {
	notices, err := h.notices.ListRecent(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notices": notices})
}

// Create announces activity by the caller on an event.
func (h *NoticeHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uuid.UUID)

	var req dto.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}

	notice, err := h.notices.Announce(c.Request.Context(), userID, eventID, services.NoticeAction(req.ActionType))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notice)
}
