package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/gatherly/internal/services"
	"github.com/thereayou/gatherly/internal/websocket"
)

func httpStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyJoined),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrEventFull):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotParticipant):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := httpStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	c.JSON(status, gin.H{"error": msg})
}

// clientError tags a service error with the code sent to the websocket client.
func clientError(err error) *websocket.ClientError {
	ce := &websocket.ClientError{Code: "internal", Err: err}
	switch {
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, websocket.ErrInvalidMessage):
		ce.Code = "invalid_argument"
	case errors.Is(err, services.ErrNotFound):
		ce.Code = "not_found"
	case errors.Is(err, services.ErrUnauthorized):
		ce.Code = "unauthorized"
	case errors.Is(err, services.ErrForbidden):
		ce.Code = "forbidden"
	case errors.Is(err, services.ErrPersistence):
		ce.Code = "persistence_failure"
		ce.Retryable = true
	}
	return ce
}
