// README: Shared handler helpers for error mapping.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"charter/internal/modules/booking"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, booking.ErrStopSlotEmpty):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrStopSlotsFull),
		errors.Is(err, booking.ErrJobCostLocked):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
