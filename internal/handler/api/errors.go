package api

import (
	"net/http"
	"strconv"

	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

var bookingMessages = []struct {
	err error
	msg string
}{
	{commands.ErrSlotUnavailable, "The requested time is outside available hours."},
	{commands.ErrBlackedOut, "This date is not available for booking."},
	{commands.ErrInsufficientCapacity, "This time slot is no longer available."},
	{commands.ErrVariationInactive, "The selected option is not available."},
	{queries.ErrServiceInactive, "The selected service is not available."},
}

func respondError(c *gin.Context, err error) {
	respondErrorWithStatus(c, httperr.StatusOf(err), err)
}

func respondErrorWithStatus(c *gin.Context, status int, err error) {
	for _, m := range bookingMessages {
		if errs.Is(err, m.err) {
			httperr.AbortWithMessage(c, status, err, m.msg)
			return
		}
	}
	httperr.AbortWithMessage(c, status, err, httperr.Message(err))
}

func respondReservation(c *gin.Context, status int, view *queries.ReservationView) {
	body, err := resdto.NewReservationEnvelope(view)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httperr.Abort(c, errs.Invalid("id", "must be a positive integer"))
		return 0, false
	}
	return id, true
}
