package api

import (
	"net/http"

	reqdto "booking-engine/internal/handler/dto/request"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the customer-facing booking endpoints.
type BookingHandler struct {
	commands commands.BookingCommands
	queries  queries.ReservationQueries
}

func NewBookingHandler(commands commands.BookingCommands, queries queries.ReservationQueries) *BookingHandler {
	return &BookingHandler{commands: commands, queries: queries}
}

// @Summary Create booking
// @Description Validate and create a reservation. Field errors are returned with status 200 and success false.
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.CreateBookingRequest true "Booking"
// @Success 201 {object} resdto.ReservationEnvelope
// @Success 200 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 429 {object} httperr.Response
// @Router /create-booking [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.commands.CreateBooking(c.Request.Context(), req.ToParams())
	if err != nil {
		if errs.IsValidation(err) {
			respondErrorWithStatus(c, http.StatusOK, err)
			return
		}
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusCreated, queries.ViewOf(res))
}

// @Summary Cancel booking by token
// @Description Customer cancellation using the confirmation token, subject to the cancellation window
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.CancelByTokenRequest true "Token"
// @Success 200 {object} resdto.ReservationEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/cancel [post]
func (h *BookingHandler) CancelByToken(c *gin.Context) {
	var req reqdto.CancelByTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, errs.Invalid("token", "token is required"))
		return
	}

	res, err := h.commands.CancelByToken(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusOK, queries.ViewOf(res))
}

// @Summary Get booking by token
// @Tags bookings
// @Produce json
// @Param token path string true "Confirmation token"
// @Success 200 {object} resdto.ReservationEnvelope
// @Failure 404 {object} httperr.Response
// @Router /bookings/{token} [get]
func (h *BookingHandler) GetByToken(c *gin.Context) {
	view, err := h.queries.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusOK, view)
}
