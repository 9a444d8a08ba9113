package api

import (
	"net/http"

	"booking-engine/internal/domain/timerange"
	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	commands commands.BookingCommands
	queries  queries.ReservationQueries
}

func NewAdminHandler(commands commands.BookingCommands, queries queries.ReservationQueries) *AdminHandler {
	return &AdminHandler{commands: commands, queries: queries}
}

// @Summary List bookings for a date
// @Description Ordered by start time then id. Pass nextCursor back as after.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param date query string true "YYYY-MM-DD"
// @Param after query string false "Cursor"
// @Param limit query int false "Page size (max 200)"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} httperr.Response
// @Router /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	var req reqdto.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	date, err := timerange.ParseDate(req.Date)
	if err != nil {
		respondError(c, errs.Invalid("date", "must be a YYYY-MM-DD date"))
		return
	}
	var after *queries.Cursor
	if req.After != "" {
		after = &queries.Cursor{After: req.After}
	}

	page, err := h.queries.ListByDate(c.Request.Context(), date, after, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	body, err := resdto.FromReservationPage(page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

// @Summary Get booking
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} resdto.ReservationEnvelope
// @Failure 404 {object} httperr.Response
// @Router /admin/bookings/{id} [get]
func (h *AdminHandler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusOK, view)
}

// @Summary Confirm booking
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} resdto.ReservationEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /admin/bookings/{id}/confirm [post]
func (h *AdminHandler) ConfirmBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	res, err := h.commands.ConfirmBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusOK, queries.ViewOf(res))
}

// @Summary Cancel booking
// @Description Administrative cancellation, not limited by the cancellation window
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} resdto.ReservationEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /admin/bookings/{id}/cancel [post]
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	res, err := h.commands.CancelBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusOK, queries.ViewOf(res))
}

// @Summary Reschedule booking
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Param request body reqdto.RescheduleRequest true "New slot"
// @Success 200 {object} resdto.ReservationEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /admin/bookings/{id}/schedule [put]
func (h *AdminHandler) RescheduleBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req reqdto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.commands.RescheduleBooking(c.Request.Context(), id, req.ToParams())
	if err != nil {
		respondError(c, err)
		return
	}
	respondReservation(c, http.StatusOK, queries.ViewOf(res))
}

// @Summary Delete booking
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reservation ID"
// @Success 200 {object} resdto.SuccessResponse
// @Failure 404 {object} httperr.Response
// @Router /admin/bookings/{id} [delete]
func (h *AdminHandler) DeleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.commands.DeleteBooking(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.SuccessResponse{Success: true})
}

// @Summary Create blackout
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.BlackoutRequest true "Blackout"
// @Success 201 {object} resdto.BlackoutEnvelope
// @Failure 400 {object} httperr.Response
// @Router /admin/blackouts [post]
func (h *AdminHandler) CreateBlackout(c *gin.Context) {
	var req reqdto.BlackoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.commands.CreateBlackout(c.Request.Context(), req.ToParams())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromBlackout(b))
}

// @Summary Delete blackout
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Blackout ID"
// @Success 200 {object} resdto.SuccessResponse
// @Failure 404 {object} httperr.Response
// @Router /admin/blackouts/{id} [delete]
func (h *AdminHandler) DeleteBlackout(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.commands.DeleteBlackout(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.SuccessResponse{Success: true})
}
