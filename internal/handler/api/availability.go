package api

import (
	"net/http"

	reqdto "booking-engine/internal/handler/dto/request"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

// @Summary Available slots
// @Description Bookable slots for one date with remaining capacity
// @Tags availability
// @Accept json
// @Produce json
// @Param request body reqdto.AvailableSlotsRequest true "Slot query"
// @Success 200 {object} resdto.SlotsResponse
// @Failure 400 {object} httperr.Response
// @Router /available-slots [post]
func (h *AvailabilityHandler) AvailableSlots(c *gin.Context) {
	var req reqdto.AvailableSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, err := req.ToQuery()
	if err != nil {
		respondError(c, err)
		return
	}

	slots, err := h.availability.GetAvailableSlots(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSlots(slots))
}

// @Summary Slot check
// @Description Whether an exact range can be booked, with the owning availability
// @Tags availability
// @Accept json
// @Produce json
// @Param request body reqdto.SlotCheckRequest true "Slot"
// @Success 200 {object} resdto.SlotCheckResponse
// @Failure 400 {object} httperr.Response
// @Router /slot-check [post]
func (h *AvailabilityHandler) SlotCheck(c *gin.Context) {
	var req reqdto.SlotCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, rng, err := req.ToQuery()
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	ok, err := h.availability.IsSlotAvailable(ctx, q, rng)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := resdto.SlotCheckResponse{Success: true, Available: ok}
	if ok {
		a, err := h.availability.GetAvailabilityForSlot(ctx, q, rng)
		if err != nil {
			respondError(c, err)
			return
		}
		if a != nil {
			id := a.ID()
			resp.AvailabilityID = &id
		}
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Availability calendar
// @Description Per-day availability summary for an inclusive date range
// @Tags availability
// @Produce json
// @Param startDate query string true "YYYY-MM-DD"
// @Param endDate query string true "YYYY-MM-DD"
// @Param employeeId query int false "Employee"
// @Param locationId query int false "Location"
// @Param serviceId query int false "Service"
// @Param variationId query int false "Variation"
// @Success 200 {object} resdto.CalendarResponse
// @Failure 400 {object} httperr.Response
// @Router /availability-calendar [get]
func (h *AvailabilityHandler) Calendar(c *gin.Context) {
	var req reqdto.CalendarRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}
	q, rng, err := req.ToQuery()
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.availability.GetAvailabilitySummary(c.Request.Context(), rng.Start, rng.End, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.CalendarResponse{Success: true, Calendar: summary})
}
