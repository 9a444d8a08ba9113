//go:build e2e

package booking_test

import (
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/user"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/tests/common/authtest"
	"booking-engine/tests/common/dbtest"
	"booking-engine/tests/common/httptest"
	"booking-engine/tests/e2e"

	"github.com/stretchr/testify/suite"
)

// 2030-01-07 is a Monday, far enough ahead for any lead time.
const bookingDate = "2030-01-07"

type BookingE2ETestSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func TestBookingE2ETestSuite(t *testing.T) {
	suite.Run(t, new(BookingE2ETestSuite))
}

func (s *BookingE2ETestSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *BookingE2ETestSuite) seedVariation(capacity int) int64 {
	duration := 30
	vid := dbtest.CreateVariation(s.T(), s.DB, dbtest.VariationSeed{
		Title:                  "Group session",
		SlotDurationMinutes:    &duration,
		MaxCapacity:            capacity,
		AllowQuantitySelection: true,
	})
	dbtest.CreateRecurringAvailability(s.T(), s.DB, time.Monday, "09:00", "11:00", vid)
	return vid
}

func bookingBody(vid int64, start, end string, qty int) map[string]any {
	return map[string]any{
		"userName":    "Test User",
		"userEmail":   "test@example.com",
		"bookingDate": bookingDate,
		"startTime":   start,
		"endTime":     end,
		"quantity":    qty,
		"variationId": vid,
	}
}

func (s *BookingE2ETestSuite) TestBookingLifecycle() {
	s.Run("success: slots, booking, capacity and cancellation", func() {
		vid := s.seedVariation(2)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/available-slots",
			map[string]any{"date": bookingDate, "variationId": vid}, "")
		var slots resdto.SlotsResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &slots)
		s.Require().Len(slots.Slots, 4)
		s.Equal(2, slots.Slots[0].RemainingCapacity)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:00", "09:30", 2), "")
		var created resdto.ReservationEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)
		token := created.Reservation.ConfirmationToken
		s.NotEmpty(token)
		s.Equal(1, dbtest.CountPendingJobs(s.T(), s.DB, "booking.created"))

		// The cache was invalidated, so the full slot disappears immediately.
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/available-slots",
			map[string]any{"date": bookingDate, "variationId": vid}, "")
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &slots)
		s.Len(slots.Slots, 3)
		s.Equal("09:30", slots.Slots[0].Time)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:00", "09:30", 1), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "no longer available")

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/bookings/"+token, nil, "")
		s.Equal(http.StatusOK, rec.Code)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/bookings/cancel", map[string]any{"token": token}, "")
		var cancelled resdto.ReservationEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &cancelled)
		s.Equal("cancelled", cancelled.Reservation.Status)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:00", "09:30", 2), "")
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("success: validation errors answer 200 with field messages", func() {
		vid := s.seedVariation(1)
		body := bookingBody(vid, "09:00", "09:30", 1)
		body["userEmail"] = "not-an-email"

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", body, "")
		httptest.AssertFieldErrors(s.T(), rec, http.StatusOK, "userEmail")
	})

	s.Run("success: blackout empties slots", func() {
		vid := s.seedVariation(1)
		dbtest.CreateBlackout(s.T(), s.DB, "Holiday", bookingDate, bookingDate)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/available-slots",
			map[string]any{"date": bookingDate, "variationId": vid}, "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"success":true,"slots":[]}`, rec.Body.String())
	})
}

func (s *BookingE2ETestSuite) TestConcurrentBookingsRespectCapacity() {
	s.Run("success: never oversells under contention", func() {
		vid := s.seedVariation(3)

		const writers = 12
		codes := make(chan int, writers)
		var wg sync.WaitGroup
		for range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "10:00", "10:30", 1), "")
				codes <- rec.Code
			}()
		}
		wg.Wait()
		close(codes)

		created := 0
		for code := range codes {
			if code == http.StatusCreated {
				created++
			} else {
				s.Equal(http.StatusConflict, code)
			}
		}
		s.Equal(3, created)
	})
}

func (s *BookingE2ETestSuite) TestCapacityPools() {
	s.Run("error: an existing booking's buffer blocks the next slot", func() {
		duration, buffer := 30, 15
		vid := dbtest.CreateVariation(s.T(), s.DB, dbtest.VariationSeed{
			Title:               "Buffered",
			SlotDurationMinutes: &duration,
			BufferMinutes:       &buffer,
			MaxCapacity:         1,
		})
		dbtest.CreateRecurringAvailability(s.T(), s.DB, time.Monday, "09:00", "11:00", vid)

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:00", "09:30", 1), "")
		s.Require().Equal(http.StatusCreated, rec.Code)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:30", "10:00", 1), "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusConflict, "no longer available")

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:45", "10:15", 1), "")
		s.Equal(http.StatusCreated, rec.Code)
	})

	s.Run("success: unscoped and variation bookings keep separate pools", func() {
		vid := s.seedVariation(1)
		unscoped := bookingBody(vid, "10:00", "10:30", 1)
		delete(unscoped, "variationId")

		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", unscoped, "")
		s.Require().Equal(http.StatusCreated, rec.Code)
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "10:00", "10:30", 1), "")
		s.Require().Equal(http.StatusCreated, rec.Code)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", unscoped, "")
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *BookingE2ETestSuite) TestAdmin() {
	s.Run("error: admin routes need a token", func() {
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/admin/bookings?date="+bookingDate, nil, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("success: operator lists and reschedules", func() {
		vid := s.seedVariation(1)
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/create-booking", bookingBody(vid, "09:00", "09:30", 1), "")
		var created resdto.ReservationEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &created)

		token := s.jwt.GenerateToken(s.T(), "ops@example.com", user.RoleOperator)
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodGet, "/api/admin/bookings?date="+bookingDate, nil, token)
		var list resdto.ReservationListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &list)
		s.Len(list.Items, 1)

		path := "/api/admin/bookings/" + strconv.FormatInt(created.Reservation.ID, 10) + "/schedule"
		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodPut, path,
			map[string]any{"bookingDate": bookingDate, "startTime": "10:30", "endTime": "11:00"}, token)
		var moved resdto.ReservationEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &moved)
		s.Equal("10:30", moved.Reservation.StartTime)

		rec = httptest.PerformRequest(s.T(), s.Router, http.MethodDelete, "/api/admin/bookings/"+strconv.FormatInt(created.Reservation.ID, 10), nil, token)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("success: admin creates a blackout", func() {
		token := s.jwt.GenerateToken(s.T(), "root@example.com", user.RoleAdmin)
		rec := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, "/api/admin/blackouts",
			map[string]any{"title": "Closed", "startDate": bookingDate, "endDate": bookingDate}, token)
		var body resdto.BlackoutEnvelope
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal("Closed", body.Blackout.Title)
	})
}
