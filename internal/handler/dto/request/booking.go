package request

import (
	"booking-engine/internal/usecase/commands"
)

type CreateBookingRequest struct {
	UserName     string `json:"userName"`
	UserEmail    string `json:"userEmail"`
	UserPhone    string `json:"userPhone,omitempty"`
	UserTimezone string `json:"userTimezone,omitempty"`
	BookingDate  string `json:"bookingDate"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Quantity     *int   `json:"quantity,omitempty"`
	VariationID  *int64 `json:"variationId,omitempty"`
	ServiceID    *int64 `json:"serviceId,omitempty"`
	EmployeeID   *int64 `json:"employeeId,omitempty"`
	LocationID   *int64 `json:"locationId,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Field checks happen in the command so every failure is reported by field name.
func (r CreateBookingRequest) ToParams() commands.CreateBookingParams {
	qty := 1
	if r.Quantity != nil {
		qty = *r.Quantity
	}
	return commands.CreateBookingParams{
		Name:        r.UserName,
		Email:       r.UserEmail,
		Phone:       r.UserPhone,
		Timezone:    r.UserTimezone,
		Date:        r.BookingDate,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Quantity:    qty,
		VariationID: r.VariationID,
		ServiceID:   r.ServiceID,
		EmployeeID:  r.EmployeeID,
		LocationID:  r.LocationID,
		Notes:       r.Notes,
	}
}

type CancelByTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type RescheduleRequest struct {
	BookingDate string `json:"bookingDate" binding:"required"`
	StartTime   string `json:"startTime" binding:"required"`
	EndTime     string `json:"endTime" binding:"required"`
	Quantity    int    `json:"quantity,omitempty"`
}

func (r RescheduleRequest) ToParams() commands.RescheduleParams {
	return commands.RescheduleParams{
		Date:      r.BookingDate,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Quantity:  r.Quantity,
	}
}

type BlackoutRequest struct {
	Title       string  `json:"title" binding:"required"`
	StartDate   string  `json:"startDate" binding:"required"`
	EndDate     string  `json:"endDate" binding:"required"`
	LocationIDs []int64 `json:"locationIds,omitempty"`
	EmployeeIDs []int64 `json:"employeeIds,omitempty"`
}

func (r BlackoutRequest) ToParams() commands.BlackoutParams {
	return commands.BlackoutParams{
		Title:       r.Title,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		LocationIDs: r.LocationIDs,
		EmployeeIDs: r.EmployeeIDs,
	}
}

type ListBookingsRequest struct {
	Date  string `form:"date" binding:"required"`
	After string `form:"after"`
	Limit int    `form:"limit"`
}
