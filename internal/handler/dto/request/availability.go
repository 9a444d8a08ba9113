package request

import (
	"time"

	"booking-engine/internal/domain/availability"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"
)

// Filters shared by every availability read.
type SlotFilters struct {
	EmployeeID   *int64 `json:"employeeId,omitempty" form:"employeeId"`
	LocationID   *int64 `json:"locationId,omitempty" form:"locationId"`
	ServiceID    *int64 `json:"serviceId,omitempty" form:"serviceId"`
	VariationID  *int64 `json:"variationId,omitempty" form:"variationId"`
	SourceType   string `json:"sourceType,omitempty" form:"sourceType"`
	SourceID     *int64 `json:"sourceId,omitempty" form:"sourceId"`
	SourceHandle string `json:"sourceHandle,omitempty" form:"sourceHandle"`
	Quantity     int    `json:"quantity,omitempty" form:"quantity"`
}

func (f SlotFilters) toQuery(ve *errs.ValidationError) queries.SlotQuery {
	q := queries.SlotQuery{
		EmployeeID:  f.EmployeeID,
		LocationID:  f.LocationID,
		ServiceID:   f.ServiceID,
		VariationID: f.VariationID,
		Quantity:    f.Quantity,
		Source: availability.SourceFilter{
			ID:     f.SourceID,
			Handle: f.SourceHandle,
		},
	}
	if f.SourceType != "" {
		kind, err := availability.NewSourceKind(f.SourceType)
		if err != nil {
			ve.Add("sourceType", "must be entry or section")
		}
		q.Source.Kind = kind
	}
	if f.Quantity < 0 {
		ve.Add("quantity", "must be at least 1")
	}
	return q
}

type AvailableSlotsRequest struct {
	Date string `json:"date" binding:"required"`
	SlotFilters
}

func (r AvailableSlotsRequest) ToQuery() (queries.SlotQuery, error) {
	ve := errs.NewValidationError()
	q := r.SlotFilters.toQuery(ve)
	date, err := timerange.ParseDate(r.Date)
	if err != nil {
		ve.Add("date", "must be a YYYY-MM-DD date")
	}
	q.Date = date
	return q, ve.OrNil()
}

type SlotCheckRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	SlotFilters
}

func (r SlotCheckRequest) ToQuery() (queries.SlotQuery, timerange.Range, error) {
	ve := errs.NewValidationError()
	q := r.SlotFilters.toQuery(ve)
	date, err := timerange.ParseDate(r.Date)
	if err != nil {
		ve.Add("date", "must be a YYYY-MM-DD date")
	}
	q.Date = date

	start, err := timerange.ParseTimeOfDay(r.StartTime)
	if err != nil {
		ve.Add("startTime", "must be a HH:MM time")
	}
	end, err := timerange.ParseTimeOfDay(r.EndTime)
	if err != nil {
		ve.Add("endTime", "must be a HH:MM time")
	}
	rng := timerange.New(start, end)
	if !ve.HasErrors() && rng.IsEmpty() {
		ve.Add("endTime", "must be after startTime")
	}
	return q, rng, ve.OrNil()
}

type CalendarRange struct {
	Start time.Time
	End   time.Time
}

type CalendarRequest struct {
	StartDate string `form:"startDate" binding:"required"`
	EndDate   string `form:"endDate" binding:"required"`
	SlotFilters
}

func (r CalendarRequest) ToQuery() (queries.SlotQuery, CalendarRange, error) {
	ve := errs.NewValidationError()
	q := r.SlotFilters.toQuery(ve)
	var out CalendarRange
	var err error
	if out.Start, err = timerange.ParseDate(r.StartDate); err != nil {
		ve.Add("startDate", "must be a YYYY-MM-DD date")
	}
	if out.End, err = timerange.ParseDate(r.EndDate); err != nil {
		ve.Add("endDate", "must be a YYYY-MM-DD date")
	}
	return q, out, ve.OrNil()
}
