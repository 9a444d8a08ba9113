package response

import (
	"time"

	"booking-engine/internal/domain/blackout"
	"booking-engine/internal/domain/timerange"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/queries"

	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
	ID                int64     `json:"id"`
	UserName          string    `json:"userName"`
	UserEmail         string    `json:"userEmail"`
	UserPhone         string    `json:"userPhone,omitempty"`
	UserTimezone      string    `json:"userTimezone"`
	BookingDate       string    `json:"bookingDate"`
	StartTime         string    `json:"startTime"`
	EndTime           string    `json:"endTime"`
	Status            string    `json:"status"`
	Quantity          int       `json:"quantity"`
	VariationID       *int64    `json:"variationId,omitempty"`
	ServiceID         *int64    `json:"serviceId,omitempty"`
	EmployeeID        *int64    `json:"employeeId,omitempty"`
	LocationID        *int64    `json:"locationId,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	ConfirmationToken string    `json:"confirmationToken"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type ReservationEnvelope struct {
	Success     bool                 `json:"success"`
	Reservation *ReservationResponse `json:"reservation"`
}

type ReservationListResponse struct {
	Success    bool                   `json:"success"`
	Items      []*ReservationResponse `json:"items"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

type BlackoutResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	IsActive    bool    `json:"isActive"`
	LocationIDs []int64 `json:"locationIds"`
	EmployeeIDs []int64 `json:"employeeIds"`
}

type BlackoutEnvelope struct {
	Success  bool              `json:"success"`
	Blackout *BlackoutResponse `json:"blackout"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func FromReservationView(v *queries.ReservationView) (*ReservationResponse, error) {
	var out ReservationResponse
	if err := copier.Copy(&out, v); err != nil {
		return nil, errs.Wrap(err, "failed to map reservation view")
	}
	return &out, nil
}

func NewReservationEnvelope(v *queries.ReservationView) (ReservationEnvelope, error) {
	res, err := FromReservationView(v)
	if err != nil {
		return ReservationEnvelope{}, err
	}
	return ReservationEnvelope{Success: true, Reservation: res}, nil
}

func FromReservationPage(p *queries.ReservationPage) (ReservationListResponse, error) {
	out := ReservationListResponse{Success: true, Items: make([]*ReservationResponse, 0, len(p.Items))}
	for _, v := range p.Items {
		res, err := FromReservationView(v)
		if err != nil {
			return ReservationListResponse{}, err
		}
		out.Items = append(out.Items, res)
	}
	if p.Next != nil {
		out.NextCursor = p.Next.After
	}
	return out, nil
}

func FromBlackout(b *blackout.BlackoutDate) BlackoutEnvelope {
	return BlackoutEnvelope{
		Success: true,
		Blackout: &BlackoutResponse{
			ID:          b.ID(),
			Title:       b.Title(),
			StartDate:   timerange.FormatDate(b.StartDate()),
			EndDate:     timerange.FormatDate(b.EndDate()),
			IsActive:    b.IsActive(),
			LocationIDs: nonNil(b.LocationIDs()),
			EmployeeIDs: nonNil(b.EmployeeIDs()),
		},
	}
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
