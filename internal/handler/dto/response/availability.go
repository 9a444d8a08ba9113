package response

import (
	"booking-engine/internal/domain/scheduling"
	"booking-engine/internal/usecase/queries"
)

type SlotResponse struct {
	Time              string `json:"time"`
	EndTime           string `json:"endTime"`
	RemainingCapacity int    `json:"remainingCapacity"`
}

type SlotsResponse struct {
	Success bool           `json:"success"`
	Slots   []SlotResponse `json:"slots"`
}

type SlotCheckResponse struct {
	Success        bool   `json:"success"`
	Available      bool   `json:"available"`
	AvailabilityID *int64 `json:"availabilityId,omitempty"`
}

type CalendarResponse struct {
	Success  bool                          `json:"success"`
	Calendar map[string]queries.DaySummary `json:"calendar"`
}

func FromSlots(slots []scheduling.Slot) SlotsResponse {
	out := SlotsResponse{Success: true, Slots: make([]SlotResponse, 0, len(slots))}
	for _, s := range slots {
		out.Slots = append(out.Slots, SlotResponse{
			Time:              s.Range.Start.String(),
			EndTime:           s.Range.End.String(),
			RemainingCapacity: s.RemainingCapacity,
		})
	}
	return out
}
