package queries

import (
	"context"
	"fmt"
	"time"

	"booking-engine/internal/domain/timerange"
)

const slotKeyPrefix = "slots:"

func optID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}

// Keys start with the date so a write can drop every variant for that date at once.
func slotCacheKey(q SlotQuery) string {
	return fmt.Sprintf("%s%s:e=%s:l=%s:s=%s:v=%s:src=%s/%s/%s:q=%d",
		slotKeyPrefix,
		timerange.FormatDate(q.Date),
		optID(q.EmployeeID),
		optID(q.LocationID),
		optID(q.ServiceID),
		optID(q.VariationID),
		q.Source.Kind, optID(q.Source.ID), q.Source.Handle,
		q.Quantity,
	)
}

type Invalidator interface {
	InvalidateDate(ctx context.Context, date time.Time) error
	InvalidateAll(ctx context.Context) error
}

type cacheInvalidator struct {
	cache Cache
}

func NewCacheInvalidator(cache Cache) Invalidator {
	return &cacheInvalidator{cache: cache}
}

func (i *cacheInvalidator) InvalidateDate(ctx context.Context, date time.Time) error {
	return i.cache.DeletePrefix(ctx, slotKeyPrefix+timerange.FormatDate(date)+":")
}

// InvalidateAll is for availability or schedule edits, which can affect any date.
func (i *cacheInvalidator) InvalidateAll(ctx context.Context) error {
	return i.cache.DeletePrefix(ctx, slotKeyPrefix)
}
