package queries

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"booking-engine/internal/domain/timerange"
)

const (
	MaxListLimit    = 200
	CursorVersionV1 = "v1"
)

// Keyset position within one booking date: start time then id.
func EncodeAfterCursor(start timerange.TimeOfDay, id int64) string {
	cursorData := fmt.Sprintf("%s:%d-%d", CursorVersionV1, int(start), id)
	return base64.URLEncoding.EncodeToString([]byte(cursorData))
}

func DecodeAfterCursor(cursor string) (timerange.TimeOfDay, int64, error) {
	if cursor == "" {
		return 0, 0, fmt.Errorf("cursor cannot be empty")
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cursor encoding: %w", err)
	}
	decodedStr := string(decoded)
	if !strings.HasPrefix(decodedStr, CursorVersionV1+":") {
		return 0, 0, fmt.Errorf("unsupported cursor version")
	}
	return parseVersionedCursor(decodedStr)
}

func parseVersionedCursor(cursorData string) (timerange.TimeOfDay, int64, error) {
	payload := strings.TrimPrefix(cursorData, CursorVersionV1+":")

	parts := strings.SplitN(payload, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cursor format: expected '<minutes>-<id>'")
	}

	minutes, err := strconv.Atoi(parts[0])
	if err != nil || minutes < 0 || minutes > timerange.MinutesPerDay {
		return 0, 0, fmt.Errorf("invalid start minute: %q", parts[0])
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid id: %w", err)
	}

	return timerange.TimeOfDay(minutes), id, nil
}

type Cursor struct {
	After string `json:"after,omitempty"`
}

func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default limit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
