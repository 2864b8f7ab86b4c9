package models

import (
	"encoding/json"
	"time"
)

// Itinerary is a saved travel plan for a destination. Content is an opaque
// structured document (days, activities, ...); the server stores it verbatim
// and never inspects its shape.
type Itinerary struct {
	ID          int64           `json:"id"`
	Destination string          `json:"destination"`
	Content     json.RawMessage `json:"content"`
	CreatedAt   time.Time       `json:"createdAt"`
}
