package analytics

import "time"

// EventType labels analytics events on the wire.
type EventType string

const (
	EventSearch EventType = "search"
	EventIndex  EventType = "index_document"
	EventRemove EventType = "remove_document"
)

// SearchEvent records one ranked query.
type SearchEvent struct {
	Type       EventType `json:"type"`
	Query      string    `json:"query"`
	Status     string    `json:"status"`
	Hits       int       `json:"hits"`
	LatencyMs  int64     `json:"latency_ms"`
	CacheHit   bool      `json:"cache_hit"`
	ZeroResult bool      `json:"zero_result"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
}

// IndexEvent records a document add or remove.
type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID int       `json:"document_id"`
	Words      int       `json:"words"`
	Timestamp  time.Time `json:"timestamp"`
}
