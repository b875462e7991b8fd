package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the resolution stream
const (
	EventTickResolution = "tick_resolution"
)

// Stream names
const (
	StreamResolutions = "stream:resolutions"
)

// Consumer group name for resolution workers
const (
	ConsumerGroupResolutions = "resolution_workers"
)

// ResolutionEvent is a user decision on a reminder tick arriving through an
// asynchronous channel (notification action button). The stream gives
// at-least-once delivery; the action router's idempotence turns that into
// exactly one counter mutation per tick id.
type ResolutionEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix timestamp when the action arrived

	UserID    int64  `json:"user_id"`
	TickID    string `json:"tick_id"`
	Decision  string `json:"decision"` // "yes" or "no"
	ServingML int    `json:"serving_ml"`
}

// NewResolutionEvent creates an event for a decision taken on a tick.
func NewResolutionEvent(userID int64, tickID, decision string, servingML int) ResolutionEvent {
	return ResolutionEvent{
		Type:      EventTickResolution,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		TickID:    tickID,
		Decision:  decision,
		ServingML: servingML,
	}
}

// ToMap converts the event to a map for Redis XADD. Streams store
// field-value pairs, so the event is serialized to JSON in a "data" field.
func (e ResolutionEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseResolutionEvent parses a ResolutionEvent from stream message values.
func ParseResolutionEvent(values map[string]interface{}) (ResolutionEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return ResolutionEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event ResolutionEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return ResolutionEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
