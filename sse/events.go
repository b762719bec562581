package sse

import (
	"encoding/json"
	"fmt"
)

// Event type names sent in the SSE "event:" field.
const (
	EventTypeConnected           = "connected"
	EventTypeTranscription       = "transcription"
	EventTypeTranscriptionFailed = "transcription_failed"
	EventTypeDecision            = "decision"
	EventTypePlayback            = "playback"
	EventTypeGeneratedResponse   = "generated_response"
	EventTypeDeliveryFailed      = "delivery_failed"
	EventTypeBackpressure        = "backpressure"
	EventTypeSessionStopped      = "session_stopped"
)

// Event is one named SSE frame.
type Event struct {
	Type string
	Data []byte
}

// Encode renders the event in wire format.
func (e Event) Encode() []byte {
	if e.Type == "" {
		return []byte(fmt.Sprintf("data: %s\n\n", e.Data))
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", e.Type, e.Data))
}

// Broadcaster sends events to clients whose id matches a glob pattern.
type Broadcaster interface {
	BroadcastToPattern(pattern string, event Event)
}

// Publish JSON-encodes payload and broadcasts it as eventType.
func Publish(b Broadcaster, pattern, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sse: encode %s event: %w", eventType, err)
	}
	b.BroadcastToPattern(pattern, Event{Type: eventType, Data: data})
	return nil
}

// SessionClientID names a connection listening to sessionID.
func SessionClientID(sessionID, connID string) string {
	return "session:" + sessionID + ":" + connID
}

// SessionPattern matches every connection listening to sessionID.
func SessionPattern(sessionID string) string {
	return "session:" + sessionID + ":*"
}
