package session

import (
	"github.com/kbukum/standin/selector"
	"github.com/kbukum/standin/transcription"
)

// TranscriptionEvent is published for every transcribed window.
type TranscriptionEvent struct {
	SessionID string `json:"sessionId"`
	Window    int    `json:"window"`
	transcription.Result
}

// TranscriptionFailedEvent is published when every provider failed.
type TranscriptionFailedEvent struct {
	SessionID string `json:"sessionId"`
	Window    int    `json:"window"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
}

// DecisionEvent carries the single decision made for a window.
type DecisionEvent struct {
	SessionID  string            `json:"sessionId"`
	Window     int               `json:"window"`
	Transcript string            `json:"transcript"`
	ProviderID string            `json:"providerId,omitempty"`
	Decision   selector.Decision `json:"decision"`
}

// BackpressureEvent reports a window dropped from a full queue.
type BackpressureEvent struct {
	SessionID  string `json:"sessionId"`
	Window     int    `json:"window"`
	QueueDepth int    `json:"queueDepth"`
}
