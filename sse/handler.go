package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/standin/logger"
)

// KeepAliveInterval is shorter than common proxy idle timeouts.
var KeepAliveInterval = 30 * time.Second

// ConnectedEvent is the first event of every stream.
type ConnectedEvent struct {
	ClientID  string `json:"client_id"`
	SessionID string `json:"session_id"`
}

// ServeSSE streams the events of sessionID to w until the request ends or
// the hub stops.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, sessionID string) {
	log := logger.Get("sse")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Long-lived stream: lift the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := NewClient(SessionClientID(sessionID, uuid.NewString()), sessionID)
	hub.Register(client)
	defer hub.Unregister(client)

	hello, _ := json.Marshal(ConnectedEvent{ClientID: client.ID(), SessionID: sessionID})
	_, _ = w.Write(Event{Type: EventTypeConnected, Data: hello}.Encode())
	flusher.Flush()

	log.Debug("client connected", logger.Fields(
		"client_id", client.ID(),
		logger.FieldSessionID, sessionID,
		"remote_addr", r.RemoteAddr,
	))

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-client.Events():
			if !ok {
				return
			}
			_, _ = w.Write(event.Encode())
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}
