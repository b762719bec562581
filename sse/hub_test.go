package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case e := <-c.Events():
		return e
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func TestEvent_Encode(t *testing.T) {
	got := string(Event{Type: EventTypeDecision, Data: []byte(`{"kind":"no_action"}`)}.Encode())
	want := "event: decision\ndata: {\"kind\":\"no_action\"}\n\n"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
	if got := string((Event{Data: []byte("x")}).Encode()); got != "data: x\n\n" {
		t.Errorf("untyped Encode() = %q", got)
	}
}

func TestClient_SendFull(t *testing.T) {
	c := NewClient("session:a:1", "a")
	for i := 0; i < clientBuffer; i++ {
		if !c.send(Event{Type: "x"}) {
			t.Fatalf("send %d failed", i)
		}
	}
	if c.send(Event{Type: "overflow"}) {
		t.Error("expected send to fail when channel is full")
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := NewClient(SessionClientID("s1", "c1"), "s1")
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Unregister(c)
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	if _, open := <-c.Events(); open {
		t.Error("expected client channel closed after unregister")
	}
}

func TestHub_PublishToSession(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	a1 := NewClient(SessionClientID("a", "1"), "a")
	a2 := NewClient(SessionClientID("a", "2"), "a")
	b1 := NewClient(SessionClientID("b", "1"), "b")
	for _, c := range []*Client{a1, a2, b1} {
		hub.Register(c)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	if err := Publish(hub, SessionPattern("a"), EventTypePlayback, map[string]any{"recordingId": 7}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []*Client{a1, a2} {
		e := receive(t, c)
		if e.Type != EventTypePlayback || string(e.Data) != `{"recordingId":7}` {
			t.Errorf("%s got %+v", c.ID(), e)
		}
	}
	select {
	case e := <-b1.Events():
		t.Errorf("session b received %+v", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_StopIsIdempotentAndNonBlocking(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	c := NewClient(SessionClientID("s", "1"), "s")
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	hub.Stop()
	hub.Stop()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	done := make(chan struct{})
	go func() {
		hub.Register(NewClient("late", "s"))
		hub.Unregister(c)
		for i := 0; i < 300; i++ {
			hub.BroadcastToPattern("*", Event{Type: "x"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Stop")
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	c := NewComponent("/sessions/:id/events")
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(context.Background()); h.Message != "0 clients connected" {
		t.Errorf("health message = %q", h.Message)
	}
	if d := c.Describe(); d.Type != "sse" {
		t.Errorf("Describe() = %+v", d)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestServeSSE(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(hub, w, r, "s1")
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, http.NoBody)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, _ := r.ReadString('\n')
	if strings.TrimSpace(line) != "event: connected" {
		t.Fatalf("first line = %q", line)
	}
	_, _ = r.ReadString('\n')
	_, _ = r.ReadString('\n')

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	_ = Publish(hub, SessionPattern("s1"), EventTypeGeneratedResponse, map[string]string{"text": "hi"})

	line, _ = r.ReadString('\n')
	if strings.TrimSpace(line) != "event: generated_response" {
		t.Errorf("event line = %q", line)
	}
	line, _ = r.ReadString('\n')
	if strings.TrimSpace(line) != `data: {"text":"hi"}` {
		t.Errorf("data line = %q", line)
	}
}
