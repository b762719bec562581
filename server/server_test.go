package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/standin/component"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
)

func newTestServer(t *testing.T, checker func(context.Context) []component.Health) *Server {
	t.Helper()
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	s := New(cfg, logger.Nop(), nil)
	s.RegisterDefaultEndpoints("standin", checker)
	return s
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want 0 for streaming", cfg.WriteTimeout)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.MaxBodySize != "25MB" {
		t.Errorf("MaxBodySize = %q", cfg.MaxBodySize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Port = 70000 }},
		{"timeout", func(c *Config) { c.ReadTimeout = -time.Second }},
		{"body size", func(c *Config) { c.MaxBodySize = "lots" }},
		{"rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		components []component.Health
		wantCode   int
		wantStatus string
	}{
		{"healthy", []component.Health{{Name: "db", Status: component.StatusHealthy}}, http.StatusOK, "healthy"},
		{"degraded", []component.Health{{Name: "router", Status: component.StatusDegraded}}, http.StatusOK, "degraded"},
		{"unhealthy", []component.Health{
			{Name: "router", Status: component.StatusDegraded},
			{Name: "db", Status: component.StatusUnhealthy},
		}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(context.Context) []component.Health { return tt.components })
			rec := serve(s, http.MethodGet, "/health")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body struct {
				Status  string `json:"status"`
				Service string `json:"service"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != tt.wantStatus || body.Service != "standin" {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestProbesAndVersion(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/alive", "/ready", "/version"} {
		rec := serve(s, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Errorf("%s missing request id", path)
		}
	}

	down := newTestServer(t, func(context.Context) []component.Health {
		return []component.Health{{Name: "db", Status: component.StatusUnhealthy}}
	})
	if rec := serve(down, http.MethodGet, "/ready"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready with unhealthy component = %d", rec.Code)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind apperrors.ErrorCode
	}{
		{"app error", apperrors.NotFound("session", "abc"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"wrapped", errors.Join(errors.New("ctx"), apperrors.Malformed("empty audio")), http.StatusBadRequest, apperrors.ErrCodeMalformed},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, apperrors.ErrCodeTimeout},
		{"plain", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.GinEngine().GET("/fail", func(c *gin.Context) { RespondWithError(c, tt.err) })

			rec := serve(s, http.MethodGet, "/fail")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			var body apperrors.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body.Error.Kind, tt.wantKind)
			}
		})
	}
}

func TestRoutesOrdering(t *testing.T) {
	s := newTestServer(t, nil)
	noop := func(*gin.Context) {}
	s.GinEngine().DELETE("/sessions/:id", noop)
	s.GinEngine().GET("/sessions/:id", noop)
	s.GinEngine().POST("/questions", noop)

	routes := s.Routes()
	if len(routes) != 7 {
		t.Fatalf("len(routes) = %d, want 7", len(routes))
	}
	want := []string{"POST /questions", "GET /sessions/:id", "DELETE /sessions/:id"}
	for i, w := range want {
		if got := routes[i].Method + " " + routes[i].Path; got != w {
			t.Errorf("routes[%d] = %q, want %q", i, got, w)
		}
	}
	if !systemPaths[routes[len(routes)-1].Path] {
		t.Errorf("system routes should sort last, got %q", routes[len(routes)-1].Path)
	}
}

func TestHandlerName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"github.com/kbukum/standin/api.(*Handler).Transcribe-fm", "Handler.Transcribe"},
		{"github.com/kbukum/standin/server/endpoint.Health.func1", "Health"},
	}
	for _, tt := range tests {
		if got := handlerName(tt.in); got != tt.want {
			t.Errorf("handlerName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestComponentLifecycle(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 0}
	cfg.ApplyDefaults()
	cfg.Port = 0
	s := New(cfg, logger.Nop(), nil)
	c := NewComponent(s)

	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("health before start = %q", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("health after start = %q", h.Status)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() = %v", err)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
}
