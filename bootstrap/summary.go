package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/standin/component"
)

// RouteInfo is an HTTP route listed in the summary.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// ClientInfo is an external backend, such as a transcription provider or
// the LLM endpoint.
type ClientInfo struct {
	Name   string
	Target string
	Type   string
	Status string
}

// Summary collects what the app started and prints it once startup ends.
type Summary struct {
	serviceName     string
	version         string
	out             io.Writer
	startupDuration time.Duration
	routes          []RouteInfo
	clients         []ClientInfo
}

// NewSummary creates a summary that prints to out, or os.Stdout when nil.
func NewSummary(serviceName, version string, out io.Writer) *Summary {
	if out == nil {
		out = os.Stdout
	}
	return &Summary{serviceName: serviceName, version: version, out: out}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{Method: method, Path: path, Handler: handler})
}

// TrackClient records an external backend.
func (s *Summary) TrackClient(name, target, clientType, status string) {
	s.clients = append(s.clients, ClientInfo{Name: name, Target: target, Type: clientType, Status: status})
}

// Routes returns the tracked routes.
func (s *Summary) Routes() []RouteInfo { return s.routes }

// Clients returns the tracked clients.
func (s *Summary) Clients() []ClientInfo { return s.clients }

// Display prints the summary with live health from registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	w := s.out
	fmt.Fprintf(w, "\n%s v%s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())

	var infra []component.Description
	if registry != nil {
		for _, c := range registry.All() {
			if d, ok := c.(component.Describable); ok {
				infra = append(infra, d.Describe())
			}
		}
	}
	if len(infra) > 0 {
		fmt.Fprintf(w, "Infrastructure\n")
		for i, d := range infra {
			details := d.Details
			if d.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, d.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", branch(i, len(infra)), d.Name, d.Type, details)
		}
	} else {
		fmt.Fprintf(w, "   └── No components registered\n")
	}

	if len(s.clients) > 0 {
		fmt.Fprintf(w, "\nClients\n")
		for i, c := range s.clients {
			fmt.Fprintf(w, "   %s %s → %s [%s] (%s)\n", branch(i, len(s.clients)), c.Name, c.Target, c.Type, c.Status)
		}
	}

	if len(s.routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(s.routes))
		for i, r := range s.routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", branch(i, len(s.routes)), r.Method, r.Path, r.Handler)
		}
	}

	if registry != nil {
		results := registry.HealthAll(ctx)
		if len(results) > 0 {
			fmt.Fprintf(w, "\nHealth\n")
			healthy := 0
			for i, h := range results {
				msg := ""
				if h.Message != "" {
					msg = ": " + h.Message
				}
				if h.Status == component.StatusHealthy {
					healthy++
				}
				fmt.Fprintf(w, "   %s %s %s %s%s\n", branch(i, len(results)), healthIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
			}
			fmt.Fprintf(w, "\n%d/%d components healthy\n", healthy, len(results))
		}
	}
	fmt.Fprintln(w)
}

func branch(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
