package logger

import "sync"

// Component loggers come from two places: explicit registrations, which win,
// and loggers derived from the global logger on first use. Derived entries
// are dropped whenever the global logger is replaced.
var components = struct {
	mu       sync.RWMutex
	explicit map[string]*Logger
	derived  map[string]*Logger
}{explicit: map[string]*Logger{}, derived: map[string]*Logger{}}

// Register pins the logger returned by Get(name).
func Register(name string, l *Logger) {
	components.mu.Lock()
	components.explicit[name] = l
	components.mu.Unlock()
}

// Get returns the logger for a component such as "router" or "session".
// Unregistered names get the global logger tagged with the component.
func Get(name string) *Logger {
	components.mu.RLock()
	l, ok := components.explicit[name]
	if !ok {
		l, ok = components.derived[name]
	}
	components.mu.RUnlock()
	if ok {
		return l
	}

	l = GetGlobalLogger().WithComponent(name)
	components.mu.Lock()
	components.derived[name] = l
	components.mu.Unlock()
	return l
}

func resetDerived() {
	components.mu.Lock()
	components.derived = map[string]*Logger{}
	components.mu.Unlock()
}
