package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/standin/audio"
	"github.com/kbukum/standin/component"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
)

// Capture is a live PCM source feeding a session.
type Capture interface {
	Start(onData func(pcm []byte)) error
	Close() error
}

// CaptureFactory opens a capture source for a format.
type CaptureFactory func(f audio.Format) (Capture, error)

// DeviceCapture opens the default input device.
func DeviceCapture(f audio.Format) (Capture, error) {
	return audio.NewCapturer(f)
}

// CreateOptions configures a new session.
type CreateOptions struct {
	// PreferredService pins a transcription provider first.
	PreferredService string `json:"preferredService"`
	// Capture feeds the session from the default input device instead of
	// pushed PCM.
	Capture bool `json:"capture"`
}

type entry struct {
	session *Session
	capture Capture
}

// Manager owns the live sessions of the process.
type Manager struct {
	cfg     Config
	p       Pipeline
	capture CaptureFactory
	log     *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
	closed   bool
}

var (
	_ component.Component   = (*Manager)(nil)
	_ component.Describable = (*Manager)(nil)
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCaptureFactory replaces device capture.
func WithCaptureFactory(f CaptureFactory) ManagerOption {
	return func(m *Manager) { m.capture = f }
}

// NewManager creates a manager.
func NewManager(cfg Config, p Pipeline, opts ...ManagerOption) (*Manager, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:      cfg,
		p:        p,
		capture:  DeviceCapture,
		log:      logger.Get("session"),
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the session configuration.
func (m *Manager) Config() Config { return m.cfg }

// Create starts a new session.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (*Session, error) {
	if opts.PreferredService != "" && !slices.Contains(m.p.Transcriber.Providers(), opts.PreferredService) {
		return nil, apperrors.InvalidInput("preferredService", fmt.Sprintf("unknown provider %q", opts.PreferredService))
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, apperrors.Unavailable("session manager")
	}
	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		m.mu.Unlock()
		return nil, apperrors.Conflict(fmt.Sprintf("session limit of %d reached", m.cfg.MaxSessions))
	}
	source := SourcePush
	if opts.Capture {
		source = SourceDevice
	}
	s := newSession(ctx, uuid.New().String(), source, opts.PreferredService, m.cfg, m.p)
	e := &entry{session: s}
	m.sessions[s.ID()] = e
	m.mu.Unlock()

	if opts.Capture {
		if err := m.startCapture(e); err != nil {
			_, _ = m.End(ctx, s.ID())
			return nil, err
		}
	}

	m.log.Info("session started", logger.Fields(
		logger.FieldSessionID, s.ID(),
		"source", source,
		"preferred", opts.PreferredService,
	))
	return s, nil
}

func (m *Manager) startCapture(e *entry) error {
	c, err := m.capture(m.cfg.Format)
	if err != nil {
		return apperrors.Unavailable("audio device").WithCause(err)
	}
	s := e.session
	if err := c.Start(func(pcm []byte) { _ = s.Write(pcm) }); err != nil {
		_ = c.Close()
		return apperrors.Unavailable("audio device").WithCause(err)
	}
	m.mu.Lock()
	e.capture = c
	m.mu.Unlock()
	return nil
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("session", id)
	}
	return e.session, nil
}

// List returns snapshots of the live sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.session.Info())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// End stops and forgets a session, returning its final snapshot.
func (m *Manager) End(ctx context.Context, id string) (Info, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return Info{}, apperrors.NotFound("session", id)
	}
	return e.stop(ctx, m.cfg)
}

func (e *entry) stop(ctx context.Context, cfg Config) (Info, error) {
	if e.capture != nil {
		_ = e.capture.Close()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.StopTimeout)
	defer cancel()
	err := e.session.Stop(ctx)
	return e.session.Info(), err
}

func (m *Manager) Name() string { return "sessions" }

func (m *Manager) Start(context.Context) error { return nil }

// Stop ends every session in parallel and refuses new ones.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	entries := make([]*entry, 0, len(m.sessions))
	for id, e := range m.sessions {
		entries = append(entries, e)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, e := range entries {
		wg.Add(1)
		go func(e *entry) {
			defer wg.Done()
			if _, err := e.stop(ctx, m.cfg); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("session %s: %w", e.session.ID(), err))
				mu.Unlock()
			}
		}(e)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (m *Manager) Health(context.Context) component.Health {
	m.mu.RLock()
	n := len(m.sessions)
	m.mu.RUnlock()
	return component.Health{Name: m.Name(), Status: component.StatusHealthy, Message: fmt.Sprintf("%d active sessions", n)}
}

func (m *Manager) Describe() component.Description {
	return component.Description{
		Name:    "Sessions",
		Type:    "audio",
		Details: fmt.Sprintf("window=%s queue=%d", m.cfg.WindowDuration, m.cfg.QueueDepth),
	}
}
