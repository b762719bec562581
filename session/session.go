// Package session runs live audio sessions: PCM is cut into windows, each
// window is transcribed, matched and routed, and actionable decisions are
// delivered. Sessions are independent and each processes one window at a
// time.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/standin/audio"
	"github.com/kbukum/standin/delivery"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/observability"
	"github.com/kbukum/standin/questionbank"
	"github.com/kbukum/standin/questionindex"
	"github.com/kbukum/standin/router"
	"github.com/kbukum/standin/selector"
	"github.com/kbukum/standin/sse"
	"github.com/kbukum/standin/transcription"
)

// Transcriber routes a chunk through the configured providers.
type Transcriber interface {
	Transcribe(ctx context.Context, chunk transcription.Chunk, opts ...router.CallOption) (*transcription.Result, error)
	Providers() []string
}

// Matcher ranks known questions against a transcript.
type Matcher interface {
	Query(ctx context.Context, text string, k int) ([]questionindex.MatchResult, error)
}

// Decider turns matches into a routing decision.
type Decider interface {
	Decide(ctx context.Context, transcript string, matches []questionindex.MatchResult) selector.Decision
	Config() selector.Config
}

// Deliverer executes actionable decisions.
type Deliverer interface {
	Deliver(ctx context.Context, t delivery.Target, d selector.Decision) delivery.Outcome
}

// History persists decisions.
type History interface {
	RecordInteraction(ctx context.Context, in *questionbank.Interaction) error
}

// Pipeline holds the collaborators shared by all sessions. Events, History
// and Metrics are optional.
type Pipeline struct {
	Transcriber Transcriber
	Matcher     Matcher
	Decider     Decider
	Deliverer   Deliverer
	Events      sse.Broadcaster
	History     History
	Metrics     *observability.Metrics
}

func (p Pipeline) validate() error {
	if p.Transcriber == nil || p.Matcher == nil || p.Decider == nil || p.Deliverer == nil {
		return fmt.Errorf("session: pipeline requires transcriber, matcher, decider and deliverer")
	}
	return nil
}

// Stats counts a session's work.
type Stats struct {
	WindowsQueued    int            `json:"windowsQueued"`
	WindowsProcessed int            `json:"windowsProcessed"`
	WindowsDropped   int            `json:"windowsDropped"`
	Decisions        map[string]int `json:"decisions"`
	DeliveriesFailed int            `json:"deliveriesFailed"`
}

// Info is a point-in-time view of a session.
type Info struct {
	ID               string         `json:"id"`
	State            selector.State `json:"state"`
	Source           string         `json:"source"`
	PreferredService string         `json:"preferredService,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	StoppedAt        *time.Time     `json:"stoppedAt,omitempty"`
	Stats            Stats          `json:"stats"`
}

// Sources.
const (
	SourcePush   = "push"
	SourceDevice = "device"
)

// Session is one live audio stream. Write may be called concurrently with
// processing; windows are consumed by a single goroutine.
type Session struct {
	id        string
	source    string
	preferred string
	cfg       Config
	p         Pipeline
	log       *logger.Logger
	machine   *selector.Machine
	createdAt time.Time
	runCtx    context.Context

	mu        sync.Mutex
	windower  *audio.Windower
	queue     []audio.Window
	stopping  bool
	abandoned bool
	stats     Stats
	stoppedAt time.Time

	wake       chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	finishOnce sync.Once
}

func newSession(ctx context.Context, id, source, preferred string, cfg Config, p Pipeline) *Session {
	s := &Session{
		id:        id,
		source:    source,
		preferred: preferred,
		cfg:       cfg,
		p:         p,
		log:       logger.Get("session").WithFields(logger.Fields(logger.FieldSessionID, id)),
		createdAt: time.Now(),
		runCtx:    context.WithoutCancel(ctx),
		windower:  audio.NewWindower(cfg.Format, cfg.WindowDuration),
		stats:     Stats{Decisions: make(map[string]int)},
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	s.machine = selector.NewMachine(func(from, to selector.State) {
		s.log.Debug("state transition", logger.Fields("from", string(from), "to", string(to)))
	})
	s.transition(selector.StateListening)
	p.Metrics.SessionStarted(ctx)
	go s.run()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current pipeline state.
func (s *Session) State() selector.State { return s.machine.State() }

// Done is closed once the consumer has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := Info{
		ID:               s.id,
		State:            s.machine.State(),
		Source:           s.source,
		PreferredService: s.preferred,
		CreatedAt:        s.createdAt,
		Stats:            s.stats,
	}
	info.Stats.Decisions = make(map[string]int, len(s.stats.Decisions))
	for k, v := range s.stats.Decisions {
		info.Stats.Decisions[k] = v
	}
	if !s.stoppedAt.IsZero() {
		t := s.stoppedAt
		info.StoppedAt = &t
	}
	return info
}

// Write appends PCM to the stream. It never waits on transcription: full
// windows are queued and the oldest queued window is dropped when the
// queue is full.
func (s *Session) Write(pcm []byte) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return apperrors.Conflict("session is stopping")
	}
	var dropped []audio.Window
	wins := s.windower.Write(pcm)
	for _, w := range wins {
		dropped = append(dropped, s.enqueueLocked(w)...)
	}
	s.mu.Unlock()

	s.reportDropped(dropped)
	if len(wins) > 0 {
		s.signal()
	}
	return nil
}

func (s *Session) enqueueLocked(w audio.Window) []audio.Window {
	var dropped []audio.Window
	for len(s.queue) >= s.cfg.QueueDepth {
		dropped = append(dropped, s.queue[0])
		s.queue = s.queue[1:]
		s.stats.WindowsDropped++
	}
	s.queue = append(s.queue, w)
	s.stats.WindowsQueued++
	return dropped
}

func (s *Session) reportDropped(dropped []audio.Window) {
	for _, w := range dropped {
		s.p.Metrics.RecordWindowDropped(s.runCtx)
		s.log.Warn("queue full, dropped oldest window", logger.Fields(
			logger.FieldWindow, w.Seq,
			"queue_depth", s.cfg.QueueDepth,
		))
		s.publish(sse.EventTypeBackpressure, BackpressureEvent{
			SessionID:  s.id,
			Window:     w.Seq,
			QueueDepth: s.cfg.QueueDepth,
		})
	}
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) run() {
	defer close(s.done)
	for {
		w, ok := s.next()
		if !ok {
			return
		}
		s.process(w)
	}
}

func (s *Session) next() (audio.Window, bool) {
	for {
		s.mu.Lock()
		if s.abandoned {
			s.mu.Unlock()
			return audio.Window{}, false
		}
		if len(s.queue) > 0 {
			w := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return w, true
		}
		stopping := s.stopping
		s.mu.Unlock()
		if stopping {
			return audio.Window{}, false
		}
		<-s.wake
	}
}

// Stop ends the session. The trailing partial window is flushed and queued
// windows are drained. When ctx ends first, the window in flight still
// completes but queued windows are discarded and a TIMEOUT error is
// returned. Stop is idempotent.
func (s *Session) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		var dropped []audio.Window
		if w, ok := s.windower.Flush(); ok {
			dropped = s.enqueueLocked(w)
		}
		s.mu.Unlock()
		s.reportDropped(dropped)
		s.signal()
	})

	var err error
	select {
	case <-s.done:
	case <-ctx.Done():
		s.mu.Lock()
		s.abandoned = true
		n := len(s.queue)
		s.queue = nil
		s.stats.WindowsDropped += n
		s.mu.Unlock()
		s.log.Warn("stop deadline reached, discarding queued windows", logger.Fields("discarded", n))
		<-s.done
		err = apperrors.Timeout("session stop")
	}

	s.finishOnce.Do(s.finish)
	return err
}

func (s *Session) finish() {
	s.transition(selector.StateIdle)
	s.mu.Lock()
	s.stoppedAt = time.Now()
	s.mu.Unlock()
	s.p.Metrics.SessionStopped(s.runCtx)

	info := s.Info()
	s.publish(sse.EventTypeSessionStopped, info)
	s.log.Info("session stopped", logger.Fields(
		"windows_processed", info.Stats.WindowsProcessed,
		"windows_dropped", info.Stats.WindowsDropped,
	))
}

func (s *Session) process(w audio.Window) {
	ctx := s.runCtx
	s.transition(selector.StateTranscribing)

	res, err := s.transcribe(ctx, w)
	if err != nil {
		s.log.Warn("window transcription failed", logger.Fields(
			logger.FieldWindow, w.Seq,
			logger.FieldKind, string(apperrors.KindOf(err)),
			logger.FieldError, err.Error(),
		))
		s.publish(sse.EventTypeTranscriptionFailed, TranscriptionFailedEvent{
			SessionID: s.id,
			Window:    w.Seq,
			Kind:      string(apperrors.KindOf(err)),
			Message:   err.Error(),
		})
		s.conclude(ctx, w, nil, s.own(ctx, selector.ReasonTranscriptionFailed))
		return
	}
	s.publish(sse.EventTypeTranscription, TranscriptionEvent{SessionID: s.id, Window: w.Seq, Result: *res})

	s.transition(selector.StateMatching)
	var matches []questionindex.MatchResult
	if strings.TrimSpace(res.Text) != "" {
		matches, err = s.p.Matcher.Query(ctx, res.Text, s.p.Decider.Config().TopK)
		if err != nil {
			s.log.Error("question match failed", logger.Fields(
				logger.FieldWindow, w.Seq,
				logger.FieldError, err.Error(),
			))
			s.conclude(ctx, w, res, s.own(ctx, selector.ReasonMatchFailed))
			return
		}
	}

	s.transition(selector.StateDeciding)
	s.conclude(ctx, w, res, s.p.Decider.Decide(ctx, res.Text, matches))
}

// own builds a NoAction for failures the selector never sees.
func (s *Session) own(ctx context.Context, reason selector.Reason) selector.Decision {
	d := selector.NoAction(reason, 0)
	s.p.Metrics.RecordDecision(ctx, string(d.Kind), string(d.Reason))
	return d
}

func (s *Session) transcribe(ctx context.Context, w audio.Window) (*transcription.Result, error) {
	wav, err := audio.EncodeWAV(w.PCM, s.cfg.Format)
	if err != nil {
		return nil, apperrors.Malformed(err.Error())
	}
	var opts []router.CallOption
	if s.preferred != "" {
		opts = append(opts, router.Prefer(s.preferred))
	}
	return s.p.Transcriber.Transcribe(ctx, transcription.Chunk{
		Data:        wav,
		ContentType: "audio/wav",
		FileName:    fmt.Sprintf("window-%d.wav", w.Seq),
		Duration:    w.Duration,
	}, opts...)
}

// conclude publishes and carries out the window's single decision, then
// returns the machine to Listening.
func (s *Session) conclude(ctx context.Context, w audio.Window, res *transcription.Result, d selector.Decision) {
	var text, providerID string
	if res != nil {
		text, providerID = res.Text, res.ProviderID
	}
	s.publish(sse.EventTypeDecision, DecisionEvent{
		SessionID:  s.id,
		Window:     w.Seq,
		Transcript: text,
		ProviderID: providerID,
		Decision:   d,
	})

	delivered := false
	if d.Actionable() {
		s.transition(selector.StateDelivering)
		out := s.p.Deliverer.Deliver(ctx, delivery.Target{SessionID: s.id, Transcript: text}, d)
		delivered = out.OK
	} else {
		s.transition(selector.StateIdle)
	}
	s.transition(selector.StateListening)

	s.mu.Lock()
	s.stats.WindowsProcessed++
	s.stats.Decisions[string(d.Kind)]++
	if d.Actionable() && !delivered {
		s.stats.DeliveriesFailed++
	}
	s.mu.Unlock()

	s.log.Info("window routed", logger.Fields(
		logger.FieldWindow, w.Seq,
		logger.FieldProvider, providerID,
		logger.FieldDecision, string(d.Kind),
		"reason", string(d.Reason),
		logger.FieldScore, d.Score,
	))
	s.remember(ctx, text, providerID, d, delivered)
}

func (s *Session) remember(ctx context.Context, text, providerID string, d selector.Decision, delivered bool) {
	if s.p.History == nil {
		return
	}
	in := &questionbank.Interaction{
		SessionID:  s.id,
		Transcript: text,
		ProviderID: providerID,
		Decision:   string(d.Kind),
		Reason:     string(d.Reason),
		Score:      d.Score,
		Delivered:  delivered,
	}
	if d.QuestionID != 0 {
		qid, rid := d.QuestionID, d.RecordingID
		in.QuestionID, in.RecordingID = &qid, &rid
	}
	if err := s.p.History.RecordInteraction(ctx, in); err != nil {
		s.log.Warn("record interaction failed", logger.Fields(logger.FieldError, err.Error()))
	}
}

func (s *Session) transition(next selector.State) {
	if s.machine.State() == next {
		return
	}
	if err := s.machine.Transition(next); err != nil {
		s.log.Error("state transition rejected", logger.Fields(logger.FieldError, err.Error()))
	}
}

func (s *Session) publish(eventType string, payload any) {
	if s.p.Events == nil {
		return
	}
	if err := sse.Publish(s.p.Events, sse.SessionPattern(s.id), eventType, payload); err != nil {
		s.log.Error("publish event failed", logger.Fields(logger.FieldError, err.Error()))
	}
}
