// Package delivery carries out actionable routing decisions: it resolves
// and announces recorded answers, and generates fallback answers.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/llm"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/observability"
	"github.com/kbukum/standin/questionbank"
	"github.com/kbukum/standin/selector"
	"github.com/kbukum/standin/sse"
	"github.com/kbukum/standin/storage"
)

// DefaultSystemPrompt frames generated fallback answers.
const DefaultSystemPrompt = `You are an assistant representing a professional in a business meeting.
Your responses should be professional and concise, appropriate for a business context,
one to three sentences long and natural sounding when spoken aloud.
You are responding as if you are the person who would normally be in this meeting.`

// Config tunes delivery.
type Config struct {
	// URLExpiry bounds signed playback URLs.
	URLExpiry time.Duration `yaml:"url_expiry" mapstructure:"url_expiry"`

	// SystemPrompt overrides DefaultSystemPrompt.
	SystemPrompt string `yaml:"system_prompt" mapstructure:"system_prompt"`

	// Persona details appended to the system prompt when set.
	PersonaName string `yaml:"persona_name" mapstructure:"persona_name"`
	PersonaRole string `yaml:"persona_role" mapstructure:"persona_role"`
	Tone        string `yaml:"tone" mapstructure:"tone"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.URLExpiry <= 0 {
		c.URLExpiry = 15 * time.Minute
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
}

// Prompt returns the system prompt including the persona.
func (c Config) Prompt() string {
	p := c.SystemPrompt
	if c.PersonaName != "" || c.PersonaRole != "" {
		name, role := c.PersonaName, c.PersonaRole
		if name == "" {
			name = "the team member"
		}
		if role == "" {
			role = "team member"
		}
		p += fmt.Sprintf("\n\nYou are representing %s, who is a %s.", name, role)
	}
	if c.Tone != "" {
		p += fmt.Sprintf(" Your response tone should be %s.", c.Tone)
	}
	return p
}

// Outcome is the result of a delivery attempt. A failed outcome never
// changes the decision that produced it.
type Outcome struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	URL    string `json:"url,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Err returns a DELIVERY_FAILED error for a failed outcome.
func (o Outcome) Err() error {
	if o.OK {
		return nil
	}
	return apperrors.DeliveryFailed(o.Reason, nil)
}

// Recordings looks up recordings by id.
type Recordings interface {
	GetRecording(ctx context.Context, id int64) (*questionbank.Recording, error)
}

// Target identifies who receives the delivery events.
type Target struct {
	SessionID  string
	Transcript string
}

// PlaybackEvent announces a recorded answer.
type PlaybackEvent struct {
	SessionID       string  `json:"sessionId"`
	QuestionID      int64   `json:"questionId"`
	RecordingID     int64   `json:"recordingId"`
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"durationSeconds"`
	Score           float64 `json:"score"`
}

// GeneratedEvent carries a generated fallback answer.
type GeneratedEvent struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
	Text      string `json:"text"`
}

// FailedEvent reports a delivery failure.
type FailedEvent struct {
	SessionID string `json:"sessionId"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason"`
}

// Deliverer executes decisions. The generator is optional; without it
// fallback decisions fail delivery.
type Deliverer struct {
	cfg        Config
	recordings Recordings
	media      storage.Storage
	generator  llm.Executor
	events     sse.Broadcaster
	metrics    *observability.Metrics
	log        *logger.Logger
}

// Option configures a Deliverer.
type Option func(*Deliverer)

// WithGenerator enables generated fallback answers.
func WithGenerator(g llm.Executor) Option {
	return func(d *Deliverer) { d.generator = g }
}

// WithMetrics records delivery outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Deliverer) { d.metrics = m }
}

// WithLogger overrides the logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Deliverer) { d.log = l }
}

// New creates a Deliverer.
func New(cfg Config, recordings Recordings, media storage.Storage, events sse.Broadcaster, opts ...Option) *Deliverer {
	cfg.ApplyDefaults()
	d := &Deliverer{
		cfg:        cfg,
		recordings: recordings,
		media:      media,
		events:     events,
		log:        logger.Get("delivery"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CanGenerate reports whether fallback answers can be produced.
func (d *Deliverer) CanGenerate() bool { return d.generator != nil }

// Deliver executes an actionable decision. NoAction decisions succeed
// without side effects.
func (d *Deliverer) Deliver(ctx context.Context, t Target, dec selector.Decision) Outcome {
	if !dec.Actionable() {
		return Outcome{OK: true}
	}
	ctx, span := observability.StartSpan(ctx, observability.SpanDeliver)
	span.SetAttributes(
		attribute.String(observability.AttrSessionID, t.SessionID),
		attribute.String(observability.AttrDecision, string(dec.Kind)),
	)

	var out Outcome
	switch dec.Kind {
	case selector.KindPlayRecording:
		out = d.play(ctx, t, dec)
	case selector.KindGenerateFallback:
		out = d.generate(ctx, t, dec)
	default:
		out = Outcome{Reason: fmt.Sprintf("unsupported decision %q", dec.Kind)}
	}

	d.metrics.RecordDelivery(ctx, string(dec.Kind), out.OK)
	if out.OK {
		observability.EndSpan(span, nil)
		return out
	}
	observability.EndSpan(span, out.Err())
	d.log.Warn("delivery failed", logger.Fields(
		logger.FieldSessionID, t.SessionID,
		logger.FieldDecision, string(dec.Kind),
		logger.FieldError, out.Reason,
	))
	d.publish(t.SessionID, sse.EventTypeDeliveryFailed, FailedEvent{
		SessionID: t.SessionID,
		Decision:  string(dec.Kind),
		Reason:    out.Reason,
	})
	return out
}

func (d *Deliverer) play(ctx context.Context, t Target, dec selector.Decision) Outcome {
	if d.recordings == nil || d.media == nil {
		return Outcome{Reason: "playback is not configured"}
	}
	rec, err := d.recordings.GetRecording(ctx, dec.RecordingID)
	if err != nil {
		return Outcome{Reason: fmt.Sprintf("recording %d: %v", dec.RecordingID, err)}
	}
	url, err := storage.ResolveURL(ctx, d.media, rec.MediaRef, d.cfg.URLExpiry)
	if err != nil {
		return Outcome{Reason: fmt.Sprintf("resolve media %q: %v", rec.MediaRef, err)}
	}
	d.publish(t.SessionID, sse.EventTypePlayback, PlaybackEvent{
		SessionID:       t.SessionID,
		QuestionID:      dec.QuestionID,
		RecordingID:     rec.ID,
		URL:             url,
		DurationSeconds: rec.DurationSeconds,
		Score:           dec.Score,
	})
	d.log.Info("playing recorded answer", logger.Fields(
		logger.FieldSessionID, t.SessionID,
		logger.FieldQuestionID, dec.QuestionID,
		"recording_id", rec.ID,
	))
	return Outcome{OK: true, URL: url}
}

func (d *Deliverer) generate(ctx context.Context, t Target, dec selector.Decision) Outcome {
	question := dec.QuestionText
	if question == "" {
		question = t.Transcript
	}
	text, err := d.Generate(ctx, question, "")
	if err != nil {
		return Outcome{Reason: failureReason(err)}
	}
	d.publish(t.SessionID, sse.EventTypeGeneratedResponse, GeneratedEvent{
		SessionID: t.SessionID,
		Question:  question,
		Text:      text,
	})
	return Outcome{OK: true, Text: text}
}

// Generate answers question with the configured persona. meetingContext,
// when set, is passed to the model ahead of the question. It fails with
// UNAVAILABLE when no generator is configured.
func (d *Deliverer) Generate(ctx context.Context, question, meetingContext string) (string, error) {
	if d.generator == nil {
		return "", apperrors.Unavailable("response generator")
	}
	prompt := "Please respond to this meeting question: " + question
	if c := strings.TrimSpace(meetingContext); c != "" {
		prompt = "Meeting context: " + c + "\n\n" + prompt
	}
	text, err := llm.Complete(ctx, d.generator, d.cfg.Prompt(), prompt)
	if err != nil {
		return "", apperrors.DeliveryFailed("generate response", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.DeliveryFailed("generator returned an empty response", nil)
	}
	return text, nil
}

func failureReason(err error) string {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return err.Error()
	}
	if appErr.Cause != nil {
		return appErr.Message + ": " + appErr.Cause.Error()
	}
	return appErr.Message
}

func (d *Deliverer) publish(sessionID, eventType string, payload any) {
	if d.events == nil || sessionID == "" {
		return
	}
	if err := sse.Publish(d.events, sse.SessionPattern(sessionID), eventType, payload); err != nil {
		d.log.Error("publish event failed", logger.Fields(logger.FieldError, err.Error()))
	}
}
