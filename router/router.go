// Package router sends audio to transcription providers in preference order
// and falls back to the next provider on failure.
package router

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/standin/audio"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/health"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/observability"
	"github.com/kbukum/standin/transcription"
)

// DefaultTimeout caps a single provider call.
const DefaultTimeout = 15 * time.Second

// Outcome labels for attempt metrics.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeSkipped = "skipped"
)

// Router tries adapters one at a time. The preference order is fixed at
// construction; health decides which of them are skipped.
type Router struct {
	adapters []transcription.Adapter
	byName   map[string]transcription.Adapter
	health   *health.Registry
	timeout  time.Duration
	now      func() time.Time
	log      *logger.Logger
	metrics  *observability.Metrics
}

// Option configures a Router.
type Option func(*Router)

// WithTimeout sets the per-provider call timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithMetrics enables attempt metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Router) { r.metrics = m }
}

// WithClock overrides the time source used for latency and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// New creates a router over adapters in preference order and registers each
// of them with h.
func New(adapters []transcription.Adapter, h *health.Registry, opts ...Option) *Router {
	r := &Router{
		adapters: adapters,
		byName:   make(map[string]transcription.Adapter, len(adapters)),
		health:   h,
		timeout:  DefaultTimeout,
		now:      time.Now,
		log:      logger.Get("router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, a := range adapters {
		r.byName[a.Name()] = a
		h.Register(a.Name())
	}
	return r
}

// Timeout returns the per-provider call timeout.
func (r *Router) Timeout() time.Duration { return r.timeout }

// Providers returns provider names in preference order.
func (r *Router) Providers() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

type callOptions struct {
	preferred string
}

// CallOption adjusts one Transcribe call.
type CallOption func(*callOptions)

// Prefer moves the named provider to the front for this call. The rest of
// the order is unchanged. An empty name is ignored.
func Prefer(name string) CallOption {
	return func(o *callOptions) { o.preferred = name }
}

// Order returns the attempt order for a call preferring name.
func (r *Router) Order(preferred string) ([]transcription.Adapter, error) {
	if preferred == "" {
		return r.adapters, nil
	}
	first, ok := r.byName[preferred]
	if !ok {
		return nil, apperrors.InvalidInput("preferredService", "unknown transcription provider "+preferred)
	}
	order := make([]transcription.Adapter, 0, len(r.adapters))
	order = append(order, first)
	for _, a := range r.adapters {
		if a.Name() != preferred {
			order = append(order, a)
		}
	}
	return order, nil
}

// Transcribe returns the first successful result. Providers that are
// unhealthy are skipped. When every provider fails or is skipped it returns
// ALL_PROVIDERS_UNAVAILABLE with one entry per provider. If ctx ends, the
// provider in flight is not charged and a TIMEOUT error is returned. An
// empty chunk is MALFORMED and reaches no provider.
func (r *Router) Transcribe(ctx context.Context, chunk transcription.Chunk, opts ...CallOption) (*transcription.Result, error) {
	var co callOptions
	for _, opt := range opts {
		opt(&co)
	}
	if len(chunk.Data) == 0 {
		return nil, apperrors.Malformed("audio chunk is empty")
	}
	order, err := r.Order(co.preferred)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanRoute)
	defer span.End()

	failures := make(map[string]apperrors.ProviderFailure, len(order))
	for _, a := range order {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Timeout("transcription").WithCause(err)
		}

		name := a.Name()
		if !r.health.Eligible(name) {
			failures[name] = apperrors.ProviderFailure{
				Kind:    apperrors.ErrCodeUnavailable,
				Message: "skipped while unhealthy",
				Skipped: true,
			}
			r.metrics.RecordAttempt(ctx, name, outcomeSkipped, 0)
			r.log.Debug("provider skipped", logger.Fields(logger.FieldProvider, name))
			continue
		}

		res, err := r.attempt(ctx, a, chunk)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			r.health.Release(name)
			return nil, apperrors.Timeout("transcription").WithCause(ctx.Err())
		}

		appErr := transcription.Classify(name, err)
		r.health.RecordFailure(name, appErr)
		failures[name] = apperrors.ProviderFailure{Kind: appErr.Code, Message: appErr.Message}
		r.log.Warn("provider failed, trying next", logger.Fields(
			logger.FieldProvider, name,
			logger.FieldKind, string(appErr.Code),
			logger.FieldError, err.Error(),
		))
	}

	r.metrics.RecordExhausted(ctx)
	r.log.Error("all transcription providers failed", logger.Fields("providers", len(order)))
	return nil, apperrors.AllProvidersUnavailable(failures)
}

func (r *Router) attempt(ctx context.Context, a transcription.Adapter, chunk transcription.Chunk) (*transcription.Result, error) {
	name := a.Name()
	ctx, span := observability.StartSpan(ctx, observability.SpanAttempt)
	span.SetAttributes(attribute.String(observability.AttrProvider, name))

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	res, err := a.Transcribe(callCtx, chunk)
	latency := r.now().Sub(start)
	if err == nil && res == nil {
		err = transcription.MalformedResponse(name, "empty result")
	}
	if err != nil {
		span.SetAttributes(attribute.String(observability.AttrErrorKind, string(apperrors.KindOf(err))))
		observability.EndSpan(span, err)
		if ctx.Err() == nil {
			r.metrics.RecordAttempt(ctx, name, outcomeFailure, latency)
		}
		return nil, err
	}
	observability.EndSpan(span, nil)

	if res.ProviderID == "" {
		res.ProviderID = name
	}
	res.LatencyMs = latency.Milliseconds()
	res.Timestamp = r.now()
	res.Confidence = transcription.NormalizeConfidence(&res.Confidence)

	r.health.RecordSuccess(name, latency)
	r.metrics.RecordAttempt(ctx, name, outcomeSuccess, latency)
	r.log.Debug("transcribed", logger.Fields(
		logger.FieldProvider, name,
		logger.FieldDuration, res.LatencyMs,
		"chars", len(res.Text),
	))
	return res, nil
}

// ProbeResult is the outcome of probing one provider.
type ProbeResult struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
	LatencyMs int64  `json:"latencyMs,omitempty"`
}

// Probe sends one second of silence to every provider concurrently,
// ignoring breaker state, and records each outcome in health. The result
// always has an entry for every provider.
func (r *Router) Probe(ctx context.Context) map[string]ProbeResult {
	ctx, span := observability.StartSpan(ctx, observability.SpanProbe)
	defer span.End()

	out := make(map[string]ProbeResult, len(r.adapters))
	wav, err := audio.EncodeWAV(audio.Silence(audio.DefaultFormat, time.Second), audio.DefaultFormat)
	if err != nil {
		for _, a := range r.adapters {
			out[a.Name()] = ProbeResult{Error: err.Error(), Kind: string(apperrors.ErrCodeInternal)}
		}
		return out
	}
	chunk := transcription.Chunk{Data: wav, ContentType: "audio/wav", FileName: "probe.wav", Duration: time.Second}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, a := range r.adapters {
		wg.Add(1)
		go func(a transcription.Adapter) {
			defer wg.Done()
			res := r.probeOne(ctx, a, chunk)
			mu.Lock()
			out[a.Name()] = res
			mu.Unlock()
		}(a)
	}
	wg.Wait()
	return out
}

func (r *Router) probeOne(ctx context.Context, a transcription.Adapter, chunk transcription.Chunk) ProbeResult {
	name := a.Name()
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := r.now()
	_, err := a.Transcribe(callCtx, chunk)
	latency := r.now().Sub(start)
	if err == nil {
		r.health.RecordSuccess(name, latency)
		return ProbeResult{Available: true, LatencyMs: latency.Milliseconds()}
	}

	appErr := transcription.Classify(name, err)
	if ctx.Err() == nil {
		r.health.RecordFailure(name, appErr)
	}
	return ProbeResult{Error: appErr.Message, Kind: string(appErr.Code), LatencyMs: latency.Milliseconds()}
}
