// Package selector turns ranked question matches into a routing decision
// and tracks the per-session pipeline state.
package selector

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/observability"
	"github.com/kbukum/standin/questionindex"
)

// Defaults.
const (
	DefaultMatchThreshold = 0.80
	DefaultTieMargin      = 0.05
	DefaultTopK           = 3
)

// Config is the global matching policy.
type Config struct {
	// MatchThreshold is inclusive: a score equal to it plays the recording.
	MatchThreshold float64 `yaml:"match_threshold" mapstructure:"match_threshold"`
	// TieMargin is the band under the threshold reported as a near miss.
	TieMargin float64 `yaml:"tie_margin" mapstructure:"tie_margin"`
	// TopK is the number of matches fetched per window.
	TopK int `yaml:"top_k" mapstructure:"top_k"`
	// FallbackEnabled allows GenerateFallback decisions.
	FallbackEnabled bool `yaml:"fallback_enabled" mapstructure:"fallback_enabled"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.MatchThreshold == 0 {
		c.MatchThreshold = DefaultMatchThreshold
	}
	if c.TieMargin == 0 {
		c.TieMargin = DefaultTieMargin
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
}

// Validate checks ranges.
func (c *Config) Validate() error {
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("selector: match_threshold must be in (0, 1], got %v", c.MatchThreshold)
	}
	if c.TieMargin < 0 || c.TieMargin >= c.MatchThreshold {
		return fmt.Errorf("selector: tie_margin must be in [0, match_threshold), got %v", c.TieMargin)
	}
	return nil
}

// RecordingLookup finds the active recording of a question.
type RecordingLookup interface {
	ActiveRecordingID(ctx context.Context, questionID int64) (int64, bool, error)
}

// Selector applies the decision rules. It holds no per-session state and
// is shared by all sessions.
type Selector struct {
	cfg        Config
	recordings RecordingLookup
	isQuestion Predicate
	log        *logger.Logger
	metrics    *observability.Metrics
}

// Option configures a Selector.
type Option func(*Selector)

// WithPredicate replaces the interrogative heuristic.
func WithPredicate(p Predicate) Option {
	return func(s *Selector) { s.isQuestion = p }
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Selector) { s.log = log }
}

// WithMetrics records decisions.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

// New creates a Selector. recordings may be nil, in which case no
// recording is ever played.
func New(cfg Config, recordings RecordingLookup, opts ...Option) *Selector {
	cfg.ApplyDefaults()
	s := &Selector{
		cfg:        cfg,
		recordings: recordings,
		isQuestion: IsQuestion,
		log:        logger.Get("selector"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective policy.
func (s *Selector) Config() Config { return s.cfg }

// Decide maps a transcript and its ranked matches to exactly one decision.
// matches must be sorted best first; an empty slice means the index is empty.
func (s *Selector) Decide(ctx context.Context, transcript string, matches []questionindex.MatchResult) Decision {
	ctx, span := observability.StartSpan(ctx, observability.SpanDecide)
	defer span.End()

	d := s.decide(ctx, transcript, matches)

	span.SetAttributes(attribute.String(observability.AttrDecision, string(d.Kind)))
	s.metrics.RecordDecision(ctx, string(d.Kind), string(d.Reason))
	return d
}

func (s *Selector) decide(ctx context.Context, transcript string, matches []questionindex.MatchResult) Decision {
	if strings.TrimSpace(transcript) == "" {
		return NoAction(ReasonEmptyTranscript, 0)
	}
	if len(matches) == 0 {
		return s.fallbackOr(transcript, NoAction(ReasonNoQuestionsIndexed, 0))
	}

	top := matches[0]
	if top.Score >= s.cfg.MatchThreshold {
		recID, ok := s.activeRecording(ctx, top.QuestionID)
		if ok {
			return PlayRecording(top.QuestionID, recID, top.Score)
		}
		s.log.Info("matched question has no active recording", logger.Fields(
			logger.FieldQuestionID, top.QuestionID,
			logger.FieldScore, top.Score,
		))
		return s.fallbackOr(transcript, NoAction(ReasonNoRecording, top.Score))
	}

	d := s.fallbackOr(transcript, NoAction(ReasonBelowThreshold, top.Score))
	if top.Score >= s.cfg.MatchThreshold-s.cfg.TieMargin {
		d.NearMiss = true
		s.log.Info("near miss below match threshold", logger.Fields(
			logger.FieldQuestionID, top.QuestionID,
			logger.FieldScore, top.Score,
			"threshold", s.cfg.MatchThreshold,
			logger.FieldDecision, string(d.Kind),
		))
	}
	return d
}

func (s *Selector) fallbackOr(transcript string, otherwise Decision) Decision {
	if s.cfg.FallbackEnabled && s.isQuestion(transcript) {
		return GenerateFallback(transcript, otherwise.Score)
	}
	return otherwise
}

func (s *Selector) activeRecording(ctx context.Context, questionID int64) (int64, bool) {
	if s.recordings == nil {
		return 0, false
	}
	id, ok, err := s.recordings.ActiveRecordingID(ctx, questionID)
	if err != nil {
		s.log.Warn("recording lookup failed", logger.Fields(
			logger.FieldQuestionID, questionID,
			logger.FieldError, err.Error(),
		))
		return 0, false
	}
	return id, ok
}
