package api

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/standin/audio"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/health"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/questionbank"
	"github.com/kbukum/standin/questionindex"
	"github.com/kbukum/standin/router"
	"github.com/kbukum/standin/session"
	"github.com/kbukum/standin/sse"
	"github.com/kbukum/standin/storage"
	"github.com/kbukum/standin/transcription"
)

// Transcriber is the provider router.
type Transcriber interface {
	Transcribe(ctx context.Context, chunk transcription.Chunk, opts ...router.CallOption) (*transcription.Result, error)
	Probe(ctx context.Context) map[string]router.ProbeResult
	Providers() []string
}

// ProviderHealth reports per-provider health.
type ProviderHealth interface {
	Snapshot() map[string]health.Status
}

// Matcher ranks indexed questions against a transcript.
type Matcher interface {
	Query(ctx context.Context, text string, k int) ([]questionindex.MatchResult, error)
}

// QuestionBank is the persisted question set.
type QuestionBank interface {
	ListQuestions(ctx context.Context) ([]questionbank.Question, error)
	GetQuestion(ctx context.Context, id int64) (*questionbank.Question, error)
	CreateQuestion(ctx context.Context, text, category string) (*questionbank.Question, error)
	UpdateQuestion(ctx context.Context, id int64, text, category string) (*questionbank.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	AddRecording(ctx context.Context, r *questionbank.Recording) error
	ListRecordings(ctx context.Context, questionID int64) ([]questionbank.Recording, error)
	ActivateRecording(ctx context.Context, id int64) (*questionbank.Recording, error)
	GetRecording(ctx context.Context, id int64) (*questionbank.Recording, error)
	DeleteRecording(ctx context.Context, id int64) (*questionbank.Recording, error)
	ListInteractions(ctx context.Context, sessionID string, limit int) ([]questionbank.Interaction, error)
}

// Responder generates an answer to a meeting question.
type Responder interface {
	Generate(ctx context.Context, question, meetingContext string) (string, error)
}

// Recorder captures d of audio from the default input device.
type Recorder func(ctx context.Context, f audio.Format, d time.Duration) ([]byte, error)

// Handler serves the HTTP API.
type Handler struct {
	cfg      Config
	router   Transcriber
	health   ProviderHealth
	index    Matcher
	bank     QuestionBank
	sessions *session.Manager
	hub      *sse.Hub
	archive  storage.Storage
	media    storage.Storage
	answer   Responder
	record   Recorder
	format   audio.Format
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithQuestionBank enables the question and recording routes.
func WithQuestionBank(b QuestionBank) Option {
	return func(h *Handler) { h.bank = b }
}

// WithSessions enables the session routes. hub may be nil, in which case
// the event stream answers UNAVAILABLE.
func WithSessions(m *session.Manager, hub *sse.Hub) Option {
	return func(h *Handler) {
		h.sessions = m
		h.hub = hub
	}
}

// WithArchive stores every accepted upload in s.
func WithArchive(s storage.Storage) Option {
	return func(h *Handler) { h.archive = s }
}

// WithMedia serves recording media from s and removes it with the recording.
func WithMedia(s storage.Storage) Option {
	return func(h *Handler) { h.media = s }
}

// WithResponder enables POST /responses/generate.
func WithResponder(r Responder) Option {
	return func(h *Handler) { h.answer = r }
}

// WithRecorder replaces the device recorder used by the live route.
func WithRecorder(r Recorder) Option {
	return func(h *Handler) { h.record = r }
}

// WithFormat sets the capture format of the live route.
func WithFormat(f audio.Format) Option {
	return func(h *Handler) { h.format = f }
}

func WithLogger(l *logger.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// New creates a Handler. tr, hr and index are required.
func New(cfg Config, tr Transcriber, hr ProviderHealth, index Matcher, opts ...Option) *Handler {
	cfg.ApplyDefaults()
	h := &Handler{
		cfg:    cfg,
		router: tr,
		health: hr,
		index:  index,
		record: audio.Record,
		format: audio.DefaultFormat,
		log:    logger.Get("api"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r. limit guards the routes that spend
// provider budget and may be nil.
func (h *Handler) Register(r gin.IRouter, limit gin.HandlerFunc) {
	guarded := []gin.HandlerFunc{}
	if limit != nil {
		guarded = append(guarded, limit)
	}
	with := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guarded...), fn)
	}

	stt := r.Group("/speech-to-text")
	stt.GET("/test", with(h.TestProviders)...)
	stt.POST("/live", with(h.Live)...)
	stt.POST("/transcribe", with(h.TranscribeUpload)...)

	r.GET("/providers", h.Providers)
	r.GET("/questions/match", h.Match)

	if h.bank != nil {
		r.GET("/questions", h.ListQuestions)
		r.POST("/questions", h.CreateQuestion)
		r.GET("/questions/:id", h.GetQuestion)
		r.PUT("/questions/:id", h.UpdateQuestion)
		r.DELETE("/questions/:id", h.DeleteQuestion)
		r.GET("/questions/:id/recordings", h.ListRecordings)
		r.POST("/questions/:id/recordings", h.AddRecording)
		r.POST("/recordings/:id/activate", h.ActivateRecording)
		r.DELETE("/recordings/:id", h.DeleteRecording)
		if h.media != nil {
			r.GET("/recordings/:id/media", h.RecordingMedia)
		}
	}

	if h.answer != nil {
		r.POST("/responses/generate", with(h.GenerateResponse)...)
	}

	if h.sessions != nil {
		r.POST("/sessions", h.CreateSession)
		r.GET("/sessions", h.ListSessions)
		r.GET("/sessions/:id", h.GetSession)
		r.POST("/sessions/:id/audio", with(h.PushAudio)...)
		r.DELETE("/sessions/:id", h.EndSession)
		r.GET("/sessions/:id/events", h.SessionEvents)
		if h.bank != nil {
			r.GET("/sessions/:id/interactions", h.ListInteractions)
		}
	}
}

func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.InvalidInput(name, "must be a positive integer")
	}
	return n, nil
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidInput(name, "must be an integer")
	}
	return n, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.InvalidInput("body", "request body must be valid JSON").WithCause(err)
	}
	return nil
}
