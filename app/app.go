package app

import (
	"context"
	"fmt"

	"github.com/kbukum/standin/api"
	"github.com/kbukum/standin/bootstrap"
	"github.com/kbukum/standin/component"
	"github.com/kbukum/standin/database"
	"github.com/kbukum/standin/delivery"
	"github.com/kbukum/standin/embedding"
	"github.com/kbukum/standin/health"
	"github.com/kbukum/standin/llm"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/observability"
	"github.com/kbukum/standin/questionbank"
	"github.com/kbukum/standin/questionindex"
	"github.com/kbukum/standin/redis"
	"github.com/kbukum/standin/router"
	"github.com/kbukum/standin/selector"
	"github.com/kbukum/standin/server"
	"github.com/kbukum/standin/server/middleware"
	"github.com/kbukum/standin/session"
	"github.com/kbukum/standin/sse"
	"github.com/kbukum/standin/storage"
	"github.com/kbukum/standin/transcription"
	"github.com/kbukum/standin/transcription/backends"
	"github.com/kbukum/standin/util"

	// LLM dialects and storage backends register themselves.
	_ "github.com/kbukum/standin/llm/ollama"
	_ "github.com/kbukum/standin/llm/openai"
	_ "github.com/kbukum/standin/storage/local"
	_ "github.com/kbukum/standin/storage/s3"
)

// meterName scopes every standin instrument.
const meterName = "github.com/kbukum/standin"

// Services are the collaborators built by Wire.
type Services struct {
	Metrics   *observability.Metrics
	Health    *health.Registry
	Router    *router.Router
	Bank      *questionbank.Store
	Index     *questionindex.Index
	Selector  *selector.Selector
	Deliverer *delivery.Deliverer
	Sessions  *session.Manager
	Events    *sse.Hub
	Media     storage.Storage
	Server    *server.Server
}

// Option adjusts wiring, mostly for tests.
type Option func(*options)

type options struct {
	backends *transcription.Registry
	capture  session.CaptureFactory
	recorder api.Recorder
}

// WithBackends replaces the built-in transcription backends.
func WithBackends(reg *transcription.Registry) Option {
	return func(o *options) { o.backends = reg }
}

// WithCaptureFactory replaces device capture for live sessions.
func WithCaptureFactory(f session.CaptureFactory) Option {
	return func(o *options) { o.capture = f }
}

// WithRecorder replaces device recording for /speech-to-text/live.
func WithRecorder(r api.Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// Wire builds the services described by a.Cfg and registers their
// components. Components start in dependency order: telemetry, database,
// cache, media storage, question bank, question index, event hub, sessions
// and finally the HTTP server.
func Wire(a *bootstrap.App[*Config], opts ...Option) (*Services, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := a.Cfg
	log := a.Logger
	s := &Services{}

	register := func(cs ...component.Component) error {
		for _, c := range cs {
			if err := a.RegisterComponent(c); err != nil {
				return err
			}
		}
		return nil
	}

	if err := register(newTelemetry(cfg.Observability, a.Name, a.Version)); err != nil {
		return nil, err
	}
	metrics, err := observability.NewMetrics(observability.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	s.Metrics = metrics

	db := database.NewComponent(cfg.Database, log).WithAutoMigrate(questionbank.Models()...)
	if err := register(db); err != nil {
		return nil, err
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		client, err := redis.New(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		if err := register(redis.ForClient(client)); err != nil {
			return nil, err
		}
		embedder = embedding.NewCached(embedder, client, cfg.Redis.TTL)
	}

	media := storage.NewComponent(cfg.Storage, log)
	if s.Media, err = media.Open(); err != nil {
		return nil, err
	}
	if err := register(media); err != nil {
		return nil, err
	}

	s.Bank = questionbank.NewStore(db)
	s.Index = questionindex.New(embedder)
	if err := register(
		questionbank.NewComponent(s.Bank, cfg.Questions.Seed),
		questionindex.NewComponent(s.Index, s.Bank),
	); err != nil {
		return nil, err
	}
	s.Bank.OnChange(reindexOnChange(s.Index, s.Bank))

	s.Health = health.NewRegistry(cfg.Router.Health)
	reg := o.backends
	if reg == nil {
		reg = backends.NewRegistry()
	}
	adapters, err := transcription.Build(reg, cfg.Providers)
	if err != nil {
		return nil, err
	}
	s.Router = router.New(adapters, s.Health,
		router.WithTimeout(cfg.Router.CallTimeout),
		router.WithLogger(logger.Get("router")),
		router.WithMetrics(metrics),
	)

	s.Selector = selector.New(cfg.Selector, s.Bank,
		selector.WithLogger(logger.Get("selector")),
		selector.WithMetrics(metrics),
	)

	events := sse.NewComponent("/sessions/:id/events")
	s.Events = events.Hub()

	deliveryOpts := []delivery.Option{
		delivery.WithMetrics(metrics),
		delivery.WithLogger(logger.Get("delivery")),
	}
	if cfg.LLM.Enabled {
		gen, err := llm.New(cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		deliveryOpts = append(deliveryOpts, delivery.WithGenerator(gen))
	}
	s.Deliverer = delivery.New(cfg.Delivery, s.Bank, s.Media, s.Events, deliveryOpts...)

	var managerOpts []session.ManagerOption
	if o.capture != nil {
		managerOpts = append(managerOpts, session.WithCaptureFactory(o.capture))
	}
	s.Sessions, err = session.NewManager(cfg.Session, session.Pipeline{
		Transcriber: s.Router,
		Matcher:     s.Index,
		Decider:     s.Selector,
		Deliverer:   s.Deliverer,
		Events:      s.Events,
		History:     s.Bank,
		Metrics:     metrics,
	}, managerOpts...)
	if err != nil {
		return nil, err
	}

	s.Server = server.New(cfg.Server, logger.Get("http"), metrics)
	s.Server.RegisterDefaultEndpoints(a.Name, a.Components.HealthAll)

	apiOpts := []api.Option{
		api.WithQuestionBank(s.Bank),
		api.WithSessions(s.Sessions, s.Events),
		api.WithFormat(cfg.Session.Format),
	}
	if s.Media != nil {
		apiOpts = append(apiOpts, api.WithMedia(s.Media))
		if cfg.Storage.ArchiveUploads {
			apiOpts = append(apiOpts, api.WithArchive(s.Media))
		}
	}
	if s.Deliverer.CanGenerate() {
		apiOpts = append(apiOpts, api.WithResponder(s.Deliverer))
	}
	if o.recorder != nil {
		apiOpts = append(apiOpts, api.WithRecorder(o.recorder))
	}
	api.New(cfg.API, s.Router, s.Health, s.Index, apiOpts...).
		Register(s.Server.GinEngine(), middleware.RateLimit(cfg.Server.RateLimit))

	if err := register(events, s.Sessions, server.NewComponent(s.Server)); err != nil {
		return nil, err
	}

	a.OnConfigure(func(_ context.Context, a *bootstrap.App[*Config]) error {
		trackClients(a.Summary, a.Cfg)
		for _, r := range s.Server.Routes() {
			a.Summary.TrackRoute(r.Method, r.Path, r.Handler)
		}
		return nil
	})
	return s, nil
}

// reindexOnChange rebuilds the index after every question mutation. A
// failed rebuild keeps the previous index.
func reindexOnChange(index *questionindex.Index, src questionindex.Source) questionbank.Listener {
	log := logger.Get("questionindex")
	return func(ctx context.Context, ev questionbank.ChangeEvent) {
		if err := index.Rebuild(ctx, src); err != nil {
			log.Error("index rebuild failed", logger.Fields(
				logger.FieldQuestionID, ev.QuestionID,
				"change", string(ev.Kind),
				logger.FieldError, err.Error(),
			))
			return
		}
		log.Debug("index rebuilt", logger.Fields(logger.FieldQuestionID, ev.QuestionID, "size", index.Len()))
	}
}

// withKey appends a masked credential so the summary shows which key is
// loaded without printing it.
func withKey(status, key string) string {
	if key == "" {
		return status
	}
	return status + " (key " + util.MaskSecret(key, 4) + ")"
}

func trackClients(sum *bootstrap.Summary, cfg *Config) {
	for _, p := range cfg.Providers {
		target := p.URL
		if target == "" {
			target = "default endpoint"
		}
		status := "enabled"
		if p.Disabled {
			status = "disabled"
		}
		sum.TrackClient(p.Name, target, "transcription/"+p.Type, withKey(status, p.APIKey))
	}
	if cfg.LLM.Enabled {
		target := cfg.LLM.BaseURL
		if target == "" {
			target = "default endpoint"
		}
		sum.TrackClient(cfg.LLM.Name, target, "llm/"+cfg.LLM.Dialect, withKey("enabled", cfg.LLM.APIKey))
	}
	if cfg.Embedding.Provider == embedding.ProviderOpenAI {
		sum.TrackClient("embeddings", cfg.Embedding.OpenAI.BaseURL, "embedding/openai", "enabled")
	}
}
