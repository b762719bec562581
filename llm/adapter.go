package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kbukum/standin/httpclient"
)

// ErrNoDialect is returned when an adapter is created without a dialect.
var ErrNoDialect = errors.New("llm: dialect is required")

// Adapter is a config-driven chat completion client. It composes the
// shared HTTP client with a Dialect that handles the provider's format.
type Adapter struct {
	name      string
	client    *httpclient.Client
	dialect   Dialect
	model     string
	temp      float64
	maxTokens int
}

// New creates an adapter using the dialect registered under cfg.Dialect.
func New(cfg Config) (*Adapter, error) {
	cfg.ApplyDefaults()

	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	return newAdapter(dialect, cfg)
}

// NewWithDialect creates an adapter with an explicit dialect instance.
func NewWithDialect(dialect Dialect, cfg Config) (*Adapter, error) {
	if dialect == nil {
		return nil, ErrNoDialect
	}
	if cfg.Dialect == "" {
		cfg.Dialect = dialect.Name()
	}
	cfg.ApplyDefaults()
	return newAdapter(dialect, cfg)
}

func newAdapter(dialect Dialect, cfg Config) (*Adapter, error) {
	base := cfg.BaseURL
	if base == "" {
		base = dialect.DefaultBaseURL()
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL: base,
		Timeout: cfg.Timeout,
		Auth:    dialect.Auth(cfg.APIKey),
		Retry:   httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create http client: %w", err)
	}

	return &Adapter{
		name:      cfg.Name,
		client:    client,
		dialect:   dialect,
		model:     cfg.Model,
		temp:      cfg.Temperature,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// Dialect returns the adapter's dialect.
func (a *Adapter) Dialect() Dialect { return a.dialect }

// IsAvailable checks the dialect's health endpoint. Dialects without one
// are assumed available.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	hp := a.dialect.HealthPath()
	if hp == "" {
		return true
	}
	_, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: hp})
	return err == nil
}

// Execute sends a completion request and returns the full response.
func (a *Adapter) Execute(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	a.applyDefaults(&req)

	body, err := a.dialect.BuildRequest(req)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: build request: %w", err)
	}

	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   a.dialect.ChatPath(),
		Body:   body,
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: execute: %w", err)
	}

	result, err := a.dialect.ParseResponse(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("llm: parse response: %w", err)
	}
	return *result, nil
}

func (a *Adapter) applyDefaults(req *CompletionRequest) {
	if req.Model == "" {
		req.Model = a.model
	}
	if req.Temperature == 0 {
		req.Temperature = a.temp
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = a.maxTokens
	}
}
