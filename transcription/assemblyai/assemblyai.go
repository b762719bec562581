// Package assemblyai adapts the AssemblyAI upload, submit and poll workflow.
package assemblyai

import (
	"context"
	"errors"
	"net/http"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/resilience"
	"github.com/kbukum/standin/transcription"
)

const (
	// Type is the registry name of this backend.
	Type = "assemblyai"

	defaultURL = "https://api.assemblyai.com"

	statusCompleted = "completed"
	statusError     = "error"
)

var errPending = errors.New("assemblyai: transcript not ready")

// Adapter implements transcription.Adapter. A transcription is three calls:
// upload the bytes, submit a transcript job, then poll until it settles.
// Polling is bounded by the caller's context.
type Adapter struct {
	cfg    transcription.ProviderConfig
	client *httpclient.Client
}

// New creates an AssemblyAI adapter.
func New(cfg transcription.ProviderConfig) (*Adapter, error) {
	cfg.ApplyDefaults()
	client, err := cfg.NewHTTPClient(defaultURL, httpclient.APIKeyAuthHeader(cfg.APIKey, "authorization"))
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, client: client}, nil
}

// Factory adapts New to the registry signature.
func Factory(cfg transcription.ProviderConfig) (transcription.Adapter, error) {
	return New(cfg)
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) IsAvailable(context.Context) bool { return a.cfg.APIKey != "" }

func (a *Adapter) Transcribe(ctx context.Context, chunk transcription.Chunk) (*transcription.Result, error) {
	if a.cfg.APIKey == "" {
		return nil, transcription.MissingCredentials(a.cfg.Name)
	}

	var upload struct {
		UploadURL string `json:"upload_url"`
	}
	if _, err := a.client.DoJSON(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/v2/upload",
		Headers: map[string]string{"Content-Type": "application/octet-stream"},
		Body:    chunk.Data,
	}, &upload); err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}
	if upload.UploadURL == "" {
		return nil, transcription.MalformedResponse(a.cfg.Name, "upload returned no url")
	}

	submit := map[string]any{"audio_url": upload.UploadURL}
	if a.cfg.Language != "" {
		submit["language_code"] = a.cfg.Language
	}
	var job transcript
	if _, err := a.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v2/transcript",
		Body:   submit,
	}, &job); err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}
	if job.ID == "" {
		return nil, transcription.MalformedResponse(a.cfg.Name, "submit returned no transcript id")
	}

	done, err := a.poll(ctx, job.ID)
	if err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}
	if done.Status == statusError {
		return nil, transcription.MalformedResponse(a.cfg.Name, "transcript failed: "+done.Error)
	}

	return &transcription.Result{
		Text:       done.Text,
		Confidence: transcription.NormalizeConfidence(done.Confidence),
		ProviderID: a.cfg.Name,
		Language:   done.LanguageCode,
	}, nil
}

func (a *Adapter) poll(ctx context.Context, id string) (transcript, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    1 << 20,
		InitialBackoff: a.cfg.PollInterval,
		MaxBackoff:     a.cfg.PollInterval,
		BackoffFactor:  1,
		RetryIf:        func(err error) bool { return errors.Is(err, errPending) },
	}
	return resilience.Retry(ctx, cfg, func() (transcript, error) {
		var t transcript
		if _, err := a.client.DoJSON(ctx, httpclient.Request{Method: http.MethodGet, Path: "/v2/transcript/" + id}, &t); err != nil {
			return t, err
		}
		if t.Status != statusCompleted && t.Status != statusError {
			return t, errPending
		}
		return t, nil
	})
}

type transcript struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	Text         string   `json:"text"`
	Confidence   *float64 `json:"confidence"`
	LanguageCode string   `json:"language_code"`
	Error        string   `json:"error"`
}
