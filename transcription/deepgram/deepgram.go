// Package deepgram adapts the Deepgram pre-recorded /v1/listen API.
package deepgram

import (
	"context"
	"net/http"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/transcription"
)

const (
	// Type is the registry name of this backend.
	Type = "deepgram"

	defaultURL   = "https://api.deepgram.com"
	defaultModel = "nova-2"
)

// Adapter implements transcription.Adapter. Deepgram reports a confidence
// per alternative, which is used as is.
type Adapter struct {
	cfg    transcription.ProviderConfig
	client *httpclient.Client
}

// New creates a Deepgram adapter.
func New(cfg transcription.ProviderConfig) (*Adapter, error) {
	cfg.ApplyDefaults()
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client, err := cfg.NewHTTPClient(defaultURL, httpclient.SchemeAuth("Token", cfg.APIKey))
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

	query := map[string]string{"model": a.cfg.Model, "smart_format": "true"}
	if a.cfg.Language != "" {
		query["language"] = a.cfg.Language
	}
	contentType := chunk.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}

	var out response
	_, err := a.client.DoJSON(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/v1/listen",
		Query:   query,
		Headers: map[string]string{"Content-Type": contentType},
		Body:    chunk.Data,
	}, &out)
	if err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}

	if len(out.Results.Channels) == 0 || len(out.Results.Channels[0].Alternatives) == 0 {
		return nil, transcription.MalformedResponse(a.cfg.Name, "no alternatives in response")
	}
	alt := out.Results.Channels[0].Alternatives[0]
	return &transcription.Result{
		Text:       alt.Transcript,
		Confidence: transcription.NormalizeConfidence(alt.Confidence),
		ProviderID: a.cfg.Name,
		Language:   out.Results.Channels[0].DetectedLanguage,
	}, nil
}

type response struct {
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string   `json:"transcript"`
				Confidence *float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}
