// Package openai adapts the OpenAI audio transcriptions endpoint.
package openai

import (
	"context"
	"net/http"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/transcription"
)

const (
	// Type is the registry name of this backend.
	Type = "openai"

	defaultURL   = "https://api.openai.com"
	defaultModel = "whisper-1"
)

// Adapter implements transcription.Adapter with verbose_json output so the
// segment log probabilities can be turned into a confidence.
type Adapter struct {
	cfg    transcription.ProviderConfig
	client *httpclient.Client
}

// New creates an OpenAI transcription adapter.
func New(cfg transcription.ProviderConfig) (*Adapter, error) {
	cfg.ApplyDefaults()
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client, err := cfg.NewHTTPClient(defaultURL, httpclient.BearerAuth(cfg.APIKey))
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

// IsAvailable reports whether an API key is configured.
func (a *Adapter) IsAvailable(context.Context) bool { return a.cfg.APIKey != "" }

func (a *Adapter) Transcribe(ctx context.Context, chunk transcription.Chunk) (*transcription.Result, error) {
	if a.cfg.APIKey == "" {
		return nil, transcription.MissingCredentials(a.cfg.Name)
	}

	fields := map[string]string{
		"model":           a.cfg.Model,
		"response_format": "verbose_json",
	}
	if a.cfg.Language != "" {
		fields["language"] = a.cfg.Language
	}
	fileName := chunk.FileName
	if fileName == "" {
		fileName = "audio.wav"
	}

	var out response
	_, err := a.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/audio/transcriptions",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files:  []httpclient.FileField{{FieldName: "file", FileName: fileName, ContentType: chunk.ContentType, Data: chunk.Data}},
		},
	}, &out)
	if err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}

	logprobs := make([]float64, 0, len(out.Segments))
	for _, s := range out.Segments {
		logprobs = append(logprobs, s.AvgLogprob)
	}
	return &transcription.Result{
		Text:       out.Text,
		Confidence: transcription.ConfidenceFromLogprobs(logprobs),
		ProviderID: a.cfg.Name,
		Language:   out.Language,
	}, nil
}

type response struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}
