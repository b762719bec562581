// Package whisper adapts a self-hosted faster-whisper HTTP sidecar.
package whisper

import (
	"context"
	"net/http"
	"time"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/transcription"
)

const (
	// Type is the registry name of this backend.
	Type = "whisper"

	defaultURL   = "http://localhost:8387"
	defaultModel = "base"
)

// Adapter implements transcription.Adapter against the sidecar's
// POST /transcribe multipart endpoint.
type Adapter struct {
	cfg    transcription.ProviderConfig
	client *httpclient.Client
}

// New creates a Whisper sidecar adapter.
func New(cfg transcription.ProviderConfig) (*Adapter, error) {
	cfg.ApplyDefaults()
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client, err := cfg.NewHTTPClient(defaultURL, nil)
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, client: client}, nil
}

// Factory adapts New to the registry signature.
func Factory(cfg transcription.ProviderConfig) (transcription.Adapter, error) {
	return New(cfg)
}

// Name returns the configured provider id.
func (a *Adapter) Name() string { return a.cfg.Name }

// IsAvailable checks that the sidecar answers its health endpoint.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := a.client.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/health"})
	return err == nil
}

// Transcribe uploads the chunk and converts segment log probabilities into a confidence.
func (a *Adapter) Transcribe(ctx context.Context, chunk transcription.Chunk) (*transcription.Result, error) {
	fields := map[string]string{"model": a.cfg.Model}
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
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files:  []httpclient.FileField{{FieldName: "audio", FileName: fileName, ContentType: chunk.ContentType, Data: chunk.Data}},
		},
	}, &out)
	if err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}

	logprobs := make([]float64, 0, len(out.Segments))
	for _, seg := range out.Segments {
		if seg.AvgLogprob != nil {
			logprobs = append(logprobs, *seg.AvgLogprob)
		}
	}

	return &transcription.Result{
		Text:       out.Text,
		Confidence: transcription.ConfidenceFromLogprobs(logprobs),
		ProviderID: a.cfg.Name,
		Language:   out.Language,
	}, nil
}

type response struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []segment `json:"segments"`
}

type segment struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	AvgLogprob *float64 `json:"avg_logprob"`
}
