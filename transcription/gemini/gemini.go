// Package gemini transcribes audio with a Gemini generateContent call.
package gemini

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/transcription"
)

const (
	// Type is the registry name of this backend.
	Type = "gemini"

	defaultURL   = "https://generativelanguage.googleapis.com"
	defaultModel = "gemini-1.5-flash"

	prompt = "Please transcribe this audio file. Return only the transcribed text, no additional commentary."
)

// Adapter implements transcription.Adapter. Gemini returns no confidence, so
// results always carry transcription.DefaultConfidence.
type Adapter struct {
	cfg    transcription.ProviderConfig
	client *httpclient.Client
}

// New creates a Gemini adapter. The key travels as the "key" query parameter.
func New(cfg transcription.ProviderConfig) (*Adapter, error) {
	cfg.ApplyDefaults()
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	client, err := cfg.NewHTTPClient(defaultURL, httpclient.APIKeyAuthQuery(cfg.APIKey, "key"))
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
	mimeType := chunk.ContentType
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	body := request{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(chunk.Data)}},
		}}},
		GenerationConfig: generationConfig{Temperature: 0.1, MaxOutputTokens: 1000},
	}

	var out response
	_, err := a.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1beta/models/" + a.cfg.Model + ":generateContent",
		Body:   body,
	}, &out)
	if err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, transcription.MalformedResponse(a.cfg.Name, "no candidates in response")
	}
	return &transcription.Result{
		Text:       strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text),
		Confidence: transcription.DefaultConfidence,
		ProviderID: a.cfg.Name,
		Language:   a.cfg.Language,
	}, nil
}

type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}
