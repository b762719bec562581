// Package azure adapts the Azure Speech short-audio recognition REST API.
package azure

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/transcription"
)

const (
	// Type is the registry name of this backend.
	Type = "azure"

	defaultRegion   = "eastus"
	defaultLanguage = "en-US"
	recognizePath   = "/speech/recognition/conversation/cognitiveservices/v1"
)

// Adapter implements transcription.Adapter. The endpoint only accepts WAV;
// other encodings are rejected before any network call.
type Adapter struct {
	cfg    transcription.ProviderConfig
	client *httpclient.Client
}

// New creates an Azure Speech adapter. The base URL is derived from the region
// unless URL is set.
func New(cfg transcription.ProviderConfig) (*Adapter, error) {
	cfg.ApplyDefaults()
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	base := fmt.Sprintf("https://%s.stt.speech.microsoft.com", cfg.Region)
	client, err := cfg.NewHTTPClient(base, httpclient.APIKeyAuthHeader(cfg.APIKey, "Ocp-Apim-Subscription-Key"))
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
	if chunk.ContentType != "" && !strings.Contains(chunk.ContentType, "wav") {
		return nil, transcription.MalformedResponse(a.cfg.Name, "only WAV audio is accepted, got "+chunk.ContentType)
	}

	var out response
	_, err := a.client.DoJSON(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    recognizePath,
		Query:   map[string]string{"language": a.cfg.Language, "format": "detailed"},
		Headers: map[string]string{"Content-Type": "audio/wav; codecs=audio/pcm; samplerate=16000"},
		Body:    chunk.Data,
	}, &out)
	if err != nil {
		return nil, transcription.Classify(a.cfg.Name, err)
	}

	result := &transcription.Result{ProviderID: a.cfg.Name, Language: a.cfg.Language, Confidence: transcription.DefaultConfidence}
	switch out.RecognitionStatus {
	case "Success":
		result.Text = out.DisplayText
		if len(out.NBest) > 0 {
			result.Confidence = transcription.NormalizeConfidence(out.NBest[0].Confidence)
			if result.Text == "" {
				result.Text = out.NBest[0].Display
			}
		}
		return result, nil
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return result, nil
	case "Error":
		return nil, transcription.Classify(a.cfg.Name, fmt.Errorf("recognition status Error"))
	default:
		return nil, transcription.MalformedResponse(a.cfg.Name, "unexpected recognition status "+out.RecognitionStatus)
	}
}

type response struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	NBest             []struct {
		Confidence *float64 `json:"Confidence"`
		Display    string   `json:"Display"`
	} `json:"NBest"`
}
