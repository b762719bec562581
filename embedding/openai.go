package embedding

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/httpclient"
)

// OpenAIConfig configures an OpenAI-compatible /v1/embeddings endpoint.
type OpenAIConfig struct {
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	Model      string        `yaml:"model" mapstructure:"model"`
	Dimensions int           `yaml:"dimensions" mapstructure:"dimensions"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults targets text-embedding-3-small on api.openai.com.
func (c *OpenAIConfig) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com"
	}
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// OpenAI calls a remote embeddings API.
type OpenAI struct {
	cfg    OpenAIConfig
	client *httpclient.Client
}

// NewOpenAI creates a remote embedder.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	cfg.ApplyDefaults()
	client, err := httpclient.New(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Auth:    httpclient.BearerAuth(cfg.APIKey),
		Retry:   httpclient.DefaultRetryConfig(),
	})
	if err != nil {
		return nil, err
	}
	return &OpenAI{cfg: cfg, client: client}, nil
}

func (o *OpenAI) Dimensions() int { return o.cfg.Dimensions }

func (o *OpenAI) Model() string { return o.cfg.Model }

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	req := embeddingRequest{Model: o.cfg.Model, Input: text}
	if o.cfg.Dimensions > 0 {
		req.Dimensions = o.cfg.Dimensions
	}

	var out embeddingResponse
	if _, err := o.client.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/v1/embeddings",
		Body:   req,
	}, &out); err != nil {
		return nil, apperrors.Unavailable("embeddings").WithCause(err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, apperrors.Malformed("embeddings response has no vector")
	}
	return out.Data[0].Embedding, nil
}

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}
