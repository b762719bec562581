// Package openai registers the OpenAI chat completions dialect. Any
// OpenAI-compatible endpoint works through Config.BaseURL.
package openai

import (
	"encoding/json"
	"errors"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/llm"
)

// DialectName is the registered name.
const DialectName = "openai"

const defaultModel = "gpt-4o-mini"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps to POST /v1/chat/completions.
type Dialect struct{}

func (d *Dialect) Name() string { return DialectName }
func (d *Dialect) DefaultBaseURL() string { return "https://api.openai.com" }
func (d *Dialect) ChatPath() string { return "/v1/chat/completions" }
func (d *Dialect) HealthPath() string { return "" }

func (d *Dialect) Auth(apiKey string) *httpclient.AuthConfig {
	if apiKey == "" {
		return nil
	}
	return httpclient.BearerAuth(apiKey)
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage llm.Usage `json:"usage"`
}

func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	return chatRequest{
		Model:       model,
		Messages:    req.AllMessages(),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, nil
}

func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	return &llm.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}
