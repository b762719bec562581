// Package ollama registers the dialect for a local Ollama server.
package ollama

import (
	"encoding/json"

	"github.com/kbukum/standin/httpclient"
	"github.com/kbukum/standin/llm"
)

// DialectName is the registered name.
const DialectName = "ollama"

const defaultModel = "llama3"

func init() {
	llm.RegisterDialect(DialectName, &Dialect{})
}

// Dialect maps to Ollama's native /api/chat.
type Dialect struct{}

func (d *Dialect) Name() string { return DialectName }
func (d *Dialect) DefaultBaseURL() string { return "http://localhost:11434" }
func (d *Dialect) ChatPath() string { return "/api/chat" }
func (d *Dialect) HealthPath() string { return "/api/tags" }
func (d *Dialect) Auth(string) *httpclient.AuthConfig { return nil }

type chatOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Model           string      `json:"model"`
	Message         llm.Message `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

func (d *Dialect) BuildRequest(req llm.CompletionRequest) (any, error) {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	return chatRequest{
		Model:    model,
		Messages: req.AllMessages(),
		Options:  chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}, nil
}

func (d *Dialect) ParseResponse(body []byte) (*llm.CompletionResponse, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content: resp.Message.Content,
		Model:   resp.Model,
		Usage: llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}
