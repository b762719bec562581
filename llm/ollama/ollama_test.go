package ollama

import (
	"encoding/json"
	"testing"

	"github.com/kbukum/standin/llm"
)

func TestBuildRequest(t *testing.T) {
	body, err := (&Dialect{}).BuildRequest(llm.CompletionRequest{
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: "user", Content: "hi"}},
		Temperature:  0.7,
		MaxTokens:    300,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	req := body.(chatRequest)
	if req.Model != defaultModel || req.Stream {
		t.Errorf("model/stream = %q/%v", req.Model, req.Stream)
	}
	if req.Options.NumPredict != 300 || req.Options.Temperature != 0.7 {
		t.Errorf("options = %+v", req.Options)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestParseResponse(t *testing.T) {
	raw, _ := json.Marshal(chatResponse{
		Model:           "llama3",
		Message:         llm.Message{Role: "assistant", Content: "Sure."},
		Done:            true,
		PromptEvalCount: 4,
		EvalCount:       2,
	})
	resp, err := (&Dialect{}).ParseResponse(raw)
	if err != nil {
		t.Fatalf("ParseResponse: %v", err)
	}
	if resp.Content != "Sure." || resp.Usage.TotalTokens != 6 {
		t.Errorf("resp = %+v", resp)
	}
}
