package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/standin/llm"
)

func TestRegistered(t *testing.T) {
	d, err := llm.GetDialect(DialectName)
	if err != nil {
		t.Fatalf("GetDialect: %v", err)
	}
	if d.Name() != "openai" {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestChatCompletion(t *testing.T) {
	var req chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"We ship Friday."}}],"usage":{"total_tokens":12}}`))
	}))
	defer srv.Close()

	a, err := llm.New(llm.Config{Dialect: DialectName, BaseURL: srv.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := a.Execute(context.Background(), llm.CompletionRequest{
		SystemPrompt: "be brief",
		Messages:     []llm.Message{{Role: "user", Content: "when do we ship?"}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Content != "We ship Friday." || resp.Usage.TotalTokens != 12 {
		t.Errorf("resp = %+v", resp)
	}
	if req.Model != defaultModel || req.MaxTokens != 300 || req.Temperature != 0.7 {
		t.Errorf("request = %+v", req)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", req.Messages)
	}
}

func TestParseResponse_NoChoices(t *testing.T) {
	if _, err := (&Dialect{}).ParseResponse([]byte(`{"choices":[]}`)); err == nil {
		t.Error("expected error for empty choices")
	}
}
