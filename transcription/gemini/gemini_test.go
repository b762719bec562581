package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/transcription"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-1.5-flash:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "gk" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 2 || req.Contents[0].Parts[1].InlineData == nil {
			t.Fatalf("unexpected payload %+v", req)
		}
		if req.Contents[0].Parts[1].InlineData.Data != "YWJj" {
			t.Errorf("inline data = %q", req.Contents[0].Parts[1].InlineData.Data)
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  What is the budget?\n"}]}}]}`))
	}))
	defer srv.Close()

	a, _ := New(transcription.ProviderConfig{Type: Type, URL: srv.URL, APIKey: "gk"})
	res, err := a.Transcribe(context.Background(), transcription.Chunk{Data: []byte("abc"), ContentType: "audio/wav"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "What is the budget?" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Confidence != transcription.DefaultConfidence {
		t.Errorf("Confidence = %v", res.Confidence)
	}
}

func TestTranscribe_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	a, _ := New(transcription.ProviderConfig{Type: Type, URL: srv.URL, APIKey: "gk"})
	_, err := a.Transcribe(context.Background(), transcription.Chunk{Data: []byte("abc")})
	if !apperrors.Is(err, apperrors.ErrCodeMalformed) {
		t.Errorf("error = %v, want MALFORMED", err)
	}
}
