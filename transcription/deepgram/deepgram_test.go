package deepgram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/transcription"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token dg" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("model") != "nova-2" {
			t.Errorf("model = %q", r.URL.Query().Get("model"))
		}
		if ct := r.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "pcm" {
			t.Errorf("body = %q", body)
		}
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"any blockers","confidence":0.91}]}]}}`))
	}))
	defer srv.Close()

	a, _ := New(transcription.ProviderConfig{Type: Type, URL: srv.URL, APIKey: "dg"})
	res, err := a.Transcribe(context.Background(), transcription.Chunk{Data: []byte("pcm"), ContentType: "audio/wav"})
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if res.Text != "any blockers" || res.Confidence != 0.91 {
		t.Errorf("result = %+v", res)
	}
}

func TestTranscribe_NoAlternatives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"channels":[]}}`))
	}))
	defer srv.Close()

	a, _ := New(transcription.ProviderConfig{Type: Type, URL: srv.URL, APIKey: "dg"})
	_, err := a.Transcribe(context.Background(), transcription.Chunk{Data: []byte("pcm")})
	if !apperrors.Is(err, apperrors.ErrCodeMalformed) {
		t.Errorf("error = %v, want MALFORMED", err)
	}
}
