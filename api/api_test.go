package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/standin/audio"
	"github.com/kbukum/standin/database"
	"github.com/kbukum/standin/delivery"
	"github.com/kbukum/standin/embedding"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/health"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/questionbank"
	"github.com/kbukum/standin/questionindex"
	"github.com/kbukum/standin/router"
	"github.com/kbukum/standin/selector"
	"github.com/kbukum/standin/session"
	"github.com/kbukum/standin/storage"
	"github.com/kbukum/standin/storage/local"
	"github.com/kbukum/standin/transcription"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRouter struct {
	mu     sync.Mutex
	chunks []transcription.Chunk
	err    error
}

func (f *fakeRouter) Providers() []string { return []string{"whisper", "openai"} }

func (f *fakeRouter) Transcribe(_ context.Context, chunk transcription.Chunk, _ ...router.CallOption) (*transcription.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunks = append(f.chunks, chunk)
	if f.err != nil {
		return nil, f.err
	}
	return &transcription.Result{Text: "Any blockers?", Confidence: 0.9, ProviderID: "whisper"}, nil
}

func (f *fakeRouter) Probe(context.Context) map[string]router.ProbeResult {
	return map[string]router.ProbeResult{
		"whisper": {Available: true},
		"openai":  {Error: "bad key", Kind: string(apperrors.ErrCodeAuth)},
	}
}

func (f *fakeRouter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chunks)
}

type fakeHealth map[string]health.Status

func (f fakeHealth) Snapshot() map[string]health.Status { return f }

type noopDeliverer struct{}

func (noopDeliverer) Deliver(context.Context, delivery.Target, selector.Decision) delivery.Outcome {
	return delivery.Outcome{OK: true}
}

type testEnv struct {
	engine  *gin.Engine
	router  *fakeRouter
	index   *questionindex.Index
	store   *questionbank.Store
	archive storage.Storage
}

func newEnv(t *testing.T, cfg Config, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := database.NewComponent(database.Config{
		Enabled:     true,
		DSN:         ":memory:",
		AutoMigrate: true,
		LogLevel:    "silent",
	}, logger.Nop()).WithAutoMigrate(questionbank.Models()...)
	if err := db.Start(ctx); err != nil {
		t.Fatalf("database start: %v", err)
	}
	t.Cleanup(func() { _ = db.Stop(context.Background()) })
	store := questionbank.NewStore(db)

	index := questionindex.New(embedding.NewHashing(0))
	for _, q := range []questionindex.Question{
		{ID: 1, Text: "What's the project status?"},
		{ID: 2, Text: "Any blockers?"},
	} {
		if err := index.Upsert(ctx, q); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	fr := &fakeRouter{}
	mgr, err := session.NewManager(session.Config{WindowDuration: 500 * time.Millisecond}, session.Pipeline{
		Transcriber: fr,
		Matcher:     index,
		Decider:     selector.New(selector.Config{}, store),
		Deliverer:   noopDeliverer{},
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Stop(context.Background()) })

	archive, err := local.NewStorage(t.TempDir(), "http://media.local")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	all := append([]Option{
		WithQuestionBank(store),
		WithSessions(mgr, nil),
		WithArchive(archive),
		WithMedia(archive),
		WithLogger(logger.Nop()),
	}, opts...)
	h := New(cfg, fr, fakeHealth{"whisper": {ProviderID: "whisper", Available: true, Breaker: "closed"}}, index, all...)

	engine := gin.New()
	h.Register(engine, nil)
	return &testEnv{engine: engine, router: fr, index: index, store: store, archive: archive}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(t *testing.T, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if v != nil {
		var err error
		if body, err = json.Marshal(v); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	return e.do(t, method, path, body, "application/json")
}

func upload(t *testing.T, data []byte, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if data != nil {
		fw, err := w.CreateFormFile("audio", "clip.bin")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return buf.Bytes(), w.FormDataContentType()
}

func silenceWAV(t *testing.T, d time.Duration) []byte {
	t.Helper()
	wav, err := audio.EncodeWAV(audio.Silence(audio.DefaultFormat, d), audio.DefaultFormat)
	if err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	return wav
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorCode {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error.Kind
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestTestProvidersReturnsEveryProvider(t *testing.T) {
	env := newEnv(t, Config{})
	rec := env.do(t, http.MethodGet, "/speech-to-text/test", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]router.ProbeResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || !got["whisper"].Available || got["openai"].Available || got["openai"].Error == "" {
		t.Errorf("probe map = %+v", got)
	}
}

func TestProviders(t *testing.T) {
	env := newEnv(t, Config{})
	rec := env.do(t, http.MethodGet, "/providers", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"breaker":"closed"`) {
		t.Errorf("GET /providers = %d %s", rec.Code, rec.Body.String())
	}
}

func TestTranscribeUpload(t *testing.T) {
	env := newEnv(t, Config{})
	body, ct := upload(t, silenceWAV(t, time.Second), map[string]string{"preferredService": "openai"})

	rec := env.do(t, http.MethodPost, "/speech-to-text/transcribe", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp TranscriptionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Transcription == nil || resp.Transcription.Text != "Any blockers?" || resp.Transcription.ProviderID != "whisper" {
		t.Errorf("transcription = %+v", resp.Transcription)
	}

	if env.router.calls() != 1 {
		t.Fatalf("router calls = %d", env.router.calls())
	}
	chunk := env.router.chunks[0]
	if chunk.ContentType != "audio/wav" || chunk.Duration != time.Second {
		t.Errorf("chunk = %s %v", chunk.ContentType, chunk.Duration)
	}

	if !strings.HasPrefix(resp.ArchivedAs, "uploads/") || !strings.HasSuffix(resp.ArchivedAs, ".wav") {
		t.Fatalf("archivedAs = %q", resp.ArchivedAs)
	}
	stored, err := storage.GetBytes(context.Background(), env.archive, resp.ArchivedAs)
	if err != nil || len(stored) != len(chunk.Data) {
		t.Errorf("archived %d bytes, err %v", len(stored), err)
	}
}

func TestTranscribeUploadRejectsBeforeProviders(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		fields   map[string]string
		wantCode int
		wantKind apperrors.ErrorCode
	}{
		{"missing file", nil, nil, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"empty file", []byte{}, nil, http.StatusBadRequest, apperrors.ErrCodeMalformed},
		{"not audio", []byte("hello, this is plain text and not audio"), nil, http.StatusUnsupportedMediaType, apperrors.ErrCodeMalformed},
		{"unknown provider", []byte("RIFF"), map[string]string{"preferredService": "nope"}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, Config{})
			body, ct := upload(t, tt.data, tt.fields)
			rec := env.do(t, http.MethodPost, "/speech-to-text/transcribe", body, ct)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if kind := errorKind(t, rec); kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			if env.router.calls() != 0 {
				t.Errorf("router called %d times", env.router.calls())
			}
		})
	}
}

func TestTranscribeAllProvidersUnavailable(t *testing.T) {
	env := newEnv(t, Config{})
	env.router.err = apperrors.AllProvidersUnavailable(map[string]apperrors.ProviderFailure{
		"whisper": {Kind: apperrors.ErrCodeTimeout, Message: "timed out"},
		"openai":  {Kind: apperrors.ErrCodeAuth, Message: "bad key"},
	})
	body, ct := upload(t, silenceWAV(t, time.Second), nil)

	rec := env.do(t, http.MethodPost, "/speech-to-text/transcribe", body, ct)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if kind := errorKind(t, rec); kind != apperrors.ErrCodeAllProvidersUnavailable {
		t.Errorf("kind = %q", kind)
	}
}

func TestLive(t *testing.T) {
	var recorded time.Duration
	okRecorder := WithRecorder(func(_ context.Context, f audio.Format, d time.Duration) ([]byte, error) {
		recorded = d
		return audio.Silence(f, d), nil
	})

	tests := []struct {
		name     string
		opts     []Option
		body     any
		wantCode int
		wantKind apperrors.ErrorCode
	}{
		{"ok", []Option{okRecorder}, LiveRequest{DurationSeconds: 1.5, PreferredService: "whisper"}, http.StatusOK, ""},
		{"zero duration", []Option{okRecorder}, LiveRequest{}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"too long", []Option{okRecorder}, LiveRequest{DurationSeconds: 61}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"unknown provider", []Option{okRecorder}, LiveRequest{DurationSeconds: 1, PreferredService: "nope"}, http.StatusBadRequest, apperrors.ErrCodeInvalidInput},
		{"no device", []Option{WithRecorder(func(context.Context, audio.Format, time.Duration) ([]byte, error) {
			return nil, errors.New("no capture device")
		})}, LiveRequest{DurationSeconds: 1}, http.StatusServiceUnavailable, apperrors.ErrCodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, Config{}, tt.opts...)
			rec := env.doJSON(t, http.MethodPost, "/speech-to-text/live", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantKind != "" {
				if kind := errorKind(t, rec); kind != tt.wantKind {
					t.Errorf("kind = %q, want %q", kind, tt.wantKind)
				}
				return
			}
			if recorded != 1500*time.Millisecond {
				t.Errorf("recorded %v", recorded)
			}
			if env.router.calls() != 1 || env.router.chunks[0].ContentType != "audio/wav" {
				t.Errorf("router chunks = %d", env.router.calls())
			}
		})
	}
}

func TestMatch(t *testing.T) {
	env := newEnv(t, Config{})

	rec := env.do(t, http.MethodGet, "/questions/match?text=What+is+the+current+project+status&k=1", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp MatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].QuestionID != 1 || resp.Matches[0].Score < 0.8 {
		t.Errorf("matches = %+v", resp.Matches)
	}

	for _, q := range []string{"/questions/match", "/questions/match?text=hi&k=0", "/questions/match?text=hi&k=x"} {
		if rec := env.do(t, http.MethodGet, q, nil, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", q, rec.Code)
		}
	}
}

func TestQuestionCRUD(t *testing.T) {
	env := newEnv(t, Config{})

	rec := env.doJSON(t, http.MethodPost, "/questions", QuestionRequest{Text: "  When is the demo?  "})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	var q questionbank.Question
	decodeData(t, rec, &q)
	if q.ID == 0 || q.Text != "When is the demo?" || q.Category != questionbank.CategoryCustom {
		t.Errorf("created %+v", q)
	}

	if rec := env.doJSON(t, http.MethodPost, "/questions", QuestionRequest{Text: " "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank create = %d", rec.Code)
	}

	path := "/questions/" + itoa(q.ID)
	rec = env.doJSON(t, http.MethodPut, path, QuestionRequest{Text: "When is the next demo?", Category: "planning"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &q)
	if q.Text != "When is the next demo?" || q.Category != "planning" {
		t.Errorf("updated %+v", q)
	}

	rec = env.doJSON(t, http.MethodPost, path+"/recordings", RecordingRequest{MediaRef: "answers/demo.mp3", DurationSeconds: 4, Active: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add recording = %d: %s", rec.Code, rec.Body.String())
	}
	var r questionbank.Recording
	decodeData(t, rec, &r)
	if !r.Active || r.QuestionID != q.ID {
		t.Errorf("recording %+v", r)
	}
	if rec := env.do(t, http.MethodPost, "/recordings/"+itoa(r.ID)+"/activate", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("activate = %d", rec.Code)
	}
	if rec := env.doJSON(t, http.MethodPost, "/questions/999/recordings", RecordingRequest{MediaRef: "x.mp3"}); rec.Code != http.StatusNotFound {
		t.Errorf("recording for missing question = %d", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, path, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, path, nil, "")
	if rec.Code != http.StatusNotFound || errorKind(t, rec) != apperrors.ErrCodeNotFound {
		t.Errorf("get deleted = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/questions/abc", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id = %d", rec.Code)
	}
}

func TestRecordingMediaAndDelete(t *testing.T) {
	env := newEnv(t, Config{})
	ctx := context.Background()
	q, err := env.store.CreateQuestion(ctx, "Can you give a status update?", "")
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	wav := silenceWAV(t, 200*time.Millisecond)
	if err := storage.PutBytes(ctx, env.archive, "answers/status.wav", wav); err != nil {
		t.Fatalf("PutBytes: %v", err)
	}
	rec := env.doJSON(t, http.MethodPost, "/questions/"+itoa(q.ID)+"/recordings",
		RecordingRequest{MediaRef: "answers/status.wav", Active: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add recording = %d: %s", rec.Code, rec.Body.String())
	}
	var r questionbank.Recording
	decodeData(t, rec, &r)
	path := "/recordings/" + itoa(r.ID)

	rec = env.do(t, http.MethodGet, path+"/media", nil, "")
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), wav) {
		t.Fatalf("media = %d, %d bytes", rec.Code, rec.Body.Len())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "wav") {
		t.Errorf("content type = %q", ct)
	}

	if rec := env.do(t, http.MethodDelete, path, nil, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d: %s", rec.Code, rec.Body.String())
	}
	if ok, _ := env.archive.Exists(ctx, "answers/status.wav"); ok {
		t.Error("media survived recording delete")
	}
	if _, ok, _ := env.store.ActiveRecordingID(ctx, q.ID); ok {
		t.Error("deleted recording is still active")
	}
	for _, p := range []string{path, path + "/media"} {
		method := http.MethodDelete
		if strings.HasSuffix(p, "/media") {
			method = http.MethodGet
		}
		if rec := env.do(t, method, p, nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s after delete = %d", method, p, rec.Code)
		}
	}
}

type fakeResponder struct {
	question, context string
	err               error
}

func (f *fakeResponder) Generate(_ context.Context, question, meetingContext string) (string, error) {
	f.question, f.context = question, meetingContext
	if f.err != nil {
		return "", f.err
	}
	return "I will share the numbers by Friday.", nil
}

func TestGenerateResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *fakeResponder
		body     GenerateRequest
		wantCode int
	}{
		{"answers", &fakeResponder{}, GenerateRequest{Question: "When are the numbers due?", Context: "Q3 review"}, http.StatusOK},
		{"blank question", &fakeResponder{}, GenerateRequest{Question: "  "}, http.StatusBadRequest},
		{"generator down", &fakeResponder{err: apperrors.DeliveryFailed("generate response", errors.New("quota"))}, GenerateRequest{Question: "Any risks?"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, Config{}, WithResponder(tt.resp))
			rec := env.doJSON(t, http.MethodPost, "/responses/generate", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var out GeneratedAnswer
			decodeData(t, rec, &out)
			if out.Response != "I will share the numbers by Friday." || tt.resp.context != "Q3 review" {
				t.Errorf("answer = %+v, context = %q", out, tt.resp.context)
			}
		})
	}

	env := newEnv(t, Config{})
	if rec := env.doJSON(t, http.MethodPost, "/responses/generate", GenerateRequest{Question: "Hi?"}); rec.Code != http.StatusNotFound {
		t.Errorf("route without responder = %d, want 404", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newEnv(t, Config{})

	rec := env.doJSON(t, http.MethodPost, "/sessions", session.CreateOptions{PreferredService: "openai"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	var info session.Info
	decodeData(t, rec, &info)
	if info.ID == "" || info.PreferredService != "openai" || info.Source != session.SourcePush {
		t.Fatalf("created %+v", info)
	}
	base := "/sessions/" + info.ID

	if rec := env.do(t, http.MethodPost, base+"/audio", []byte{1, 2, 3}, "application/octet-stream"); rec.Code != http.StatusBadRequest {
		t.Errorf("odd PCM = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/audio", nil, "application/octet-stream"); rec.Code != http.StatusBadRequest {
		t.Errorf("empty PCM = %d", rec.Code)
	}

	pcm := audio.Silence(audio.DefaultFormat, 500*time.Millisecond)
	rec = env.do(t, http.MethodPost, base+"/audio", pcm, "application/octet-stream")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("push = %d: %s", rec.Code, rec.Body.String())
	}
	var push PushResponse
	decodeData(t, rec, &push)
	if push.Accepted != len(pcm) {
		t.Errorf("accepted = %d", push.Accepted)
	}

	if rec := env.do(t, http.MethodGet, "/sessions", nil, ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), info.ID) {
		t.Errorf("list = %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodDelete, base, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("end = %d: %s", rec.Code, rec.Body.String())
	}
	decodeData(t, rec, &info)
	if info.State != selector.StateIdle || info.Stats.WindowsProcessed != 1 {
		t.Errorf("final info = %+v", info)
	}

	for _, path := range []string{base, base + "/events"} {
		if rec := env.do(t, http.MethodGet, path, nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s after end = %d", path, rec.Code)
		}
	}
}

func TestSessionCreateUnknownProvider(t *testing.T) {
	env := newEnv(t, Config{})
	rec := env.doJSON(t, http.MethodPost, "/sessions", session.CreateOptions{PreferredService: "nope"})
	if rec.Code != http.StatusBadRequest || errorKind(t, rec) != apperrors.ErrCodeInvalidInput {
		t.Errorf("create = %d %s", rec.Code, rec.Body.String())
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cfg.MatchTopK = 100
	if err := cfg.Validate(); err == nil {
		t.Error("match_top_k above max_match_k should fail")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
