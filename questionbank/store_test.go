package questionbank

import (
	"context"
	"sync"
	"testing"

	"github.com/kbukum/standin/database"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := database.NewComponent(database.Config{
		Enabled:     true,
		DSN:         ":memory:",
		AutoMigrate: true,
		LogLevel:    "silent",
	}, logger.Nop()).WithAutoMigrate(Models()...)
	if err := db.Start(context.Background()); err != nil {
		t.Fatalf("database start: %v", err)
	}
	t.Cleanup(func() { _ = db.Stop(context.Background()) })
	return NewStore(db)
}

func TestSeedDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.SeedDefaults(ctx)
	if err != nil {
		t.Fatalf("SeedDefaults: %v", err)
	}
	if n != len(DefaultQuestions) {
		t.Errorf("seeded %d, want %d", n, len(DefaultQuestions))
	}

	n, err = s.SeedDefaults(ctx)
	if err != nil || n != 0 {
		t.Errorf("second seed = %d, %v; want 0, nil", n, err)
	}

	qs, err := s.GetAllQuestions(ctx)
	if err != nil {
		t.Fatalf("GetAllQuestions: %v", err)
	}
	if len(qs) != len(DefaultQuestions) {
		t.Fatalf("got %d questions", len(qs))
	}
	for i, q := range qs {
		if q.ID != int64(i+1) || q.Text != DefaultQuestions[i] {
			t.Errorf("question %d = %d %q", i, q.ID, q.Text)
		}
		if !q.IsDefault || q.Category != CategoryGeneral {
			t.Errorf("question %d: default=%v category=%q", q.ID, q.IsDefault, q.Category)
		}
	}
}

func TestQuestionCRUD_NotifiesListeners(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var mu sync.Mutex
	var events []ChangeEvent
	s.OnChange(func(_ context.Context, ev ChangeEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
	})

	q, err := s.CreateQuestion(ctx, "  What is the budget?  ", "")
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
	if q.Text != "What is the budget?" || q.Category != CategoryCustom || q.IsDefault {
		t.Errorf("created = %+v", q)
	}

	q, err = s.UpdateQuestion(ctx, q.ID, "What is the budget for Q3?", "finance")
	if err != nil {
		t.Fatalf("UpdateQuestion: %v", err)
	}
	got, err := s.GetQuestion(ctx, q.ID)
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Text != "What is the budget for Q3?" || got.Category != "finance" {
		t.Errorf("after update = %+v", got)
	}

	if err := s.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if _, err := s.GetQuestion(ctx, q.ID); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("after delete: %v, want not found", err)
	}

	want := []ChangeKind{ChangeCreated, ChangeUpdated, ChangeDeleted}
	if len(events) != len(want) {
		t.Fatalf("events = %v", events)
	}
	for i, ev := range events {
		if ev.Kind != want[i] || ev.QuestionID != q.ID {
			t.Errorf("event %d = %+v", i, ev)
		}
	}
}

func TestQuestion_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateQuestion(ctx, "   ", ""); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("empty create: %v", err)
	}
	if _, err := s.UpdateQuestion(ctx, 99, "text", ""); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("missing update: %v", err)
	}
	if err := s.DeleteQuestion(ctx, 99); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("missing delete: %v", err)
	}
}

func TestRecordings_SingleActive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q, err := s.CreateQuestion(ctx, "Any blockers?", "")
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}

	if _, ok, err := s.ActiveRecordingID(ctx, q.ID); err != nil || ok {
		t.Fatalf("no recordings: ok=%v err=%v", ok, err)
	}

	first := &Recording{QuestionID: q.ID, MediaRef: "recordings/a.webm", DurationSeconds: 4.5, Active: true}
	if err := s.AddRecording(ctx, first); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}
	second := &Recording{QuestionID: q.ID, MediaRef: "recordings/b.webm", Active: true}
	if err := s.AddRecording(ctx, second); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}

	rid, ok, err := s.ActiveRecordingID(ctx, q.ID)
	if err != nil || !ok || rid != second.ID {
		t.Errorf("active = %d %v %v, want %d", rid, ok, err, second.ID)
	}

	if _, err := s.ActivateRecording(ctx, first.ID); err != nil {
		t.Fatalf("ActivateRecording: %v", err)
	}
	rs, err := s.ListRecordings(ctx, q.ID)
	if err != nil {
		t.Fatalf("ListRecordings: %v", err)
	}
	active := 0
	for _, r := range rs {
		if r.Active {
			active++
			if r.ID != first.ID {
				t.Errorf("active recording = %d, want %d", r.ID, first.ID)
			}
		}
	}
	if active != 1 {
		t.Errorf("%d active recordings, want 1", active)
	}

	r, err := s.GetRecording(ctx, first.ID)
	if err != nil || r.MediaRef != "recordings/a.webm" || r.DurationSeconds != 4.5 {
		t.Errorf("GetRecording = %+v, %v", r, err)
	}
}

func TestRecordings_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddRecording(ctx, &Recording{QuestionID: 1}); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("missing media ref: %v", err)
	}
	if err := s.AddRecording(ctx, &Recording{QuestionID: 42, MediaRef: "x"}); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("unknown question: %v", err)
	}
	if _, err := s.GetRecording(ctx, 7); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("unknown recording: %v", err)
	}
	if _, err := s.ActivateRecording(ctx, 7); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("activate unknown: %v", err)
	}
}

func TestDeleteQuestion_RemovesRecordings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q, _ := s.CreateQuestion(ctx, "Next steps?", "")
	r := &Recording{QuestionID: q.ID, MediaRef: "m", Active: true}
	if err := s.AddRecording(ctx, r); err != nil {
		t.Fatalf("AddRecording: %v", err)
	}
	if err := s.DeleteQuestion(ctx, q.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	if _, err := s.GetRecording(ctx, r.ID); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("recording survived delete: %v", err)
	}
}

func TestInteractions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	qid := int64(3)
	for i, d := range []string{"no_action", "play_recording", "generate_fallback"} {
		in := &Interaction{SessionID: "s1", Transcript: "t", Decision: d, Score: float64(i) / 10}
		if d == "play_recording" {
			in.QuestionID = &qid
		}
		if err := s.RecordInteraction(ctx, in); err != nil {
			t.Fatalf("RecordInteraction: %v", err)
		}
	}
	_ = s.RecordInteraction(ctx, &Interaction{SessionID: "s2", Decision: "no_action"})

	got, err := s.ListInteractions(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("ListInteractions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d interactions, want 2", len(got))
	}
	if got[0].Decision != "play_recording" || got[1].Decision != "generate_fallback" {
		t.Errorf("order = %s, %s", got[0].Decision, got[1].Decision)
	}
	if got[0].QuestionID == nil || *got[0].QuestionID != 3 {
		t.Errorf("question id not persisted: %v", got[0].QuestionID)
	}

	all, _ := s.ListInteractions(ctx, "s1", 0)
	if len(all) != 3 {
		t.Errorf("default limit returned %d", len(all))
	}
}

func TestDeleteRecording(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	q, _ := s.CreateQuestion(ctx, "What is the timeline?", "")
	kept := &Recording{QuestionID: q.ID, MediaRef: "recordings/old.webm"}
	active := &Recording{QuestionID: q.ID, MediaRef: "recordings/new.webm", Active: true}
	for _, r := range []*Recording{kept, active} {
		if err := s.AddRecording(ctx, r); err != nil {
			t.Fatalf("AddRecording: %v", err)
		}
	}

	deleted, err := s.DeleteRecording(ctx, active.ID)
	if err != nil {
		t.Fatalf("DeleteRecording: %v", err)
	}
	if deleted.MediaRef != "recordings/new.webm" || !deleted.Active {
		t.Errorf("deleted = %+v", deleted)
	}
	if _, ok, _ := s.ActiveRecordingID(ctx, q.ID); ok {
		t.Error("question still has an active recording")
	}
	rs, _ := s.ListRecordings(ctx, q.ID)
	if len(rs) != 1 || rs[0].ID != kept.ID {
		t.Errorf("remaining recordings = %+v", rs)
	}
	if _, err := s.DeleteRecording(ctx, active.ID); !apperrors.Is(err, apperrors.ErrCodeNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestStore_DatabaseNotStarted(t *testing.T) {
	s := NewStore(database.NewComponent(database.Config{}, logger.Nop()))
	ctx := context.Background()
	if _, err := s.ListQuestions(ctx); !apperrors.Is(err, apperrors.ErrCodeUnavailable) {
		t.Errorf("list: got %v, want unavailable", err)
	}
	if _, err := s.ActivateRecording(ctx, 1); !apperrors.Is(err, apperrors.ErrCodeUnavailable) {
		t.Errorf("activate: got %v, want unavailable", err)
	}
}

func TestComponent(t *testing.T) {
	s := newTestStore(t)
	c := NewComponent(s, true)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h := c.Health(context.Background())
	if h.Message != "15 questions" {
		t.Errorf("health = %+v", h)
	}
}
