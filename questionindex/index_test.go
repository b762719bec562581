package questionindex

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/kbukum/standin/embedding"
	apperrors "github.com/kbukum/standin/errors"
)

var defaults = []string{
	"Can you introduce yourself?",
	"What's your role in this project?",
	"What are your thoughts on this proposal?",
	"Do you have any questions or concerns?",
	"What's your availability for the next phase?",
	"Can you provide a status update?",
	"What are the next steps?",
	"Do you agree with this approach?",
	"What's your opinion on the timeline?",
	"Any blockers or dependencies?",
	"What resources do you need?",
	"Can you walk us through your findings?",
	"What are the risks involved?",
	"How do you see this impacting the project?",
	"What's your recommendation?",
}

type sliceSource struct {
	questions []Question
	err       error
}

func (s sliceSource) GetAllQuestions(context.Context) ([]Question, error) {
	return s.questions, s.err
}

func defaultSource() sliceSource {
	qs := make([]Question, len(defaults))
	for i, text := range defaults {
		qs[i] = Question{ID: int64(i + 1), Text: text, Category: "general", IsDefault: true}
	}
	return sliceSource{questions: qs}
}

func newDefaultIndex(t *testing.T) *Index {
	t.Helper()
	x := New(embedding.NewHashing(0))
	if err := x.Rebuild(context.Background(), defaultSource()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return x
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-3 }

func TestQuery_BestMatch(t *testing.T) {
	x := newDefaultIndex(t)

	tests := []struct {
		text   string
		wantID int64
		score  float64
	}{
		{"what are the next steps for us", 7, 1.0},
		{"tell me about your role on the project", 2, 0.8165},
		{"could you give us a status update", 6, 0.6667},
		{"any blockers?", 10, 0.7071},
		{"what is your opinion on the timeline", 9, 1.0},
		{"so what do you think about the risks", 13, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := x.Query(context.Background(), tt.text, 3)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("len = %d, want 3", len(got))
			}
			if got[0].QuestionID != tt.wantID {
				t.Errorf("best = %d (%q), want %d", got[0].QuestionID, got[0].Text, tt.wantID)
			}
			if !near(got[0].Score, tt.score) {
				t.Errorf("score = %.4f, want %.4f", got[0].Score, tt.score)
			}
			for i := 1; i < len(got); i++ {
				if got[i].Score > got[i-1].Score {
					t.Errorf("results not sorted at %d: %v", i, got)
				}
			}
		})
	}
}

func TestQuery_SelfMatch(t *testing.T) {
	x := newDefaultIndex(t)
	for i, text := range defaults {
		got, err := x.Query(context.Background(), text, 0)
		if err != nil {
			t.Fatalf("Query(%q): %v", text, err)
		}
		if len(got) != len(defaults) {
			t.Fatalf("k=0 returned %d results, want %d", len(got), len(defaults))
		}
		for _, m := range got {
			if m.QuestionID == int64(i+1) && !near(m.Score, 1.0) {
				t.Errorf("self score for %q = %.4f, want 1", text, m.Score)
			}
		}
	}
}

func TestQuery_Unrelated(t *testing.T) {
	x := newDefaultIndex(t)
	got, err := x.Query(context.Background(), "the weather is lovely today", 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].Score != 0 {
		t.Errorf("got %v, want one zero-score result", got)
	}
}

func TestQuery_TiesByAscendingID(t *testing.T) {
	x := New(embedding.NewHashing(0))
	ctx := context.Background()
	for _, id := range []int64{9, 2, 5} {
		if err := x.Upsert(ctx, Question{ID: id, Text: "What is the budget?"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	got, err := x.Query(ctx, "budget", 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := []int64{2, 5, 9}
	for i, id := range want {
		if got[i].QuestionID != id {
			t.Errorf("result[%d] = %d, want %d", i, got[i].QuestionID, id)
		}
	}
}

func TestQuery_EmptyIndex(t *testing.T) {
	x := New(embedding.NewHashing(0))
	got, err := x.Query(context.Background(), "anything at all", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestQuery_EmptyText(t *testing.T) {
	x := newDefaultIndex(t)
	for _, text := range []string{"", "   \t"} {
		_, err := x.Query(context.Background(), text, 3)
		if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
			t.Errorf("Query(%q) error = %v, want INVALID_INPUT", text, err)
		}
	}
}

func TestUpsertRemove(t *testing.T) {
	x := New(embedding.NewHashing(0))
	ctx := context.Background()

	if err := x.Upsert(ctx, Question{ID: 1, Text: "What is the budget?"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := x.Upsert(ctx, Question{ID: 1, Text: "Who owns the rollout?"}); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	if x.Len() != 1 {
		t.Fatalf("Len = %d, want 1", x.Len())
	}
	q, ok := x.Get(1)
	if !ok || q.Text != "Who owns the rollout?" {
		t.Errorf("Get(1) = %+v, %v", q, ok)
	}

	got, _ := x.Query(ctx, "who owns the rollout", 1)
	if len(got) != 1 || !near(got[0].Score, 1.0) {
		t.Errorf("replaced question not matched: %v", got)
	}

	x.Remove(1)
	x.Remove(42)
	if x.Len() != 0 {
		t.Errorf("Len after Remove = %d, want 0", x.Len())
	}
}

func TestUpsert_RejectsEmptyText(t *testing.T) {
	x := New(embedding.NewHashing(0))
	err := x.Upsert(context.Background(), Question{ID: 1, Text: " "})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
	if x.Len() != 0 {
		t.Errorf("Len = %d, want 0", x.Len())
	}
}

func TestRebuild_KeepsIndexOnSourceError(t *testing.T) {
	x := newDefaultIndex(t)
	err := x.Rebuild(context.Background(), sliceSource{err: errors.New("db down")})
	if err == nil {
		t.Fatal("expected error")
	}
	if x.Len() != len(defaults) {
		t.Errorf("Len = %d, want %d", x.Len(), len(defaults))
	}
}

func TestRebuild_SkipsUnindexable(t *testing.T) {
	x := New(embedding.NewHashing(0))
	src := sliceSource{questions: []Question{
		{ID: 1, Text: "What is the budget?"},
		{ID: 2, Text: "?!"},
	}}
	if err := x.Rebuild(context.Background(), src); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if x.Len() != 1 {
		t.Errorf("Len = %d, want 1", x.Len())
	}
}

func TestConcurrentQueryAndUpsert(t *testing.T) {
	x := newDefaultIndex(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			_ = x.Upsert(ctx, Question{ID: 100 + id, Text: "What is the budget?"})
		}(int64(i))
		go func() {
			defer wg.Done()
			if _, err := x.Query(ctx, "what are the next steps", 3); err != nil {
				t.Errorf("Query: %v", err)
			}
		}()
	}
	wg.Wait()
	if x.Len() != len(defaults)+8 {
		t.Errorf("Len = %d, want %d", x.Len(), len(defaults)+8)
	}
}

func TestComponent(t *testing.T) {
	x := New(embedding.NewHashing(0))
	c := NewComponent(x, defaultSource())
	if h := c.Health(context.Background()); h.Status != "degraded" {
		t.Errorf("empty health = %s, want degraded", h.Status)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != "healthy" {
		t.Errorf("health = %s, want healthy", h.Status)
	}
}
