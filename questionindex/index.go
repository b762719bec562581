// Package questionindex ranks known questions against a transcript by
// cosine similarity of their embeddings.
package questionindex

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/standin/embedding"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/observability"
)

// Question is an indexed question.
type Question struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Category  string    `json:"category,omitempty"`
	IsDefault bool      `json:"isDefault"`
	Embedding []float64 `json:"-"`
}

// MatchResult is one ranked question.
type MatchResult struct {
	QuestionID int64   `json:"questionId"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Source supplies the full question set for a rebuild.
type Source interface {
	GetAllQuestions(ctx context.Context) ([]Question, error)
}

// Index is an in-memory vector index. Queries run concurrently; writers
// compute embeddings before taking the lock and then install them at once,
// so a reader never sees a half-updated entry.
type Index struct {
	embedder embedding.Embedder
	log      *logger.Logger

	mu        sync.RWMutex
	questions map[int64]Question
}

// New creates an empty index.
func New(embedder embedding.Embedder) *Index {
	return &Index{
		embedder:  embedder,
		log:       logger.Get("questionindex"),
		questions: make(map[int64]Question),
	}
}

// Model reports the embedding model of the index.
func (x *Index) Model() string { return x.embedder.Model() }

func (x *Index) embed(ctx context.Context, q Question) (Question, error) {
	if strings.TrimSpace(q.Text) == "" {
		return q, apperrors.InvalidInput("text", "question text is empty")
	}
	vec, err := x.embedder.Embed(ctx, q.Text)
	if err != nil {
		return q, err
	}
	if embedding.IsZero(vec) {
		return q, apperrors.InvalidInput("text", "question text has no indexable words")
	}
	q.Embedding = vec
	return q, nil
}

// Upsert embeds q and inserts or replaces it.
func (x *Index) Upsert(ctx context.Context, q Question) error {
	q, err := x.embed(ctx, q)
	if err != nil {
		return err
	}
	x.mu.Lock()
	x.questions[q.ID] = q
	x.mu.Unlock()
	return nil
}

// Remove deletes a question. Removing an unknown id is a no-op.
func (x *Index) Remove(id int64) {
	x.mu.Lock()
	delete(x.questions, id)
	x.mu.Unlock()
}

// Get returns the indexed question with id.
func (x *Index) Get(id int64) (Question, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	q, ok := x.questions[id]
	return q, ok
}

// Len returns the number of indexed questions.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.questions)
}

// Rebuild replaces the whole index with the questions from src. Questions
// that cannot be embedded are logged and left out; the previous index stays
// in place if src fails.
func (x *Index) Rebuild(ctx context.Context, src Source) error {
	all, err := src.GetAllQuestions(ctx)
	if err != nil {
		return err
	}

	next := make(map[int64]Question, len(all))
	for _, q := range all {
		eq, err := x.embed(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			x.log.Warn("question not indexed", logger.Fields(
				logger.FieldQuestionID, q.ID,
				logger.FieldError, err.Error(),
			))
			continue
		}
		next[eq.ID] = eq
	}

	x.mu.Lock()
	x.questions = next
	x.mu.Unlock()

	x.log.Info("question index rebuilt", logger.Fields("questions", len(next), "model", x.embedder.Model()))
	return nil
}

// Query ranks indexed questions against text, best first, ties broken by
// ascending id. k <= 0 returns every question. An empty index yields an
// empty slice.
func (x *Index) Query(ctx context.Context, text string, k int) ([]MatchResult, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanMatch)
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, apperrors.InvalidInput("text", "query text is empty")
	}
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		observability.EndSpan(span, err)
		return nil, err
	}

	x.mu.RLock()
	results := make([]MatchResult, 0, len(x.questions))
	for _, q := range x.questions {
		results = append(results, MatchResult{
			QuestionID: q.ID,
			Text:       q.Text,
			Score:      embedding.Cosine(vec, q.Embedding),
		})
	}
	x.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].QuestionID < results[j].QuestionID
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}

	if len(results) > 0 {
		span.SetAttributes(
			attribute.String(observability.AttrQuestionID, strconv.FormatInt(results[0].QuestionID, 10)),
			attribute.Float64(observability.AttrScore, results[0].Score),
		)
	}
	return results, nil
}
