package questionbank

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/kbukum/standin/database"
	apperrors "github.com/kbukum/standin/errors"
	"github.com/kbukum/standin/logger"
	"github.com/kbukum/standin/questionindex"
)

// ChangeKind describes a question set mutation.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent is passed to listeners after a committed mutation.
type ChangeEvent struct {
	Kind       ChangeKind
	QuestionID int64
}

// Listener observes question set changes.
type Listener func(ctx context.Context, ev ChangeEvent)

// Conn yields the open database, or nil before it is started.
type Conn interface {
	DB() *database.DB
}

// Store is the gorm-backed question bank.
type Store struct {
	conn Conn
	log  *logger.Logger

	mu        sync.RWMutex
	listeners []Listener
}

var _ questionindex.Source = (*Store)(nil)

// NewStore creates a store over conn.
func NewStore(conn Conn) *Store {
	return &Store{conn: conn, log: logger.Get("questionbank")}
}

// OnChange registers a listener invoked after every question mutation.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(ctx context.Context, ev ChangeEvent) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, ev)
	}
}

func (s *Store) db(ctx context.Context) (*gorm.DB, error) {
	db := s.conn.DB()
	if db == nil {
		return nil, apperrors.Unavailable("database")
	}
	return db.WithContext(ctx), nil
}

// transaction runs fn in one database transaction.
func (s *Store) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db := s.conn.DB()
	if db == nil {
		return apperrors.Unavailable("database")
	}
	return db.WithTransaction(ctx, fn)
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

// ListQuestions returns every question ordered by id.
func (s *Store) ListQuestions(ctx context.Context) ([]Question, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var qs []Question
	if err := db.Order("id").Find(&qs).Error; err != nil {
		return nil, database.FromDatabase(err, "question", "")
	}
	return qs, nil
}

// GetQuestion returns a question by id.
func (s *Store) GetQuestion(ctx context.Context, qid int64) (*Question, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var q Question
	if err := db.First(&q, qid).Error; err != nil {
		return nil, database.FromDatabase(err, "question", id(qid))
	}
	return &q, nil
}

// GetAllQuestions returns the question set as index entries.
func (s *Store) GetAllQuestions(ctx context.Context) ([]questionindex.Question, error) {
	qs, err := s.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]questionindex.Question, len(qs))
	for i, q := range qs {
		out[i] = q.IndexEntry()
	}
	return out, nil
}

// IndexEntry converts the row into an unembedded index entry.
func (q Question) IndexEntry() questionindex.Question {
	return questionindex.Question{ID: q.ID, Text: q.Text, Category: q.Category, IsDefault: q.IsDefault}
}

// CreateQuestion adds a custom question. An empty category means custom.
func (s *Store) CreateQuestion(ctx context.Context, text, category string) (*Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("text", "question text is required")
	}
	if category == "" {
		category = CategoryCustom
	}
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	q := &Question{Text: text, Category: category}
	if err := db.Create(q).Error; err != nil {
		return nil, database.FromDatabase(err, "question", "")
	}
	s.notify(ctx, ChangeEvent{Kind: ChangeCreated, QuestionID: q.ID})
	return q, nil
}

// UpdateQuestion changes the text and, when non-empty, the category.
func (s *Store) UpdateQuestion(ctx context.Context, qid int64, text, category string) (*Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.InvalidInput("text", "question text is required")
	}
	q, err := s.GetQuestion(ctx, qid)
	if err != nil {
		return nil, err
	}
	q.Text = text
	if category != "" {
		q.Category = category
	}
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	if err := db.Save(q).Error; err != nil {
		return nil, database.FromDatabase(err, "question", id(qid))
	}
	s.notify(ctx, ChangeEvent{Kind: ChangeUpdated, QuestionID: qid})
	return q, nil
}

// DeleteQuestion removes a question together with its recordings.
func (s *Store) DeleteQuestion(ctx context.Context, qid int64) error {
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&Question{}, qid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("question_id = ?", qid).Delete(&Recording{}).Error
	})
	if err != nil {
		return database.FromDatabase(err, "question", id(qid))
	}
	s.notify(ctx, ChangeEvent{Kind: ChangeDeleted, QuestionID: qid})
	return nil
}

// SeedDefaults inserts the default question set when the bank is empty and
// reports how many rows were added.
func (s *Store) SeedDefaults(ctx context.Context) (int, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := db.Model(&Question{}).Count(&n).Error; err != nil {
		return 0, database.FromDatabase(err, "question", "")
	}
	if n > 0 {
		return 0, nil
	}
	qs := make([]Question, len(DefaultQuestions))
	for i, text := range DefaultQuestions {
		qs[i] = Question{Text: text, Category: CategoryGeneral, IsDefault: true}
	}
	if err := db.Create(&qs).Error; err != nil {
		return 0, database.FromDatabase(err, "question", "")
	}
	s.log.Info("seeded default questions", logger.Fields("count", len(qs)))
	return len(qs), nil
}
