package questionbank

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/standin/database"
	apperrors "github.com/kbukum/standin/errors"
)

// AddRecording stores a recording for an existing question. An active
// recording deactivates the question's previous one in the same transaction.
func (s *Store) AddRecording(ctx context.Context, r *Recording) error {
	if strings.TrimSpace(r.MediaRef) == "" {
		return apperrors.InvalidInput("mediaRef", "media reference is required")
	}
	if r.DurationSeconds < 0 {
		return apperrors.InvalidInput("durationSeconds", "duration must not be negative")
	}
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		var q Question
		if err := tx.Select("id").First(&q, r.QuestionID).Error; err != nil {
			return err
		}
		if r.Active {
			if err := deactivate(tx, r.QuestionID); err != nil {
				return err
			}
		}
		return tx.Create(r).Error
	})
	if err != nil {
		return database.FromDatabase(err, "question", id(r.QuestionID))
	}
	return nil
}

// ActivateRecording makes a recording the active answer for its question.
func (s *Store) ActivateRecording(ctx context.Context, rid int64) (*Recording, error) {
	var r Recording
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&r, rid).Error; err != nil {
			return err
		}
		if err := deactivate(tx, r.QuestionID); err != nil {
			return err
		}
		r.Active = true
		return tx.Model(&r).Update("active", true).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, "recording", id(rid))
	}
	return &r, nil
}

func deactivate(tx *gorm.DB, questionID int64) error {
	return tx.Model(&Recording{}).
		Where("question_id = ? AND active = ?", questionID, true).
		Update("active", false).Error
}

// DeleteRecording removes a recording. Deleting the active recording leaves
// the question without one until another is activated.
func (s *Store) DeleteRecording(ctx context.Context, rid int64) (*Recording, error) {
	var r Recording
	err := s.transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&r, rid).Error; err != nil {
			return err
		}
		return tx.Delete(&Recording{}, rid).Error
	})
	if err != nil {
		return nil, database.FromDatabase(err, "recording", id(rid))
	}
	return &r, nil
}

// GetRecording returns a recording by id.
func (s *Store) GetRecording(ctx context.Context, rid int64) (*Recording, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var r Recording
	if err := db.First(&r, rid).Error; err != nil {
		return nil, database.FromDatabase(err, "recording", id(rid))
	}
	return &r, nil
}

// ListRecordings returns a question's recordings, newest first.
func (s *Store) ListRecordings(ctx context.Context, questionID int64) ([]Recording, error) {
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var rs []Recording
	if err := db.Where("question_id = ?", questionID).Order("created_at DESC, id DESC").Find(&rs).Error; err != nil {
		return nil, database.FromDatabase(err, "recording", "")
	}
	return rs, nil
}

// ActiveRecordingID reports the active recording of a question.
func (s *Store) ActiveRecordingID(ctx context.Context, questionID int64) (int64, bool, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, false, err
	}
	var r Recording
	err = db.Select("id").Where("question_id = ? AND active = ?", questionID, true).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, database.FromDatabase(err, "recording", "")
	}
	return r.ID, true, nil
}
