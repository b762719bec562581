package questionbank

import (
	"context"

	"github.com/kbukum/standin/database"
)

const defaultInteractionLimit = 100

// RecordInteraction appends an entry to the interaction log.
func (s *Store) RecordInteraction(ctx context.Context, in *Interaction) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(in).Error; err != nil {
		return database.FromDatabase(err, "interaction", "")
	}
	return nil
}

// ListInteractions returns a session's most recent interactions, oldest
// first. limit <= 0 uses a default of 100.
func (s *Store) ListInteractions(ctx context.Context, sessionID string, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = defaultInteractionLimit
	}
	db, err := s.db(ctx)
	if err != nil {
		return nil, err
	}
	var out []Interaction
	err = db.Where("session_id = ?", sessionID).Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, database.FromDatabase(err, "interaction", "")
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
