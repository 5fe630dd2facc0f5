package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todoflow/internal/model"
)

// snapshotKey is the well-known key the session snapshot lives under.
const snapshotKey = "todo-app-storage"

// SessionStore persists the whole session state as one blob, read once
// at startup and rewritten after every mutation.
type SessionStore struct {
	db *gorm.DB
}

func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Load returns the stored session state, or nil when none exists yet.
func (s *SessionStore) Load() (*model.SessionState, error) {
	var doc Document
	err := s.db.Where("key = ?", snapshotKey).First(&doc).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("read session: %w", err)
	}

	var state model.SessionState
	if err := json.Unmarshal(doc.Value, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &state, nil
}

func (s *SessionStore) Save(state model.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	doc := Document{Key: snapshotKey, Value: raw, UpdatedAt: time.Now()}
	if err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error; err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
