package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Goal is a user's raw aspiration dump. Written once, never mutated; only a
// bulk reset removes it.
type Goal struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID                   `gorm:"type:uuid;not null;index" json:"user_id"`
	RawText   string                      `gorm:"type:text;not null" json:"raw_text"`
	Images    datatypes.JSONSlice[string] `gorm:"not null" json:"images"`
	Timeline  string                      `gorm:"size:32;not null" json:"timeline"`
	CreatedAt time.Time                   `json:"created_at"`
}
