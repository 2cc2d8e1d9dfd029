package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mertkaradayi/goalflow/internal/clock"
)

// DailyAction is one concrete thing to do on one logical day. Rows are
// written by the rollover engine (RescheduledFrom set to the source day) or
// by fresh generation (RescheduledFrom nil), and mutated only by check-in.
type DailyAction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"plan_id"`
	FocusArea       string     `gorm:"size:128;not null" json:"focus_area"`
	Action          string     `gorm:"type:text;not null" json:"action"`
	Day             clock.Day  `gorm:"size:10;not null;index" json:"date"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
	RescheduledFrom *clock.Day `gorm:"size:10" json:"rescheduled_from"`
	CreatedAt       time.Time  `json:"created_at"`
}
