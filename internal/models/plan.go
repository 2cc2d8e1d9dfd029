package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PlanStatusActive   = "active"
	PlanStatusArchived = "archived"
)

// FocusArea is one of the 2-4 thematic sub-goals derived from a goal dump.
// Its Name is the stable key matching daily actions across days.
type FocusArea struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	SuccessLooksLike string   `json:"success_looks_like"`
	Outcomes         []string `json:"outcomes"`
	MonthlyDirection string   `json:"monthly_direction"`
	WeeklyFocus      string   `json:"weekly_focus"`
	DailyAction      string   `json:"daily_action"`
}

// Plan carries a goal's focus areas for its lifetime. The only mutation is
// the active -> archived status transition.
type Plan struct {
	ID         uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID                      `gorm:"type:uuid;not null;index" json:"user_id"`
	GoalID     uuid.UUID                      `gorm:"type:uuid;not null;index" json:"goal_id"`
	FocusAreas datatypes.JSONSlice[FocusArea] `gorm:"not null" json:"focus_areas"`
	Timeline   string                         `gorm:"size:32;not null" json:"timeline"`
	Status     string                         `gorm:"size:16;not null;default:'active';index" json:"status"`
	CreatedAt  time.Time                      `json:"created_at"`
}
