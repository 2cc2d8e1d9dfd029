package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mertkaradayi/goalflow/internal/models"
)

type GoalDumpRequest struct {
	Text     string   `json:"text"`
	Images   []string `json:"images"`
	Timeline string   `json:"timeline"`
}

type GoalDumpResponse struct {
	GoalID     uuid.UUID          `json:"goal_id"`
	PlanID     uuid.UUID          `json:"plan_id"`
	FocusAreas []models.FocusArea `json:"focus_areas"`
}

type PlanResponse struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	GoalID     uuid.UUID          `json:"goal_id"`
	FocusAreas []models.FocusArea `json:"focus_areas"`
	Timeline   string             `json:"timeline"`
	Status     string             `json:"status"`
	CreatedAt  string             `json:"created_at"`
}

func NewPlanResponse(p *models.Plan) PlanResponse {
	return PlanResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		GoalID:     p.GoalID,
		FocusAreas: p.FocusAreas,
		Timeline:   p.Timeline,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339),
	}
}
