package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/mertkaradayi/goalflow/internal/models"
)

type CheckInRequest struct {
	ActionID  uuid.UUID `json:"action_id"`
	Completed bool      `json:"completed"`
}

type CheckInResponse struct {
	Success bool `json:"success"`
}

type DailyActionResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	PlanID          uuid.UUID `json:"plan_id"`
	FocusArea       string    `json:"focus_area"`
	Action          string    `json:"action"`
	Date            string    `json:"date"`
	Completed       bool      `json:"completed"`
	CompletedAt     *string   `json:"completed_at"`
	RescheduledFrom *string   `json:"rescheduled_from"`
}

func NewDailyActionResponse(a *models.DailyAction) DailyActionResponse {
	resp := DailyActionResponse{
		ID:        a.ID,
		UserID:    a.UserID,
		PlanID:    a.PlanID,
		FocusArea: a.FocusArea,
		Action:    a.Action,
		Date:      a.Day.String(),
		Completed: a.Completed,
	}
	if a.CompletedAt != nil {
		s := a.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	if a.RescheduledFrom != nil {
		s := a.RescheduledFrom.String()
		resp.RescheduledFrom = &s
	}
	return resp
}
