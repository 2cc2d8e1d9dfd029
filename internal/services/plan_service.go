package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mertkaradayi/goalflow/internal/ai"
	"github.com/mertkaradayi/goalflow/internal/clock"
	"github.com/mertkaradayi/goalflow/internal/dto"
	"github.com/mertkaradayi/goalflow/internal/models"
)

// defaultActionText replaces any action the generator could not produce.
const defaultActionText = "Take one small step today."

var timelineContexts = map[string]string{
	"1_month":  "They want to achieve this in 1 month. Break it into weekly milestones.",
	"3_months": "They have 3 months. Create sustainable monthly phases.",
	"6_months": "They have 6 months. Build gradually with clear monthly themes.",
	"1_year":   "They have a year. Create quarterly milestones with monthly focuses.",
	"new_year": "New Year's resolution. Start in January with quarterly check-ins.",
}

func timelineContext(timeline string) string {
	if ctx, ok := timelineContexts[timeline]; ok {
		return ctx
	}
	return "Create a balanced plan based on goal complexity."
}

// PlanService turns goal dumps into plans with focus areas, and manages the
// plan lifecycle.
type PlanService struct {
	db        *gorm.DB
	completer ai.Completer // nil when no provider is configured
	clk       *clock.Resolver
}

func NewPlanService(db *gorm.DB, completer ai.Completer, clk *clock.Resolver) *PlanService {
	return &PlanService{db: db, completer: completer, clk: clk}
}

// CreateFromDump stores the raw goal, derives focus areas (external
// generation with deterministic fallback), creates an active plan and seeds
// one day-0 action per focus area.
func (s *PlanService) CreateFromDump(ctx context.Context, userID uuid.UUID, req *dto.GoalDumpRequest) (*dto.GoalDumpResponse, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("goal text is required")
	}

	images := req.Images
	if images == nil {
		images = []string{}
	}

	goal := models.Goal{
		ID:       uuid.New(),
		UserID:   userID,
		RawText:  req.Text,
		Images:   datatypes.NewJSONSlice(images),
		Timeline: req.Timeline,
	}
	if err := s.db.Create(&goal).Error; err != nil {
		return nil, fmt.Errorf("failed to store goal: %w", err)
	}

	areas := s.analyzeGoal(ctx, req.Text, req.Timeline)

	plan := models.Plan{
		ID:         uuid.New(),
		UserID:     userID,
		GoalID:     goal.ID,
		FocusAreas: datatypes.NewJSONSlice(areas),
		Timeline:   req.Timeline,
		Status:     models.PlanStatusActive,
	}

	today := s.clk.Today()
	seeds := make([]models.DailyAction, 0, len(areas))
	for _, area := range areas {
		action := area.DailyAction
		if strings.TrimSpace(action) == "" {
			action = defaultActionText
		}
		seeds = append(seeds, models.DailyAction{
			ID:        uuid.New(),
			UserID:    userID,
			PlanID:    plan.ID,
			FocusArea: area.Name,
			Action:    action,
			Day:       today,
			Completed: false,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&plan).Error; err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}
		if len(seeds) > 0 {
			if err := tx.Create(&seeds).Error; err != nil {
				return fmt.Errorf("failed to seed daily actions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.GoalDumpResponse{
		GoalID:     goal.ID,
		PlanID:     plan.ID,
		FocusAreas: areas,
	}, nil
}

// Current returns the most recent active plan, or nil when none exists.
func (s *PlanService) Current(userID uuid.UUID) (*models.Plan, error) {
	var plan models.Plan
	err := s.db.Where("user_id = ? AND status = ?", userID, models.PlanStatusActive).
		Order("created_at DESC").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current plan: %w", err)
	}
	return &plan, nil
}

func (s *PlanService) List(userID uuid.UUID) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&plans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// StartFresh archives every plan and wipes the user's daily actions.
func (s *PlanService) StartFresh(userID uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Plan{}).
			Where("user_id = ? AND status <> ?", userID, models.PlanStatusArchived).
			Update("status", models.PlanStatusArchived).Error; err != nil {
			return fmt.Errorf("failed to archive plans: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.DailyAction{}).Error; err != nil {
			return fmt.Errorf("failed to delete daily actions: %w", err)
		}
		return nil
	})
}

// analyzeGoal derives 2-4 focus areas from the raw goal text. Any generation
// failure falls back to a deterministic two-area starter plan.
func (s *PlanService) analyzeGoal(ctx context.Context, text, timeline string) []models.FocusArea {
	if s.completer == nil {
		slog.Warn("no AI provider configured, using fallback focus areas")
		return fallbackFocusAreas()
	}

	system := "You are a thoughtful life coach who helps people translate dreams into actionable plans. " +
		"Be warm, encouraging, and practical. Always provide concrete, specific actions."

	prompt := fmt.Sprintf(`Analyze this person's goals and aspirations:

%s

Timeline: %s

Extract 2-4 main focus areas.

For each focus area, provide:
name, description, success_looks_like, outcomes (2-3),
monthly_direction, weekly_focus, daily_action (ONE concrete action for today, 15-30 min)

Respond ONLY in JSON:
{
 "focus_areas": [
   {
     "name": "...",
     "description": "...",
     "success_looks_like": "...",
     "outcomes": ["...", "..."],
     "monthly_direction": "...",
     "weekly_focus": "...",
     "daily_action": "..."
   }
 ]
}`, text, timelineContext(timeline))

	out, err := s.completer.Complete(ctx, system, prompt)
	if err != nil {
		slog.Error("goal analysis failed, using fallback focus areas", "error", err)
		return fallbackFocusAreas()
	}

	areas := extractFocusAreas(out)
	if len(areas) == 0 {
		slog.Warn("goal analysis returned no focus areas, using fallback")
		return fallbackFocusAreas()
	}
	return areas
}

// extractFocusAreas pulls the outermost JSON object out of loose model
// output and normalizes the focus-area records inside it.
func extractFocusAreas(text string) []models.FocusArea {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil
	}

	var parsed struct {
		FocusAreas []models.FocusArea `json:"focus_areas"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil
	}

	areas := make([]models.FocusArea, 0, len(parsed.FocusAreas))
	for _, area := range parsed.FocusAreas {
		if strings.TrimSpace(area.Name) == "" {
			area.Name = "Focus"
		}
		if area.Outcomes == nil {
			area.Outcomes = []string{}
		}
		areas = append(areas, area)
	}
	return areas
}

func fallbackFocusAreas() []models.FocusArea {
	return []models.FocusArea{
		{
			Name:             "Clarity",
			Description:      "Turn your dump into a few clear priorities you can actually act on.",
			SuccessLooksLike: "You can explain your top 3 goals and your next step for each.",
			Outcomes:         []string{"Pick your top 3 priorities", "Define a next step for each"},
			MonthlyDirection: "Clarify what matters most and remove distractions.",
			WeeklyFocus:      "Choose one priority to focus on this week.",
			DailyAction:      "Write your top 3 goals as bullets and circle the #1 (5-10 min).",
		},
		{
			Name:             "Momentum",
			Description:      "Build consistency with tiny daily actions (no guilt, just progress).",
			SuccessLooksLike: "You complete at least 1 small action per day most days.",
			Outcomes:         []string{"Set a 15-minute daily habit", "Track daily check-ins"},
			MonthlyDirection: "Make progress feel easy and repeatable.",
			WeeklyFocus:      "Do the smallest version of the work daily.",
			DailyAction:      "Set a 15-minute timer and do the smallest next step for your #1 goal.",
		},
	}
}
