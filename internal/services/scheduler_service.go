package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mertkaradayi/goalflow/internal/ai"
	"github.com/mertkaradayi/goalflow/internal/clock"
	"github.com/mertkaradayi/goalflow/internal/models"
)

var ErrActionNotFound = errors.New("action not found")

// SchedulerService keeps every user's current logical day populated: it
// carries unfinished actions forward exactly once and generates one fresh
// action per focus area of every active plan. Both engines are idempotent
// per logical day and safe to invoke on every "view today" request.
type SchedulerService struct {
	db             *gorm.DB
	completer      ai.Completer // nil when no provider is configured
	clk            *clock.Resolver
	maxConcurrency int
}

func NewSchedulerService(db *gorm.DB, completer ai.Completer, clk *clock.Resolver, maxConcurrency int) *SchedulerService {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &SchedulerService{db: db, completer: completer, clk: clk, maxConcurrency: maxConcurrency}
}

// TodayActions runs both engines for the current logical day and returns the
// resulting action set.
func (s *SchedulerService) TodayActions(ctx context.Context, userID uuid.UUID) ([]models.DailyAction, error) {
	if err := s.RescheduleIncomplete(userID); err != nil {
		return nil, err
	}
	if err := s.EnsureFreshActions(ctx, userID); err != nil {
		return nil, err
	}

	var actions []models.DailyAction
	err := s.db.Where("user_id = ? AND day = ?", userID, s.clk.Today()).
		Order("created_at ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load today's actions: %w", err)
	}
	return actions, nil
}

// RescheduleIncomplete copies yesterday's unfinished actions into today,
// each exactly once. A carried row from yesterday already present for today
// means the rollover has run; repeated calls are no-ops.
func (s *SchedulerService) RescheduleIncomplete(userID uuid.UUID) error {
	today := s.clk.Today()
	yesterday := today.AddDays(-1)

	var probe []uuid.UUID
	err := s.db.Model(&models.DailyAction{}).
		Where("user_id = ? AND day = ? AND rescheduled_from = ?", userID, today, yesterday).
		Limit(1).
		Pluck("id", &probe).Error
	if err != nil {
		return fmt.Errorf("failed to check carried actions: %w", err)
	}
	if len(probe) > 0 {
		return nil
	}

	var incomplete []models.DailyAction
	err = s.db.Where("user_id = ? AND day = ? AND completed = ?", userID, yesterday, false).
		Find(&incomplete).Error
	if err != nil {
		return fmt.Errorf("failed to load yesterday's incomplete actions: %w", err)
	}
	if len(incomplete) == 0 {
		return nil
	}

	// Tolerates a partially failed prior rollover: re-fetch whatever carried
	// rows already exist and skip their triples.
	var existing []models.DailyAction
	err = s.db.Select("plan_id", "focus_area", "action").
		Where("user_id = ? AND day = ? AND rescheduled_from = ?", userID, today, yesterday).
		Find(&existing).Error
	if err != nil {
		return fmt.Errorf("failed to load carried actions: %w", err)
	}
	carried := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		carried[carryKey(a.PlanID, a.FocusArea, a.Action)] = struct{}{}
	}

	toAdd := make([]models.DailyAction, 0, len(incomplete))
	for _, a := range incomplete {
		if _, ok := carried[carryKey(a.PlanID, a.FocusArea, a.Action)]; ok {
			continue
		}
		from := yesterday
		toAdd = append(toAdd, models.DailyAction{
			ID:              uuid.New(),
			UserID:          a.UserID,
			PlanID:          a.PlanID,
			FocusArea:       a.FocusArea,
			Action:          a.Action,
			Day:             today,
			Completed:       false,
			RescheduledFrom: &from,
		})
	}
	if len(toAdd) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&toAdd).Error; err != nil {
			return fmt.Errorf("failed to carry actions forward: %w", err)
		}
		return nil
	})
}

func carryKey(planID uuid.UUID, focusArea, action string) string {
	return planID.String() + "\x1f" + focusArea + "\x1f" + action
}

// EnsureFreshActions generates one new action per focus area for every
// active plan that has no fresh (non-carried) action today. Generation fans
// out with bounded concurrency; individual failures fall back to a safe
// default and never fail the batch. Must run after RescheduleIncomplete.
func (s *SchedulerService) EnsureFreshActions(ctx context.Context, userID uuid.UUID) error {
	today := s.clk.Today()
	yesterday := today.AddDays(-1)

	var plans []models.Plan
	err := s.db.Where("user_id = ? AND status = ?", userID, models.PlanStatusActive).
		Find(&plans).Error
	if err != nil {
		return fmt.Errorf("failed to load active plans: %w", err)
	}
	if len(plans) == 0 {
		return nil
	}

	planIDs := make([]uuid.UUID, len(plans))
	for i, p := range plans {
		planIDs[i] = p.ID
	}

	var freshPlanIDs []uuid.UUID
	err = s.db.Model(&models.DailyAction{}).
		Distinct().
		Where("user_id = ? AND day = ? AND rescheduled_from IS NULL AND plan_id IN ?", userID, today, planIDs).
		Pluck("plan_id", &freshPlanIDs).Error
	if err != nil {
		return fmt.Errorf("failed to check fresh actions: %w", err)
	}
	fresh := make(map[uuid.UUID]struct{}, len(freshPlanIDs))
	for _, id := range freshPlanIDs {
		fresh[id] = struct{}{}
	}

	var pending []models.Plan
	for _, p := range plans {
		if _, ok := fresh[p.ID]; !ok {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	pendingIDs := make([]uuid.UUID, len(pending))
	for i, p := range pending {
		pendingIDs[i] = p.ID
	}

	var yesterdayActions []models.DailyAction
	err = s.db.Where("user_id = ? AND plan_id IN ? AND day = ?", userID, pendingIDs, yesterday).
		Find(&yesterdayActions).Error
	if err != nil {
		return fmt.Errorf("failed to load yesterday's actions: %w", err)
	}
	yesterdayByPlan := make(map[uuid.UUID][]models.DailyAction)
	for _, a := range yesterdayActions {
		yesterdayByPlan[a.PlanID] = append(yesterdayByPlan[a.PlanID], a)
	}

	var firstDays []struct {
		PlanID   uuid.UUID
		FirstDay clock.Day
	}
	err = s.db.Model(&models.DailyAction{}).
		Select("plan_id, MIN(day) AS first_day").
		Where("user_id = ? AND plan_id IN ?", userID, pendingIDs).
		Group("plan_id").
		Scan(&firstDays).Error
	if err != nil {
		return fmt.Errorf("failed to load first action days: %w", err)
	}
	firstDayByPlan := make(map[uuid.UUID]clock.Day, len(firstDays))
	for _, row := range firstDays {
		firstDayByPlan[row.PlanID] = row.FirstDay
	}

	type genTask struct {
		plan     *models.Plan
		area     models.FocusArea
		dayIndex int
	}
	var tasks []genTask
	for i := range pending {
		plan := &pending[i]
		dayIndex := 0
		if first, ok := firstDayByPlan[plan.ID]; ok {
			dayIndex = today.Sub(first)
		}
		for _, area := range plan.FocusAreas {
			tasks = append(tasks, genTask{plan: plan, area: area, dayIndex: dayIndex})
		}
	}
	if len(tasks) == 0 {
		return nil
	}

	results := make([]string, len(tasks))
	g := new(errgroup.Group)
	g.SetLimit(s.maxConcurrency)
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = s.nextAction(ctx, t.plan, t.area, yesterdayByPlan[t.plan.ID], t.dayIndex)
			return nil
		})
	}
	// Tasks never return errors; each recovers to the fallback action.
	_ = g.Wait()

	rows := make([]models.DailyAction, len(tasks))
	for i, t := range tasks {
		action := strings.TrimSpace(results[i])
		if action == "" {
			action = defaultActionText
		}
		rows[i] = models.DailyAction{
			ID:        uuid.New(),
			UserID:    userID,
			PlanID:    t.plan.ID,
			FocusArea: t.area.Name,
			Action:    action,
			Day:       today,
			Completed: false,
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert fresh actions: %w", err)
		}
		return nil
	})
}

// CheckIn marks an action complete or incomplete. The update is conditional
// on ownership; zero affected rows signals not-found.
func (s *SchedulerService) CheckIn(userID, actionID uuid.UUID, completed bool) error {
	updates := map[string]interface{}{
		"completed":    completed,
		"completed_at": nil,
	}
	if completed {
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}

	res := s.db.Model(&models.DailyAction{}).
		Where("id = ? AND user_id = ?", actionID, userID).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update action: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrActionNotFound
	}
	return nil
}

// nextAction produces one action string for today. Always succeeds: any
// generation failure resolves to the deterministic fallback.
func (s *SchedulerService) nextAction(ctx context.Context, plan *models.Plan, area models.FocusArea, yesterdayActions []models.DailyAction, dayIndex int) string {
	if s.completer == nil {
		return fallbackNextAction(area, dayIndex)
	}

	type yesterdayItem struct {
		Action    string `json:"action"`
		Completed bool   `json:"completed"`
	}
	items := []yesterdayItem{}
	for _, a := range yesterdayActions {
		if a.FocusArea == area.Name {
			items = append(items, yesterdayItem{Action: a.Action, Completed: a.Completed})
		}
	}
	itemsJSON, _ := json.Marshal(items)

	system := "You are a practical, encouraging coach. " +
		"Generate a single concrete, specific action for TODAY that takes 15-30 minutes. " +
		"It must build on yesterday's work and aim toward the user's timeline goal. " +
		"No generic advice. No multi-step lists. Output ONLY the action sentence."

	prompt := fmt.Sprintf(`Timeline: %s

Focus area:
- name: %s
- monthly_direction: %s
- weekly_focus: %s
- success_looks_like: %s
- outcomes: %s

Yesterday actions for this focus area (completed/incomplete):
%s

Day index since plan started: %d

Write ONE action for today (15-30 min) that:
- continues unfinished work if any unfinished exists
- otherwise progresses logically from completed work
- is concrete (send X message, draft Y, practice Z minutes, etc.)

Return ONLY the action sentence.`,
		timelineContext(plan.Timeline),
		area.Name, area.MonthlyDirection, area.WeeklyFocus, area.SuccessLooksLike,
		strings.Join(area.Outcomes, "; "),
		string(itemsJSON), dayIndex)

	out, err := s.completer.Complete(ctx, system, prompt)
	if err != nil {
		slog.Error("next-action generation failed, using fallback", "error", err, "focus_area", area.Name)
		return fallbackNextAction(area, dayIndex)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return fallbackNextAction(area, dayIndex)
	}
	first := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	if first == "" {
		return fallbackNextAction(area, dayIndex)
	}
	return first
}

// fallbackNextAction rotates through templated phrasings keyed by day index,
// so consecutive fallback days stay varied without needing history.
func fallbackNextAction(area models.FocusArea, dayIndex int) string {
	name := strings.TrimSpace(area.Name)
	if name == "" {
		name = "Focus"
	}
	base := strings.TrimSpace(area.WeeklyFocus)
	if base == "" {
		base = strings.TrimSpace(area.MonthlyDirection)
	}
	if base == "" {
		base = "Move this forward with a small concrete step."
	}

	variants := []string{
		"Do a 15-30 min micro-step toward: " + base,
		"Make it real: produce a tiny deliverable toward: " + base,
		"Remove one blocker for: " + base + " (list 3 sub-steps, then do the first)",
		"Ship something small today for: " + base,
		"Review + adjust: what did you learn about " + name + "? Then choose the next tiny step.",
	}
	if dayIndex < 0 {
		dayIndex = 0
	}
	return variants[dayIndex%len(variants)]
}
