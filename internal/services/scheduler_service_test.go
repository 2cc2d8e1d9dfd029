package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mertkaradayi/goalflow/internal/clock"
	"github.com/mertkaradayi/goalflow/internal/models"
)

var (
	fitnessArea = models.FocusArea{
		Name:             "Fitness",
		MonthlyDirection: "Build a sustainable training habit.",
		WeeklyFocus:      "Train three times this week.",
	}
	careerArea = models.FocusArea{
		Name:             "Career",
		MonthlyDirection: "Position yourself for a promotion.",
		WeeklyFocus:      "Ship one visible piece of work.",
	}
)

func TestRescheduleIncompleteCarriesForward(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	yesterday := today.AddDays(-1)
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea, careerArea)

	seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", yesterday, false, nil)
	seedAction(t, db, userID, plan.ID, "Career", "Draft the proposal", yesterday, false, nil)
	seedAction(t, db, userID, plan.ID, "Fitness", "Stretch 10 min", yesterday, true, nil)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.RescheduleIncomplete(userID))

	carried := actionsOn(t, db, userID, today)
	require.Len(t, carried, 2)
	byText := map[string]models.DailyAction{}
	for _, a := range carried {
		byText[a.Action] = a
	}
	for _, text := range []string{"Run 5k", "Draft the proposal"} {
		a, ok := byText[text]
		require.True(t, ok, "expected carried row for %q", text)
		assert.False(t, a.Completed)
		require.NotNil(t, a.RescheduledFrom)
		assert.Equal(t, yesterday, *a.RescheduledFrom)
	}
	// Completed work is not carried
	_, ok := byText["Stretch 10 min"]
	assert.False(t, ok)
}

func TestRescheduleIncompleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	yesterday := today.AddDays(-1)
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea)

	seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", yesterday, false, nil)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.RescheduleIncomplete(userID))
	require.NoError(t, svc.RescheduleIncomplete(userID))

	assert.Len(t, actionsOn(t, db, userID, today), 1)
}

func TestRescheduleIncompleteToleratesPartialCarry(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	yesterday := today.AddDays(-1)
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea, careerArea)

	seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", yesterday, false, nil)
	seedAction(t, db, userID, plan.ID, "Career", "Draft the proposal", yesterday, false, nil)

	// Simulate a prior carry where only the Fitness row landed. The
	// short-circuit sees a carried row, so a re-run keeps the day as-is
	// rather than duplicating Fitness.
	seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", today, false, &yesterday)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.RescheduleIncomplete(userID))

	carried := actionsOn(t, db, userID, today)
	assert.Len(t, carried, 1)
}

func TestRescheduleIncompleteNoHistory(t *testing.T) {
	db := newTestDB(t)
	userID := uuid.New()

	svc := NewSchedulerService(db, nil, fixedClock(t, "2025-03-10"), 4)
	require.NoError(t, svc.RescheduleIncomplete(userID))
	assert.Empty(t, actionsOn(t, db, userID, "2025-03-10"))
}

func TestEnsureFreshActionsGeneratesPerFocusArea(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	seedPlan(t, db, userID, fitnessArea, careerArea)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	actions := actionsOn(t, db, userID, today)
	require.Len(t, actions, 2)
	names := map[string]bool{}
	for _, a := range actions {
		assert.Nil(t, a.RescheduledFrom)
		assert.False(t, a.Completed)
		assert.NotEmpty(t, a.Action)
		names[a.FocusArea] = true
	}
	assert.True(t, names["Fitness"])
	assert.True(t, names["Career"])
}

func TestEnsureFreshActionsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	seedPlan(t, db, userID, fitnessArea, careerArea)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	assert.Len(t, actionsOn(t, db, userID, today), 2)
}

func TestEnsureFreshActionsIgnoresArchivedPlans(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea)
	require.NoError(t, db.Model(plan).Update("status", models.PlanStatusArchived).Error)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))
	assert.Empty(t, actionsOn(t, db, userID, today))
}

func TestEnsureFreshActionsBoundedConcurrency(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()

	areas := make([]models.FocusArea, 6)
	for i := range areas {
		areas[i] = models.FocusArea{
			Name:        string(rune('A' + i)),
			WeeklyFocus: "Keep moving.",
		}
	}
	seedPlan(t, db, userID, areas...)

	counter := &countingCompleter{}
	svc := NewSchedulerService(db, counter, fixedClock(t, today), 2)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	assert.Equal(t, 6, counter.calls)
	assert.LessOrEqual(t, counter.maxInFlight, 2)
	assert.Len(t, actionsOn(t, db, userID, today), 6)
}

func TestEnsureFreshActionsFailureIsIsolated(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	seedPlan(t, db, userID, fitnessArea, careerArea)

	completer := &fakeCompleter{fn: func(_, userPrompt string) (string, error) {
		if strings.Contains(userPrompt, "Fitness") {
			return "", errors.New("model unavailable")
		}
		return "Send the status update to your manager", nil
	}}

	svc := NewSchedulerService(db, completer, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	actions := actionsOn(t, db, userID, today)
	require.Len(t, actions, 2)
	byArea := map[string]string{}
	for _, a := range actions {
		byArea[a.FocusArea] = a.Action
	}
	assert.Equal(t, "Send the status update to your manager", byArea["Career"])
	// The failed area still got a non-empty deterministic action
	assert.NotEmpty(t, byArea["Fitness"])
	assert.Equal(t, fallbackNextAction(fitnessArea, 0), byArea["Fitness"])
}

func TestEnsureFreshActionsAlwaysFailingGenerator(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	seedPlan(t, db, userID, fitnessArea, careerArea)

	completer := &fakeCompleter{fn: func(_, _ string) (string, error) {
		return "", errors.New("boom")
	}}

	svc := NewSchedulerService(db, completer, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	actions := actionsOn(t, db, userID, today)
	require.Len(t, actions, 2)
	for _, a := range actions {
		assert.NotEmpty(t, a.Action)
	}
}

func TestEnsureFreshActionsEmptyOutputFallsBack(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	seedPlan(t, db, userID, fitnessArea)

	completer := &fakeCompleter{fn: func(_, _ string) (string, error) {
		return "   \n", nil
	}}

	svc := NewSchedulerService(db, completer, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	actions := actionsOn(t, db, userID, today)
	require.Len(t, actions, 1)
	assert.Equal(t, fallbackNextAction(fitnessArea, 0), actions[0].Action)
}

func TestEnsureFreshActionsTakesFirstLine(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	seedPlan(t, db, userID, fitnessArea)

	completer := &fakeCompleter{fn: func(_, _ string) (string, error) {
		return "Run intervals for 20 minutes\nAnd here is extra rambling", nil
	}}

	svc := NewSchedulerService(db, completer, fixedClock(t, today), 4)
	require.NoError(t, svc.EnsureFreshActions(context.Background(), userID))

	actions := actionsOn(t, db, userID, today)
	require.Len(t, actions, 1)
	assert.Equal(t, "Run intervals for 20 minutes", actions[0].Action)
}

// Scenario from the product flow: one active plan with Fitness and Career,
// day index 3, yesterday had one completed and one incomplete Fitness action
// and nothing for Career. Viewing today yields exactly three rows: the
// carried Fitness action plus one fresh action per focus area.
func TestTodayActionsRolloverPlusFresh(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	yesterday := today.AddDays(-1)
	firstDay := today.AddDays(-3)
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea, careerArea)

	seedAction(t, db, userID, plan.ID, "Fitness", "Plan your training week", firstDay, true, nil)
	seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", yesterday, false, nil)
	seedAction(t, db, userID, plan.ID, "Fitness", "Stretch 10 min", yesterday, true, nil)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	actions, err := svc.TodayActions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	var carried, freshFitness, freshCareer *models.DailyAction
	for i := range actions {
		a := &actions[i]
		switch {
		case a.RescheduledFrom != nil:
			carried = a
		case a.FocusArea == "Fitness":
			freshFitness = a
		case a.FocusArea == "Career":
			freshCareer = a
		}
	}

	require.NotNil(t, carried)
	assert.Equal(t, "Fitness", carried.FocusArea)
	assert.Equal(t, "Run 5k", carried.Action)
	assert.Equal(t, yesterday, *carried.RescheduledFrom)

	require.NotNil(t, freshFitness)
	require.NotNil(t, freshCareer)
	// Day index 3 selects the fourth fallback phrasing
	assert.Equal(t, fallbackNextAction(fitnessArea, 3), freshFitness.Action)
	assert.Equal(t, fallbackNextAction(careerArea, 3), freshCareer.Action)

	// A second view changes nothing
	again, err := svc.TodayActions(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestCheckIn(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea)
	action := seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", today, false, nil)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)
	require.NoError(t, svc.CheckIn(userID, action.ID, true))

	var updated models.DailyAction
	require.NoError(t, db.First(&updated, "id = ?", action.ID).Error)
	assert.True(t, updated.Completed)
	assert.NotNil(t, updated.CompletedAt)

	// Un-checking clears the completion timestamp
	// (fresh struct: gorm does not reset pointer fields to nil when scanning NULL into a reused destination)
	require.NoError(t, svc.CheckIn(userID, action.ID, false))
	updated = models.DailyAction{}
	require.NoError(t, db.First(&updated, "id = ?", action.ID).Error)
	assert.False(t, updated.Completed)
	assert.Nil(t, updated.CompletedAt)
}

func TestCheckInNotFound(t *testing.T) {
	db := newTestDB(t)
	today := clock.Day("2025-03-10")
	userID := uuid.New()
	plan := seedPlan(t, db, userID, fitnessArea)
	action := seedAction(t, db, userID, plan.ID, "Fitness", "Run 5k", today, false, nil)

	svc := NewSchedulerService(db, nil, fixedClock(t, today), 4)

	err := svc.CheckIn(userID, uuid.New(), true)
	assert.ErrorIs(t, err, ErrActionNotFound)

	// Another user's id does not reach this action
	err = svc.CheckIn(uuid.New(), action.ID, true)
	assert.ErrorIs(t, err, ErrActionNotFound)

	var unchanged models.DailyAction
	require.NoError(t, db.First(&unchanged, "id = ?", action.ID).Error)
	assert.False(t, unchanged.Completed)
}

func TestFallbackNextActionRotation(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		seen[fallbackNextAction(fitnessArea, i)] = true
	}
	assert.Len(t, seen, 5)
	// Rotation wraps
	assert.Equal(t, fallbackNextAction(fitnessArea, 0), fallbackNextAction(fitnessArea, 5))
}

func TestFallbackNextActionDefaults(t *testing.T) {
	empty := models.FocusArea{}
	got := fallbackNextAction(empty, 0)
	assert.Contains(t, got, "Move this forward with a small concrete step.")
}
