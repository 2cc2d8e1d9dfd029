package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mertkaradayi/goalflow/internal/clock"
	"github.com/mertkaradayi/goalflow/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// In-memory SQLite lives per connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Goal{},
		&models.Plan{},
		&models.DailyAction{},
	))
	return db
}

// fixedClock pins "now" to noon UTC so the logical day equals the calendar date.
func fixedClock(t *testing.T, today clock.Day) *clock.Resolver {
	t.Helper()
	now := today.Time().Add(12 * time.Hour)
	r, err := clock.NewFixedResolver("UTC", 5, now)
	require.NoError(t, err)
	return r
}

func seedPlan(t *testing.T, db *gorm.DB, userID uuid.UUID, areas ...models.FocusArea) *models.Plan {
	t.Helper()
	plan := &models.Plan{
		ID:         uuid.New(),
		UserID:     userID,
		GoalID:     uuid.New(),
		FocusAreas: areas,
		Timeline:   "3_months",
		Status:     models.PlanStatusActive,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func seedAction(t *testing.T, db *gorm.DB, userID, planID uuid.UUID, focusArea, action string, day clock.Day, completed bool, from *clock.Day) *models.DailyAction {
	t.Helper()
	row := &models.DailyAction{
		ID:              uuid.New(),
		UserID:          userID,
		PlanID:          planID,
		FocusArea:       focusArea,
		Action:          action,
		Day:             day,
		Completed:       completed,
		RescheduledFrom: from,
	}
	if completed {
		now := time.Now().UTC()
		row.CompletedAt = &now
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func actionsOn(t *testing.T, db *gorm.DB, userID uuid.UUID, day clock.Day) []models.DailyAction {
	t.Helper()
	var actions []models.DailyAction
	require.NoError(t, db.Where("user_id = ? AND day = ?", userID, day).Find(&actions).Error)
	return actions
}

// fakeCompleter delegates to fn; handy for scripting failures per prompt.
type fakeCompleter struct {
	fn func(systemPrompt, userPrompt string) (string, error)
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.fn(systemPrompt, userPrompt)
}

// countingCompleter records how many calls run concurrently.
type countingCompleter struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	calls       int
}

func (c *countingCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	c.mu.Lock()
	c.inFlight++
	c.calls++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	c.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	return "Generated action", nil
}
