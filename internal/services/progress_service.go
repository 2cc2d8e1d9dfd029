package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mertkaradayi/goalflow/internal/clock"
	"github.com/mertkaradayi/goalflow/internal/dto"
	"github.com/mertkaradayi/goalflow/internal/models"
)

// streakWindow bounds how much completion history a streak scan reads.
const streakWindow = 2000

// ProgressService computes streaks and summaries from daily-action history.
// Read-only; never mutates the store.
type ProgressService struct {
	db  *gorm.DB
	clk *clock.Resolver
}

func NewProgressService(db *gorm.DB, clk *clock.Resolver) *ProgressService {
	return &ProgressService{db: db, clk: clk}
}

// CalculateStreak returns the user's current and longest runs of consecutive
// days with at least one completed action.
func (s *ProgressService) CalculateStreak(userID uuid.UUID) (*dto.StreakResponse, error) {
	var days []clock.Day
	err := s.db.Model(&models.DailyAction{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Order("day DESC").
		Limit(streakWindow).
		Pluck("day", &days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load completed days: %w", err)
	}

	if len(days) == 0 {
		return &dto.StreakResponse{
			Message: "Start your first action to begin your journey!",
		}, nil
	}

	totalCompleted := len(days)

	seen := make(map[clock.Day]struct{}, len(days))
	unique := make([]clock.Day, 0, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] > unique[j] })

	today := s.clk.Today()

	currentStreak := 0
	for i, d := range unique {
		if d != today.AddDays(-i) {
			break
		}
		currentStreak++
	}

	longest := 1
	run := 1
	for i := 0; i < len(unique)-1; i++ {
		if unique[i].Sub(unique[i+1]) == 1 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 1
		}
	}
	if currentStreak > longest {
		longest = currentStreak
	}

	return &dto.StreakResponse{
		CurrentStreak:  currentStreak,
		LongestStreak:  longest,
		TotalCompleted: totalCompleted,
		Message:        streakMessage(currentStreak),
	}, nil
}

func streakMessage(currentStreak int) string {
	switch {
	case currentStreak == 0:
		return "Tomorrow is a fresh start! 🌱"
	case currentStreak == 1:
		return "One day at a time! Keep going 🌟"
	case currentStreak < 7:
		return fmt.Sprintf("%d days of small steps! You're building something beautiful 🌸", currentStreak)
	case currentStreak < 30:
		return fmt.Sprintf("%d days of showing up! This is becoming who you are 💫", currentStreak)
	default:
		return fmt.Sprintf("%d days of gentle progress! You're amazing 🌈", currentStreak)
	}
}

// WeeklySummary aggregates the Monday-to-Sunday window containing today.
func (s *ProgressService) WeeklySummary(userID uuid.UUID) (*dto.WeeklySummaryResponse, error) {
	today := s.clk.Today()
	weekStart := today.AddDays(-mondayOffset(today))
	weekEnd := weekStart.AddDays(6)

	var actions []models.DailyAction
	err := s.db.Where("user_id = ? AND day >= ? AND day <= ?", userID, weekStart, weekEnd).
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly actions: %w", err)
	}

	total := len(actions)
	completed := 0
	for _, a := range actions {
		if a.Completed {
			completed++
		}
	}

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}

	type areaCount struct {
		total     int
		completed int
	}
	counts := make(map[string]*areaCount)
	var order []string
	for _, a := range actions {
		c, ok := counts[a.FocusArea]
		if !ok {
			c = &areaCount{}
			counts[a.FocusArea] = c
			order = append(order, a.FocusArea)
		}
		c.total++
		if a.Completed {
			c.completed++
		}
	}

	progress := make([]dto.FocusAreaProgress, 0, len(order))
	for _, name := range order {
		c := counts[name]
		areaRate := 0.0
		if c.total > 0 {
			areaRate = float64(c.completed) / float64(c.total) * 100
		}
		progress = append(progress, dto.FocusAreaProgress{
			Name:      name,
			Completed: c.completed,
			Total:     c.total,
			Rate:      round1(areaRate),
		})
	}

	wins := make([]string, 0, 5)
	for _, a := range actions {
		if !a.Completed {
			continue
		}
		wins = append(wins, a.FocusArea+": "+a.Action)
		if len(wins) == 5 {
			break
		}
	}

	return &dto.WeeklySummaryResponse{
		WeekStart:          weekStart.String(),
		WeekEnd:            weekEnd.String(),
		TotalActions:       total,
		CompletedActions:   completed,
		CompletionRate:     round1(rate),
		FocusAreasProgress: progress,
		Wins:               wins,
		MomentumMessage:    momentumMessage(rate, completed),
	}, nil
}

func momentumMessage(rate float64, completed int) string {
	switch {
	case rate >= 80:
		return fmt.Sprintf("Incredible momentum this week! %d actions completed — you're moving 🚀", completed)
	case rate >= 60:
		return fmt.Sprintf("Solid week! %d actions done. Keep stacking wins 🌟", completed)
	case rate >= 40:
		return fmt.Sprintf("You showed up %d times this week. That counts 🌱", completed)
	case rate > 0:
		return fmt.Sprintf("%d small steps this week. Progress > perfection 💚", completed)
	default:
		return "New week, fresh start! Your goals are waiting 🌅"
	}
}

// Progress returns the last 30 days of action history with completion rate.
func (s *ProgressService) Progress(userID uuid.UUID) (*dto.ProgressResponse, error) {
	cutoff := s.clk.Today().AddDays(-30)

	var actions []models.DailyAction
	err := s.db.Where("user_id = ? AND day >= ?", userID, cutoff).
		Order("day ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}

	total := len(actions)
	completed := 0
	items := make([]dto.DailyActionResponse, 0, total)
	for i := range actions {
		if actions[i].Completed {
			completed++
		}
		items = append(items, dto.NewDailyActionResponse(&actions[i]))
	}

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total) * 100
	}

	return &dto.ProgressResponse{
		TotalActions:     total,
		CompletedActions: completed,
		CompletionRate:   round1(rate),
		Actions:          items,
	}, nil
}

// mondayOffset returns days elapsed since the most recent Monday.
func mondayOffset(d clock.Day) int {
	return (int(d.Weekday()) + 6) % 7
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
