package dto

type StreakResponse struct {
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	TotalCompleted int    `json:"total_completed"`
	Message        string `json:"message"`
}

type FocusAreaProgress struct {
	Name      string  `json:"name"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Rate      float64 `json:"rate"`
}

type WeeklySummaryResponse struct {
	WeekStart          string              `json:"week_start"`
	WeekEnd            string              `json:"week_end"`
	TotalActions       int                 `json:"total_actions"`
	CompletedActions   int                 `json:"completed_actions"`
	CompletionRate     float64             `json:"completion_rate"`
	FocusAreasProgress []FocusAreaProgress `json:"focus_areas_progress"`
	Wins               []string            `json:"wins"`
	MomentumMessage    string              `json:"momentum_message"`
}

type ProgressResponse struct {
	TotalActions     int                   `json:"total_actions"`
	CompletedActions int                   `json:"completed_actions"`
	CompletionRate   float64               `json:"completion_rate"`
	Actions          []DailyActionResponse `json:"actions"`
}
