package tasks

import "time"

// DefaultTasks returns the sample tasks shown on first run
func DefaultTasks(now time.Time) []Task {
	return []Task{
		{
			ID:          "default-1",
			Title:       "Welcome to TaskFlow 👋",
			Description: "Explore the features: filter by status, add new tasks, or edit existing ones.",
			DueDate:     FormatDate(now),
			IsCompleted: false,
			CreatedAt:   now.UnixMilli(),
		},
		{
			ID:          "default-2",
			Title:       "Learn the keyboard shortcuts",
			Description: "a adds a task, e edits it, space toggles it, d deletes it and f cycles the filter.",
			DueDate:     FormatDate(now.AddDate(0, 0, 2)),
			IsCompleted: false,
			CreatedAt:   now.Add(-time.Hour).UnixMilli(),
		},
		{
			ID:          "default-3",
			Title:       "Set up TaskFlow",
			Description: "Run taskflow init to write a config file under ~/.config/taskflow.",
			DueDate:     FormatDate(now.AddDate(0, 0, -1)),
			IsCompleted: true,
			CreatedAt:   now.Add(-2 * time.Hour).UnixMilli(),
		},
	}
}
