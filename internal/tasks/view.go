package tasks

import "time"

// Counts holds the number of tasks per status
type Counts struct {
	All       int
	Pending   int
	Completed int
}

// For returns the count shown next to filter f
func (c Counts) For(f Filter) int {
	switch f {
	case FilterPending:
		return c.Pending
	case FilterCompleted:
		return c.Completed
	default:
		return c.All
	}
}

// FilterTasks returns the tasks selected by f in their original order.
// FilterAll returns tasks itself.
func FilterTasks(tasks []Task, f Filter) []Task {
	if f != FilterPending && f != FilterCompleted {
		return tasks
	}

	wantCompleted := f == FilterCompleted
	filtered := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted == wantCompleted {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// CountTasks counts tasks per status; All is always Pending + Completed
func CountTasks(tasks []Task) Counts {
	c := Counts{All: len(tasks)}
	for _, t := range tasks {
		if t.IsCompleted {
			c.Completed++
		} else {
			c.Pending++
		}
	}
	return c
}

// IsOverdue reports whether t is incomplete and due on a calendar day before
// now's. Tasks due today are never overdue, and neither are tasks whose due
// date cannot be parsed.
func IsOverdue(t Task, now time.Time) bool {
	if t.IsCompleted {
		return false
	}
	due, err := ParseDueDate(t.DueDate, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(today)
}
