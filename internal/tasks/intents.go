package tasks

import "time"

// The functions below compute the complete replacement sequence for one
// intent. They never modify their input.

// NewTask builds an incomplete task from a submitted form
func NewTask(form FormData, id string, now time.Time) Task {
	return Task{
		ID:          id,
		Title:       form.Title,
		Description: form.Description,
		DueDate:     form.DueDate,
		IsCompleted: false,
		CreatedAt:   now.UnixMilli(),
	}
}

// AddTask returns tasks with task prepended
func AddTask(tasks []Task, task Task) []Task {
	next := make([]Task, 0, len(tasks)+1)
	next = append(next, task)
	return append(next, tasks...)
}

// EditTask replaces the title, description and due date of the task with id
func EditTask(tasks []Task, id string, form FormData) []Task {
	next := clone(tasks)
	for i := range next {
		if next[i].ID == id {
			next[i].Title = form.Title
			next[i].Description = form.Description
			next[i].DueDate = form.DueDate
		}
	}
	return next
}

// ToggleTask flips the completion flag of the task with id
func ToggleTask(tasks []Task, id string) []Task {
	next := clone(tasks)
	for i := range next {
		if next[i].ID == id {
			next[i].IsCompleted = !next[i].IsCompleted
		}
	}
	return next
}

// DeleteTask removes the task with id; an unknown id changes nothing
func DeleteTask(tasks []Task, id string) []Task {
	next := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			next = append(next, t)
		}
	}
	return next
}

// Find returns the task with id
func Find(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

func clone(tasks []Task) []Task {
	next := make([]Task, len(tasks))
	copy(next, tasks)
	return next
}
