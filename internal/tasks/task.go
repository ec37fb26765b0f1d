package tasks

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for due dates
const DateLayout = "2006-01-02"

// Task is a single to-do item. The JSON names are the stored format.
// An empty Description and an absent one are the same value.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate"`
	IsCompleted bool   `json:"isCompleted"`
	CreatedAt   int64  `json:"createdAt"` // Unix milliseconds
}

// Created returns the creation time
func (t Task) Created() time.Time {
	return time.UnixMilli(t.CreatedAt)
}

// FormData is what the add and edit forms submit
type FormData struct {
	Title       string
	Description string
	DueDate     string
}

var (
	// ErrTitleRequired is returned for a blank title
	ErrTitleRequired = errors.New("title is required")

	// ErrDueDateInvalid is returned for a due date that is not YYYY-MM-DD
	ErrDueDateInvalid = errors.New("due date must be YYYY-MM-DD")
)

// Validate checks the fields the form requires
func (f FormData) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	if _, err := ParseDueDate(f.DueDate, time.UTC); err != nil {
		return err
	}
	return nil
}

// FormFor returns the form contents for editing t
func FormFor(t Task) FormData {
	return FormData{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
	}
}

// ParseDueDate parses a YYYY-MM-DD date as midnight in loc
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrDueDateInvalid, s)
	}
	return d, nil
}

// FormatDate formats t as a due date
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Filter selects which tasks are shown
type Filter int

const (
	FilterAll Filter = iota
	FilterPending
	FilterCompleted
)

// Filters lists the selectors in display order
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

func (f Filter) String() string {
	switch f {
	case FilterPending:
		return "PENDING"
	case FilterCompleted:
		return "COMPLETED"
	default:
		return "ALL"
	}
}

// Label is the chip text for the filter
func (f Filter) Label() string {
	switch f {
	case FilterPending:
		return "Pending"
	case FilterCompleted:
		return "Done"
	default:
		return "All"
	}
}

// Next cycles ALL -> PENDING -> COMPLETED -> ALL
func (f Filter) Next() Filter {
	return Filters[(int(f)+1)%len(Filters)]
}

// ParseFilter accepts the String form of a filter, case-insensitively
func ParseFilter(s string) (Filter, error) {
	for _, f := range Filters {
		if strings.EqualFold(s, f.String()) {
			return f, nil
		}
	}
	return FilterAll, fmt.Errorf("unknown filter %q", s)
}
