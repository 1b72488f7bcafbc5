// Package task defines the task model and per-user persistence.
package task

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Date layouts for user-entered values. Dates are stored verbatim in these
// formats rather than as time.Time.
const (
	DueDateLayout  = "02-01-2006"
	ReminderLayout = "02-01-2006 15:04"
)

// Priorities a task may carry, in display order.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Priorities lists the accepted priority values.
var Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}

// PriorityEmoji maps a priority to the marker shown in listings and reminders.
var PriorityEmoji = map[string]string{
	PriorityHigh:   "🔴",
	PriorityMedium: "🟠",
	PriorityLow:    "🟢",
}

// Categories lists the accepted category values.
var Categories = []string{"Study", "Work", "Personal", "Other"}

// Task is a single to-do item belonging to one user. Reminder is empty when
// no reminder is pending.
type Task struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"due_date"`
	Reminder    string `json:"reminder,omitempty"`
}

// User is one registered chat user.
type User struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Store persists and retrieves per-user task collections and the
// user directory.
type Store interface {
	// List returns the user's tasks in stored order. A user with no
	// stored tasks yields an empty slice, not an error.
	List(userID int64) ([]Task, error)

	// Append adds one task to the end of the user's collection.
	Append(userID int64, t Task) error

	// Replace rewrites the user's entire collection in one step.
	Replace(userID int64, tasks []Task) error

	// RegisterUser records a user identity. Calling it again with the
	// same id is a no-op.
	RegisterUser(id int64, displayName string) error

	// Users returns every registered user.
	Users() ([]User, error)
}

// StorageError wraps a failure to read or write the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

// CanonicalPriority normalizes case ("high" -> "High") so user input can be
// matched against the priority set. A Caser is stateful, so one is built
// per call rather than shared.
func CanonicalPriority(s string) string { return cases.Title(language.English).String(s) }

// CanonicalCategory normalizes case the same way for categories.
func CanonicalCategory(s string) string { return cases.Title(language.English).String(s) }

// ValidPriority reports whether s is one of the accepted priorities.
func ValidPriority(s string) bool {
	for _, p := range Priorities {
		if s == p {
			return true
		}
	}
	return false
}

// ValidCategory reports whether s is one of the accepted categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if s == c {
			return true
		}
	}
	return false
}

// ParseDueDate parses a DD-MM-YYYY due date.
func ParseDueDate(s string) (time.Time, error) {
	return time.Parse(DueDateLayout, s)
}

// ParseReminder parses a DD-MM-YYYY HH:MM reminder timestamp.
func ParseReminder(s string) (time.Time, error) {
	return time.Parse(ReminderLayout, s)
}

// Validate checks the invariants every stored record must satisfy.
// Stores reject records that fail it.
func Validate(t Task) error {
	if !ValidPriority(t.Priority) {
		return fmt.Errorf("invalid priority %q", t.Priority)
	}
	if !ValidCategory(t.Category) {
		return fmt.Errorf("invalid category %q", t.Category)
	}
	if _, err := ParseDueDate(t.DueDate); err != nil {
		return fmt.Errorf("invalid due date %q", t.DueDate)
	}
	if t.Reminder != "" {
		if _, err := ParseReminder(t.Reminder); err != nil {
			return fmt.Errorf("invalid reminder %q", t.Reminder)
		}
	}
	return nil
}
