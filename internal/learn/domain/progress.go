package domain

import (
	"encoding/json"
	"time"
)

type ItemType string

const (
	ItemRegistration ItemType = "registration"
	ItemModule       ItemType = "module"
	ItemLesson       ItemType = "lesson"
	ItemCourse       ItemType = "course"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemRegistration, ItemModule, ItemLesson, ItemCourse:
		return true
	}
	return false
}

type ProgressStatus string

const (
	StatusStarted    ProgressStatus = "started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
)

func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// rank orders statuses by how far along they are.
func (s ProgressStatus) rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether s is as far along as other.
func (s ProgressStatus) AtLeast(other ProgressStatus) bool { return s.rank() >= other.rank() }

// RegistrationSlug is the item slug of a user's platform registration row.
const RegistrationSlug = "registration"

// ProgressRecord is one user's state on one item. There is at most one
// record per (UserID, ItemSlug).
type ProgressRecord struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	ItemSlug     string          `json:"itemSlug"`
	ItemType     ItemType        `json:"itemType"`
	Status       ProgressStatus  `json:"status"`
	ProgressData json.RawMessage `json:"progressData"`
	StartedAt    time.Time       `json:"startedAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	CompletedAt  *time.Time      `json:"completedAt"`
}
