package progress

import (
	"math"
	"time"

	"github.com/volatiletech/null/v8"
)

// LessonProgress is one user's state on one lesson. A missing row means the lesson was never started.
type LessonProgress struct {
	ID            int       `json:"id" db:"id"`
	UserID        int       `json:"user_id" db:"user_id"`
	LessonID      int       `json:"lesson_id" db:"lesson_id"`
	IsCompleted   bool      `json:"is_completed" db:"is_completed"`
	CompletedAt   null.Time `json:"completed_at" db:"completed_at"`
	WatchDuration int       `json:"watch_duration" db:"watch_duration"` // seconds
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// LessonStatus is a course lesson alongside the user's progress on it.
type LessonStatus struct {
	LessonID      int         `json:"lesson_id" db:"lesson_id"`
	LessonTitle   string      `json:"lesson_title" db:"lesson_title"`
	Duration      int         `json:"duration" db:"duration"` // minutes
	VideoURL      null.String `json:"video_url" db:"video_url"`
	ModuleID      int         `json:"module_id" db:"module_id"`
	ModuleTitle   string      `json:"module_title" db:"module_title"`
	IsCompleted   bool        `json:"is_completed" db:"is_completed"`
	CompletedAt   null.Time   `json:"completed_at" db:"completed_at"`
	WatchDuration int         `json:"watch_duration" db:"watch_duration"`
}

type Stats struct {
	Total     int `json:"total_lessons" db:"total"`
	Completed int `json:"completed_lessons" db:"completed"`
}

func (s Stats) Percentage() int {
	return Percentage(s.Completed, s.Total)
}

// Percentage returns round(100 * completed / total), or 0 for an empty course.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
