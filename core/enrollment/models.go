package enrollment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/qwaszx001001/byzantium/core"
)

const (
	MinProgress = 0
	MaxProgress = 100
)

// Enrollment registers a user in a course. There is at most one per (user, course).
type Enrollment struct {
	ID          int       `json:"id" db:"id"`
	UserID      int       `json:"user_id" db:"user_id"`
	CourseID    int       `json:"course_id" db:"course_id"`
	EnrolledAt  time.Time `json:"enrolled_at" db:"enrolled_at"` // UTC
	CompletedAt null.Time `json:"completed_at" db:"completed_at"`
	// Progress caches the last computed completion percentage.
	Progress int `json:"progress" db:"progress"`
}

func (e Enrollment) IsCompleted() bool { return e.CompletedAt.Valid }

// Summary is an enrollment joined with the course fields shown in listings.
type Summary struct {
	Enrollment

	CourseTitle    string      `json:"course_title" db:"course_title"`
	CourseSlug     string      `json:"course_slug" db:"course_slug"`
	Thumbnail      null.String `json:"thumbnail" db:"thumbnail"`
	Duration       int         `json:"duration" db:"duration"`
	Level          string      `json:"level" db:"level"`
	CategoryName   null.String `json:"category_name" db:"category_name"`
	InstructorName null.String `json:"instructor_name" db:"instructor_name"`
}

// Listing is one page of a user's enrollments, most recent first.
type Listing struct {
	core.Page
	Total   int       `json:"total"`
	Results []Summary `json:"results"`
}

func (l Listing) HasNext() bool { return l.Offset()+len(l.Results) < l.Total }

// QueryFilter restricts enrollment queries. Zero fields are ignored.
type QueryFilter struct {
	UserID   int
	CourseID int
}
