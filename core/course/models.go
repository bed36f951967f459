package course

import (
	"net/url"
	"strings"
	"time"

	"github.com/volatiletech/null/v8"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

type Category struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Course struct {
	ID           int         `json:"id" db:"id"`
	Title        string      `json:"title" db:"title"`
	Slug         string      `json:"slug" db:"slug"`
	Description  string      `json:"description" db:"description"`
	Thumbnail    null.String `json:"thumbnail" db:"thumbnail"`
	CategoryID   null.Int    `json:"category_id" db:"category_id"`
	InstructorID null.Int    `json:"instructor_id" db:"instructor_id"`
	IsPublished  bool        `json:"is_published" db:"is_published"`
	Duration     int         `json:"duration" db:"duration"` // minutes
	Level        string      `json:"level" db:"level"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`

	// joined
	CategoryName   null.String `json:"category_name" db:"category_name"`
	InstructorName null.String `json:"instructor_name" db:"instructor_name"`
}

type Module struct {
	ID          int       `json:"id" db:"id"`
	CourseID    int       `json:"course_id" db:"course_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	OrderIndex  int       `json:"order_index" db:"order_index"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Lesson struct {
	ID         int         `json:"id" db:"id"`
	ModuleID   int         `json:"module_id" db:"module_id"`
	Title      string      `json:"title" db:"title"`
	Content    string      `json:"content" db:"content"`
	VideoURL   null.String `json:"video_url" db:"video_url"`
	Duration   int         `json:"duration" db:"duration"` // minutes
	OrderIndex int         `json:"order_index" db:"order_index"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`

	// joined through the module
	CourseID    int    `json:"course_id" db:"course_id"`
	ModuleTitle string `json:"module_title" db:"module_title"`
}

// EmbedURL is the privacy friendly player URL of the lesson video.
func (l Lesson) EmbedURL() string {
	return EmbedVideoURL(l.VideoURL.String)
}

type OutlineModule struct {
	Module
	Lessons []Lesson `json:"lessons"`
}

// Outline is a course with its modules and lessons, both in display order.
type Outline struct {
	Course
	Modules []OutlineModule `json:"modules"`
}

func (o Outline) LessonCount() int {
	var n int
	for _, m := range o.Modules {
		n += len(m.Lessons)
	}
	return n
}

// EmbedVideoURL rewrites YouTube watch, short and embed links to the youtube-nocookie player.
// Any other URL is returned as is.
func EmbedVideoURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	var videoID string
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	switch {
	case host == "youtube.com" && u.Path == "/watch":
		videoID = u.Query().Get("v")
	case host == "youtu.be":
		videoID = strings.Trim(u.Path, "/")
	case (host == "youtube.com" || host == "youtube-nocookie.com") && strings.HasPrefix(u.Path, "/embed/"):
		videoID = strings.TrimPrefix(u.Path, "/embed/")
	}
	if videoID == "" {
		return raw
	}
	return "https://www.youtube-nocookie.com/embed/" + videoID
}
