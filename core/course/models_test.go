package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestEmbedVideoURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: ""},
		{name: "watch", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42", want: "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ"},
		{name: "watch without www", raw: "https://youtube.com/watch?v=abc123", want: "https://www.youtube-nocookie.com/embed/abc123"},
		{name: "short", raw: "https://youtu.be/abc123", want: "https://www.youtube-nocookie.com/embed/abc123"},
		{name: "embed", raw: "https://www.youtube.com/embed/abc123", want: "https://www.youtube-nocookie.com/embed/abc123"},
		{name: "watch without id", raw: "https://www.youtube.com/watch", want: "https://www.youtube.com/watch"},
		{name: "other host", raw: "https://vimeo.com/1234", want: "https://vimeo.com/1234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EmbedVideoURL(tt.raw))
		})
	}
}

func TestLesson_EmbedURL(t *testing.T) {
	assert.Equal(t, "", Lesson{}.EmbedURL())
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/xyz", Lesson{VideoURL: null.StringFrom("https://youtu.be/xyz")}.EmbedURL())
}

func TestOutline_LessonCount(t *testing.T) {
	o := Outline{Modules: []OutlineModule{
		{Lessons: []Lesson{{ID: 1}, {ID: 2}}},
		{Lessons: []Lesson{}},
		{Lessons: []Lesson{{ID: 3}}},
	}}
	assert.Equal(t, 3, o.LessonCount())
}
