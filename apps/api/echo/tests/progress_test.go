package tests

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/services/email"
	"github.com/qwaszx001001/byzantium/tests"
)

type toggleResponse struct {
	LessonID        int  `json:"lesson_id"`
	IsCompleted     bool `json:"is_completed"`
	CourseProgress  int  `json:"course_progress"`
	CourseCompleted bool `json:"course_completed"`
}

func enroll(t *testing.T, app testApp, token string, courseID int) {
	t.Helper()
	tt := httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/courses/%d/enrollment", courseID), token: token, wantCode: http.StatusCreated}
	require.True(t, checkCode(t, tt, app.do(tt)))
}

func Test_progressApi_access(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Theodora", "theodora", "theodora@byz.test", "", "")
	token := getToken(t, app.conf, usr)
	c, lessons := seedCourse(t, app, "Nika riots", 1)
	notEnrolled := marchallObj(t, httpErr{Error: "not enrolled in this course"})

	tests := []httpTest{
		{
			name:     "course progress without token",
			method:   http.MethodGet,
			path:     fmt.Sprintf("/v1/courses/%d/progress", c.ID),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "course progress",
			method:   http.MethodGet,
			path:     fmt.Sprintf("/v1/courses/%d/progress", c.ID),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: notEnrolled,
		},
		{
			name:     "learn",
			method:   http.MethodGet,
			path:     fmt.Sprintf("/v1/courses/%d/learn", c.ID),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: notEnrolled,
		},
		{
			name:     "complete lesson",
			method:   http.MethodPost,
			path:     fmt.Sprintf("/v1/lessons/%d/complete", lessons[0].ID),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: notEnrolled,
		},
		{
			name:     "watch duration",
			method:   http.MethodPut,
			path:     fmt.Sprintf("/v1/lessons/%d/watch-duration", lessons[0].ID),
			body:     []byte(`{"seconds":10}`),
			token:    token,
			wantCode: http.StatusForbidden,
			wantData: notEnrolled,
		},
		{
			name:     "unknown lesson",
			method:   http.MethodPost,
			path:     "/v1/lessons/404/complete",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		},
		{
			name:     "invalid lesson id",
			method:   http.MethodGet,
			path:     "/v1/lessons/x/progress",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_progressApi_toggle(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Theodora", "theodora", "theodora@byz.test", "", "")
	token := getToken(t, app.conf, usr)
	c, lessons := seedCourse(t, app, "Nika riots", 4)
	enroll(t, app, token, c.ID)

	toggle := func(t *testing.T, lessonID int, action string) toggleResponse {
		rec := app.do(httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/lessons/%d/%s", lessonID, action), token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res toggleResponse
		unmarshalBody(t, rec, &res)
		return res
	}

	for i, want := range []int{25, 50, 75} {
		res := toggle(t, lessons[i].ID, "complete")
		assert.Equal(t, toggleResponse{LessonID: lessons[i].ID, IsCompleted: true, CourseProgress: want}, res)
	}
	assert.Empty(t, emailsvc.SentMessages)

	res := toggle(t, lessons[1].ID, "complete")
	assert.Equal(t, 75, res.CourseProgress, "completing twice counts once")

	res = toggle(t, lessons[3].ID, "complete")
	assert.Equal(t, 100, res.CourseProgress)
	assert.True(t, res.CourseCompleted)
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "theodora@byz.test", emailsvc.SentMessages[0].To[0].Address)

	res = toggle(t, lessons[3].ID, "incomplete")
	assert.Equal(t, toggleResponse{LessonID: lessons[3].ID, IsCompleted: false, CourseProgress: 75, CourseCompleted: true}, res)

	res = toggle(t, lessons[3].ID, "complete")
	assert.Equal(t, 100, res.CourseProgress)
	assert.Len(t, emailsvc.SentMessages, 1, "no second completion email")

	rec := app.do(httpTest{method: http.MethodGet, path: fmt.Sprintf("/v1/courses/%d/progress", c.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var progress struct {
		Total     int `json:"total_lessons"`
		Completed int `json:"completed_lessons"`
		Progress  int `json:"progress"`
		Lessons   []struct {
			LessonID    int  `json:"lesson_id"`
			IsCompleted bool `json:"is_completed"`
		} `json:"lessons"`
	}
	unmarshalBody(t, rec, &progress)
	assert.Equal(t, 4, progress.Total)
	assert.Equal(t, 4, progress.Completed)
	assert.Equal(t, 100, progress.Progress)
	require.Len(t, progress.Lessons, 4)
	for i, l := range progress.Lessons {
		assert.Equal(t, lessons[i].ID, l.LessonID)
		assert.True(t, l.IsCompleted)
	}
}

func Test_progressApi_incompleteNeverStarted(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Theodora", "theodora", "theodora@byz.test", "", "")
	token := getToken(t, app.conf, usr)
	c, lessons := seedCourse(t, app, "Nika riots", 2)
	enroll(t, app, token, c.ID)

	rec := app.do(httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/lessons/%d/incomplete", lessons[0].ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tt := httpTest{
		method:   http.MethodGet,
		path:     fmt.Sprintf("/v1/lessons/%d/progress", lessons[0].ID),
		token:    token,
		wantCode: http.StatusOK,
	}
	rec = app.do(tt)
	require.True(t, checkCode(t, tt, rec))
	var lp struct {
		ID            int  `json:"id"`
		IsCompleted   bool `json:"is_completed"`
		WatchDuration int  `json:"watch_duration"`
	}
	unmarshalBody(t, rec, &lp)
	assert.Zero(t, lp.ID, "no row is created")
	assert.False(t, lp.IsCompleted)
	assert.Zero(t, lp.WatchDuration)
}

func Test_progressApi_updateWatchDuration(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Theodora", "theodora", "theodora@byz.test", "", "")
	token := getToken(t, app.conf, usr)
	c, lessons := seedCourse(t, app, "Nika riots", 1)
	enroll(t, app, token, c.ID)
	path := fmt.Sprintf("/v1/lessons/%d/watch-duration", lessons[0].ID)

	tests := []struct {
		httpTest
		wantSeconds int
	}{
		{httpTest: httpTest{name: "missing", body: []byte(`{}`), wantCode: http.StatusBadRequest, wantData: []byte(`{"seconds":"this field is required"}`)}},
		{httpTest: httpTest{name: "negative", body: []byte(`{"seconds":-5}`), wantCode: http.StatusBadRequest}},
		{httpTest: httpTest{name: "first", body: []byte(`{"seconds":120}`), wantCode: http.StatusOK}, wantSeconds: 120},
		{httpTest: httpTest{name: "overwrite", body: []byte(`{"seconds":30}`), wantCode: http.StatusOK}, wantSeconds: 30},
		{httpTest: httpTest{name: "zero", body: []byte(`{"seconds":0}`), wantCode: http.StatusOK}, wantSeconds: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path, tt.token = http.MethodPut, path, token
			rec := app.do(tt.httpTest)
			checkCodeAndData(t, tt.httpTest, rec)

			if tt.wantCode == http.StatusOK {
				var lp struct {
					WatchDuration int  `json:"watch_duration"`
					IsCompleted   bool `json:"is_completed"`
				}
				unmarshalBody(t, rec, &lp)
				assert.Equal(t, tt.wantSeconds, lp.WatchDuration)
				assert.False(t, lp.IsCompleted, "watching does not complete")
			}
		})
	}
}

func Test_progressApi_learn(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Theodora", "theodora", "theodora@byz.test", "", "")
	token := getToken(t, app.conf, usr)
	c, lessons := seedCourse(t, app, "Nika riots", 2)
	video, err := app.courseRepo.CreateLesson(context.Background(), course.Lesson{
		ModuleID:   lessons[0].ModuleID,
		Title:      "Hippodrome",
		VideoURL:   null.StringFrom("https://www.youtube.com/watch?v=nika532"),
		OrderIndex: 3,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	enroll(t, app, token, c.ID)

	rec := app.do(httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/lessons/%d/complete", lessons[1].ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(httpTest{method: http.MethodGet, path: fmt.Sprintf("/v1/courses/%d/learn", c.ID), token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Course struct {
			ID int `json:"id"`
		} `json:"course"`
		Modules []struct {
			Lessons []struct {
				ID          int    `json:"id"`
				EmbedURL    string `json:"embed_url"`
				IsCompleted bool   `json:"is_completed"`
			} `json:"lessons"`
		} `json:"modules"`
		Enrollment struct {
			Progress int `json:"progress"`
		} `json:"enrollment"`
		Progress int `json:"progress"`
	}
	unmarshalBody(t, rec, &res)
	assert.Equal(t, c.ID, res.Course.ID)
	assert.Equal(t, 33, res.Progress)
	assert.Equal(t, 33, res.Enrollment.Progress)
	require.Len(t, res.Modules, 1)
	ls := res.Modules[0].Lessons
	require.Len(t, ls, 3)
	assert.Equal(t, []int{lessons[0].ID, lessons[1].ID, video.ID}, []int{ls[0].ID, ls[1].ID, ls[2].ID})
	assert.Equal(t, []bool{false, true, false}, []bool{ls[0].IsCompleted, ls[1].IsCompleted, ls[2].IsCompleted})
	assert.Equal(t, "", ls[0].EmbedURL)
	assert.Equal(t, "https://www.youtube-nocookie.com/embed/nika532", ls[2].EmbedURL)
}
