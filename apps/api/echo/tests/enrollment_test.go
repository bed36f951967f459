package tests

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/user"
	"github.com/qwaszx001001/byzantium/services/email"
	"github.com/qwaszx001001/byzantium/tests"
)

func seedCourse(t *testing.T, app testApp, title string, lessons int) (course.Course, []course.Lesson) {
	t.Helper()
	c := testutil.CreateCourse(t, app.courseRepo, title, nil)
	m := testutil.CreateModule(t, app.courseRepo, c.ID, "Introduction", 1)
	ls := make([]course.Lesson, 0, lessons)
	for i := 1; i <= lessons; i++ {
		ls = append(ls, testutil.CreateLesson(t, app.courseRepo, m.ID, fmt.Sprintf("Lesson %d", i), i))
	}
	return c, ls
}

func Test_enrollmentApi_enroll(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Michael Psellos", "psellos", "psellos@byz.test", "", "")
	token := getToken(t, app.conf, usr)
	c, _ := seedCourse(t, app, "Chronographia", 2)
	path := fmt.Sprintf("/v1/courses/%d/enrollment", c.ID)

	tests := []httpTest{
		{
			name:     "no token",
			method:   http.MethodPost,
			path:     path,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "invalid course id",
			method:   http.MethodPost,
			path:     "/v1/courses/abc/enrollment",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "unknown course",
			method:   http.MethodPost,
			path:     "/v1/courses/404/enrollment",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name:     "not enrolled yet",
			method:   http.MethodGet,
			path:     path,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"enrolled":false}`),
		},
		{
			name:     "enroll",
			method:   http.MethodPost,
			path:     path,
			token:    token,
			wantCode: http.StatusCreated,
		},
		{
			name:     "enrolled",
			method:   http.MethodGet,
			path:     path,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"enrolled":true}`),
		},
		{
			name:     "enroll twice",
			method:   http.MethodPost,
			path:     path,
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "already enrolled in this course"}),
		},
		{
			name:     "unenroll",
			method:   http.MethodDelete,
			path:     path,
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"removed":true}`),
		},
		{
			name:     "unenroll twice",
			method:   http.MethodDelete,
			path:     path,
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "enrollment not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(tt)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusCreated {
				var e struct {
					UserID      int     `json:"user_id"`
					CourseID    int     `json:"course_id"`
					Progress    int     `json:"progress"`
					CompletedAt *string `json:"completed_at"`
				}
				unmarshalBody(t, rec, &e)
				assert.Equal(t, usr.ID, e.UserID)
				assert.Equal(t, c.ID, e.CourseID)
				assert.Zero(t, e.Progress)
				assert.Nil(t, e.CompletedAt)
			}
		})
	}
}

func Test_enrollmentApi_list(t *testing.T) {
	app := setup(t) // 2 per page
	usr := testutil.CreateUser(t, app.usrRepo, "Michael Psellos", "psellos", "psellos@byz.test", "", "")
	token := getToken(t, app.conf, usr)

	var ids []int
	for _, title := range []string{"Chronographia", "Historia Syntomos", "Encomium"} {
		c, _ := seedCourse(t, app, title, 1)
		ids = append(ids, c.ID)
		tt := httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/courses/%d/enrollment", c.ID), token: token, wantCode: http.StatusCreated}
		require.True(t, checkCode(t, tt, app.do(tt)))
	}

	type listing struct {
		Page     int  `json:"page"`
		PageSize int  `json:"page_size"`
		Total    int  `json:"total"`
		HasNext  bool `json:"has_next"`
		Results  []struct {
			CourseID    int    `json:"course_id"`
			CourseTitle string `json:"course_title"`
		} `json:"results"`
	}

	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantCourses []int
		wantHasNext bool
	}{
		{name: "default", query: "", wantPage: 1, wantCourses: []int{ids[2], ids[1]}, wantHasNext: true},
		{name: "page 2", query: "?page=2", wantPage: 2, wantCourses: []int{ids[0]}},
		{name: "past the end", query: "?page=9", wantPage: 9, wantCourses: []int{}},
		{name: "invalid", query: "?page=abc", wantPage: 1, wantCourses: []int{ids[2], ids[1]}, wantHasNext: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(httpTest{method: http.MethodGet, path: "/v1/enrollments" + tt.query, token: token})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var res listing
			unmarshalBody(t, rec, &res)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Equal(t, 2, res.PageSize)
			assert.Equal(t, 3, res.Total)
			assert.Equal(t, tt.wantHasNext, res.HasNext)
			got := make([]int, 0, len(res.Results))
			for _, r := range res.Results {
				got = append(got, r.CourseID)
				assert.NotEmpty(t, r.CourseTitle)
			}
			assert.Equal(t, tt.wantCourses, got)
		})
	}
}

func Test_enrollmentApi_courseDetail(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Michael Psellos", "psellos", "psellos@byz.test", "", "")
	other := testutil.CreateUser(t, app.usrRepo, "John Mauropous", "mauropous", "mauropous@byz.test", "", "")
	c, _ := seedCourse(t, app, "Chronographia", 3)

	tt := httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/courses/%d/enrollment", c.ID), token: getToken(t, app.conf, other), wantCode: http.StatusCreated}
	require.True(t, checkCode(t, tt, app.do(tt)))

	rec := app.do(httpTest{method: http.MethodGet, path: fmt.Sprintf("/v1/courses/%d", c.ID), token: getToken(t, app.conf, usr)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		ID            int  `json:"id"`
		LessonCount   int  `json:"lesson_count"`
		EnrolledCount int  `json:"enrolled_count"`
		IsEnrolled    bool `json:"is_enrolled"`
		Modules       []struct {
			Lessons []struct {
				Title string `json:"title"`
			} `json:"lessons"`
		} `json:"modules"`
	}
	unmarshalBody(t, rec, &res)
	assert.Equal(t, c.ID, res.ID)
	assert.Equal(t, 3, res.LessonCount)
	assert.Equal(t, 1, res.EnrolledCount)
	assert.False(t, res.IsEnrolled)
	require.Len(t, res.Modules, 1)
	require.Len(t, res.Modules[0].Lessons, 3)
	assert.Equal(t, "Lesson 1", res.Modules[0].Lessons[0].Title)

	tt = httpTest{
		method:   http.MethodGet,
		path:     "/v1/courses/404",
		token:    getToken(t, app.conf, usr),
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "course not found"}),
	}
	checkCodeAndData(t, tt, app.do(tt))
}

func Test_enrollmentApi_admin(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Michael Psellos", "psellos", "psellos@byz.test", "", "")
	admin := testutil.CreateUser(t, app.usrRepo, "Constantine IX", "monomachos", "monomachos@byz.test", "", user.RoleAdmin)
	usrToken := getToken(t, app.conf, usr)
	adminToken := getToken(t, app.conf, admin)
	c, _ := seedCourse(t, app, "Chronographia", 2)

	tt := httpTest{method: http.MethodPost, path: fmt.Sprintf("/v1/courses/%d/enrollment", c.ID), token: usrToken, wantCode: http.StatusCreated}
	require.True(t, checkCode(t, tt, app.do(tt)))

	base := fmt.Sprintf("/v1/admin/users/%d/courses/%d", usr.ID, c.ID)
	tests := []httpTest{
		{
			name:     "not admin",
			method:   http.MethodPut,
			path:     base + "/progress",
			body:     []byte(`{"progress":50}`),
			token:    usrToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "missing progress",
			method:   http.MethodPut,
			path:     base + "/progress",
			body:     []byte(`{}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"progress":"this field is required"}`),
		},
		{
			name:     "progress out of range",
			method:   http.MethodPut,
			path:     base + "/progress",
			body:     []byte(`{"progress":101}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "not enrolled",
			method:   http.MethodPut,
			path:     fmt.Sprintf("/v1/admin/users/%d/courses/%d/progress", admin.ID, c.ID),
			body:     []byte(`{"progress":50}`),
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "enrollment not found"}),
		},
		{
			name:     "progress",
			method:   http.MethodPut,
			path:     base + "/progress",
			body:     []byte(`{"progress":50}`),
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "complete",
			method:   http.MethodPost,
			path:     base + "/complete",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "complete again",
			method:   http.MethodPost,
			path:     base + "/complete",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "stats",
			method:   http.MethodGet,
			path:     "/v1/admin/stats",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: []byte(`{"enrollments":1}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}

	rec := app.do(httpTest{method: http.MethodGet, path: "/v1/enrollments", token: usrToken})
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Results []struct {
			Progress    int     `json:"progress"`
			CompletedAt *string `json:"completed_at"`
		} `json:"results"`
	}
	unmarshalBody(t, rec, &res)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 100, res.Results[0].Progress)
	assert.NotNil(t, res.Results[0].CompletedAt)
	assert.Len(t, emailsvc.SentMessages, 1, "completion email is sent once")
}
