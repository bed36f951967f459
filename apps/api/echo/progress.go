package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/enrollment"
	"github.com/qwaszx001001/byzantium/core/progress"
)

type (
	progressApi struct {
		*Server
	}

	courseProgressResponse struct {
		progress.Stats
		Progress int                     `json:"progress"`
		Lessons  []progress.LessonStatus `json:"lessons"`
	}

	learnLesson struct {
		course.Lesson
		EmbedURL      string `json:"embed_url"`
		IsCompleted   bool   `json:"is_completed"`
		WatchDuration int    `json:"watch_duration"`
	}

	learnModule struct {
		course.Module
		Lessons []learnLesson `json:"lessons"`
	}

	learnResponse struct {
		Course     course.Course         `json:"course"`
		Modules    []learnModule         `json:"modules"`
		Enrollment enrollment.Enrollment `json:"enrollment"`
		Progress   int                   `json:"progress"`
	}

	lessonToggleResponse struct {
		LessonID       int  `json:"lesson_id"`
		IsCompleted    bool `json:"is_completed"`
		CourseProgress int  `json:"course_progress"`
		CourseComplete bool `json:"course_completed"`
	}
)

func registerProgressAPI(s *Server, g *echo.Group, jwt echo.MiddlewareFunc) {
	api := progressApi{s}

	// routes, not a group: the enrollment API already owns the /courses/:courseId group
	enrolled := enrolledMiddleware(s.EnrollmentSvc)
	g.GET("/courses/:courseId/progress", api.courseProgress, jwt, enrolled)
	g.GET("/courses/:courseId/learn", api.learn, jwt, enrolled)

	lg := g.Group("/lessons/:lessonId", jwt, lessonMiddleware(s.CourseSvc, s.EnrollmentSvc))
	lg.GET("/progress", api.lessonProgress)
	lg.POST("/complete", api.complete)
	lg.POST("/incomplete", api.incomplete)
	lg.PUT("/watch-duration", api.updateWatchDuration)
}

func (api *progressApi) courseProgress(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	courseID, err := paramID(ctx, "courseId")
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	stats, err := api.ProgressSvc.CourseStats(reqCtx, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "counting course progress")
	}
	lessons, err := api.ProgressSvc.CourseProgress(reqCtx, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "querying course progress")
	}
	return ctx.JSON(http.StatusOK, courseProgressResponse{Stats: stats, Progress: stats.Percentage(), Lessons: lessons})
}

func (api *progressApi) learn(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	courseID, err := paramID(ctx, "courseId")
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	outline, err := api.CourseSvc.Outline(reqCtx, courseID)
	if err != nil {
		return err
	}
	e, err := api.EnrollmentSvc.Get(reqCtx, userID, courseID)
	if err != nil {
		return err
	}
	statuses, err := api.ProgressSvc.CourseProgress(reqCtx, userID, courseID)
	if err != nil {
		return errors.Wrap(err, "querying course progress")
	}
	byLesson := make(map[int]progress.LessonStatus, len(statuses))
	var completed int
	for _, st := range statuses {
		byLesson[st.LessonID] = st
		if st.IsCompleted {
			completed++
		}
	}

	res := learnResponse{
		Course:     outline.Course,
		Modules:    make([]learnModule, 0, len(outline.Modules)),
		Enrollment: e,
		Progress:   progress.Percentage(completed, len(statuses)),
	}
	for _, m := range outline.Modules {
		lm := learnModule{Module: m.Module, Lessons: make([]learnLesson, 0, len(m.Lessons))}
		for _, l := range m.Lessons {
			st := byLesson[l.ID]
			lm.Lessons = append(lm.Lessons, learnLesson{
				Lesson:        l,
				EmbedURL:      l.EmbedURL(),
				IsCompleted:   st.IsCompleted,
				WatchDuration: st.WatchDuration,
			})
		}
		res.Modules = append(res.Modules, lm)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *progressApi) lessonProgress(ctx echo.Context) error {
	userID, lesson, err := lessonContext(ctx)
	if err != nil {
		return err
	}
	lp, err := api.ProgressSvc.Get(ctx.Request().Context(), userID, lesson.ID)
	if err != nil {
		return errors.Wrap(err, "getting lesson progress")
	}
	return ctx.JSON(http.StatusOK, lp)
}

func (api *progressApi) complete(ctx echo.Context) error {
	userID, lesson, err := lessonContext(ctx)
	if err != nil {
		return err
	}
	if err = api.ProgressSvc.MarkCompleted(ctx.Request().Context(), userID, lesson.ID); err != nil {
		return err
	}
	return api.toggled(ctx, userID, lesson, true)
}

func (api *progressApi) incomplete(ctx echo.Context) error {
	userID, lesson, err := lessonContext(ctx)
	if err != nil {
		return err
	}
	if err = api.ProgressSvc.MarkIncomplete(ctx.Request().Context(), userID, lesson.ID); err != nil {
		return err
	}
	return api.toggled(ctx, userID, lesson, false)
}

// toggled refreshes the cached enrollment progress after a lesson changed state.
func (api *progressApi) toggled(ctx echo.Context, userID int, lesson course.Lesson, completed bool) error {
	e, err := api.EnrollmentSvc.SyncProgress(ctx.Request().Context(), userID, lesson.CourseID)
	if err != nil {
		return errors.Wrap(err, "syncing enrollment progress")
	}
	return ctx.JSON(http.StatusOK, lessonToggleResponse{
		LessonID:       lesson.ID,
		IsCompleted:    completed,
		CourseProgress: e.Progress,
		CourseComplete: e.IsCompleted(),
	})
}

func (api *progressApi) updateWatchDuration(ctx echo.Context) error {
	userID, lesson, err := lessonContext(ctx)
	if err != nil {
		return err
	}
	var data WatchDurationRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WatchDurationRequest")
	}
	if err = data.Validate(api.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if err = api.ProgressSvc.UpdateWatchDuration(reqCtx, userID, lesson.ID, *data.Seconds); err != nil {
		return err
	}
	lp, err := api.ProgressSvc.Get(reqCtx, userID, lesson.ID)
	if err != nil {
		return errors.Wrap(err, "getting lesson progress")
	}
	return ctx.JSON(http.StatusOK, lp)
}

func lessonContext(ctx echo.Context) (int, course.Lesson, error) {
	userID, err := contextUserID(ctx)
	if err != nil {
		return 0, course.Lesson{}, err
	}
	lesson, err := contextLesson(ctx)
	if err != nil {
		return 0, course.Lesson{}, err
	}
	return userID, lesson, nil
}
