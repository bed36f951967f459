package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/enrollment"
)

type (
	enrollmentApi struct {
		*Server
	}

	listingResponse struct {
		enrollment.Listing
		HasNext bool `json:"has_next"`
	}

	courseDetailResponse struct {
		course.Outline
		LessonCount   int  `json:"lesson_count"`
		EnrolledCount int  `json:"enrolled_count"`
		IsEnrolled    bool `json:"is_enrolled"`
	}

	statsResponse struct {
		Enrollments int `json:"enrollments"`
	}
)

func registerEnrollmentAPI(s *Server, g *echo.Group, jwt echo.MiddlewareFunc) {
	api := enrollmentApi{s}

	g.GET("/enrollments", api.list, jwt)

	cg := g.Group("/courses/:courseId", jwt)
	cg.GET("", api.courseDetail)
	cg.POST("/enrollment", api.enroll)
	cg.GET("/enrollment", api.isEnrolled)
	cg.DELETE("/enrollment", api.unenroll)

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/stats", api.stats)
	eg := ag.Group("/users/:userId/courses/:courseId")
	eg.PUT("/progress", api.updateProgress)
	eg.POST("/complete", api.markCompleted)
	eg.POST("/sync", api.syncProgress)
}

func (api *enrollmentApi) list(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	listing, err := api.EnrollmentSvc.List(ctx.Request().Context(), userID, pageNumber(ctx))
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	return ctx.JSON(http.StatusOK, listingResponse{Listing: listing, HasNext: listing.HasNext()})
}

func (api *enrollmentApi) courseDetail(ctx echo.Context) error {
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
	res := courseDetailResponse{Outline: outline, LessonCount: outline.LessonCount()}
	if res.EnrolledCount, err = api.EnrollmentSvc.CountByCourse(reqCtx, courseID); err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	if res.IsEnrolled, err = api.EnrollmentSvc.IsEnrolled(reqCtx, userID, courseID); err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	courseID, err := paramID(ctx, "courseId")
	if err != nil {
		return err
	}
	e, err := api.EnrollmentSvc.Enroll(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollmentApi) isEnrolled(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	courseID, err := paramID(ctx, "courseId")
	if err != nil {
		return err
	}
	ok, err := api.EnrollmentSvc.IsEnrolled(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return errors.Wrap(err, "checking enrollment")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"enrolled": ok})
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	userID, err := contextUserID(ctx)
	if err != nil {
		return err
	}
	courseID, err := paramID(ctx, "courseId")
	if err != nil {
		return err
	}
	removed, err := api.EnrollmentSvc.Unenroll(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return errors.Wrap(err, "removing enrollment")
	}
	if !removed {
		return enrollment.ErrNotFound
	}
	return ctx.JSON(http.StatusOK, echo.Map{"removed": true})
}

func (api *enrollmentApi) updateProgress(ctx echo.Context) error {
	userID, courseID, err := adminEnrollmentParams(ctx)
	if err != nil {
		return err
	}
	var data ProgressRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProgressRequest")
	}
	if err = data.Validate(api.Validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if err = api.EnrollmentSvc.UpdateProgress(reqCtx, userID, courseID, *data.Progress); err != nil {
		return err
	}
	e, err := api.EnrollmentSvc.Get(reqCtx, userID, courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) markCompleted(ctx echo.Context) error {
	userID, courseID, err := adminEnrollmentParams(ctx)
	if err != nil {
		return err
	}
	e, err := api.EnrollmentSvc.MarkCompleted(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) syncProgress(ctx echo.Context) error {
	userID, courseID, err := adminEnrollmentParams(ctx)
	if err != nil {
		return err
	}
	e, err := api.EnrollmentSvc.SyncProgress(ctx.Request().Context(), userID, courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) stats(ctx echo.Context) error {
	n, err := api.EnrollmentSvc.CountAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting enrollments")
	}
	return ctx.JSON(http.StatusOK, statsResponse{Enrollments: n})
}

func adminEnrollmentParams(ctx echo.Context) (userID, courseID int, err error) {
	if userID, err = paramID(ctx, "userId"); err != nil {
		return 0, 0, err
	}
	if courseID, err = paramID(ctx, "courseId"); err != nil {
		return 0, 0, err
	}
	return userID, courseID, nil
}
