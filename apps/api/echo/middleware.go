package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/enrollment"
)

const contextLessonKey = "lesson"

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// enrolledMiddleware lets through users enrolled in the :courseId course.
func enrolledMiddleware(svc *enrollment.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID, err := contextUserID(ctx)
			if err != nil {
				return err
			}
			courseID, err := paramID(ctx, "courseId")
			if err != nil {
				return err
			}
			ok, err := svc.IsEnrolled(ctx.Request().Context(), userID, courseID)
			if err != nil {
				return errors.Wrap(err, "checking enrollment")
			}
			if !ok {
				return errNotEnrolled
			}
			return next(ctx)
		}
	}
}

// lessonMiddleware loads the :lessonId lesson into the context and lets through users enrolled in its course.
func lessonMiddleware(courseSvc *course.Service, enrollmentSvc *enrollment.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID, err := contextUserID(ctx)
			if err != nil {
				return err
			}
			lessonID, err := paramID(ctx, "lessonId")
			if err != nil {
				return err
			}

			reqCtx := ctx.Request().Context()
			lesson, err := courseSvc.GetLesson(reqCtx, lessonID)
			if err != nil {
				return err
			}
			ok, err := enrollmentSvc.IsEnrolled(reqCtx, userID, lesson.CourseID)
			if err != nil {
				return errors.Wrap(err, "checking enrollment")
			}
			if !ok {
				return errNotEnrolled
			}
			ctx.Set(contextLessonKey, lesson)
			return next(ctx)
		}
	}
}

func contextLesson(ctx echo.Context) (course.Lesson, error) {
	if l, ok := ctx.Get(contextLessonKey).(course.Lesson); ok {
		return l, nil
	}
	return course.Lesson{}, errors.New("lesson not found in echo.Context")
}
