package progress

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"

	"github.com/qwaszx001001/byzantium/core"
)

var (
	// errors
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrInvalidWatchDuration = errors.New("watch duration cannot be negative")
)

type (
	Repository interface {
		// UpsertCompletion creates or overwrites the (user, lesson) row as completed at the given time.
		// It returns ErrLessonNotFound for an unknown lesson.
		UpsertCompletion(ctx context.Context, userID, lessonID int, at time.Time, exec ...core.DBExecutor) error
		// ClearCompletion marks an existing row as not completed. It never creates a row.
		ClearCompletion(ctx context.Context, userID, lessonID int, exec ...core.DBExecutor) error
		// GetLessonProgress reports found=false when the lesson was never started.
		GetLessonProgress(ctx context.Context, userID, lessonID int, exec ...core.DBExecutor) (lp LessonProgress, found bool, err error)
		// UpsertWatchDuration creates or overwrites the watch duration of the (user, lesson) row.
		UpsertWatchDuration(ctx context.Context, userID, lessonID, seconds int, at time.Time, exec ...core.DBExecutor) error
		// QueryCourseProgress returns every lesson of the course in display order, with the user's progress if any.
		QueryCourseProgress(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) ([]LessonStatus, error)
		CountCourseProgress(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (Stats, error)
	}

	// Service tracks per lesson completion state and derives course completion from it.
	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) MarkCompleted(ctx context.Context, userID, lessonID int) error {
	return svc.repo.UpsertCompletion(ctx, userID, lessonID, time.Now().UTC())
}

func (svc *Service) MarkIncomplete(ctx context.Context, userID, lessonID int) error {
	return svc.repo.ClearCompletion(ctx, userID, lessonID)
}

func (svc *Service) IsCompleted(ctx context.Context, userID, lessonID int) (bool, error) {
	lp, found, err := svc.repo.GetLessonProgress(ctx, userID, lessonID)
	if err != nil || !found {
		return false, err
	}
	return lp.IsCompleted, nil
}

// Get returns the user's progress on the lesson; a lesson never started yields a zero LessonProgress.
func (svc *Service) Get(ctx context.Context, userID, lessonID int) (LessonProgress, error) {
	lp, found, err := svc.repo.GetLessonProgress(ctx, userID, lessonID)
	if err != nil {
		return LessonProgress{}, err
	}
	if !found {
		return LessonProgress{UserID: userID, LessonID: lessonID}, nil
	}
	return lp, nil
}

// UpdateWatchDuration replaces the watch duration. Repeated calls do not add up.
func (svc *Service) UpdateWatchDuration(ctx context.Context, userID, lessonID, seconds int) error {
	if seconds < 0 {
		return ErrInvalidWatchDuration
	}
	return svc.repo.UpsertWatchDuration(ctx, userID, lessonID, seconds, time.Now().UTC())
}

func (svc *Service) CourseProgress(ctx context.Context, userID, courseID int) ([]LessonStatus, error) {
	return svc.repo.QueryCourseProgress(ctx, userID, courseID)
}

func (svc *Service) CourseStats(ctx context.Context, userID, courseID int) (Stats, error) {
	return svc.repo.CountCourseProgress(ctx, userID, courseID)
}

// CourseProgressPercentage is always recomputed from the live lessons and progress rows.
func (svc *Service) CourseProgressPercentage(ctx context.Context, userID, courseID int) (int, error) {
	stats, err := svc.repo.CountCourseProgress(ctx, userID, courseID)
	if err != nil {
		return 0, err
	}
	return stats.Percentage(), nil
}
