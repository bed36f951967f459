package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/progress"
	"github.com/qwaszx001001/byzantium/core/user"
)

const lessonProgressTable = "user_lesson_progress"

var lessonProgressColumns = []string{"id", "user_id", "lesson_id", "is_completed", "completed_at", "watch_duration", "created_at", "updated_at"}

type progressRepository struct {
	repository
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(exec core.DBExecutor) *progressRepository {
	return &progressRepository{repository{exec: exec}}
}

// trapFKErr maps foreign key violations to the missing user or lesson.
func (repo progressRepository) trapFKErr(err error, msg string) error {
	if constraint, ok := constraintViolation(err, foreignKeyViolation); ok {
		if constraint == "lesson_progress_user_fk" {
			return user.ErrNotFound
		}
		return progress.ErrLessonNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo progressRepository) UpsertCompletion(ctx context.Context, userID, lessonID int, at time.Time, exec ...core.DBExecutor) error {
	q, args, err := toSQL(psql.Insert(lessonProgressTable).
		Columns("user_id", "lesson_id", "is_completed", "completed_at", "created_at", "updated_at").
		Values(userID, lessonID, true, at, at, at).
		Suffix("ON CONFLICT (user_id, lesson_id) DO UPDATE SET " +
			"is_completed = TRUE, completed_at = EXCLUDED.completed_at, updated_at = EXCLUDED.updated_at"),
		"building completion upsert")
	if err != nil {
		return err
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return repo.trapFKErr(err, "upserting lesson completion")
	}
	return nil
}

func (repo progressRepository) ClearCompletion(ctx context.Context, userID, lessonID int, exec ...core.DBExecutor) error {
	q, args, err := toSQL(psql.Update(lessonProgressTable).
		Set("is_completed", false).
		Set("completed_at", nil).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"user_id": userID, "lesson_id": lessonID}), "building completion reset")
	if err != nil {
		return err
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "clearing lesson completion")
	}
	return nil
}

func (repo progressRepository) GetLessonProgress(ctx context.Context, userID, lessonID int, exec ...core.DBExecutor) (progress.LessonProgress, bool, error) {
	q, args, err := toSQL(psql.Select(lessonProgressColumns...).
		From(lessonProgressTable).
		Where(sq.Eq{"user_id": userID, "lesson_id": lessonID}), "building lesson progress query")
	if err != nil {
		return progress.LessonProgress{}, false, err
	}

	var lp progress.LessonProgress
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &lp, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return progress.LessonProgress{}, false, nil
		}
		return progress.LessonProgress{}, false, errors.Wrap(err, "finding lesson progress")
	}
	return lp, true, nil
}

func (repo progressRepository) UpsertWatchDuration(ctx context.Context, userID, lessonID, seconds int, at time.Time, exec ...core.DBExecutor) error {
	q, args, err := toSQL(psql.Insert(lessonProgressTable).
		Columns("user_id", "lesson_id", "watch_duration", "created_at", "updated_at").
		Values(userID, lessonID, seconds, at, at).
		Suffix("ON CONFLICT (user_id, lesson_id) DO UPDATE SET " +
			"watch_duration = EXCLUDED.watch_duration, updated_at = EXCLUDED.updated_at"),
		"building watch duration upsert")
	if err != nil {
		return err
	}
	if _, err = repo.getExec(exec).ExecContext(ctx, q, args...); err != nil {
		return repo.trapFKErr(err, "upserting watch duration")
	}
	return nil
}

func (repo progressRepository) QueryCourseProgress(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) ([]progress.LessonStatus, error) {
	q, args, err := toSQL(psql.Select(
		"l.id AS lesson_id", "l.title AS lesson_title", "l.duration", "l.video_url",
		"m.id AS module_id", "m.title AS module_title",
		"COALESCE(p.is_completed, FALSE) AS is_completed", "p.completed_at",
		"COALESCE(p.watch_duration, 0) AS watch_duration",
	).
		From(lessonsTable+" l").
		Join(modulesTable+" m ON m.id = l.module_id").
		LeftJoin(lessonProgressTable+" p ON p.lesson_id = l.id AND p.user_id = ?", userID).
		Where(sq.Eq{"m.course_id": courseID}).
		OrderBy(lessonOrdering...), "building course progress query")
	if err != nil {
		return nil, err
	}

	statuses := make([]progress.LessonStatus, 0)
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &statuses, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying course progress")
	}
	return statuses, nil
}

func (repo progressRepository) CountCourseProgress(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (progress.Stats, error) {
	q, args, err := toSQL(psql.Select(
		"COUNT(l.id) AS total",
		"COUNT(p.id) FILTER (WHERE p.is_completed) AS completed",
	).
		From(lessonsTable+" l").
		Join(modulesTable+" m ON m.id = l.module_id").
		LeftJoin(lessonProgressTable+" p ON p.lesson_id = l.id AND p.user_id = ?", userID).
		Where(sq.Eq{"m.course_id": courseID}), "building course stats query")
	if err != nil {
		return progress.Stats{}, err
	}

	var stats progress.Stats
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &stats, q, args...); err != nil {
		return progress.Stats{}, errors.Wrap(err, "counting course progress")
	}
	return stats, nil
}
