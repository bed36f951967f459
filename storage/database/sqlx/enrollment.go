package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/enrollment"
	"github.com/qwaszx001001/byzantium/core/user"
)

const enrollmentsTable = "user_course_enrollments"

var enrollmentColumns = []string{"id", "user_id", "course_id", "enrolled_at", "completed_at", "progress"}

type enrollmentRepository struct {
	repository
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(exec core.DBExecutor) *enrollmentRepository {
	return &enrollmentRepository{repository{exec: exec}}
}

func filterEnrollments(b sq.SelectBuilder, filter enrollment.QueryFilter) sq.SelectBuilder {
	if filter.UserID != 0 {
		b = b.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.CourseID != 0 {
		b = b.Where(sq.Eq{"course_id": filter.CourseID})
	}
	return b
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	q, args, err := toSQL(psql.Insert(enrollmentsTable).
		Columns("user_id", "course_id", "enrolled_at", "progress").
		Values(e.UserID, e.CourseID, e.EnrolledAt, e.Progress).
		Suffix("RETURNING id, user_id, course_id, enrolled_at, completed_at, progress"), "building enrollment insert")
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	var created enrollment.Enrollment
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &created, q, args...); err != nil {
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		if constraint, ok := constraintViolation(err, foreignKeyViolation); ok {
			if constraint == "enrollments_user_fk" {
				return enrollment.Enrollment{}, user.ErrNotFound
			}
			return enrollment.Enrollment{}, enrollment.ErrCourseNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return created, nil
}

func (repo enrollmentRepository) EnrollmentExists(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error) {
	q, args, err := toSQL(psql.Select("1").
		Prefix("SELECT EXISTS (").
		From(enrollmentsTable).
		Where(sq.Eq{"user_id": userID, "course_id": courseID}).
		Suffix(")"), "building enrollment exists query")
	if err != nil {
		return false, err
	}

	var exists bool
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &exists, q, args...); err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return exists, nil
}

func (repo enrollmentRepository) GetEnrollment(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	q, args, err := toSQL(psql.Select(enrollmentColumns...).
		From(enrollmentsTable).
		Where(sq.Eq{"user_id": userID, "course_id": courseID}), "building enrollment query")
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	var e enrollment.Enrollment
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &e, q, args...); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "finding enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) QueryEnrollments(ctx context.Context, userID int, page core.Page, exec ...core.DBExecutor) ([]enrollment.Summary, error) {
	q, args, err := toSQL(psql.Select(
		"e.id", "e.user_id", "e.course_id", "e.enrolled_at", "e.completed_at", "e.progress",
		"c.title AS course_title", "c.slug AS course_slug", "c.thumbnail", "c.duration", "c.level",
		"cat.name AS category_name", "u.full_name AS instructor_name",
	).
		From(enrollmentsTable+" e").
		Join(coursesTable+" c ON c.id = e.course_id").
		LeftJoin(categoriesTable+" cat ON cat.id = c.category_id").
		LeftJoin(usersTable+" u ON u.id = c.instructor_id").
		Where(sq.Eq{"e.user_id": userID}).
		OrderBy("e.enrolled_at DESC", "e.id DESC").
		Limit(uint64(page.Limit())).
		Offset(uint64(page.Offset())), "building enrollments query")
	if err != nil {
		return nil, err
	}

	summaries := make([]enrollment.Summary, 0)
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &summaries, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return summaries, nil
}

func (repo enrollmentRepository) QueryAllEnrollments(ctx context.Context, filter enrollment.QueryFilter, exec ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	b := filterEnrollments(psql.Select(enrollmentColumns...).From(enrollmentsTable), filter)
	q, args, err := toSQL(b.OrderBy("id"), "building enrollments query")
	if err != nil {
		return nil, err
	}

	enrollments := make([]enrollment.Enrollment, 0)
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &enrollments, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	return enrollments, nil
}

func (repo enrollmentRepository) CountEnrollments(ctx context.Context, filter enrollment.QueryFilter, exec ...core.DBExecutor) (int, error) {
	q, args, err := toSQL(filterEnrollments(psql.Select("COUNT(*)").From(enrollmentsTable), filter), "building enrollments count")
	if err != nil {
		return 0, err
	}

	var count int
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &count, q, args...); err != nil {
		return 0, errors.Wrap(err, "counting enrollments")
	}
	return count, nil
}

func (repo enrollmentRepository) update(ctx context.Context, b sq.UpdateBuilder, msg string, exec []core.DBExecutor) (int64, error) {
	q, args, err := toSQL(b, "building "+msg)
	if err != nil {
		return 0, err
	}
	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, msg)
	}
	return res.RowsAffected()
}

func (repo enrollmentRepository) UpdateProgress(ctx context.Context, userID, courseID, progress int, exec ...core.DBExecutor) error {
	n, err := repo.update(ctx, psql.Update(enrollmentsTable).
		Set("progress", progress).
		Where(sq.Eq{"user_id": userID, "course_id": courseID}), "updating enrollment progress", exec)
	if err != nil {
		return err
	}
	if n == 0 {
		return enrollment.ErrNotFound
	}
	return nil
}

func (repo enrollmentRepository) SetCompleted(ctx context.Context, userID, courseID int, at time.Time, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	q, args, err := toSQL(psql.Update(enrollmentsTable).
		Set("progress", enrollment.MaxProgress).
		Set("completed_at", sq.Expr("COALESCE(completed_at, ?)", at)).
		Where(sq.Eq{"user_id": userID, "course_id": courseID}).
		Suffix("RETURNING id, user_id, course_id, enrolled_at, completed_at, progress"), "building enrollment completion")
	if err != nil {
		return enrollment.Enrollment{}, err
	}

	var e enrollment.Enrollment
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &e, q, args...); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "completing enrollment")
	}
	return e, nil
}

func (repo enrollmentRepository) DeleteEnrollment(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error) {
	q, args, err := toSQL(psql.Delete(enrollmentsTable).
		Where(sq.Eq{"user_id": userID, "course_id": courseID}), "building enrollment delete")
	if err != nil {
		return false, err
	}
	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		return false, errors.Wrap(err, "deleting enrollment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "deleting enrollment")
	}
	return n > 0, nil
}
