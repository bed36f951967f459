package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/user"
)

const (
	categoriesTable = "categories"
	coursesTable    = "courses"
	modulesTable    = "course_modules"
	lessonsTable    = "course_lessons"
)

var (
	courseSelect = psql.Select(
		"c.id", "c.title", "c.slug", "c.description", "c.thumbnail", "c.category_id", "c.instructor_id",
		"c.is_published", "c.duration", "c.level", "c.created_at", "c.updated_at",
		"cat.name AS category_name", "u.full_name AS instructor_name",
	).
		From(coursesTable + " c").
		LeftJoin(categoriesTable + " cat ON cat.id = c.category_id").
		LeftJoin(usersTable + " u ON u.id = c.instructor_id")

	// lessons in display order: module order, then lesson order, insertion order breaking ties
	lessonSelect = psql.Select(
		"l.id", "l.module_id", "l.title", "l.content", "l.video_url", "l.duration", "l.order_index", "l.created_at",
		"m.course_id", "m.title AS module_title",
	).
		From(lessonsTable + " l").
		Join(modulesTable + " m ON m.id = l.module_id")
	lessonOrdering = []string{"m.order_index", "m.id", "l.order_index", "l.id"}
)

type courseRepository struct {
	repository
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) *courseRepository {
	return &courseRepository{repository{exec: exec}}
}

func (repo courseRepository) CreateCategory(ctx context.Context, cat course.Category, exec ...core.DBExecutor) (course.Category, error) {
	q, args, err := toSQL(psql.Insert(categoriesTable).
		Columns("name", "slug", "description", "created_at").
		Values(cat.Name, cat.Slug, cat.Description, cat.CreatedAt).
		Suffix("RETURNING id, name, slug, description, created_at"), "building category insert")
	if err != nil {
		return course.Category{}, err
	}

	var created course.Category
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &created, q, args...); err != nil {
		return course.Category{}, errors.Wrap(err, "inserting category")
	}
	return created, nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course, exec ...core.DBExecutor) (course.Course, error) {
	q, args, err := toSQL(psql.Insert(coursesTable).
		Columns("title", "slug", "description", "thumbnail", "category_id", "instructor_id",
			"is_published", "duration", "level", "created_at", "updated_at").
		Values(c.Title, c.Slug, c.Description, c.Thumbnail, c.CategoryID, c.InstructorID,
			c.IsPublished, c.Duration, c.Level, c.CreatedAt, c.UpdatedAt).
		Suffix("RETURNING id"), "building course insert")
	if err != nil {
		return course.Course{}, err
	}

	exe := repo.getExec(exec)
	var id int
	if err = sqlx.GetContext(ctx, exe, &id, q, args...); err != nil {
		if constraint, ok := constraintViolation(err, foreignKeyViolation); ok {
			if constraint == "courses_category_id_fkey" {
				return course.Course{}, course.ErrCategoryNotFound
			}
			return course.Course{}, user.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, id, exe)
}

func (repo courseRepository) CreateModule(ctx context.Context, m course.Module, exec ...core.DBExecutor) (course.Module, error) {
	q, args, err := toSQL(psql.Insert(modulesTable).
		Columns("course_id", "title", "description", "order_index", "created_at").
		Values(m.CourseID, m.Title, m.Description, m.OrderIndex, m.CreatedAt).
		Suffix("RETURNING id, course_id, title, description, order_index, created_at"), "building module insert")
	if err != nil {
		return course.Module{}, err
	}

	var created course.Module
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &created, q, args...); err != nil {
		if _, ok := constraintViolation(err, foreignKeyViolation); ok {
			return course.Module{}, course.ErrNotFound
		}
		return course.Module{}, errors.Wrap(err, "inserting module")
	}
	return created, nil
}

func (repo courseRepository) CreateLesson(ctx context.Context, l course.Lesson, exec ...core.DBExecutor) (course.Lesson, error) {
	q, args, err := toSQL(psql.Insert(lessonsTable).
		Columns("module_id", "title", "content", "video_url", "duration", "order_index", "created_at").
		Values(l.ModuleID, l.Title, l.Content, l.VideoURL, l.Duration, l.OrderIndex, l.CreatedAt).
		Suffix("RETURNING id"), "building lesson insert")
	if err != nil {
		return course.Lesson{}, err
	}

	exe := repo.getExec(exec)
	var id int
	if err = sqlx.GetContext(ctx, exe, &id, q, args...); err != nil {
		if _, ok := constraintViolation(err, foreignKeyViolation); ok {
			return course.Lesson{}, course.ErrModuleNotFound
		}
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return repo.GetLesson(ctx, id, exe)
}

func (repo courseRepository) GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (course.Course, error) {
	q, args, err := toSQL(courseSelect.Where(sq.Eq{"c.id": id}), "building course query")
	if err != nil {
		return course.Course{}, err
	}

	var c course.Course
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &c, q, args...); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return c, nil
}

func (repo courseRepository) GetLesson(ctx context.Context, id int, exec ...core.DBExecutor) (course.Lesson, error) {
	q, args, err := toSQL(lessonSelect.Where(sq.Eq{"l.id": id}), "building lesson query")
	if err != nil {
		return course.Lesson{}, err
	}

	var l course.Lesson
	if err = sqlx.GetContext(ctx, repo.getExec(exec), &l, q, args...); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "finding lesson")
	}
	return l, nil
}

func (repo courseRepository) QueryModules(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]course.Module, error) {
	q, args, err := toSQL(psql.Select("id", "course_id", "title", "description", "order_index", "created_at").
		From(modulesTable).
		Where(sq.Eq{"course_id": courseID}).
		OrderBy("order_index", "id"), "building modules query")
	if err != nil {
		return nil, err
	}

	modules := make([]course.Module, 0)
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &modules, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	return modules, nil
}

func (repo courseRepository) QueryLessons(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]course.Lesson, error) {
	q, args, err := toSQL(lessonSelect.Where(sq.Eq{"m.course_id": courseID}).OrderBy(lessonOrdering...), "building lessons query")
	if err != nil {
		return nil, err
	}

	lessons := make([]course.Lesson, 0)
	if err = sqlx.SelectContext(ctx, repo.getExec(exec), &lessons, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	return lessons, nil
}
