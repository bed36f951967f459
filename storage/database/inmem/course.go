package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/user"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCategory(_ context.Context, cat course.Category, _ ...core.DBExecutor) (course.Category, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cat.ID = repo.db.nextID("categories")
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if c.CategoryID.Valid {
		if _, ok := repo.db.categories[c.CategoryID.Int]; !ok {
			return course.Course{}, course.ErrCategoryNotFound
		}
	}
	if c.InstructorID.Valid {
		if _, ok := repo.db.users[c.InstructorID.Int]; !ok {
			return course.Course{}, user.ErrNotFound
		}
	}
	c.ID = repo.db.nextID("courses")
	c.CategoryName = null.String{}
	c.InstructorName = null.String{}
	repo.db.courses[c.ID] = &c
	return repo.joinCourse(c), nil
}

func (repo *courseRepository) CreateModule(_ context.Context, m course.Module, _ ...core.DBExecutor) (course.Module, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[m.CourseID]; !ok {
		return course.Module{}, course.ErrNotFound
	}
	m.ID = repo.db.nextID("modules")
	repo.db.modules[m.ID] = &m
	return m, nil
}

func (repo *courseRepository) CreateLesson(_ context.Context, l course.Lesson, _ ...core.DBExecutor) (course.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.modules[l.ModuleID]; !ok {
		return course.Lesson{}, course.ErrModuleNotFound
	}
	l.ID = repo.db.nextID("lessons")
	repo.db.lessons[l.ID] = &l
	return repo.joinLesson(l), nil
}

// joinCourse must be called with the lock held.
func (repo *courseRepository) joinCourse(c course.Course) course.Course {
	if cat, ok := repo.db.categories[c.CategoryID.Int]; c.CategoryID.Valid && ok {
		c.CategoryName = null.StringFrom(cat.Name)
	}
	if usr, ok := repo.db.users[c.InstructorID.Int]; c.InstructorID.Valid && ok {
		c.InstructorName = null.StringFrom(usr.FullName)
	}
	return c
}

// joinLesson must be called with the lock held.
func (repo *courseRepository) joinLesson(l course.Lesson) course.Lesson {
	if m, ok := repo.db.modules[l.ModuleID]; ok {
		l.CourseID = m.CourseID
		l.ModuleTitle = m.Title
	}
	return l
}

func (repo *courseRepository) GetCourse(_ context.Context, id int, _ ...core.DBExecutor) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return repo.joinCourse(*c), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetLesson(_ context.Context, id int, _ ...core.DBExecutor) (course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return repo.joinLesson(*l), nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) QueryModules(_ context.Context, courseID int, _ ...core.DBExecutor) ([]course.Module, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.courseModules(courseID), nil
}

func (repo *courseRepository) QueryLessons(_ context.Context, courseID int, _ ...core.DBExecutor) ([]course.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lessons := make([]course.Lesson, 0)
	for _, l := range repo.db.courseLessons(courseID) {
		lessons = append(lessons, repo.joinLesson(l))
	}
	return lessons, nil
}

// courseModules returns the modules of a course in display order. Must be called with the lock held.
func (db *DB) courseModules(courseID int) []course.Module {
	modules := make([]course.Module, 0)
	for _, m := range db.modules {
		if m.CourseID == courseID {
			modules = append(modules, *m)
		}
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].OrderIndex != modules[j].OrderIndex {
			return modules[i].OrderIndex < modules[j].OrderIndex
		}
		return modules[i].ID < modules[j].ID
	})
	return modules
}

// courseLessons returns the lessons of a course in display order. Must be called with the lock held.
func (db *DB) courseLessons(courseID int) []course.Lesson {
	lessons := make([]course.Lesson, 0)
	for _, m := range db.courseModules(courseID) {
		moduleLessons := make([]course.Lesson, 0)
		for _, l := range db.lessons {
			if l.ModuleID == m.ID {
				moduleLessons = append(moduleLessons, *l)
			}
		}
		sort.Slice(moduleLessons, func(i, j int) bool {
			if moduleLessons[i].OrderIndex != moduleLessons[j].OrderIndex {
				return moduleLessons[i].OrderIndex < moduleLessons[j].OrderIndex
			}
			return moduleLessons[i].ID < moduleLessons[j].ID
		})
		lessons = append(lessons, moduleLessons...)
	}
	return lessons
}
