package inmemdb

import (
	"sync"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/enrollment"
	"github.com/qwaszx001001/byzantium/core/progress"
	"github.com/qwaszx001001/byzantium/core/user"
)

type (
	// DB keeps every table in memory behind a single lock and enforces the same
	// uniqueness and foreign key rules as the SQL schema.
	DB struct {
		mu sync.RWMutex

		users          map[int]*user.User
		categories     map[int]*course.Category
		courses        map[int]*course.Course
		modules        map[int]*course.Module
		lessons        map[int]*course.Lesson
		enrollments    map[int]*enrollment.Enrollment
		lessonProgress map[int]*progress.LessonProgress

		pk map[string]int
	}

	userLessonKey struct {
		userID   int
		lessonID int
	}
)

func Open() *DB {
	return &DB{
		users:          make(map[int]*user.User),
		categories:     make(map[int]*course.Category),
		courses:        make(map[int]*course.Course),
		modules:        make(map[int]*course.Module),
		lessons:        make(map[int]*course.Lesson),
		enrollments:    make(map[int]*enrollment.Enrollment),
		lessonProgress: make(map[int]*progress.LessonProgress),
		pk:             make(map[string]int),
	}
}

// nextID must be called with the write lock held.
func (db *DB) nextID(table string) int {
	db.pk[table]++
	return db.pk[table]
}

// lessonCourseID resolves the course of a lesson through its module.
func (db *DB) lessonCourseID(l *course.Lesson) int {
	if m, ok := db.modules[l.ModuleID]; ok {
		return m.CourseID
	}
	return 0
}

func (db *DB) findEnrollment(userID, courseID int) *enrollment.Enrollment {
	for _, e := range db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return e
		}
	}
	return nil
}

func (db *DB) findLessonProgress(userID, lessonID int) *progress.LessonProgress {
	for _, lp := range db.lessonProgress {
		if lp.UserID == userID && lp.LessonID == lessonID {
			return lp
		}
	}
	return nil
}

// progressIndex maps the user's progress rows by lesson.
func (db *DB) progressIndex(userID int) map[int]*progress.LessonProgress {
	idx := make(map[int]*progress.LessonProgress)
	for _, lp := range db.lessonProgress {
		if lp.UserID == userID {
			idx[lp.LessonID] = lp
		}
	}
	return idx
}
