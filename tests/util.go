package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/user"
	"github.com/qwaszx001001/byzantium/storage/database"
)

// PrepareDB returns a migrated and emptied test database. Tests are skipped unless ENV=TEST.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	conf := core.NewConfig()
	if !conf.TestMode {
		t.Skip("skipping database test: ENV is not TEST")
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("database.CreateIfNotExist() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(nil, db.DB, "up"); err != nil {
		t.Fatalf("database.Migrate() failed: %v", err)
	}
	ResetDB(t, db)
	return db
}

// ResetDB empties every table and restarts the id sequences.
func ResetDB(t *testing.T, db core.DBExecutor) {
	t.Helper()
	q := "TRUNCATE user_lesson_progress, user_course_enrollments, course_lessons, course_modules, courses, categories, users RESTART IDENTITY CASCADE"
	if _, err := db.ExecContext(context.Background(), q); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateUser(t *testing.T, repo user.Repository, name, uname, email, pwd, role string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		FullName:  name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = user.RoleUser
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title string, instructor *user.User) course.Course {
	t.Helper()
	now := time.Now().UTC()
	c := course.Course{
		Title:       title,
		Slug:        core.CleanString(title, true),
		IsPublished: true,
		Level:       course.LevelBeginner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if instructor != nil {
		c.InstructorID = null.IntFrom(instructor.ID)
	}
	c, err := repo.CreateCourse(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateModule(t *testing.T, repo course.Repository, courseID int, title string, order int) course.Module {
	t.Helper()
	m, err := repo.CreateModule(context.Background(), course.Module{
		CourseID:   courseID,
		Title:      title,
		OrderIndex: order,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return m
}

func CreateLesson(t *testing.T, repo course.Repository, moduleID int, title string, order int) course.Lesson {
	t.Helper()
	l, err := repo.CreateLesson(context.Background(), course.Lesson{
		ModuleID:   moduleID,
		Title:      title,
		Duration:   10,
		OrderIndex: order,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return l
}
