package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/enrollment"
	"github.com/qwaszx001001/byzantium/core/user"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment, _ ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[e.UserID]; !ok {
		return enrollment.Enrollment{}, user.ErrNotFound
	}
	if _, ok := repo.db.courses[e.CourseID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrCourseNotFound
	}
	if repo.db.findEnrollment(e.UserID, e.CourseID) != nil {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
	}
	e.ID = repo.db.nextID("enrollments")
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *enrollmentRepository) EnrollmentExists(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.findEnrollment(userID, courseID) != nil, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e := repo.db.findEnrollment(userID, courseID); e != nil {
		return *e, nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

// filter returns the matching enrollments ordered by id. Must be called with the lock held.
func (repo *enrollmentRepository) filter(f enrollment.QueryFilter) []enrollment.Enrollment {
	res := make([]enrollment.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if f.UserID != 0 && e.UserID != f.UserID {
			continue
		}
		if f.CourseID != 0 && e.CourseID != f.CourseID {
			continue
		}
		res = append(res, *e)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, userID int, page core.Page, _ ...core.DBExecutor) ([]enrollment.Summary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	enrollments := repo.filter(enrollment.QueryFilter{UserID: userID})
	sort.SliceStable(enrollments, func(i, j int) bool {
		if !enrollments[i].EnrolledAt.Equal(enrollments[j].EnrolledAt) {
			return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt)
		}
		return enrollments[i].ID > enrollments[j].ID
	})

	summaries := make([]enrollment.Summary, 0, page.Limit())
	for i := page.Offset(); i < len(enrollments) && len(summaries) < page.Limit(); i++ {
		e := enrollments[i]
		s := enrollment.Summary{Enrollment: e}
		if c, ok := repo.db.courses[e.CourseID]; ok {
			s.CourseTitle = c.Title
			s.CourseSlug = c.Slug
			s.Thumbnail = c.Thumbnail
			s.Duration = c.Duration
			s.Level = c.Level
			if cat, ok := repo.db.categories[c.CategoryID.Int]; c.CategoryID.Valid && ok {
				s.CategoryName = null.StringFrom(cat.Name)
			}
			if usr, ok := repo.db.users[c.InstructorID.Int]; c.InstructorID.Valid && ok {
				s.InstructorName = null.StringFrom(usr.FullName)
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func (repo *enrollmentRepository) QueryAllEnrollments(_ context.Context, f enrollment.QueryFilter, _ ...core.DBExecutor) ([]enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.filter(f), nil
}

func (repo *enrollmentRepository) CountEnrollments(_ context.Context, f enrollment.QueryFilter, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.filter(f)), nil
}

func (repo *enrollmentRepository) UpdateProgress(_ context.Context, userID, courseID, progress int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	e := repo.db.findEnrollment(userID, courseID)
	if e == nil {
		return enrollment.ErrNotFound
	}
	e.Progress = progress
	return nil
}

func (repo *enrollmentRepository) SetCompleted(_ context.Context, userID, courseID int, at time.Time, _ ...core.DBExecutor) (enrollment.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	e := repo.db.findEnrollment(userID, courseID)
	if e == nil {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	e.Progress = enrollment.MaxProgress
	if !e.CompletedAt.Valid {
		e.CompletedAt = null.TimeFrom(at)
	}
	return *e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	e := repo.db.findEnrollment(userID, courseID)
	if e == nil {
		return false, nil
	}
	delete(repo.db.enrollments, e.ID)
	return true, nil
}
