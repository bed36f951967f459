package enrollment

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/kat-co/vala"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/user"
)

const completionEmailTemplate = "course_completed"

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrCourseNotFound  = errors.New("course not found")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

type (
	Repository interface {
		// CreateEnrollment returns ErrAlreadyEnrolled or ErrCourseNotFound on the matching constraint violation.
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		EnrollmentExists(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error)
		GetEnrollment(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (Enrollment, error)
		// QueryEnrollments returns a page of the user's enrollments, ordered by enrolled at descending.
		QueryEnrollments(ctx context.Context, userID int, page core.Page, exec ...core.DBExecutor) ([]Summary, error)
		// QueryAllEnrollments returns every enrollment matching the filter, ordered by id.
		QueryAllEnrollments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Enrollment, error)
		CountEnrollments(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) (int, error)
		// UpdateProgress returns ErrNotFound when the user is not enrolled.
		UpdateProgress(ctx context.Context, userID, courseID, progress int, exec ...core.DBExecutor) error
		// SetCompleted sets progress to 100 and completed at to at, unless the enrollment is already completed.
		// It returns ErrNotFound when the user is not enrolled.
		SetCompleted(ctx context.Context, userID, courseID int, at time.Time, exec ...core.DBExecutor) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, userID, courseID int, exec ...core.DBExecutor) (bool, error)
	}

	CourseGetter interface {
		GetByID(ctx context.Context, id int) (course.Course, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id int) (user.User, error)
	}

	// ProgressCalculator derives the completion percentage of a course from lesson progress.
	ProgressCalculator interface {
		CourseProgressPercentage(ctx context.Context, userID, courseID int) (int, error)
	}

	Service struct {
		conf     *core.Config
		logger   core.Logger
		repo     Repository
		courses  CourseGetter
		users    UserGetter
		progress ProgressCalculator
		emailSvc core.EmailService
	}
)

func NewService(
	conf *core.Config,
	logger core.Logger,
	repo Repository,
	courses CourseGetter,
	users UserGetter,
	progress ProgressCalculator,
	emailSvc core.EmailService,
) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(logger, "logger"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(courses, "courses"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(progress, "progress"),
		vala.IsNotNil(emailSvc, "emailSvc"),
	).CheckAndPanic()

	return &Service{
		conf:     conf,
		logger:   logger,
		repo:     repo,
		courses:  courses,
		users:    users,
		progress: progress,
		emailSvc: emailSvc,
	}
}

// Enroll registers the user in the course with no progress.
func (svc *Service) Enroll(ctx context.Context, userID, courseID int) (Enrollment, error) {
	if _, err := svc.courses.GetByID(ctx, courseID); err != nil {
		if err == course.ErrNotFound {
			return Enrollment{}, ErrCourseNotFound
		}
		return Enrollment{}, err
	}
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
		Progress:   MinProgress,
	})
}

func (svc *Service) IsEnrolled(ctx context.Context, userID, courseID int) (bool, error) {
	return svc.repo.EnrollmentExists(ctx, userID, courseID)
}

func (svc *Service) Get(ctx context.Context, userID, courseID int) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}

// Unenroll reports whether an enrollment was removed. Removing a missing enrollment is not an error.
func (svc *Service) Unenroll(ctx context.Context, userID, courseID int) (bool, error) {
	return svc.repo.DeleteEnrollment(ctx, userID, courseID)
}

// List returns the requested page of the user's enrollments. The page size is fixed by config.
func (svc *Service) List(ctx context.Context, userID, pageNumber int) (Listing, error) {
	page := core.NewPage(pageNumber, svc.conf.Learning.PageSize)
	total, err := svc.repo.CountEnrollments(ctx, QueryFilter{UserID: userID})
	if err != nil {
		return Listing{}, err
	}
	listing := Listing{Page: page, Total: total, Results: []Summary{}}
	if page.Offset() >= total {
		return listing, nil
	}
	if listing.Results, err = svc.repo.QueryEnrollments(ctx, userID, page); err != nil {
		return Listing{}, err
	}
	return listing, nil
}

// UpdateProgress overwrites the stored progress. Completion is left untouched.
func (svc *Service) UpdateProgress(ctx context.Context, userID, courseID, progress int) error {
	if progress < MinProgress || progress > MaxProgress {
		return ErrInvalidProgress
	}
	return svc.repo.UpdateProgress(ctx, userID, courseID, progress)
}

// MarkCompleted sets the progress to 100 and stamps the completion time the first time it is called.
// The completion email is only sent on that first call.
func (svc *Service) MarkCompleted(ctx context.Context, userID, courseID int) (Enrollment, error) {
	at := time.Now().UTC().Truncate(time.Microsecond) // timestamptz precision
	e, err := svc.repo.SetCompleted(ctx, userID, courseID, at)
	if err != nil {
		return Enrollment{}, err
	}
	if e.CompletedAt.Time.Equal(at) {
		svc.notifyCompletion(ctx, e)
	}
	return e, nil
}

// SyncProgress refreshes the stored progress from lesson progress, completing the enrollment at 100.
func (svc *Service) SyncProgress(ctx context.Context, userID, courseID int) (Enrollment, error) {
	e, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	pct, err := svc.progress.CourseProgressPercentage(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	switch {
	case pct == MaxProgress && !e.IsCompleted():
		return svc.MarkCompleted(ctx, userID, courseID)
	case pct != e.Progress:
		if err = svc.repo.UpdateProgress(ctx, userID, courseID, pct); err != nil {
			return Enrollment{}, err
		}
		e.Progress = pct
	}
	return e, nil
}

// SyncAll refreshes every enrollment matching the filter and returns how many were processed.
// It stops on the first failure.
func (svc *Service) SyncAll(ctx context.Context, filter QueryFilter) (int, error) {
	enrollments, err := svc.repo.QueryAllEnrollments(ctx, filter)
	if err != nil {
		return 0, err
	}
	for i, e := range enrollments {
		if _, err = svc.SyncProgress(ctx, e.UserID, e.CourseID); err != nil {
			return i, err
		}
	}
	return len(enrollments), nil
}

func (svc *Service) CountByCourse(ctx context.Context, courseID int) (int, error) {
	return svc.repo.CountEnrollments(ctx, QueryFilter{CourseID: courseID})
}

func (svc *Service) CountAll(ctx context.Context) (int, error) {
	return svc.repo.CountEnrollments(ctx, QueryFilter{})
}

// notifyCompletion emails the learner. Failures are logged, never returned.
func (svc *Service) notifyCompletion(ctx context.Context, e Enrollment) {
	usr, err := svc.users.GetByID(ctx, e.UserID)
	if err != nil {
		svc.logger.Error("enrollment.notifyCompletion.GetUser", err)
		return
	}
	c, err := svc.courses.GetByID(ctx, e.CourseID)
	if err != nil {
		svc.logger.Error("enrollment.notifyCompletion.GetCourse", err, usr)
		return
	}

	svc.emailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName, Address: usr.Email}},
		Subject:      "Course completed: " + c.Title,
		TemplateName: completionEmailTemplate,
		TemplateData: map[string]interface{}{
			"Name":        usr.FullName,
			"CourseTitle": c.Title,
			"CourseSlug":  c.Slug,
		},
	})
}
