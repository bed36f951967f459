package progress_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/progress"
	"github.com/qwaszx001001/byzantium/core/user"
	"github.com/qwaszx001001/byzantium/storage/database/inmem"
	"github.com/qwaszx001001/byzantium/tests"
)

type fixture struct {
	svc        *progress.Service
	usr        user.User
	other      user.User
	courseRepo course.Repository
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	return fixture{
		svc:        progress.NewService(inmemdb.NewProgressRepository(db)),
		usr:        testutil.CreateUser(t, usrRepo, "Anna Komnene", "anna", "anna@byz.test", "", ""),
		other:      testutil.CreateUser(t, usrRepo, "Michael Psellos", "psellos", "psellos@byz.test", "", ""),
		courseRepo: inmemdb.NewCourseRepository(db),
	}
}

// fourLessons creates a course with 4 lessons split over 2 modules.
func (f fixture) fourLessons(t *testing.T) (course.Course, []course.Lesson) {
	c := testutil.CreateCourse(t, f.courseRepo, "Iconoclasm", nil)
	m1 := testutil.CreateModule(t, f.courseRepo, c.ID, "First period", 0)
	m2 := testutil.CreateModule(t, f.courseRepo, c.ID, "Second period", 1)
	return c, []course.Lesson{
		testutil.CreateLesson(t, f.courseRepo, m1.ID, "Leo III", 0),
		testutil.CreateLesson(t, f.courseRepo, m1.ID, "Hieria", 1),
		testutil.CreateLesson(t, f.courseRepo, m2.ID, "Nicaea II", 0),
		testutil.CreateLesson(t, f.courseRepo, m2.ID, "Triumph of Orthodoxy", 1),
	}
}

func TestService_IsCompleted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, lessons := f.fourLessons(t)
	l := lessons[0]

	done, err := f.svc.IsCompleted(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.False(t, done, "never started")

	require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, l.ID))
	done, err = f.svc.IsCompleted(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.True(t, done, "after MarkCompleted")

	done, err = f.svc.IsCompleted(ctx, f.other.ID, l.ID)
	require.NoError(t, err)
	assert.False(t, done, "other user")

	require.NoError(t, f.svc.MarkIncomplete(ctx, f.usr.ID, l.ID))
	done, err = f.svc.IsCompleted(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.False(t, done, "after MarkIncomplete")

	lp, err := f.svc.Get(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.False(t, lp.CompletedAt.Valid)

	// completed again
	require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, l.ID))
	require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, l.ID))
	done, err = f.svc.IsCompleted(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestService_MarkIncomplete_noRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, lessons := f.fourLessons(t)

	require.NoError(t, f.svc.MarkIncomplete(ctx, f.usr.ID, lessons[1].ID))

	lp, err := f.svc.Get(ctx, f.usr.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Zero(t, lp.ID, "no row must be created")
	done, err := f.svc.IsCompleted(ctx, f.usr.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestService_MarkCompleted_unknownLesson(t *testing.T) {
	f := setup(t)
	err := f.svc.MarkCompleted(context.Background(), f.usr.ID, 404)
	assert.Equal(t, progress.ErrLessonNotFound, err)
}

func TestService_UpdateWatchDuration(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, lessons := f.fourLessons(t)
	l := lessons[0]

	require.NoError(t, f.svc.UpdateWatchDuration(ctx, f.usr.ID, l.ID, 30))
	require.NoError(t, f.svc.UpdateWatchDuration(ctx, f.usr.ID, l.ID, 45))

	lp, err := f.svc.Get(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, lp.WatchDuration, "last write wins")
	assert.False(t, lp.IsCompleted, "watching does not complete")

	assert.Equal(t, progress.ErrInvalidWatchDuration, f.svc.UpdateWatchDuration(ctx, f.usr.ID, l.ID, -1))

	// completion keeps the watch duration
	require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, l.ID))
	lp, err = f.svc.Get(ctx, f.usr.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 45, lp.WatchDuration)
	assert.True(t, lp.IsCompleted)
}

func TestService_CourseProgressPercentage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c, lessons := f.fourLessons(t)

	empty := testutil.CreateCourse(t, f.courseRepo, "Empty", nil)
	pct, err := f.svc.CourseProgressPercentage(ctx, f.usr.ID, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct, "zero lessons")

	pct, err = f.svc.CourseProgressPercentage(ctx, f.usr.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct)

	for i, want := range []int{25, 50, 75, 100} {
		require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, lessons[i].ID))
		pct, err = f.svc.CourseProgressPercentage(ctx, f.usr.ID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, want, pct)
	}

	// recomputed when lessons are added
	m := testutil.CreateModule(t, f.courseRepo, c.ID, "Aftermath", 2)
	testutil.CreateLesson(t, f.courseRepo, m.ID, "Photios", 0)
	stats, err := f.svc.CourseStats(ctx, f.usr.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, progress.Stats{Total: 5, Completed: 4}, stats)
	assert.Equal(t, 80, stats.Percentage())

	pct, err = f.svc.CourseProgressPercentage(ctx, f.other.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, pct, "other user")
}

func TestService_CourseProgress(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// modules and lessons are created out of order on purpose
	c := testutil.CreateCourse(t, f.courseRepo, "Macedonian dynasty", nil)
	m2 := testutil.CreateModule(t, f.courseRepo, c.ID, "M2", 1)
	m1 := testutil.CreateModule(t, f.courseRepo, c.ID, "M1", 0)
	l3 := testutil.CreateLesson(t, f.courseRepo, m2.ID, "L3", 0)
	l2 := testutil.CreateLesson(t, f.courseRepo, m1.ID, "L2", 1)
	l1 := testutil.CreateLesson(t, f.courseRepo, m1.ID, "L1", 0)

	require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, l1.ID))
	require.NoError(t, f.svc.MarkCompleted(ctx, f.usr.ID, l3.ID))
	require.NoError(t, f.svc.UpdateWatchDuration(ctx, f.usr.ID, l2.ID, 12))

	statuses, err := f.svc.CourseProgress(ctx, f.usr.ID, c.ID)
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	type row struct {
		LessonID    int
		ModuleTitle string
		Completed   bool
		Watched     int
	}
	got := make([]row, 0, len(statuses))
	for _, st := range statuses {
		got = append(got, row{st.LessonID, st.ModuleTitle, st.IsCompleted, st.WatchDuration})
		assert.Equal(t, st.IsCompleted, st.CompletedAt.Valid)
	}
	assert.Equal(t, []row{
		{l1.ID, "M1", true, 0},
		{l2.ID, "M1", false, 12},
		{l3.ID, "M2", true, 0},
	}, got)

	pct, err := f.svc.CourseProgressPercentage(ctx, f.usr.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 67, pct)
}
