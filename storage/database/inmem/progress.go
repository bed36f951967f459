package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/progress"
	"github.com/qwaszx001001/byzantium/core/user"
)

type progressRepository struct {
	db *DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db}
}

// upsert returns the (user, lesson) row, creating it when missing. Must be called with the write lock held.
func (repo *progressRepository) upsert(userID, lessonID int, at time.Time) (*progress.LessonProgress, error) {
	if lp := repo.db.findLessonProgress(userID, lessonID); lp != nil {
		return lp, nil
	}
	if _, ok := repo.db.users[userID]; !ok {
		return nil, user.ErrNotFound
	}
	if _, ok := repo.db.lessons[lessonID]; !ok {
		return nil, progress.ErrLessonNotFound
	}
	lp := &progress.LessonProgress{
		ID:        repo.db.nextID("lesson_progress"),
		UserID:    userID,
		LessonID:  lessonID,
		CreatedAt: at,
	}
	repo.db.lessonProgress[lp.ID] = lp
	return lp, nil
}

func (repo *progressRepository) UpsertCompletion(_ context.Context, userID, lessonID int, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lp, err := repo.upsert(userID, lessonID, at)
	if err != nil {
		return err
	}
	lp.IsCompleted = true
	lp.CompletedAt = null.TimeFrom(at)
	lp.UpdatedAt = at
	return nil
}

func (repo *progressRepository) ClearCompletion(_ context.Context, userID, lessonID int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if lp := repo.db.findLessonProgress(userID, lessonID); lp != nil {
		lp.IsCompleted = false
		lp.CompletedAt = null.Time{}
		lp.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (repo *progressRepository) GetLessonProgress(_ context.Context, userID, lessonID int, _ ...core.DBExecutor) (progress.LessonProgress, bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if lp := repo.db.findLessonProgress(userID, lessonID); lp != nil {
		return *lp, true, nil
	}
	return progress.LessonProgress{}, false, nil
}

func (repo *progressRepository) UpsertWatchDuration(_ context.Context, userID, lessonID, seconds int, at time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	lp, err := repo.upsert(userID, lessonID, at)
	if err != nil {
		return err
	}
	lp.WatchDuration = seconds
	lp.UpdatedAt = at
	return nil
}

func (repo *progressRepository) QueryCourseProgress(_ context.Context, userID, courseID int, _ ...core.DBExecutor) ([]progress.LessonStatus, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	idx := repo.db.progressIndex(userID)
	lessons := repo.db.courseLessons(courseID)
	statuses := make([]progress.LessonStatus, 0, len(lessons))
	for _, l := range lessons {
		st := progress.LessonStatus{
			LessonID:    l.ID,
			LessonTitle: l.Title,
			Duration:    l.Duration,
			VideoURL:    l.VideoURL,
			ModuleID:    l.ModuleID,
			ModuleTitle: repo.db.modules[l.ModuleID].Title,
		}
		if lp, ok := idx[l.ID]; ok {
			st.IsCompleted = lp.IsCompleted
			st.CompletedAt = lp.CompletedAt
			st.WatchDuration = lp.WatchDuration
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (repo *progressRepository) CountCourseProgress(_ context.Context, userID, courseID int, _ ...core.DBExecutor) (progress.Stats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var stats progress.Stats
	idx := repo.db.progressIndex(userID)
	for _, l := range repo.db.courseLessons(courseID) {
		stats.Total++
		if lp, ok := idx[l.ID]; ok && lp.IsCompleted {
			stats.Completed++
		}
	}
	return stats, nil
}
