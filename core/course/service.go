package course

import (
	"context"
	"errors"
	"time"

	"github.com/kat-co/vala"

	"github.com/qwaszx001001/byzantium/core"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrModuleNotFound   = errors.New("module not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type (
	// Repository is the read side of the course catalogue, plus the inserts needed to seed it.
	Repository interface {
		CreateCategory(ctx context.Context, cat Category, exec ...core.DBExecutor) (Category, error)
		CreateCourse(ctx context.Context, c Course, exec ...core.DBExecutor) (Course, error)
		CreateModule(ctx context.Context, m Module, exec ...core.DBExecutor) (Module, error)
		CreateLesson(ctx context.Context, l Lesson, exec ...core.DBExecutor) (Lesson, error)

		GetCourse(ctx context.Context, id int, exec ...core.DBExecutor) (Course, error)
		GetLesson(ctx context.Context, id int, exec ...core.DBExecutor) (Lesson, error)
		// QueryModules returns the course modules ordered by order index, then id.
		QueryModules(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]Module, error)
		// QueryLessons returns the course lessons ordered by module order index, module id, lesson order index, then id.
		QueryLessons(ctx context.Context, courseID int, exec ...core.DBExecutor) ([]Lesson, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()
	return &Service{repo: repo}
}

func (svc *Service) CreateCategory(ctx context.Context, cat Category) (Category, error) {
	cat.Name = core.CleanString(cat.Name)
	cat.Slug = core.CleanString(cat.Slug, true /* lower */)
	cat.CreatedAt = time.Now().UTC()
	return svc.repo.CreateCategory(ctx, cat)
}

func (svc *Service) CreateCourse(ctx context.Context, c Course) (Course, error) {
	now := time.Now().UTC()
	c.Title = core.CleanString(c.Title)
	c.Slug = core.CleanString(c.Slug, true /* lower */)
	if c.Level == "" {
		c.Level = LevelBeginner
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return svc.repo.CreateCourse(ctx, c)
}

func (svc *Service) CreateModule(ctx context.Context, m Module) (Module, error) {
	m.Title = core.CleanString(m.Title)
	m.CreatedAt = time.Now().UTC()
	return svc.repo.CreateModule(ctx, m)
}

func (svc *Service) CreateLesson(ctx context.Context, l Lesson) (Lesson, error) {
	l.Title = core.CleanString(l.Title)
	l.CreatedAt = time.Now().UTC()
	return svc.repo.CreateLesson(ctx, l)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetLesson(ctx context.Context, id int) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *Service) Lessons(ctx context.Context, courseID int) ([]Lesson, error) {
	return svc.repo.QueryLessons(ctx, courseID)
}

// Outline returns the course with its modules and their lessons.
func (svc *Service) Outline(ctx context.Context, courseID int) (Outline, error) {
	c, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return Outline{}, err
	}
	modules, err := svc.repo.QueryModules(ctx, courseID)
	if err != nil {
		return Outline{}, err
	}
	lessons, err := svc.repo.QueryLessons(ctx, courseID)
	if err != nil {
		return Outline{}, err
	}

	outline := Outline{Course: c, Modules: make([]OutlineModule, 0, len(modules))}
	idx := make(map[int]int, len(modules)) // module ID -> position in outline
	for i, m := range modules {
		idx[m.ID] = i
		outline.Modules = append(outline.Modules, OutlineModule{Module: m, Lessons: []Lesson{}})
	}
	for _, l := range lessons {
		if i, ok := idx[l.ModuleID]; ok {
			outline.Modules[i].Lessons = append(outline.Modules[i].Lessons, l)
		}
	}
	return outline, nil
}
