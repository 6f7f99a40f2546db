package service

import (
	"context"
	"html/template"

	"github.com/aussiebroadwan/learn/internal/learn/content"
	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/errx"
)

// CourseSource is the course catalog. *content.Store satisfies it.
type CourseSource interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourseBySlug(ctx context.Context, moduleID string) (domain.Course, bool, error)
}

type CourseService struct {
	Source CourseSource
}

func (s *CourseService) List(ctx context.Context) ([]domain.Course, error) {
	courses, err := s.Source.ListCourses(ctx)
	if err != nil {
		return nil, errx.Wrap(errx.KindServer, "list courses", err)
	}
	return courses, nil
}

// Get returns the course for moduleID or a not found error.
func (s *CourseService) Get(ctx context.Context, moduleID string) (domain.Course, error) {
	c, ok, err := s.Source.GetCourseBySlug(ctx, moduleID)
	if err != nil {
		return domain.Course{}, errx.Wrap(errx.KindServer, "load course", err)
	}
	if !ok {
		return domain.Course{}, errx.NotFound("course not found")
	}
	return c, nil
}

// Lesson returns the course with its body rendered to HTML.
func (s *CourseService) Lesson(ctx context.Context, moduleID string) (domain.Course, template.HTML, error) {
	c, err := s.Get(ctx, moduleID)
	if err != nil {
		return domain.Course{}, "", err
	}
	html, err := content.Render(c.Content)
	if err != nil {
		return domain.Course{}, "", errx.Wrap(errx.KindServer, "render course", err)
	}
	return c, html, nil
}
