// Package content serves the course catalog from markdown files on disk.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
)

// SeedModuleID is the course written when the catalog is empty.
const SeedModuleID = "01-introduction"

// Store reads courses from Dir. Files are re-read on every call so edits
// show up without a restart.
type Store struct {
	Dir    string
	Logger *slog.Logger
}

func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Dir: dir, Logger: logger}
}

func isCourseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdx":
		return true
	}
	return false
}

// ListCourses returns every parseable course sorted by moduleId. A missing
// or empty directory is seeded with the introduction course.
func (s *Store) ListCourses(ctx context.Context) ([]domain.Course, error) {
	courses, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 {
		return courses, nil
	}

	seed, err := s.seed()
	if err != nil {
		return nil, err
	}
	return []domain.Course{seed}, nil
}

// GetCourseBySlug returns the course whose moduleId equals moduleID.
func (s *Store) GetCourseBySlug(ctx context.Context, moduleID string) (domain.Course, bool, error) {
	courses, err := s.ListCourses(ctx)
	if err != nil {
		return domain.Course{}, false, err
	}
	for _, c := range courses {
		if c.ModuleID == moduleID {
			return c, true, nil
		}
	}
	return domain.Course{}, false, nil
}

func (s *Store) read(ctx context.Context) ([]domain.Course, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("content: read dir: %w", err)
	}

	courses := make([]domain.Course, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !isCourseFile(e.Name()) {
			continue
		}

		path := filepath.Join(s.Dir, e.Name())
		src, err := os.ReadFile(path)
		if err != nil {
			s.Logger.Warn("skipping unreadable course file", "file", path, "error", err)
			continue
		}
		c, err := ParseCourse(e.Name(), src)
		if err != nil {
			s.Logger.Warn("skipping malformed course file", "file", path, "error", err)
			continue
		}
		if prev, dup := seen[c.ModuleID]; dup {
			s.Logger.Warn("skipping duplicate course", "file", path, "module_id", c.ModuleID, "first", prev)
			continue
		}
		seen[c.ModuleID] = path
		courses = append(courses, c)
	}

	sort.Slice(courses, func(i, j int) bool { return courses[i].ModuleID < courses[j].ModuleID })
	return courses, nil
}

// seed writes the introduction course unless another caller already did.
func (s *Store) seed() (domain.Course, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return domain.Course{}, fmt.Errorf("content: create dir: %w", err)
	}

	c := SeedCourse()
	src, err := MarshalCourse(c)
	if err != nil {
		return domain.Course{}, fmt.Errorf("content: encode seed: %w", err)
	}

	path := filepath.Join(s.Dir, c.ModuleID+".md")
	err = createExclusive(path, func(w io.Writer) error {
		_, err := w.Write(src)
		return err
	})
	switch {
	case errors.Is(err, fs.ErrExist):
		return c, nil
	case err != nil:
		return domain.Course{}, fmt.Errorf("content: write seed: %w", err)
	}
	s.Logger.Info("seeded course catalog", "dir", s.Dir, "module_id", c.ModuleID)
	return c, nil
}

// createExclusive creates path and fills it with write. It fails with
// fs.ErrExist when path is already there, and removes the file again when
// write or close fails so no partial file is left behind.
func createExclusive(path string, write func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

// SeedCourse is the introduction course used to bootstrap an empty catalog.
func SeedCourse() domain.Course {
	return domain.Course{
		ID:                   SeedModuleID,
		ModuleID:             SeedModuleID,
		Title:                "Introduction to the Platform",
		Description:          "Find your way around courses, lessons and progress tracking.",
		Level:                domain.LevelBeginner,
		EstimatedTimeMinutes: 15,
		Objectives: []string{
			"Navigate the course catalog",
			"Enroll in a course",
			"Track your progress from the dashboard",
		},
		Tags: []string{"getting-started"},
		Content: `# Welcome

This course walks through the basics of the platform.

## Finding courses

Open **Courses** from the navigation bar to browse the catalog. Each course
shows its level and an estimated completion time.

## Enrolling

Press **Enroll** on a course page. Your dashboard lists every course you
have started.

## Progress

Lessons record progress as you work through them. Completed courses are
marked on your dashboard.
`,
	}
}
