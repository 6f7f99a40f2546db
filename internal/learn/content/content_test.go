package content_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/learn/internal/learn/content"
	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/aussiebroadwan/learn/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const goCourse = `---
id: go-101
moduleId: 02-go
title: Go Basics
description: Types and functions.
level: Intermediate
estimatedTime: 45
objectives:
  - Write a function
tags: [go]
---

# Go

Hello.
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestParseCourse(t *testing.T) {
	c, err := content.ParseCourse("02-go.md", []byte(goCourse))
	require.NoError(t, err)
	require.Equal(t, "go-101", c.ID)
	require.Equal(t, "02-go", c.ModuleID)
	require.Equal(t, domain.LevelIntermediate, c.Level)
	require.Equal(t, 45, c.EstimatedTimeMinutes)
	require.Equal(t, []string{"Write a function"}, c.Objectives)
	require.Equal(t, []string{"go"}, c.Tags)
	require.True(t, strings.HasPrefix(c.Content, "# Go"))
}

func TestParseCourseDefaults(t *testing.T) {
	c, err := content.ParseCourse("03-tools.mdx", []byte("---\r\ntitle: Tools\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	require.Equal(t, "03-tools", c.ModuleID)
	require.Equal(t, "03-tools", c.ID)
	require.Equal(t, domain.LevelBeginner, c.Level)
	require.NotNil(t, c.Objectives)
	require.NotNil(t, c.Tags)
	require.Equal(t, "body\n", c.Content)
}

func TestParseCourseRejects(t *testing.T) {
	cases := map[string]string{
		"no frontmatter": "# just markdown",
		"unterminated":   "---\ntitle: x\n",
		"bad yaml":       "---\ntitle: [\n---\n",
		"no title":       "---\nmoduleId: x\n---\n",
		"bad level":      "---\ntitle: x\nlevel: expert\n---\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := content.ParseCourse("x.md", []byte(src))
			require.Error(t, err)
		})
	}
}

func TestMarshalCourseRoundTrip(t *testing.T) {
	seed := content.SeedCourse()
	src, err := content.MarshalCourse(seed)
	require.NoError(t, err)

	got, err := content.ParseCourse(seed.ModuleID+".md", src)
	require.NoError(t, err)
	require.Equal(t, seed, got)
}

func TestListCoursesSeedsMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "courses")
	s := content.NewStore(dir, slogx.Discard())

	courses, err := s.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, content.SeedModuleID, courses[0].ModuleID)

	_, err = os.Stat(filepath.Join(dir, content.SeedModuleID+".md"))
	require.NoError(t, err)

	// A second read parses the written file rather than reseeding.
	again, err := s.ListCourses(context.Background())
	require.NoError(t, err)
	require.Equal(t, courses, again)
}

func TestListCoursesSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "02-go.md", goCourse)
	writeFile(t, dir, "broken.md", "no header")
	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "01-a.mdx", "---\ntitle: A\n---\nA")

	s := content.NewStore(dir, slogx.Discard())
	courses, err := s.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, "01-a", courses[0].ModuleID)
	require.Equal(t, "02-go", courses[1].ModuleID)
}

func TestListCoursesOnlyMalformedSeeds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.md", "no header")

	courses, err := content.NewStore(dir, slogx.Discard()).ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, content.SeedModuleID, courses[0].ModuleID)
}

func TestListCoursesConcurrentSeed(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "courses")
	s := content.NewStore(dir, slogx.Discard())

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ListCourses(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestGetCourseBySlug(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "02-go.md", goCourse)
	s := content.NewStore(dir, slogx.Discard())

	c, ok, err := s.GetCourseBySlug(context.Background(), "02-go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Go Basics", c.Title)

	_, ok, err = s.GetCourseBySlug(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRender(t *testing.T) {
	html, err := content.Render("# Title\n\n<script>alert(1)</script>\n\n| a |\n|---|\n| b |\n")
	require.NoError(t, err)
	require.Contains(t, string(html), `<h1 id="title">Title</h1>`)
	require.Contains(t, string(html), "<table>")
	require.NotContains(t, string(html), "<script>")
}
