package content

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"gopkg.in/yaml.v3"
)

var (
	ErrNoFrontmatter = errors.New("content: missing frontmatter")
	ErrInvalidCourse = errors.New("content: invalid course")
)

var (
	openDelim  = []byte("---\n")
	closeDelim = []byte("\n---")
)

// frontmatter is the YAML header of a course file. Older files use
// snake_case or the shorter estimatedTime key; those are folded into the
// canonical fields by toCourse.
type frontmatter struct {
	ID                   string   `yaml:"id"`
	ModuleID             string   `yaml:"moduleId"`
	ModuleIDAlias        string   `yaml:"module_id,omitempty"`
	Title                string   `yaml:"title"`
	Description          string   `yaml:"description"`
	Level                string   `yaml:"level"`
	EstimatedTimeMinutes int      `yaml:"estimatedTimeMinutes"`
	EstimatedTime        int      `yaml:"estimatedTime,omitempty"`
	Objectives           []string `yaml:"objectives"`
	Tags                 []string `yaml:"tags"`
}

// splitFrontmatter separates the YAML header from the body.
func splitFrontmatter(src []byte) (header, body []byte, err error) {
	src = bytes.TrimPrefix(src, []byte("\uFEFF"))
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	if !bytes.HasPrefix(src, openDelim) {
		return nil, nil, ErrNoFrontmatter
	}
	rest := src[len(openDelim):]

	end := bytes.Index(rest, closeDelim)
	if end < 0 {
		return nil, nil, ErrNoFrontmatter
	}
	header = rest[:end]
	body = rest[end+len(closeDelim):]
	return header, bytes.TrimLeft(body, "\n"), nil
}

// ParseCourse reads a course file. name is the file name and supplies the
// moduleId when the header has none.
func ParseCourse(name string, src []byte) (domain.Course, error) {
	header, body, err := splitFrontmatter(src)
	if err != nil {
		return domain.Course{}, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return domain.Course{}, fmt.Errorf("%w: %s: %v", ErrInvalidCourse, name, err)
	}
	return fm.toCourse(name, string(body))
}

func (fm frontmatter) toCourse(name, body string) (domain.Course, error) {
	c := domain.Course{
		ID:                   strings.TrimSpace(fm.ID),
		ModuleID:             strings.TrimSpace(fm.ModuleID),
		Title:                strings.TrimSpace(fm.Title),
		Description:          strings.TrimSpace(fm.Description),
		Level:                domain.Level(strings.ToLower(strings.TrimSpace(fm.Level))),
		EstimatedTimeMinutes: fm.EstimatedTimeMinutes,
		Objectives:           fm.Objectives,
		Content:              body,
		Tags:                 fm.Tags,
	}

	if c.ModuleID == "" {
		c.ModuleID = strings.TrimSpace(fm.ModuleIDAlias)
	}
	if c.ModuleID == "" {
		c.ModuleID = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if c.ID == "" {
		c.ID = c.ModuleID
	}
	if c.EstimatedTimeMinutes == 0 {
		c.EstimatedTimeMinutes = fm.EstimatedTime
	}
	if c.Level == "" {
		c.Level = domain.LevelBeginner
	}
	if c.Objectives == nil {
		c.Objectives = []string{}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	switch {
	case c.Title == "":
		return domain.Course{}, fmt.Errorf("%w: %s: title is required", ErrInvalidCourse, name)
	case !c.Level.Valid():
		return domain.Course{}, fmt.Errorf("%w: %s: unknown level %q", ErrInvalidCourse, name, c.Level)
	case c.EstimatedTimeMinutes < 0:
		return domain.Course{}, fmt.Errorf("%w: %s: negative estimated time", ErrInvalidCourse, name)
	}
	return c, nil
}

// MarshalCourse writes c back into the file format read by ParseCourse.
func MarshalCourse(c domain.Course) ([]byte, error) {
	header, err := yaml.Marshal(frontmatter{
		ID:                   c.ID,
		ModuleID:             c.ModuleID,
		Title:                c.Title,
		Description:          c.Description,
		Level:                string(c.Level),
		EstimatedTimeMinutes: c.EstimatedTimeMinutes,
		Objectives:           c.Objectives,
		Tags:                 c.Tags,
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(openDelim)
	buf.Write(header)
	buf.Write(openDelim)
	buf.WriteByte('\n')
	buf.WriteString(c.Content)
	return buf.Bytes(), nil
}
