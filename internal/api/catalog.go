package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/birbparty/birb-academy/sdk"
)

// Catalog is the read-only course list served by /courses. It is loaded
// once from the courses fixture.
type Catalog struct {
	courses []sdk.Course
	byID    map[int64]int
}

// LoadCatalog reads the courses fixture from loader.
func LoadCatalog(ctx context.Context, loader sdk.FixtureLoader) (*Catalog, error) {
	raw, err := loader.Load(ctx, "courses")
	if err != nil {
		return nil, fmt.Errorf("failed to load course catalog: %w", err)
	}

	var courses []sdk.Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode course catalog: %w", err)
	}
	return NewCatalog(courses), nil
}

// NewCatalog indexes courses by id.
func NewCatalog(courses []sdk.Course) *Catalog {
	c := &Catalog{courses: courses, byID: make(map[int64]int, len(courses))}
	for i, course := range courses {
		c.byID[course.ID] = i
	}
	return c
}

// List returns the courses matching every non-empty filter. Category and
// level match case-insensitively; search looks in title, description and
// instructor name.
func (c *Catalog) List(f sdk.CourseFilters) []sdk.Course {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]sdk.Course, 0, len(c.courses))
	for _, course := range c.courses {
		if f.Category != "" && !strings.EqualFold(course.Category, f.Category) {
			continue
		}
		if f.Level != "" && !strings.EqualFold(course.Level, f.Level) {
			continue
		}
		if search != "" && !matches(course, search) {
			continue
		}
		out = append(out, course)
	}
	return out
}

func matches(course sdk.Course, search string) bool {
	for _, field := range []string{course.Title, course.Description, course.Instructor} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// Get returns the course with id.
func (c *Catalog) Get(id int64) (sdk.Course, bool) {
	i, ok := c.byID[id]
	if !ok {
		return sdk.Course{}, false
	}
	return c.courses[i], true
}

// InstructorName finds the display name of an instructor from any course
// they teach.
func (c *Catalog) InstructorName(instructorID int64) (string, bool) {
	for _, course := range c.courses {
		if course.InstructorID == instructorID && course.Instructor != "" {
			return course.Instructor, true
		}
	}
	return "", false
}
