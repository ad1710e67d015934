package domain

import "fmt"

// EntityKind tags the administrable catalog entity types.
type EntityKind string

const (
	EntitySemester    EntityKind = "semesters"
	EntityProfessor   EntityKind = "professors"
	EntityCourse      EntityKind = "courses"
	EntitySection     EntityKind = "sections"
	EntityProblemType EntityKind = "problems"
)

// EntityKinds lists kinds in admin menu order.
var EntityKinds = []EntityKind{EntitySemester, EntityProfessor, EntityCourse, EntitySection, EntityProblemType}

var entityTitles = map[EntityKind]string{
	EntitySemester:    "Semesters",
	EntityProfessor:   "Professors",
	EntityCourse:      "Courses",
	EntitySection:     "Course Sections",
	EntityProblemType: "Problem Types",
}

// ParseEntityKind maps a URL segment to a kind.
func ParseEntityKind(raw string) (EntityKind, error) {
	kind := EntityKind(raw)
	if _, ok := entityTitles[kind]; !ok {
		return "", fmt.Errorf("unknown entity kind %q", raw)
	}
	return kind, nil
}

// Title is the display title of the kind.
func (k EntityKind) Title() string {
	return entityTitles[k]
}
