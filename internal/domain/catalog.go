package domain

import (
	"fmt"
	"strings"
	"time"
)

// Season of a semester.
type Season string

const (
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonFall   Season = "FALL"
	SeasonWinter Season = "WINTER"
)

var seasonOrder = map[Season]int{
	SeasonSpring: 0,
	SeasonSummer: 1,
	SeasonFall:   2,
	SeasonWinter: 3,
}

// ParseSeason accepts the season name in any case.
func ParseSeason(raw string) (Season, error) {
	s := Season(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := seasonOrder[s]; !ok {
		return "", fmt.Errorf("unknown season %q", raw)
	}
	return s, nil
}

// Semester defines the window during which its sections take tickets.
type Semester struct {
	ID        int64
	Year      int
	Season    Season
	StartDate time.Time
	EndDate   time.Time
}

// Title renders e.g. "Fall 2026".
func (s *Semester) Title() string {
	name := strings.ToLower(string(s.Season))
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf("%s %d", name, s.Year)
}

// Before orders semesters chronologically by year then season.
func (s *Semester) Before(other *Semester) bool {
	if s.Year != other.Year {
		return s.Year < other.Year
	}
	return seasonOrder[s.Season] < seasonOrder[other.Season]
}

// ActiveOn reports whether day falls inside [StartDate, EndDate], comparing
// calendar dates only.
func (s *Semester) ActiveOn(day time.Time) bool {
	d := DateOf(day)
	return !d.Before(DateOf(s.StartDate)) && !d.After(DateOf(s.EndDate))
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Professor teaches sections.
type Professor struct {
	ID        int64
	FirstName string
	LastName  string
}

// LastFirst renders "Last, First".
func (p *Professor) LastFirst() string {
	return p.LastName + ", " + p.FirstName
}

// Course is a catalog course.
type Course struct {
	ID        int64
	Number    string
	Name      string
	OnDisplay bool
}

// Section belongs to exactly one course and one semester.
type Section struct {
	ID          int64
	Number      string
	Time        string
	CourseID    int64
	SemesterID  int64
	ProfessorID *int64
}

// ProblemType labels what kind of help a ticket asks for.
type ProblemType struct {
	ID          int64
	Description string
}
