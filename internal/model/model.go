package model

import (
	"fmt"
	"time"
)

type TaskType int

const (
	TASK_OTHER TaskType = iota
	TASK_ASSIGNMENT
	TASK_EXAM
	TASK_SURVEY
)

func (t TaskType) String() string {
	switch t {
	case TASK_ASSIGNMENT:
		return "assignment"
	case TASK_EXAM:
		return "exam"
	case TASK_SURVEY:
		return "survey"
	}
	return "other"
}

// ParseTaskType is the inverse of TaskType.String, unknown names map to TASK_OTHER.
func ParseTaskType(name string) TaskType {
	switch name {
	case "assignment":
		return TASK_ASSIGNMENT
	case "exam":
		return TASK_EXAM
	case "survey":
		return TASK_SURVEY
	}
	return TASK_OTHER
}

// TaskId builds the synthetic id shared by every task-producing extractor,
// it is unique across task types by construction.
func TaskId(taskType TaskType, classId, sourceId string) string {
	return fmt.Sprintf("%s-%s-%s", taskType, classId, sourceId)
}

// Task is an assignment, exam, survey or anything else with a deadline.
type Task struct {
	Id        string
	Title     string
	ClassName string
	Type      TaskType
	// Deadline is an epoch-millisecond timestamp.
	Deadline int64
	Url      string
	Done     bool
	// Color is an optional user chosen color like "#ff8800".
	Color  string
	Manual bool
}

func (t Task) DeadlineTime(loc *time.Location) time.Time {
	return time.UnixMilli(t.Deadline).In(loc)
}

const (
	MAX_PERIOD      = 6
	MAX_DAY_OF_WEEK = 6
)

// TimetableTitle names the timetable a cell belongs to.
func TimetableTitle(year int, term string) string {
	return fmt.Sprintf("%d-%s", year, term)
}

// ClassCell is one slot of a timetable grid.
type ClassCell struct {
	ClassId         string
	Period          int
	DayOfWeek       int
	IsUserGenerated bool
	TimetableTitle  string

	Name         string
	Teachers     []string
	Room         string
	AcademicYear int
	Term         string
	Link         string
	Note         string
	Credits      int
}

// InGrid reports whether the cell fits the 7x7 timetable grid.
func (c ClassCell) InGrid() bool {
	return c.Period >= 0 && c.Period <= MAX_PERIOD &&
		c.DayOfWeek >= 0 && c.DayOfWeek <= MAX_DAY_OF_WEEK
}

type NewsItem struct {
	Id          string
	SecondaryId string
	Title       string
	Category    string
	Domain      string
	// PublishedAt is kept as shown on the portal.
	PublishedAt string
	Tag         string
	Unread      bool
	Url         string
}
