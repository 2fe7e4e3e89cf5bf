package models

import (
	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/player"
)

// LoginCompletedMsg is sent when login succeeds
type LoginCompletedMsg struct {
	Token string
	User  domain.User
}

// LoginFailedMsg is sent when login fails
type LoginFailedMsg struct {
	Error string
}

// CoursesLoadedMsg is sent when the enrolled course list is loaded
type CoursesLoadedMsg struct{}

// CoursesErrorMsg is sent when there's an error loading the course list
type CoursesErrorMsg struct {
	Error error
}

// CourseContentLoadedMsg is sent when a course's section/lesson tree is loaded
type CourseContentLoadedMsg struct {
	Content *domain.CourseContent
}

// CourseContentErrorMsg is sent when course content fails to load
type CourseContentErrorMsg struct {
	CourseID int
	Error    error
}

// OpenCourseMsg requests that the course detail view opens a course
type OpenCourseMsg struct {
	Course *domain.Course
}

// OpenLessonMsg requests that the lesson viewer takes over for a lesson
type OpenLessonMsg struct {
	Course *domain.Course
	Lesson domain.Lesson
}

// PlaybackEventMsg wraps a single event from the active video session
type PlaybackEventMsg struct {
	Event player.PlaybackEvent
}

// PlaybackSessionDoneMsg is sent when the session's event channel closes
type PlaybackSessionDoneMsg struct{}

// LessonClosedMsg is sent when the lesson viewer finishes and the course
// detail view should be shown again
type LessonClosedMsg struct {
	// RefreshProgress indicates the course content should be refetched so
	// saved progress markers are up to date
	RefreshProgress bool
}
