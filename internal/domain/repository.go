package domain

import "context"

// CourseRepository defines the interface for course data access
type CourseRepository interface {
	// GetMyCourses retrieves the courses the student is enrolled in
	GetMyCourses(ctx context.Context) ([]*Course, error)

	// GetCourseContent retrieves a course with its full section/lesson tree,
	// including any saved lesson progress
	GetCourseContent(ctx context.Context, courseID int) (*CourseContent, error)

	// Enroll enrolls the student into a course
	Enroll(ctx context.Context, courseID int) error
}

// ProgressRepository defines the interface for persisting lesson watch progress
type ProgressRepository interface {
	// UpdateLessonProgress reports the current watch position for a lesson.
	// Fire-and-forget from the caller's perspective: a failed write is expected
	// to be repaired by the next periodic report.
	UpdateLessonProgress(ctx context.Context, lessonID int, watchedSeconds int, completed bool) error
}
