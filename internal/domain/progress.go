package domain

// LessonProgress is the student's saved watch progress for one lesson.
// The client treats this record as write-mostly: it sends updates and does not
// reconcile conflicting writes from elsewhere.
type LessonProgress struct {
	WatchedSeconds int
	Completed      bool
}
