package domain

// Course represents a course the student is enrolled in
type Course struct {
	ID           int
	Title        string
	Description  string
	TeacherName  string
	ThumbnailURL string
	LessonCount  int
	// ProgressPercent is the aggregate completion for this course as reported by the backend
	ProgressPercent int
}

// Section is an ordered group of lessons within a course
type Section struct {
	ID      int
	Title   string
	Order   int
	Lessons []Lesson
}

// Lesson is a single playable unit of a course
type Lesson struct {
	ID          int
	Title       string
	Description string
	// VideoURL is either an embedded platform link or a direct media file URL.
	// May be empty for lessons without video content.
	VideoURL string
	// DurationSeconds is the authoritative duration supplied by the backend.
	// 0 when the backend does not know it.
	DurationSeconds int
	Order           int
	// Progress is the student's saved progress for this lesson, nil if never watched
	Progress *LessonProgress
}

// CourseContent is a course together with its full section/lesson tree
type CourseContent struct {
	Course   Course
	Sections []Section
}
