package lms

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
)

type CourseRepository struct {
	client *Client
}

func NewCourseRepository(client *Client) domain.CourseRepository {
	return &CourseRepository{
		client: client,
	}
}

// courseDTO is the wire shape of a course summary
type courseDTO struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	TeacherName     string `json:"teacher_name"`
	Thumbnail       string `json:"thumbnail"`
	LessonCount     int    `json:"lesson_count"`
	ProgressPercent int    `json:"progress_percent"`
}

// lessonDTO is the wire shape of a lesson inside course content
type lessonDTO struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds"`
	Order           int    `json:"order"`
	Progress        *struct {
		WatchedSeconds int  `json:"watched_seconds"`
		Completed      bool `json:"completed"`
	} `json:"progress"`
}

type sectionDTO struct {
	ID      int         `json:"id"`
	Title   string      `json:"title"`
	Order   int         `json:"order"`
	Lessons []lessonDTO `json:"lessons"`
}

func (r *CourseRepository) GetMyCourses(ctx context.Context) ([]*domain.Course, error) {
	var response []courseDTO

	if err := r.client.do(ctx, http.MethodGet, "/student/courses/", nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch courses: %w", err)
	}

	courses := make([]*domain.Course, 0, len(response))
	for _, dto := range response {
		courses = append(courses, mapCourse(dto))
	}

	log.Info("Fetched enrolled courses", "count", len(courses))
	return courses, nil
}

func (r *CourseRepository) GetCourseContent(ctx context.Context, courseID int) (*domain.CourseContent, error) {
	var response struct {
		Course   courseDTO    `json:"course"`
		Sections []sectionDTO `json:"sections"`
	}

	path := fmt.Sprintf("/student/courses/%d/content/", courseID)
	if err := r.client.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch course content: %w", err)
	}

	content := &domain.CourseContent{
		Course:   *mapCourse(response.Course),
		Sections: make([]domain.Section, 0, len(response.Sections)),
	}

	for _, sec := range response.Sections {
		section := domain.Section{
			ID:      sec.ID,
			Title:   sec.Title,
			Order:   sec.Order,
			Lessons: make([]domain.Lesson, 0, len(sec.Lessons)),
		}
		for _, les := range sec.Lessons {
			lesson := domain.Lesson{
				ID:              les.ID,
				Title:           les.Title,
				Description:     les.Description,
				VideoURL:        les.VideoURL,
				DurationSeconds: les.DurationSeconds,
				Order:           les.Order,
			}
			if les.Progress != nil {
				lesson.Progress = &domain.LessonProgress{
					WatchedSeconds: les.Progress.WatchedSeconds,
					Completed:      les.Progress.Completed,
				}
			}
			section.Lessons = append(section.Lessons, lesson)
		}
		sort.Slice(section.Lessons, func(i, j int) bool {
			return section.Lessons[i].Order < section.Lessons[j].Order
		})
		content.Sections = append(content.Sections, section)
	}

	sort.Slice(content.Sections, func(i, j int) bool {
		return content.Sections[i].Order < content.Sections[j].Order
	})

	log.Info("Fetched course content", "course_id", courseID, "sections", len(content.Sections))
	return content, nil
}

func (r *CourseRepository) Enroll(ctx context.Context, courseID int) error {
	body := map[string]int{"course_id": courseID}

	if err := r.client.do(ctx, http.MethodPost, "/student/enroll/", body, nil); err != nil {
		log.Error("Failed to enroll in course", "course_id", courseID, "error", err)
		return fmt.Errorf("failed to enroll: %w", err)
	}

	log.Info("Enrolled in course", "course_id", courseID)
	return nil
}

func mapCourse(dto courseDTO) *domain.Course {
	return &domain.Course{
		ID:              dto.ID,
		Title:           dto.Title,
		Description:     dto.Description,
		TeacherName:     dto.TeacherName,
		ThumbnailURL:    dto.Thumbnail,
		LessonCount:     dto.LessonCount,
		ProgressPercent: dto.ProgressPercent,
	}
}
