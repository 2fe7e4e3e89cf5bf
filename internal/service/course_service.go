package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
)

type CourseService struct {
	repo domain.CourseRepository
	// Keeps a local copy of the enrolled courses, only updating it on user request
	courses    []*domain.Course
	updateLock sync.Mutex
}

func NewCourseService(repo domain.CourseRepository) *CourseService {
	return &CourseService{
		repo: repo,
	}
}

func (s *CourseService) GetCourses() []*domain.Course {
	return s.courses
}

// LoadCourses fetches the enrolled course list from the repository
func (s *CourseService) LoadCourses(ctx context.Context) error {
	courses, err := s.repo.GetMyCourses(ctx)
	if err != nil {
		return err
	}

	s.courses = courses
	log.Debug("Course list cached", "count", len(courses))
	return nil
}

// GetCourseByID finds a course in the cached list by its ID
func (s *CourseService) GetCourseByID(id int) *domain.Course {
	for _, course := range s.courses {
		if course.ID == id {
			return course
		}
	}
	return nil
}

// GetCourseContent fetches the full section/lesson tree for a course
func (s *CourseService) GetCourseContent(ctx context.Context, courseID int) (*domain.CourseContent, error) {
	content, err := s.repo.GetCourseContent(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load course content: %w", err)
	}
	return content, nil
}

// Enroll enrolls the student into a course and refreshes the cached list
func (s *CourseService) Enroll(ctx context.Context, courseID int) error {
	s.updateLock.Lock()
	defer s.updateLock.Unlock()

	if err := s.repo.Enroll(ctx, courseID); err != nil {
		return err
	}

	if err := s.LoadCourses(ctx); err != nil {
		log.Warn("Enrolled but failed to refresh course list", "error", err)
	}

	log.Info("Enrolled in course", "course_id", courseID)
	return nil
}
