package lms

import (
	"context"
	"fmt"
	"net/http"

	"github.com/snowlatte/manabi/internal/domain"
	"github.com/snowlatte/manabi/internal/log"
)

type ProgressRepository struct {
	client *Client
}

func NewProgressRepository(client *Client) domain.ProgressRepository {
	return &ProgressRepository{
		client: client,
	}
}

func (r *ProgressRepository) UpdateLessonProgress(ctx context.Context, lessonID, watchedSeconds int, completed bool) error {
	body := map[string]interface{}{
		"lesson_id":       lessonID,
		"watched_seconds": watchedSeconds,
		"completed":       completed,
	}

	log.Debug("Updating lesson progress",
		"lesson_id", lessonID,
		"watched_seconds", watchedSeconds,
		"completed", completed)

	if err := r.client.do(ctx, http.MethodPost, "/student/lesson-progress/", body, nil); err != nil {
		return fmt.Errorf("failed to update lesson progress: %w", err)
	}

	return nil
}
