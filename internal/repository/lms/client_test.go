package lms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/student/login/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "student@example.com", body["email"])
		assert.Equal(t, "hunter2", body["password"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access": "tok-123",
			"user": map[string]interface{}{
				"id":        42,
				"full_name": "Hanako Yamada",
				"email":     "student@example.com",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	result, err := client.Login(context.Background(), "student@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "tok-123", result.Token)
	assert.Equal(t, 42, result.User.ID)
	assert.Equal(t, "Hanako Yamada", result.User.FullName)
	// The client adopts the token for subsequent requests
	assert.Equal(t, "tok-123", client.authToken)
}

func TestLoginAlternateTokenField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-legacy"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	result, err := client.Login(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-legacy", result.Token)
}

func TestLoginRejectsEmptyCredentials(t *testing.T) {
	client := NewClient("http://unused", "")
	_, err := client.Login(context.Background(), "", "pw")
	assert.Error(t, err)
}

func TestGetMyCourses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/student/courses/", r.URL.Path)
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"id":               1,
				"title":            "Intro to Pottery",
				"teacher_name":     "K. Tanaka",
				"lesson_count":     12,
				"progress_percent": 25,
			},
		})
	}))
	defer server.Close()

	repo := NewCourseRepository(NewClient(server.URL, "tok-abc"))
	courses, err := repo.GetMyCourses(context.Background())
	require.NoError(t, err)

	require.Len(t, courses, 1)
	assert.Equal(t, 1, courses[0].ID)
	assert.Equal(t, "Intro to Pottery", courses[0].Title)
	assert.Equal(t, "K. Tanaka", courses[0].TeacherName)
	assert.Equal(t, 25, courses[0].ProgressPercent)
}

func TestGetCourseContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/student/courses/3/content/", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"course": map[string]interface{}{"id": 3, "title": "Glazing"},
			"sections": []map[string]interface{}{
				{
					"id": 20, "title": "Basics", "order": 2,
					"lessons": []map[string]interface{}{
						{
							"id": 200, "title": "Second", "order": 2,
							"video_url": "lesson-2.mp4",
						},
						{
							"id": 100, "title": "First", "order": 1,
							"video_url":        "https://youtu.be/dQw4w9WgXcQ",
							"duration_seconds": 630,
							"progress": map[string]interface{}{
								"watched_seconds": 120,
								"completed":       false,
							},
						},
					},
				},
				{"id": 10, "title": "Welcome", "order": 1},
			},
		})
	}))
	defer server.Close()

	repo := NewCourseRepository(NewClient(server.URL, "tok"))
	content, err := repo.GetCourseContent(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, "Glazing", content.Course.Title)
	require.Len(t, content.Sections, 2)

	// Sections and lessons come back ordered
	assert.Equal(t, "Welcome", content.Sections[0].Title)
	assert.Equal(t, "Basics", content.Sections[1].Title)

	lessons := content.Sections[1].Lessons
	require.Len(t, lessons, 2)
	assert.Equal(t, "First", lessons[0].Title)
	assert.Equal(t, 630, lessons[0].DurationSeconds)
	require.NotNil(t, lessons[0].Progress)
	assert.Equal(t, 120, lessons[0].Progress.WatchedSeconds)
	assert.Nil(t, lessons[1].Progress)
}

func TestUpdateLessonProgress(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/student/lesson-progress/", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	repo := NewProgressRepository(NewClient(server.URL, "tok"))
	err := repo.UpdateLessonProgress(context.Background(), 55, 310, true)
	require.NoError(t, err)

	assert.Equal(t, float64(55), received["lesson_id"])
	assert.Equal(t, float64(310), received["watched_seconds"])
	assert.Equal(t, true, received["completed"])
}

func TestAPIErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"token expired"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	repo := NewCourseRepository(NewClient(server.URL, "stale"))
	_, err := repo.GetMyCourses(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestNetworkErrorDetection(t *testing.T) {
	// Nothing is listening here
	client := NewClient("http://127.0.0.1:1", "tok")
	err := client.do(context.Background(), http.MethodGet, "/student/courses/", nil, nil)
	require.Error(t, err)

	var netErr NetworkError
	assert.ErrorAs(t, err, &netErr)
}
