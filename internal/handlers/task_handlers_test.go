package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nursery-platform/internal/models"
)

type taskPage struct {
	Data  []models.Task `json:"data"`
	Total int           `json:"total"`
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t)
	nursery := createNurseryViaAPI(t, srv, "Vivero")
	base := fmt.Sprintf("/api/nurseries/%d/tasks", nursery.ID)

	rec := srv.do(t, http.MethodPost, base, map[string]interface{}{
		"date": "2025-06-20",
		"details": map[string]interface{}{
			"category":       "hardening",
			"week":           2,
			"shade_percent":  30,
			"duration_hours": 4,
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task models.Task
	decode(t, rec, &task)
	assert.Equal(t, models.CategoryHardening, task.Category)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.Equal(t, models.HardeningDetails{Week: 2, ShadePercent: 30, DurationHours: 4}, task.Details.Details)

	rec = srv.do(t, http.MethodPost, base, map[string]interface{}{
		"date":     "2025-06-18",
		"category": "water",
		"details":  map[string]interface{}{"category": "water", "volume_liters": 12},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, base, nil)
	var page taskPage
	decode(t, rec, &page)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, models.CategoryWater, page.Data[0].Category)

	rec = srv.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d/status", task.ID), map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)
	var completed models.Task
	decode(t, rec, &completed)
	assert.NotNil(t, completed.CompletedAt)

	rec = srv.do(t, http.MethodGet, base+"?status=completed", nil)
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Total)

	rec = srv.do(t, http.MethodGet, base+"?start_date=2025-06-19", nil)
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Total)

	rec = srv.do(t, http.MethodPut, fmt.Sprintf("/api/tasks/%d/status", task.ID), map[string]string{"status": "skipped"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)
	nursery := createNurseryViaAPI(t, srv, "Vivero")
	base := fmt.Sprintf("/api/nurseries/%d/tasks", nursery.ID)

	tests := []struct {
		name string
		body interface{}
	}{
		{"bad date", map[string]interface{}{"date": "June", "category": "prune"}},
		{"unknown category", map[string]interface{}{"date": "2025-06-01", "details": map[string]interface{}{"category": "dance"}}},
		{"mismatched details", map[string]interface{}{"date": "2025-06-01", "category": "water", "details": map[string]interface{}{"category": "prune"}}},
		{"no category", map[string]interface{}{"date": "2025-06-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, base, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := srv.do(t, http.MethodGet, base+"?status=done", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPut, "/api/tasks/4242/status", map[string]string{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
