package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/mocks"
	"github.com/raffleworks/ticketgen/internal/service"
)

func newTestRouter(t *testing.T, jobs *mocks.MockJobStore) http.Handler {
	t.Helper()
	svc, err := service.NewJobService(service.JobServiceOptions{Jobs: jobs})
	require.NoError(t, err)
	return NewRouter(RouterOptions{
		Jobs: &JobHandlers{Svc: svc},
	})
}

func TestJobHandlers_CreateJob(t *testing.T) {
	t.Run("creates a job", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jobs := mocks.NewMockJobStore(ctrl)
		jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&model.Job{
			ID:           "job-1",
			RaffleID:     "raffle-1",
			TotalTickets: 1000,
			Status:       model.JobStatusPending,
		}, nil)

		router := newTestRouter(t, jobs)

		body := bytes.NewBufferString(`{"raffle_id":"raffle-1","total_tickets":1000}`)
		req := httptest.NewRequest(http.MethodPost, "/api/generation/jobs", body)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var got model.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "job-1", got.ID)
		assert.Equal(t, model.JobStatusPending, got.Status)
	})

	t.Run("rejects invalid payload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobStore(ctrl))

		body := bytes.NewBufferString(`{"raffle_id":"","total_tickets":0}`)
		req := httptest.NewRequest(http.MethodPost, "/api/generation/jobs", body)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "create_failed", got["error"])
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobStore(ctrl))

		body := bytes.NewBufferString(`{"raffle_id":"raffle-1","total_tickets":10,"bogus":true}`)
		req := httptest.NewRequest(http.MethodPost, "/api/generation/jobs", body)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "invalid_json", got["error"])
	})
}

func TestJobHandlers_GetJob(t *testing.T) {
	t.Run("returns a job", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jobs := mocks.NewMockJobStore(ctrl)
		jobs.EXPECT().GetByID(gomock.Any(), "job-1").Return(&model.Job{
			ID:     "job-1",
			Status: model.JobStatusRunning,
		}, nil)

		router := newTestRouter(t, jobs)

		req := httptest.NewRequest(http.MethodGet, "/api/generation/jobs/job-1", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got model.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "job-1", got.ID)
	})

	t.Run("returns 404 for unknown job", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jobs := mocks.NewMockJobStore(ctrl)
		jobs.EXPECT().GetByID(gomock.Any(), "nope").Return(nil, data.ErrJobNotFound)

		router := newTestRouter(t, jobs)

		req := httptest.NewRequest(http.MethodGet, "/api/generation/jobs/nope", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "job_not_found", got["error"])
	})
}

func TestJobHandlers_RunCycle(t *testing.T) {
	t.Run("returns 503 when manager is disabled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := newTestRouter(t, mocks.NewMockJobStore(ctrl))

		req := httptest.NewRequest(http.MethodPost, "/api/generation/run", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "manager_disabled", got["error"])
	})
}

func TestJobHandlers_Stats(t *testing.T) {
	ctrl := gomock.NewController(t)
	jobs := mocks.NewMockJobStore(ctrl)
	jobs.EXPECT().Stats(gomock.Any()).Return(&model.JobStats{Pending: 1, Running: 2}, nil)

	router := newTestRouter(t, jobs)

	req := httptest.NewRequest(http.MethodGet, "/api/generation/stats", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.JobStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Pending)
	assert.Equal(t, 2, got.Running)
}

func TestHealthz(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := newTestRouter(t, mocks.NewMockJobStore(ctrl))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
