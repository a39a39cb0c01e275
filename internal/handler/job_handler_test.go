package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openedu/registrar-api/internal/models"
	"github.com/openedu/registrar-api/internal/service"
)

func newJobHandlerFixture(store *fakeJobStore) *JobHandler {
	jobSvc := service.NewJobService(store, &fakeQueue{}, nil, testPrograms(), nil, service.JobConfig{}, zap.NewNop())
	return NewJobHandler(jobSvc)
}

func TestJobGetStatus(t *testing.T) {
	result := "/export/tok"
	store := &fakeJobStore{jobs: map[string]*models.Job{
		"9b2e7c3a-1111-4222-8333-444455556666": {
			ID:        "9b2e7c3a-1111-4222-8333-444455556666",
			State:     models.JobStateSucceeded,
			ResultURL: &result,
			CreatedBy: "admin-1",
			CreatedAt: time.Now().UTC(),
		},
	}}
	handler := newJobHandlerFixture(store)

	c, rec := adminContext(t, http.MethodGet, "/v1/jobs/9b2e7c3a-1111-4222-8333-444455556666", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "9b2e7c3a-1111-4222-8333-444455556666"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "Succeeded", status["state"])
	assert.Equal(t, result, status["result"])
}

func TestJobGetStatusResultNullWhileQueued(t *testing.T) {
	store := &fakeJobStore{jobs: map[string]*models.Job{
		"9b2e7c3a-1111-4222-8333-444455556666": {
			ID:        "9b2e7c3a-1111-4222-8333-444455556666",
			State:     models.JobStateQueued,
			CreatedBy: "admin-1",
			CreatedAt: time.Now().UTC(),
		},
	}}
	handler := newJobHandlerFixture(store)

	c, rec := adminContext(t, http.MethodGet, "/v1/jobs/9b2e7c3a-1111-4222-8333-444455556666", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "9b2e7c3a-1111-4222-8333-444455556666"}}

	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "Queued", status["state"])
	val, present := status["result"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestJobGetStatusNonUUIDIs404(t *testing.T) {
	handler := newJobHandlerFixture(&fakeJobStore{})

	c, rec := adminContext(t, http.MethodGet, "/v1/jobs/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "not-a-uuid"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobGetStatusUnknownIs404(t *testing.T) {
	handler := newJobHandlerFixture(&fakeJobStore{})

	c, rec := adminContext(t, http.MethodGet, "/v1/jobs/9b2e7c3a-1111-4222-8333-444455556666", nil)
	c.Params = gin.Params{{Key: "job_id", Value: "9b2e7c3a-1111-4222-8333-444455556666"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
