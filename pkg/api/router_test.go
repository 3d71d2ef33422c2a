package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-master/core/pkg/api/handler"
)

type fakeController struct {
	status      handler.ClusterStatus
	pauseCalls  []int64
	resumeCalls []int64
	stopCalls   []int64
	failWith    error
	progress    *handler.ProgressSnapshot
}

func (f *fakeController) Status() handler.ClusterStatus { return f.status }

func (f *fakeController) Pause(ctx context.Context, id int64) error {
	f.pauseCalls = append(f.pauseCalls, id)
	return f.failWith
}

func (f *fakeController) Resume(ctx context.Context, id int64) error {
	f.resumeCalls = append(f.resumeCalls, id)
	return f.failWith
}

func (f *fakeController) Stop(ctx context.Context, id int64) error {
	f.stopCalls = append(f.stopCalls, id)
	return f.failWith
}

func (f *fakeController) Progress(id int64) (handler.ProgressSnapshot, bool) {
	if f.progress == nil {
		return handler.ProgressSnapshot{}, false
	}
	return *f.progress, true
}

func TestGetStatus_ReturnsClusterSnapshot(t *testing.T) {
	ctrl := &fakeController{status: handler.ClusterStatus{Host: "10.0.0.1:5678", StartedAt: time.Now(), ActiveProcesses: 3}}
	router := NewRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "10.0.0.1:5678")
	assert.Contains(t, rec.Body.String(), `"activeProcesses":3`)
}

func TestPauseResumeStop_DispatchToController(t *testing.T) {
	ctrl := &fakeController{}
	router := NewRouter(ctrl)

	for _, tc := range []struct {
		path string
		want *[]int64
	}{
		{"/processes/101/pause", &ctrl.pauseCalls},
		{"/processes/101/resume", &ctrl.resumeCalls},
		{"/processes/101/stop", &ctrl.stopCalls},
	} {
		req := httptest.NewRequest(http.MethodPost, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, tc.path)
		assert.Equal(t, []int64{101}, *tc.want, tc.path)
	}
}

func TestPause_InvalidID_Returns400(t *testing.T) {
	ctrl := &fakeController{}
	router := NewRouter(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/processes/not-a-number/pause", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPause_ControllerError_Returns500(t *testing.T) {
	ctrl := &fakeController{failWith: assertError{"boom"}}
	router := NewRouter(ctrl)

	req := httptest.NewRequest(http.MethodPost, "/processes/1/pause", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestProgress_ReturnsSnapshotWhenRunning(t *testing.T) {
	snap := handler.ProgressSnapshot{Total: 5, Completed: 2, Running: 1, Pending: 2, RunningTaskIDs: []string{"b"}}
	ctrl := &fakeController{progress: &snap}
	router := NewRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/processes/7/progress", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":5`)
	assert.Contains(t, rec.Body.String(), `"runningTaskIds":["b"]`)
}

func TestProgress_NotRunning_Returns404(t *testing.T) {
	ctrl := &fakeController{}
	router := NewRouter(ctrl)

	req := httptest.NewRequest(http.MethodGet, "/processes/7/progress", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
