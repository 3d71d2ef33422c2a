package cluster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/workflow-master/core/pkg/core/model"
)

func TestKillAppLinks_IssuesDeleteToEachLink(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := &Controller{appLinkClient: &http.Client{Timeout: time.Second}}
	ti := &model.TaskInstance{ID: 1, AppLinksRaw: `["` + srv.URL + `/app1", "` + srv.URL + `/app2"]`}

	c.killAppLinks(context.Background(), ti)

	assert.Equal(t, 2, hits)
}

func TestKillAppLinks_NonSuccessStatusDoesNotPanic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Controller{appLinkClient: &http.Client{Timeout: time.Second}}
	ti := &model.TaskInstance{ID: 1, AppLinksRaw: `["` + srv.URL + `"]`}

	assert.NotPanics(t, func() { c.killAppLinks(context.Background(), ti) })
}

func TestKillAppLinks_NoLinksIsNoOp(t *testing.T) {
	c := &Controller{appLinkClient: &http.Client{Timeout: time.Second}}
	ti := &model.TaskInstance{ID: 1}

	assert.NotPanics(t, func() { c.killAppLinks(context.Background(), ti) })
}
