package ops

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jgirmay/radlearn/internal/common/health"
	"github.com/jgirmay/radlearn/internal/metrics"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestOpsRouter(t *testing.T) {
	m := metrics.New()
	m.LevelUps.Inc()
	h := NewRouter(m, health.NewHealthChecker(pinger{}, "test"))

	w := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "radlearn_level_ups_total 1")

	assert.Equal(t, http.StatusOK, get(h, "/health/").Code)
	assert.Equal(t, http.StatusOK, get(h, "/health/readiness").Code)
	assert.JSONEq(t, `{"alive":true}`, get(h, "/health/liveness").Body.String())
}

func TestOpsRouter_StorageDown(t *testing.T) {
	h := NewRouter(metrics.New(), health.NewHealthChecker(pinger{err: errors.New("down")}, "test"))

	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/health/readiness").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/health/").Code)
}
