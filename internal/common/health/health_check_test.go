package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheck_Healthy(t *testing.T) {
	hc := NewHealthChecker(pinger{}, "test")

	status := hc.Check(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "test", status.Version)
	assert.Contains(t, status.Checks, "storage")
	assert.True(t, hc.IsHealthy())
	assert.True(t, hc.IsReady(context.Background()))
	assert.True(t, hc.IsAlive())
}

func TestCheck_StorageDown(t *testing.T) {
	hc := NewHealthChecker(pinger{err: errors.New("connection refused")}, "test")

	status := hc.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, hc.IsHealthy())
	assert.False(t, hc.IsReady(context.Background()))

	storage := status.Checks["storage"].(ComponentHealth)
	assert.Contains(t, storage.Error, "connection refused")
}

func TestNilStoreNotReady(t *testing.T) {
	hc := NewHealthChecker(nil, "test")
	assert.False(t, hc.IsReady(context.Background()))
	assert.Greater(t, hc.GetMetrics().CPUNumCores, 0)
}
