package health

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Pinger is anything whose reachability gates readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the overall health of the application
type HealthStatus struct {
	Status    string                 `json:"status"` // "healthy", "degraded"
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Duration  int64                  `json:"duration_ms"`
}

// ComponentHealth represents health of a single component
type ComponentHealth struct {
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type SystemMetrics struct {
	MemoryUsageMB  uint64 `json:"memory_usage_mb"`
	GoroutineCount int    `json:"goroutine_count"`
	CPUNumCores    int    `json:"cpu_num_cores"`
	Uptime         int64  `json:"uptime_seconds"`
}

const (
	maxGoroutines = 10000
	maxMemoryMB   = 500
	pingTimeout   = 2 * time.Second
)

// HealthChecker reports on the storage backend and the process.
type HealthChecker struct {
	store     Pinger
	version   string
	startTime time.Time

	mu              sync.RWMutex
	lastCheckStatus string
}

func NewHealthChecker(store Pinger, version string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		version:   version,
		startTime: time.Now(),
	}
}

// Check performs a complete health check
func (hc *HealthChecker) Check(ctx context.Context) HealthStatus {
	start := time.Now()
	status := HealthStatus{
		Timestamp: start,
		Version:   hc.version,
		Checks:    make(map[string]interface{}),
	}

	storageCheck := hc.checkStorage(ctx)
	status.Checks["storage"] = storageCheck

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryMB := m.Alloc / 1024 / 1024
	status.Checks["memory"] = map[string]interface{}{
		"healthy":      memoryMB < maxMemoryMB,
		"allocated_mb": memoryMB,
		"sys_mb":       m.Sys / 1024 / 1024,
		"num_gc":       m.NumGC,
	}

	goroutineCount := runtime.NumGoroutine()
	status.Checks["goroutines"] = map[string]interface{}{
		"count":   goroutineCount,
		"healthy": goroutineCount < maxGoroutines,
	}
	status.Checks["uptime_seconds"] = int64(time.Since(hc.startTime).Seconds())

	if storageCheck.Healthy && memoryMB < maxMemoryMB && goroutineCount < maxGoroutines {
		status.Status = "healthy"
	} else {
		status.Status = "degraded"
	}
	status.Duration = time.Since(start).Milliseconds()

	hc.mu.Lock()
	hc.lastCheckStatus = status.Status
	hc.mu.Unlock()

	return status
}

func (hc *HealthChecker) checkStorage(ctx context.Context) ComponentHealth {
	if hc.store == nil {
		return ComponentHealth{Error: "storage not initialized"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	if err := hc.store.Ping(ctx); err != nil {
		return ComponentHealth{Error: "storage ping failed: " + err.Error()}
	}
	return ComponentHealth{Healthy: true, LatencyMS: time.Since(start).Milliseconds()}
}

// IsHealthy reports the outcome of the last Check.
func (hc *HealthChecker) IsHealthy() bool {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.lastCheckStatus == "healthy"
}

// IsReady returns true if storage answers a ping.
func (hc *HealthChecker) IsReady(ctx context.Context) bool {
	return hc.checkStorage(ctx).Healthy
}

// IsAlive returns true if system is running
func (hc *HealthChecker) IsAlive() bool {
	return true
}

func (hc *HealthChecker) GetMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		MemoryUsageMB:  m.Alloc / 1024 / 1024,
		GoroutineCount: runtime.NumGoroutine(),
		CPUNumCores:    runtime.NumCPU(),
		Uptime:         int64(time.Since(hc.startTime).Seconds()),
	}
}
