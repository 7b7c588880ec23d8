package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthCheckHandler struct {
	components []component
	timeout    time.Duration
}

type component struct {
	name   string
	isCore bool
	pinger Pinger
}

// NewHealthCheckHandler probes the audit database (core) and the account
// backend (non-core). A nil pinger is left out of the report.
func NewHealthCheckHandler(database, backend Pinger) *HealthCheckHandler {
	h := &HealthCheckHandler{timeout: 2 * time.Second}
	if database != nil {
		h.components = append(h.components, component{name: "database", isCore: true, pinger: database})
	}
	if backend != nil {
		h.components = append(h.components, component{name: "backend", pinger: backend})
	}
	return h
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Uptime     string            `json:"uptime"`
	Components []ComponentStatus `json:"components,omitempty"`
}

type ComponentStatus struct {
	Name    string        `json:"name"`
	Status  string        `json:"status"`
	IsCore  bool          `json:"is_core"` // 关键组件标识
	Latency time.Duration `json:"latency,omitempty"`
	Error   string        `json:"error,omitempty"`
}

var startupTime = time.Now()

// AdvancedHealthCheck 增强的健康检查接口
func (h *HealthCheckHandler) AdvancedHealthCheck(ctx context.Context, c *app.RequestContext) {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(startupTime).Truncate(time.Second).String(),
	}
	for _, comp := range h.components {
		status.Components = append(status.Components, h.check(ctx, comp))
	}

	if hasCriticalErrors(status.Components) {
		status.Status = "degraded"
		c.JSON(503, status)
		return
	}

	c.JSON(200, status)
}

func (h *HealthCheckHandler) check(ctx context.Context, comp component) ComponentStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := comp.pinger.Ping(ctx)
	st := ComponentStatus{
		Name:    comp.name,
		Status:  "ok",
		IsCore:  comp.isCore,
		Latency: time.Since(start),
	}
	if err != nil {
		st.Status = "down"
		st.Error = err.Error()
	}
	return st
}

func hasCriticalErrors(components []ComponentStatus) bool {
	for _, comp := range components {
		// 核心组件状态异常或任意组件发生严重错误
		if (comp.IsCore && comp.Status != "ok") || comp.Status == "critical" {
			return true
		}
	}
	return false
}
