package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"sentipulse/internal/config"
	"sentipulse/internal/infrastructure"
	ws "sentipulse/internal/websocket"
)

// HealthService provides health check functionality
type HealthService struct {
	version      string
	cfg          *config.Config
	webSocketHub *ws.Hub
	startTime    time.Time
	logger       *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, cfg *config.Config, webSocketHub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HealthService{
		version:      version,
		cfg:          cfg,
		webSocketHub: webSocketHub,
		startTime:    time.Now(),
		logger:       logger.With(slog.String("component", "health_service")),
	}
}

// GetHealthStatus reports overall service health. The service stays "ok"
// even when credentials are missing; the individual checks expose which
// integrations are usable.
func (s *HealthService) GetHealthStatus(ctx context.Context) *HealthStatus {
	services := map[string]interface{}{
		"gemini":     credentialStatus(s.cfg.Gemini.APIKey != ""),
		"automation": credentialStatus(s.cfg.Automation.APIKey != ""),
	}
	if s.webSocketHub != nil {
		services["websocket"] = map[string]interface{}{
			"status":  "ok",
			"clients": s.webSocketHub.ClientCount(),
		}
	}

	return &HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   s.version,
		Runtime: map[string]interface{}{
			"uptime_seconds": time.Since(s.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
		Services: services,
	}
}

func credentialStatus(configured bool) map[string]interface{} {
	status := "ok"
	if !configured {
		status = "unconfigured"
	}
	return map[string]interface{}{"status": status}
}
