package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
)

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// StoreStats reports dataset store contents.
type StoreStats interface {
	Stats() store.Stats
}

// HealthService provides health check functionality
type HealthService struct {
	version      string
	buildTime    string
	registry     string
	store        StoreStats
	hub          ClientCounter
	insightsMode insights.Mode
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

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	Datasets         int     `json:"datasets"`
	NormalizedSets   int     `json:"normalized_datasets"`
	TotalRows        int     `json:"total_rows"`
	WebSocketClients int     `json:"websocket_clients"`
	InsightsMode     string  `json:"insights_mode"`
	RegistryVersion  string  `json:"registry_version"`
	Goroutines       int     `json:"goroutines"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// HealthDeps are the collaborators reported on by HealthService.
type HealthDeps struct {
	Version         string
	BuildTime       string
	RegistryVersion string
	Store           StoreStats
	Hub             ClientCounter
	InsightsMode    insights.Mode
	Logger          *slog.Logger
}

// NewHealthService creates a new health service
func NewHealthService(deps HealthDeps) *HealthService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", deps.Version),
		slog.String("build_time", deps.BuildTime))

	return &HealthService{
		version:      deps.Version,
		buildTime:    deps.BuildTime,
		registry:     deps.RegistryVersion,
		store:        deps.Store,
		hub:          deps.Hub,
		insightsMode: deps.InsightsMode,
		startTime:    time.Now(),
		logger:       logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	hs.logger.DebugContext(ctx, "health check completed",
		slog.String("status", status.Status),
		slog.Duration("uptime", time.Since(hs.startTime)))
	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"store":     hs.checkStoreHealth(),
			"websocket": hs.checkWebSocketHealth(),
			"insights":  hs.checkInsightsHealth(),
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":          hs.version,
		"registry_version": hs.registry,
		"go_version":       runtime.Version(),
		"os":               runtime.GOOS,
		"arch":             runtime.GOARCH,
		"uptime":           time.Since(hs.startTime).Seconds(),
		"start_time":       hs.startTime.Format(time.RFC3339),
		"current_time":     time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds:   time.Since(hs.startTime).Seconds(),
		InsightsMode:    string(hs.insightsMode),
		RegistryVersion: hs.registry,
		Goroutines:      runtime.NumGoroutine(),
		GoVersion:       runtime.Version(),
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
	}
	if hs.store != nil {
		st := hs.store.Stats()
		stats.Datasets = st.Datasets
		stats.NormalizedSets = st.Normalized
		stats.TotalRows = st.TotalRows
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	return stats
}

func (hs *HealthService) checkStoreHealth() ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "dataset store not initialized"}
	}
	return ServiceHealth{Status: "ready", Message: "dataset store is healthy"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "WebSocket service is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkInsightsHealth is informational; the rule engine is always available as a fallback.
func (hs *HealthService) checkInsightsHealth() ServiceHealth {
	return ServiceHealth{Status: "ready", Message: "insights mode: " + string(hs.insightsMode)}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     hs.SystemStats(ctx),
	}
}
