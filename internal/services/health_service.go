package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// SessionCounter reports how many sessions are live
type SessionCounter interface {
	Len() int
}

// HealthService provides health check functionality
type HealthService struct {
	version       string
	sampleFile    string
	sessions      SessionCounter
	sheetsEnabled bool
	startTime     time.Time
	logger        *slog.Logger
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
}

// NewHealthService creates a new health service
func NewHealthService(version, sampleFile string, sessions SessionCounter, sheetsEnabled bool, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("sample_file", sampleFile),
		slog.Bool("sheets_enabled", sheetsEnabled))

	return &HealthService{
		version:       version,
		sampleFile:    sampleFile,
		sessions:      sessions,
		sheetsEnabled: sheetsEnabled,
		startTime:     time.Now(),
		logger:        logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports the state of each data source. The server is
// ready as long as uploads work; a missing sample file or an unconfigured
// Sheets source only disables those buttons.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"upload": ServiceHealth{Status: "ready"},
			"sample": hs.checkSample(),
			"sheets": hs.checkSheets(),
		},
	}

	if hs.sessions != nil {
		status.Services["sessions"] = ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("%d active", hs.sessions.Len()),
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
	return map[string]interface{}{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"uptime":     time.Since(hs.startTime).Seconds(),
		"start_time": hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkSample() ServiceHealth {
	if hs.sampleFile == "" {
		return ServiceHealth{Status: "unavailable", Message: "no sample file configured"}
	}
	if _, err := os.Stat(hs.sampleFile); err != nil {
		return ServiceHealth{Status: "unavailable", Message: fmt.Sprintf("sample file not found: %s", hs.sampleFile)}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkSheets() ServiceHealth {
	if !hs.sheetsEnabled {
		return ServiceHealth{Status: "disabled"}
	}
	return ServiceHealth{Status: "ready"}
}
